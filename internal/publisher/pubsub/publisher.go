// Package pubsub implements a Google Cloud Pub/Sub publisher.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
)

// Publisher publishes JSON payloads through a Pub/Sub client, keeping one
// topic handle per topic name.
type Publisher struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// New creates a Publisher for the provided client.
func New(client *pubsub.Client) *Publisher {
	return &Publisher{client: client, topics: make(map[string]*pubsub.Topic)}
}

// Publish marshals the payload to JSON and publishes it to topic, waiting for
// the server-assigned message ID.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("pubsub client is not configured")
	}
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	msg := &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"content_type": "application/json"},
	}
	result := p.topic(topic).Publish(ctx, msg)
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Stop flushes and stops every topic handle this publisher opened.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, t := range p.topics {
		t.Stop()
		delete(p.topics, name)
	}
}

func (p *Publisher) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t
}
