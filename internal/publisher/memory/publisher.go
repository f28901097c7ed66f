// Package memory contains an in-process publisher used by tests and dry runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Publisher keeps published payloads encoded exactly as they would go on the wire.
type Publisher struct {
	mu       sync.RWMutex
	messages []PublishedMessage
	err      error
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic string
	Data  []byte
}

// Decode unmarshals the message body into v.
func (m PublishedMessage) Decode(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish return err. A nil err restores success.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish encodes the payload as JSON, records it and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Data: data})
	return fmt.Sprintf("memory-%d", len(p.messages)), nil
}

// Messages returns the recorded publishes.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
