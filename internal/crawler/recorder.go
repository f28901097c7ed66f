package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProjectEvent is the message published for every written project row.
type ProjectEvent struct {
	RunID      string    `json:"run_id"`
	Hash       string    `json:"hash"`
	Name       string    `json:"name"`
	FloorCount int       `json:"floor_count"`
	RoomCount  int       `json:"room_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// PublishRecorder forwards written records to a Publisher topic.
type PublishRecorder struct {
	publisher Publisher
	topic     string
	clock     Clock
}

// NewPublishRecorder builds a PublishRecorder. clock may be nil.
func NewPublishRecorder(publisher Publisher, topic string, clock Clock) (*PublishRecorder, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &PublishRecorder{publisher: publisher, topic: topic, clock: clock}, nil
}

// Name implements Recorder.
func (r *PublishRecorder) Name() string {
	return "pubsub"
}

// Record implements Recorder.
func (r *PublishRecorder) Record(ctx context.Context, run RunInfo, record ProjectRecord) error {
	ts := time.Now().UTC()
	if r.clock != nil {
		ts = r.clock.Now()
	}
	event := ProjectEvent{
		RunID:      run.ID,
		Hash:       record.Hash,
		Name:       record.Name,
		FloorCount: record.FloorCount,
		RoomCount:  record.RoomCount,
		Timestamp:  ts,
	}
	if _, err := r.publisher.Publish(ctx, r.topic, event); err != nil {
		return fmt.Errorf("publish project event: %w", err)
	}
	return nil
}
