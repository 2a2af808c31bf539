// Package kafkasink publishes audit events to the audit topic. The consumer
// side materializes them into Postgres, so Kafka is the durable record of
// what was emitted.
package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"

	"studygate/pkg/audit"
)

// Producer is the subset of the Kafka producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Sink publishes one record per event, keyed by correlation ID so events
// from one request land on one partition in emission order.
type Sink struct {
	producer Producer
	topic    string
}

// New creates a sink publishing to the given topic.
func New(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// Deliver publishes the event as JSON.
func (s *Sink) Deliver(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.producer.Produce(ctx, s.topic, []byte(event.CorrelationID), payload); err != nil {
		return fmt.Errorf("publish audit event %s: %w", event.EventCode, err)
	}
	return nil
}
