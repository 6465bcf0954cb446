// Package events publishes log-append notifications to Kafka so
// downstream consumers can follow topics without polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/parley-labs/parley/internal/logstore"
)

// EntryAppended is the payload written for every accepted append.
type EntryAppended struct {
	Topic     string `json:"topic"`
	Agent     string `json:"agent"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Producer wraps a Kafka producer. A nil *Producer is valid and
// publishes nothing, so wiring stays unconditional at call sites.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer for the append-events topic.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka producer initialized")

	return &Producer{writer: writer, topic: topic}
}

// PublishEntryAppended publishes an append notification keyed by log
// topic, so all events for one topic land on one partition in order.
func (p *Producer) PublishEntryAppended(ctx context.Context, entry logstore.Entry, logTopic, traceID string) error {
	if p == nil {
		return nil
	}

	msg := EntryAppended{
		Topic:     logTopic,
		Agent:     entry.Agent,
		Timestamp: entry.Timestamp,
		TraceID:   traceID,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal append event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(logTopic),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to write append event to kafka: %w", err)
	}

	log.Debug().
		Str("log_topic", logTopic).
		Str("agent", entry.Agent).
		Str("topic", p.topic).
		Msg("Append event published to Kafka")

	return nil
}

// Close closes the producer. Safe on nil.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	log.Info().Msg("Closing Kafka producer")
	return p.writer.Close()
}
