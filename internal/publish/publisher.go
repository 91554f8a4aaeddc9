// Package publish writes alert events to the Kafka event stream for
// downstream consumers (audit, dashboards, paging escalation).
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
	"plantwatch/internal/models"
)

// Publisher errors
var (
	ErrPublisherClosed = errors.New("publisher is closed")
)

const (
	maxPublishRetries = 3
	initialBackoff    = 200 * time.Millisecond
)

// Publisher is a Kafka producer for alert events with retry
type Publisher struct {
	writer *kafka.Writer
	closed atomic.Bool

	// Metrics
	eventsSent   atomic.Uint64
	eventsFailed atomic.Uint64
}

// NewPublisher creates a publisher for the given brokers and topic
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Partition by key
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        false, // Sync for reliability
	}

	return &Publisher{writer: writer}, nil
}

// Publish sends one alert event to the stream
func (p *Publisher) Publish(ctx context.Context, event *models.AlertEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.eventsFailed.Add(1)
		metrics.AlertEventsPublished.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to serialize alert event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PartitionKey),
		Value: data,
		Headers: []kafka.Header{
			{Key: "domain", Value: []byte(event.Violation.Domain)},
			{Key: "violation_id", Value: []byte(event.Violation.ID)},
			{Key: "engine_node", Value: []byte(event.EngineNode)},
		},
		Time: event.EmittedAt,
	}

	if err := p.publishWithRetry(ctx, msg); err != nil {
		p.eventsFailed.Add(1)
		metrics.AlertEventsPublished.WithLabelValues("failed").Inc()
		return err
	}

	p.eventsSent.Add(1)
	metrics.AlertEventsPublished.WithLabelValues("success").Inc()
	return nil
}

// publishWithRetry publishes a message with exponential backoff retry
func (p *Publisher) publishWithRetry(ctx context.Context, msg kafka.Message) error {
	log := logger.WithComponent("alert_publisher")
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxPublishRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying alert event publish")
			metrics.AlertPublishRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}

		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxPublishRetries+1, lastErr)
}

// Stats holds publisher counters
type Stats struct {
	EventsSent   uint64 `json:"events_sent"`
	EventsFailed uint64 `json:"events_failed"`
}

// Stats returns publisher counters
func (p *Publisher) Stats() Stats {
	return Stats{
		EventsSent:   p.eventsSent.Load(),
		EventsFailed: p.eventsFailed.Load(),
	}
}

// Close flushes and closes the writer
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
