// Package events publishes job lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/voxsub/voxsub/internal/metrics"
)

// Event types published to the completion topic.
const (
	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// JobEvent is the payload published when a job finishes.
type JobEvent struct {
	EventType    string   `json:"eventType"`
	JobID        string   `json:"jobId"`
	RequestName  string   `json:"requestName"`
	SourceType   string   `json:"sourceType"`
	Language     string   `json:"language,omitempty"`
	Speakers     []string `json:"speakers,omitempty"`
	DurationSecs float64  `json:"durationSeconds,omitempty"`
	VTTPath      string   `json:"vttPath,omitempty"`
	Error        string   `json:"error,omitempty"`
	Timestamp    int64    `json:"timestamp"`
}

// Publisher publishes job events. When no brokers are configured it runs in
// log-only mode and publishing always succeeds.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// New creates a publisher. Passing no brokers yields log-only mode.
func New(brokers []string, topic string) *Publisher {
	m := metrics.Default

	if len(brokers) == 0 || topic == "" {
		log.Info().Msg("kafka disabled, publishing events to log only")
		return &Publisher{topic: topic, metrics: m}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka publisher initialized")
	return &Publisher{writer: writer, topic: topic, enabled: true, metrics: m}
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool { return p.enabled }

// Publish sends a job event keyed by job ID.
func (p *Publisher) Publish(ctx context.Context, event JobEvent) error {
	event.Timestamp = time.Now().UnixMilli()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	log.Debug().
		Str("topic", p.topic).
		Str("jobId", event.JobID).
		RawJSON("payload", payload).
		Msg("publishing event")

	if !p.enabled {
		p.metrics.RecordEvent(nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.JobID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	if err != nil {
		log.Error().Err(err).Str("jobId", event.JobID).Msg("failed to write event to kafka")
	}
	p.metrics.RecordEvent(err)
	return err
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
