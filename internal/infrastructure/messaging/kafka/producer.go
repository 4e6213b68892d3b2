package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// EventEnvelope wraps every published message with identity and timing
// metadata so consumers can deduplicate and trace.
type EventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Producer publishes enveloped events to Kafka topics.
type Producer struct {
	writer *kafka.Writer
	logger logging.Logger
}

// NewProducer builds a producer for the configured brokers.  Messages are
// keyed so that events for one dataset stay ordered within a partition.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			MaxAttempts:  cfg.ProducerRetries,
			BatchTimeout: cfg.BatchTimeout,
			RequiredAcks: kafka.RequireAll,
		},
		logger: logger.Named("kafka-producer"),
	}
}

// Publish envelopes payload and writes it to topic under key.
func (p *Producer) Publish(ctx context.Context, topic, eventType, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding event payload")
	}

	envelope := EventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding event envelope")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeMessagingError, "publishing event").
			WithDetail("topic: " + topic)
	}

	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_type", eventType),
		logging.String("event_id", envelope.EventID))
	return nil
}

// PublishDatasetEvent publishes a dataset lifecycle event keyed by dataset.
func (p *Producer) PublishDatasetEvent(ctx context.Context, eventType string, event DatasetEvent) error {
	return p.Publish(ctx, TopicDatasetEvents, eventType, event.DatasetID, event)
}

// EnqueueFetchJob queues a ChEMBL fetch job for the worker.
func (p *Producer) EnqueueFetchJob(ctx context.Context, job FetchJob) error {
	return p.Publish(ctx, TopicFetchJobs, "fetch.requested", job.JobID, job)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
