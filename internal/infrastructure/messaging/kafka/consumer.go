package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// Handler processes one decoded event envelope.  Returning an error leaves
// the message uncommitted so it is redelivered.
type Handler func(ctx context.Context, envelope EventEnvelope) error

// Consumer reads enveloped events from one topic within a consumer group.
type Consumer struct {
	reader *kafka.Reader
	logger logging.Logger
}

// NewConsumer builds a group consumer for the given topic.
func NewConsumer(cfg config.KafkaConfig, topic string, logger logging.Logger) *Consumer {
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       topic,
			StartOffset: startOffset,
			MinBytes:    1,
			MaxBytes:    10 << 20,
		}),
		logger: logger.Named("kafka-consumer").With(logging.String("topic", topic)),
	}
}

// Run consumes until ctx is cancelled.  Malformed envelopes are logged and
// committed so a poison message cannot wedge the partition; handler errors
// skip the commit, but the group reader still advances past the message in
// memory, so it is redelivered only after a restart or rebalance.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return apperrors.Wrap(err, apperrors.ErrCodeMessagingError, "fetching message")
		}

		var envelope EventEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			c.logger.Error("dropping malformed event",
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeMessagingError, "committing offset")
			}
			continue
		}

		if err := handler(ctx, envelope); err != nil {
			c.logger.Error("event handler failed",
				logging.String("event_id", envelope.EventID),
				logging.String("event_type", envelope.EventType),
				logging.Err(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeMessagingError, "committing offset")
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
