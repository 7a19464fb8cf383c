// Package bus consumes NSP fault notifications from the server's Kafka
// listener.
//
// # Design
//
// The consumer joins a consumer group and reads the fault topic with
// manual offset commits. A message's offset is committed only after the
// handler processed it successfully, so messages that fail on transient
// store errors are redelivered after a restart. Transport errors are
// logged and the loop keeps polling; the broker connection is NSP's
// responsibility to restore.
package bus

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageSource is the subset of kafka.Reader the consumer drives.
// Tests substitute an in-memory source.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes a single bus payload. A returned error means the
// message's offset must not be committed so the bus redelivers it.
type Handler interface {
	Process(ctx context.Context, payload []byte) error
}

// ReaderConfig carries the Kafka connection settings for the fault topic.
type ReaderConfig struct {
	Broker  string
	Topic   string
	GroupID string
	TLS     *tls.Config
}

// NewReader builds a kafka.Reader joined to the fault topic's consumer
// group. New groups start at the latest offset, matching the upstream
// subscription model where history replay is not wanted.
func NewReader(cfg ReaderConfig, logger *slog.Logger) *kafka.Reader {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
		TLS:       cfg.TLS,
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Broker},
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Dialer:      dialer,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...), "component", "kafka")
		}),
	})
}

// Consumer drives the poll loop over the fault topic.
type Consumer struct {
	source  MessageSource
	handler Handler
	logger  *slog.Logger

	// fetchBackoff paces retries after transport errors.
	fetchBackoff time.Duration
}

// NewConsumer wires a message source to a handler.
func NewConsumer(source MessageSource, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		source:       source,
		handler:      handler,
		logger:       logger.With("component", "consumer"),
		fetchBackoff: time.Second,
	}
}

// Run polls the fault topic until ctx is canceled. It always returns
// nil on cancellation so shutdown is not reported as a failure.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("kafka consumer started")

	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("kafka consumer stopped")
				return nil
			}
			c.logger.Error("kafka fetch failed", "error", err)
			select {
			case <-ctx.Done():
				c.logger.Info("kafka consumer stopped")
				return nil
			case <-time.After(c.fetchBackoff):
			}
			continue
		}

		if err := c.handler.Process(ctx, msg.Value); err != nil {
			// The offset stays uncommitted so the message is
			// redelivered after a restart.
			c.logger.Error("message processing failed, offset not committed",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset)
			continue
		}

		if err := c.source.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("kafka consumer stopped")
				return nil
			}
			c.logger.Error("kafka commit failed", "error", err,
				"partition", msg.Partition,
				"offset", msg.Offset)
		}
	}
}

// Close releases the underlying reader's group membership.
func (c *Consumer) Close() error {
	return c.source.Close()
}
