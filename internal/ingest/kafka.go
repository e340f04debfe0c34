// v0
// internal/ingest/kafka.go
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/circuitbreaker"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/kafkabus"
)

// KafkaConfig captures the consumer tunables.
type KafkaConfig struct {
	Topic       string
	GroupID     string
	PollTimeout time.Duration
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// breakerReader guards fetches with a circuit breaker. Idle poll timeouts are
// not failures of the broker.
type breakerReader struct {
	messageReader
	breaker *circuitbreaker.Breaker
}

// FetchMessage fetches through the breaker.
func (r breakerReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	var (
		msg  kafka.Message
		idle bool
	)
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		m, err := r.messageReader.FetchMessage(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			idle = true
			return nil
		}
		msg = m
		return err
	})
	if idle {
		return kafka.Message{}, context.DeadlineExceeded
	}
	return msg, err
}

// KafkaConsumer streams raw scans from a topic into the service.
type KafkaConsumer struct {
	cfg    KafkaConfig
	reader messageReader
	proc   *Processor
	log    *slog.Logger
	poll   time.Duration
}

// NewKafkaConsumer builds a group reader on bus. A nil breaker leaves fetches unguarded.
func NewKafkaConsumer(bus *kafkabus.Bus, cfg KafkaConfig, proc *Processor, breaker *circuitbreaker.Breaker, log *slog.Logger) (*KafkaConsumer, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if !bus.Enabled() {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("scan topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("consumer group must not be empty")
	}
	var reader messageReader = bus.Reader(cfg.Topic, cfg.GroupID)
	if breaker != nil {
		reader = breakerReader{messageReader: reader, breaker: breaker}
	}
	return newKafkaConsumer(cfg, reader, proc, log), nil
}

func newKafkaConsumer(cfg KafkaConfig, reader messageReader, proc *Processor, log *slog.Logger) *KafkaConsumer {
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &KafkaConsumer{
		cfg:    cfg,
		reader: reader,
		proc:   proc,
		log:    log.With(slog.String("component", "kafka-consumer")),
		poll:   poll,
	}
}

// Close closes the underlying reader.
func (c *KafkaConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run blocks until the context is cancelled or the reader is closed. Every
// fetched message is committed once handled, whatever its result.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	c.log.Info("kafka_consumer_started",
		slog.String("topic", c.cfg.Topic),
		slog.String("group", c.cfg.GroupID),
		slog.Duration("poll_timeout", c.poll))
	defer c.log.Info("kafka_consumer_stopped")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			c.log.Error("kafka_consumer_fetch_error", slog.Any("err", err))
			if errors.Is(err, circuitbreaker.ErrOpen) {
				if !sleepCtx(ctx, c.poll) {
					return ctx.Err()
				}
			}
			continue
		}

		result := c.proc.Handle(ctx, msg.Value)
		c.log.Debug("kafka_message_handled",
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.String("result", result))

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
				c.log.Error("kafka_consumer_commit_error", slog.Any("err", err))
			}
		}
		commitCancel()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
