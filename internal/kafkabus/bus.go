// v0
// internal/kafkabus/bus.go
package kafkabus

import (
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Bus builds readers and writers against one broker set.
type Bus struct {
	brokers []string
	log     *slog.Logger
}

// New returns a factory for readers and writers on brokers.
func New(brokers []string, log *slog.Logger) *Bus {
	return &Bus{brokers: brokers, log: log.With(slog.String("component", "kafka-bus"))}
}

// Enabled reports whether any broker was configured.
func (b *Bus) Enabled() bool { return b != nil && len(b.brokers) > 0 }

// Brokers returns the configured bootstrap list.
func (b *Bus) Brokers() []string { return b.brokers }

// Reader opens a consumer-group reader on topic.
func (b *Bus) Reader(topic string, group string) *kafka.Reader {
	b.log.Info("kafka_reader_created", slog.String("topic", topic), slog.String("group", group))
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     group,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
}

// Writer opens a key-hashed synchronous writer on topic.
func (b *Bus) Writer(topic string) *kafka.Writer {
	b.log.Info("kafka_writer_created", slog.String("topic", topic))
	return &kafka.Writer{
		Addr:         kafka.TCP(b.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}
