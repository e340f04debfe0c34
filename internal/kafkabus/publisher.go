// v0
// internal/kafkabus/publisher.go
package kafkabus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/circuitbreaker"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ScanPublisher forwards logged scans to a topic keyed by user id, so every
// user's events stay ordered within one partition.
type ScanPublisher struct {
	w       messageWriter
	breaker *circuitbreaker.Breaker
	topic   string
	log     *slog.Logger
}

// NewScanPublisher wraps w with breaker. A nil breaker writes unguarded.
func NewScanPublisher(w messageWriter, topic string, breaker *circuitbreaker.Breaker, log *slog.Logger) *ScanPublisher {
	return &ScanPublisher{
		w:       w,
		breaker: breaker,
		topic:   topic,
		log:     log.With(slog.String("component", "scan-publisher"), slog.String("topic", topic)),
	}
}

// NewScanPublisherFromBus creates the writer for topic on bus.
func NewScanPublisherFromBus(bus *Bus, topic string, breaker *circuitbreaker.Breaker) *ScanPublisher {
	return NewScanPublisher(bus.Writer(topic), topic, breaker, bus.log)
}

// PublishLogged writes the stored event as JSON.
func (p *ScanPublisher) PublishLogged(ctx context.Context, e scan.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode scan %s: %w", e.ID, err)
	}
	msg := kafka.Message{Key: []byte(e.UserID), Value: value, Time: e.Timestamp}
	write := func(ctx context.Context) error {
		return p.w.WriteMessages(ctx, msg)
	}
	if p.breaker != nil {
		err = p.breaker.Execute(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return fmt.Errorf("publish scan %s: %w", e.ID, err)
	}
	p.log.Debug("scan_published", slog.String("id", e.ID))
	return nil
}

// Close flushes and closes the writer.
func (p *ScanPublisher) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
