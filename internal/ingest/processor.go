// v0
// internal/ingest/processor.go
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/catalog"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/store"
)

// Results reported to the Recorder for each message.
const (
	ResultLogged      = "logged"
	ResultDecodeError = "decode_error"
	ResultRejected    = "rejected"
	ResultFailed      = "failed"
)

type scanLogger interface {
	Log(ctx context.Context, e scan.Event, source string) (scan.Event, error)
}

type itemLookup interface {
	Lookup(code string) (catalog.Item, error)
}

// Recorder counts processed messages per source and result.
type Recorder interface {
	IngestMessage(source, result string)
}

// ProcessorConfig tunes retries of transient store failures.
type ProcessorConfig struct {
	Source      string
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// Processor turns raw message bodies into logged scans.
type Processor struct {
	cfg   ProcessorConfig
	svc   scanLogger
	items itemLookup
	rec   Recorder
	log   *slog.Logger
}

// NewProcessor builds a processor. items and rec may be nil.
func NewProcessor(cfg ProcessorConfig, svc scanLogger, items itemLookup, rec Recorder, log *slog.Logger) *Processor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.Backoff {
		cfg.MaxBackoff = 5 * time.Second
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		cfg:   cfg,
		svc:   svc,
		items: items,
		rec:   rec,
		log:   log.With(slog.String("component", "ingest"), slog.String("source", cfg.Source)),
	}
}

// Handle decodes and logs one message. Transient store failures are retried
// with exponential backoff; everything else is reported and dropped.
func (p *Processor) Handle(ctx context.Context, raw []byte) string {
	payload, err := DecodeScan(raw)
	if err != nil {
		p.log.Warn("ingest_decode_error", slog.Any("err", err))
		return p.record(ResultDecodeError)
	}
	ev := p.complete(payload)

	delay := p.cfg.Backoff
	for attempt := 1; ; attempt++ {
		stored, err := p.svc.Log(ctx, ev, p.cfg.Source)
		switch {
		case err == nil:
			p.log.Debug("ingest_scan_logged", slog.String("id", stored.ID), slog.Int("attempt", attempt))
			return p.record(ResultLogged)
		case errors.Is(err, scan.ErrValidation):
			p.log.Warn("ingest_scan_rejected", slog.String("qr_code", ev.QRCode), slog.Any("err", err))
			return p.record(ResultRejected)
		case !errors.Is(err, store.ErrTransient) || attempt >= p.cfg.MaxAttempts:
			p.log.Error("ingest_scan_dropped",
				slog.String("qr_code", ev.QRCode),
				slog.String("user_id", ev.UserID),
				slog.Int("attempts", attempt),
				slog.Any("err", err))
			return p.record(ResultFailed)
		}

		p.log.Warn("ingest_store_unavailable", slog.Int("attempt", attempt), slog.Duration("retry_in", delay))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return p.record(ResultFailed)
		case <-timer.C:
		}
		delay *= 2
		if delay > p.cfg.MaxBackoff {
			delay = p.cfg.MaxBackoff
		}
	}
}

// complete fills name, category and weight from the catalog when the device
// only sent the label code.
func (p *Processor) complete(payload Payload) scan.Event {
	ev := payload.Event
	if p.items == nil {
		return ev
	}
	needName := strings.TrimSpace(ev.ItemName) == ""
	needCategory := strings.TrimSpace(string(ev.Category)) == ""
	if !needName && !needCategory && payload.WeightGiven {
		return ev
	}
	item, err := p.items.Lookup(ev.QRCode)
	if err != nil {
		return ev
	}
	if needName {
		ev.ItemName = item.Name
	}
	if needCategory {
		ev.Category = item.Category
	}
	if !payload.WeightGiven {
		ev.Weight = item.TypicalWeightKg
		ev.Unit = scan.UnitKilogram
	}
	return ev
}

func (p *Processor) record(result string) string {
	if p.rec != nil {
		p.rec.IngestMessage(p.cfg.Source, result)
	}
	return result
}
