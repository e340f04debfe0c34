// v0
// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/achievement"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/cache"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/export"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/store"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/telemetry"
)

// ErrWindowTooLarge is returned for windows beyond the configured maximum.
var ErrWindowTooLarge = errors.New("window exceeds maximum")

// Source labels where a scan entered the system.
const (
	SourceHTTP    = "http"
	SourceKafka   = "kafka"
	SourceMQTT    = "mqtt"
	SourceCLI     = "cli"
	SourceFixture = "fixture"
)

// Publisher forwards logged events downstream. Failures never undo the append.
type Publisher interface {
	PublishLogged(ctx context.Context, e scan.Event) error
}

// Recorder receives service level measurements.
type Recorder interface {
	cache.Observer
	ScanLogged(category, source string)
	ScanRejected(source string)
	Aggregated(kind string, d time.Duration, skipped int)
	StoreError(op string)
}

// Options configures a Service.
type Options struct {
	DefaultWindowDays int
	MaxWindowDays     int
	CacheTTL          time.Duration
	Logger            *slog.Logger
	Recorder          Recorder
	Publisher         Publisher
	Tracer            trace.Tracer
	Now               func() time.Time
}

// Service is the write and read path over the event store.
type Service struct {
	store      store.Store
	reports    *cache.Cache[analytics.Series]
	tracker    *achievement.Tracker
	logger     *slog.Logger
	rec        Recorder
	pub        Publisher
	tracer     trace.Tracer
	now        func() time.Time
	defaultWin int
	maxWin     int
}

// New wires a service over st. Zero options fall back to defaults.
func New(st store.Store, opts Options) *Service {
	if opts.DefaultWindowDays < 1 {
		opts.DefaultWindowDays = 30
	}
	if opts.MaxWindowDays < opts.DefaultWindowDays {
		opts.MaxWindowDays = opts.DefaultWindowDays
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var obs cache.Observer
	if opts.Recorder != nil {
		obs = opts.Recorder
	}
	return &Service{
		store:      st,
		reports:    cache.New[analytics.Series](opts.CacheTTL, obs),
		tracker:    achievement.NewTracker(),
		logger:     opts.Logger.With(slog.String("component", "service")),
		rec:        opts.Recorder,
		pub:        opts.Publisher,
		tracer:     opts.Tracer,
		now:        opts.Now,
		defaultWin: opts.DefaultWindowDays,
		maxWin:     opts.MaxWindowDays,
	}
}

// DefaultWindowDays is the window applied when a caller does not pick one.
func (s *Service) DefaultWindowDays() int { return s.defaultWin }

// MaxWindowDays is the largest accepted window.
func (s *Service) MaxWindowDays() int { return s.maxWin }

// CheckWindow validates a requested window length.
func (s *Service) CheckWindow(days int) error {
	if days < 1 {
		return fmt.Errorf("%w: got %d", analytics.ErrInvalidWindow, days)
	}
	if days > s.maxWin {
		return fmt.Errorf("%w: %d > %d", ErrWindowTooLarge, days, s.maxWin)
	}
	return nil
}

// Log appends a scan event and invalidates every cached report it affects,
// so any read that starts after Log returns observes the event.
func (s *Service) Log(ctx context.Context, e scan.Event, source string) (scan.Event, error) {
	ctx, span := s.tracer.Start(ctx, "service.Log", trace.WithAttributes(
		attribute.String("ecosort.source", source),
		attribute.String("ecosort.category", string(e.Category)),
	))
	defer span.End()

	stored, err := s.store.Append(ctx, e)
	if err != nil {
		if errors.Is(err, scan.ErrValidation) {
			s.recordRejected(source)
			s.logger.Info("scan_rejected", slog.String("source", source), slog.String("reason", err.Error()))
			return scan.Event{}, err
		}
		return scan.Event{}, s.storeFailure(span, "append", err)
	}

	s.invalidate(stored.UserID)
	if s.rec != nil {
		s.rec.ScanLogged(string(stored.Category), source)
	}
	s.logger.Info("scan_logged",
		slog.String("id", stored.ID),
		slog.String("user_id", stored.UserID),
		slog.String("category", string(stored.Category)),
		slog.Float64("weight_kg", stored.WeightKg()),
		slog.String("source", source))

	if s.pub != nil && source != SourceKafka {
		if err := s.pub.PublishLogged(ctx, stored); err != nil {
			s.logger.Warn("scan_publish_failed", slog.String("id", stored.ID), slog.String("error", err.Error()))
		}
	}
	return stored, nil
}

// History returns the user's events since the given instant, newest first.
func (s *Service) History(ctx context.Context, userID string, since time.Time) ([]scan.Event, error) {
	ctx, span := s.tracer.Start(ctx, "service.History")
	defer span.End()

	events, err := s.store.Query(ctx, store.Filter{UserID: userID, Since: since})
	if err != nil {
		return nil, s.storeFailure(span, "query", err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
	return events, nil
}

// Stats summarises the user's entire history.
type Stats struct {
	TotalScans        int                   `json:"totalScans"`
	CategoryWiseCount map[scan.Category]int `json:"categoryWiseCount"`
	Skipped           int                   `json:"skipped"`
}

// Stats counts every stored event of the user by category.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	ctx, span := s.tracer.Start(ctx, "service.Stats")
	defer span.End()

	events, err := s.store.Query(ctx, store.Filter{UserID: userID})
	if err != nil {
		return Stats{}, s.storeFailure(span, "query", err)
	}
	st := Stats{CategoryWiseCount: make(map[scan.Category]int, len(scan.Categories))}
	for _, c := range scan.Categories {
		st.CategoryWiseCount[c] = 0
	}
	for _, e := range events {
		if !e.Category.Valid() {
			st.Skipped++
			continue
		}
		st.CategoryWiseCount[e.Category]++
		st.TotalScans++
	}
	return st, nil
}

// Analytics returns the zero-filled daily series for the window ending today (UTC).
func (s *Service) Analytics(ctx context.Context, userID string, days int) (analytics.Series, error) {
	return s.series(ctx, "analytics", userID, days)
}

// Dashboard is the full derived view of one window.
type Dashboard struct {
	UserID        string                  `json:"userId,omitempty"`
	WindowDays    int                     `json:"windowDays"`
	Basis         analytics.Basis         `json:"basis"`
	Series        []analytics.DailyBucket `json:"series"`
	Skipped       int                     `json:"skipped"`
	Totals        analytics.Totals        `json:"totals"`
	Shares        map[scan.Category]int   `json:"shares"`
	RecyclingRate int                     `json:"recyclingRate"`
	Impact        analytics.Impact        `json:"impact"`
	ActiveDays    int                     `json:"activeDays"`
	Achievements  []achievement.Badge     `json:"achievements"`
	NewlyUnlocked []achievement.ID        `json:"newlyUnlocked"`
}

// Dashboard derives totals, shares, impact and achievements from the window's series.
func (s *Service) Dashboard(ctx context.Context, userID string, days int, basis analytics.Basis) (Dashboard, error) {
	series, err := s.series(ctx, "dashboard", userID, days)
	if err != nil {
		return Dashboard{}, err
	}
	buckets := series.Buckets
	totals := analytics.TotalsOf(buckets)
	active := analytics.DistinctActiveDays(buckets)

	newly, current := s.tracker.Merge(cache.Scope(userID), achievement.Evaluate(totals.Total, active, totals))
	for _, id := range newly {
		s.logger.Info("achievement_unlocked", slog.String("user_id", userID), slog.String("achievement", string(id)))
	}
	if newly == nil {
		newly = []achievement.ID{}
	}

	return Dashboard{
		UserID:        userID,
		WindowDays:    series.WindowDays,
		Basis:         basis,
		Series:        buckets,
		Skipped:       series.Skipped,
		Totals:        totals,
		Shares:        analytics.Shares(totals, basis),
		RecyclingRate: analytics.RecyclingRate(totals, basis),
		Impact:        analytics.ImpactOf(totals),
		ActiveDays:    active,
		Achievements:  achievement.Badges(current),
		NewlyUnlocked: newly,
	}, nil
}

// Export assembles the take-away document for the window.
func (s *Service) Export(ctx context.Context, userID string, days int) (export.Document, error) {
	if err := s.CheckWindow(days); err != nil {
		return export.Document{}, err
	}
	ctx, span := s.tracer.Start(ctx, "service.Export", trace.WithAttributes(attribute.Int("ecosort.window_days", days)))
	defer span.End()

	now := s.now().UTC()
	events, err := s.store.Query(ctx, store.Filter{UserID: userID, Since: analytics.WindowStart(days, now)})
	if err != nil {
		return export.Document{}, s.storeFailure(span, "query", err)
	}
	series, err := analytics.Aggregate(events, days, now)
	if err != nil {
		return export.Document{}, err
	}
	// the event list carries exactly what the series counted
	last := scan.DayKey(now)
	counted := make([]scan.Event, 0, len(events))
	for _, e := range events {
		if e.Day() <= last && e.Category.Valid() {
			counted = append(counted, e)
		}
	}
	events = counted
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	totals := analytics.TotalsOf(series.Buckets)
	return export.Document{
		ExportDate: now,
		UserID:     userID,
		WindowDays: days,
		Events:     events,
		Series:     series.Buckets,
		Totals:     totals,
		Impact:     analytics.ImpactOf(totals),
	}, nil
}

// Clear wipes the store. It is reachable from the administrative CLI only.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	n, err := s.store.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear store: %w", err)
	}
	s.reports.Purge()
	s.logger.Warn("store_cleared", slog.Int64("deleted", n))
	return n, nil
}

// Ready reports whether the backing engine answers.
func (s *Service) Ready(ctx context.Context) error {
	if p, ok := s.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// series reads and aggregates one window, serving repeated reads from the cache.
func (s *Service) series(ctx context.Context, kind, userID string, days int) (analytics.Series, error) {
	if err := s.CheckWindow(days); err != nil {
		return analytics.Series{}, err
	}
	ctx, span := s.tracer.Start(ctx, "service."+kind, trace.WithAttributes(
		attribute.Int("ecosort.window_days", days),
		attribute.Bool("ecosort.all_users", userID == ""),
	))
	defer span.End()

	now := s.now().UTC()
	scope := cache.Scope(userID)
	key := cache.ReportKey("series", userID, days, "", now)
	if cached, ok := s.reports.Get(scope, key); ok {
		span.SetAttributes(attribute.Bool("ecosort.cache_hit", true))
		return cached, nil
	}
	tok := s.reports.Snapshot(scope)

	start := time.Now()
	events, err := s.store.Query(ctx, store.Filter{UserID: userID, Since: analytics.WindowStart(days, now)})
	if err != nil {
		return analytics.Series{}, s.storeFailure(span, "query", err)
	}
	series, err := analytics.Aggregate(events, days, now)
	if err != nil {
		return analytics.Series{}, err
	}
	if s.rec != nil {
		s.rec.Aggregated(kind, time.Since(start), series.Skipped)
	}
	if series.Skipped > 0 {
		s.logger.Warn("aggregation_skipped_records", slog.String("user_id", userID), slog.Int("skipped", series.Skipped))
	}
	s.reports.SetIfUnchanged(scope, key, series, tok)
	return series, nil
}

func (s *Service) invalidate(userID string) {
	s.reports.Invalidate(cache.Scope(userID))
	s.reports.Invalidate(cache.AllUsers)
}

func (s *Service) recordRejected(source string) {
	if s.rec != nil {
		s.rec.ScanRejected(source)
	}
}

// storeFailure normalises a store error into a transient one and records it on the span.
func (s *Service) storeFailure(span trace.Span, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	err = store.Transient(op, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.rec != nil {
		s.rec.StoreError(op)
	}
	s.logger.Error("store_failure", slog.String("op", op), slog.String("error", err.Error()))
	return err
}
