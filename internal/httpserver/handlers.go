// v0
// internal/httpserver/handlers.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/catalog"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/export"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/metrics"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/service"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/store"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidDays    = errors.New("days must be a positive integer")
	errWindowTooLarge = errors.New("requested window exceeds maximum")
)

// analyticsService is the subset of service.Service used by the handlers.
type analyticsService interface {
	Log(ctx context.Context, e scan.Event, source string) (scan.Event, error)
	History(ctx context.Context, userID string, since time.Time) ([]scan.Event, error)
	Stats(ctx context.Context, userID string) (service.Stats, error)
	Analytics(ctx context.Context, userID string, days int) (analytics.Series, error)
	Dashboard(ctx context.Context, userID string, days int, basis analytics.Basis) (service.Dashboard, error)
	Export(ctx context.Context, userID string, days int) (export.Document, error)
	DefaultWindowDays() int
	MaxWindowDays() int
}

type itemCatalog interface {
	Lookup(code string) (catalog.Item, error)
}

// Handlers serves the waste API.
type Handlers struct {
	Log     *slog.Logger
	Service analyticsService
	Catalog itemCatalog
	Auth    *Authenticator
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type scanRequest struct {
	UserID    string       `json:"userId"`
	QRCode    string       `json:"qrCode"`
	ItemName  string       `json:"itemName"`
	Category  string       `json:"category"`
	Weight    float64      `json:"weight"`
	Unit      string       `json:"unit"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Impact    *scan.Impact `json:"impact,omitempty"`
}

// Scan logs one disposal event.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.badRequest(w, "invalid JSON body")
		return
	}
	userID, ok := h.userID(w, r, req.UserID)
	if !ok {
		return
	}

	ev := scan.Event{
		UserID:   userID,
		QRCode:   req.QRCode,
		ItemName: req.ItemName,
		Category: scan.Category(req.Category),
		Weight:   req.Weight,
		Unit:     scan.Unit(req.Unit),
		Impact:   req.Impact,
	}
	if req.Timestamp != nil {
		ev.Timestamp = *req.Timestamp
	}
	h.fillFromCatalog(&ev)

	stored, err := h.Service.Log(r.Context(), ev, service.SourceHTTP)
	if err != nil {
		h.serviceError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// fillFromCatalog completes name and category for known labels when the client omitted them.
func (h *Handlers) fillFromCatalog(ev *scan.Event) {
	if h.Catalog == nil || (strings.TrimSpace(ev.ItemName) != "" && strings.TrimSpace(string(ev.Category)) != "") {
		return
	}
	item, err := h.Catalog.Lookup(ev.QRCode)
	if err != nil {
		return
	}
	if strings.TrimSpace(ev.ItemName) == "" {
		ev.ItemName = item.Name
	}
	if strings.TrimSpace(string(ev.Category)) == "" {
		ev.Category = item.Category
	}
}

// History lists the user's events, newest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	events, err := h.Service.History(r.Context(), userID, since)
	if err != nil {
		h.serviceError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Stats returns total scans and the per-category counts.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), userID)
	if err != nil {
		h.serviceError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Analytics returns the zero-filled daily series.
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	days, err := parseDays(r, h.Service.DefaultWindowDays(), h.Service.MaxWindowDays())
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	series, err := h.Service.Analytics(r.Context(), userID, days)
	if err != nil {
		h.serviceError(w, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// Dashboard returns the series with every derived figure.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	days, err := parseDays(r, h.Service.DefaultWindowDays(), h.Service.MaxWindowDays())
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	basis, valid := analytics.ParseBasis(r.URL.Query().Get("basis"))
	if !valid {
		h.badRequest(w, "basis must be count or weight")
		return
	}
	dash, err := h.Service.Dashboard(r.Context(), userID, days, basis)
	if err != nil {
		h.serviceError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Export streams the dated export document as an attachment.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	days, err := parseDays(r, h.Service.DefaultWindowDays(), h.Service.MaxWindowDays())
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}
	doc, err := h.Service.Export(r.Context(), userID, days)
	if err != nil {
		h.serviceError(w, "export", err)
		return
	}
	out, err := export.Render(doc, format)
	if err != nil {
		h.Log.Error("export_render_failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}
	if out.Fallback != nil {
		h.Log.Warn("export_spreadsheet_fallback", slog.String("error", out.Fallback.Error()))
	}
	h.Metrics.Exported(string(out.Format))

	w.Header().Set("Content-Type", out.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(doc.ExportDate, out.Format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Body); err != nil {
		h.Log.Error("write_response_failed", slog.String("error", err.Error()))
	}
}

// Item returns the reference entry of a printed label.
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	item, err := h.Catalog.Lookup(code)
	switch {
	case errors.Is(err, catalog.ErrMalformedCode):
		h.badRequest(w, err.Error())
	case errors.Is(err, catalog.ErrUnknownItem):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		h.Log.Error("catalog_lookup_failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

// APIHealth answers the JSON health check used by the web client.
func (h *Handlers) APIHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "timestamp": now().UTC()})
}

// userID resolves the effective user. A verified token always wins over the
// client supplied id; a bad token is rejected.
func (h *Handlers) userID(w http.ResponseWriter, r *http.Request, claimed string) (string, bool) {
	subject, authenticated, err := h.Auth.UserID(r)
	if err != nil {
		h.Log.Warn("auth_rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return "", false
	}
	if authenticated {
		return subject, true
	}
	return strings.TrimSpace(claimed), true
}

func parseDays(r *http.Request, def, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("days"))
	if raw == "" {
		return def, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("invalid days value %q: %w", raw, errInvalidDays)
	}
	if days > max {
		return 0, fmt.Errorf("requested window of %d days exceeds maximum of %d: %w", days, max, errWindowTooLarge)
	}
	return days, nil
}

func parseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(scan.DayLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid since value %q: use RFC3339 or YYYY-MM-DD", raw)
}

func (h *Handlers) serviceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, scan.ErrValidation),
		errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, service.ErrWindowTooLarge):
		h.badRequest(w, err.Error())
	case errors.Is(err, store.ErrTransient), errors.Is(err, context.Canceled):
		h.upstreamError(w, endpoint, err)
	default:
		h.Log.Error("request_failed", slog.String("endpoint", endpoint), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad_request", slog.String("error", msg))
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// upstreamError reports a failed fetch. The flag tells clients to keep the
// data they already show instead of rendering zeros.
func (h *Handlers) upstreamError(w http.ResponseWriter, endpoint string, err error) {
	h.Log.Error("store_unavailable", slog.String("endpoint", endpoint), slog.String("error", err.Error()))
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "event store unavailable", "fetchFailed": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
