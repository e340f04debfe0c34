// v0
// internal/httpserver/router.go
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/metrics"
)

// ReadyCheck checks a dependency that must answer before traffic is accepted.
type ReadyCheck func(ctx context.Context) error

// RouterConfig collects what NewRouter needs.
type RouterConfig struct {
	Logger         *slog.Logger
	Handlers       *Handlers
	Health         *HealthState
	Ready          ReadyCheck
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter wires every route, then adds CORS, panic recovery and access logging.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handlers
	m := cfg.Metrics
	r := mux.NewRouter()

	r.Handle("/health", m.WrapHandler("health", healthLiveHandler())).Methods(http.MethodGet)
	r.Handle("/health/live", m.WrapHandler("health_live", healthLiveHandler())).Methods(http.MethodGet)
	r.Handle("/health/ready", m.WrapHandler("health_ready", healthReadyHandler(cfg.Health, cfg.Ready))).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/health", m.WrapHandler("api_health", http.HandlerFunc(h.APIHealth))).Methods(http.MethodGet)
	api.Handle("/waste/scan", m.WrapHandler("scan", http.HandlerFunc(h.Scan))).Methods(http.MethodPost)
	api.Handle("/waste", m.WrapHandler("history", http.HandlerFunc(h.History))).Methods(http.MethodGet)
	api.Handle("/waste/stats", m.WrapHandler("stats", http.HandlerFunc(h.Stats))).Methods(http.MethodGet)
	api.Handle("/waste/analytics", m.WrapHandler("analytics", http.HandlerFunc(h.Analytics))).Methods(http.MethodGet)
	api.Handle("/waste/dashboard", m.WrapHandler("dashboard", http.HandlerFunc(h.Dashboard))).Methods(http.MethodGet)
	api.Handle("/waste/export", m.WrapHandler("export", http.HandlerFunc(h.Export))).Methods(http.MethodGet)
	api.Handle("/items/{code}", m.WrapHandler("item", http.HandlerFunc(h.Item))).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	var handler http.Handler = r
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.ExposedHeaders([]string{"Content-Disposition"}),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: cfg.Logger}),
		handlers.PrintRecoveryStack(false),
	)(handler)
	return WrapWithLogging(cfg.Logger, handler)
}

func healthLiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func healthReadyHandler(health *HealthState, check ReadyCheck) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !health.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
