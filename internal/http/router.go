// Package http serves the dashboard views over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ylchen07/worklog-dashboard/internal/worklog"
)

// Reports builds the two dashboard views.
type Reports interface {
	Home(ctx context.Context, w worklog.Window) ([]worklog.Summary, error)
	Apps(ctx context.Context, w worklog.Window) ([]worklog.Issue, error)
}

const serverError = "Server error"

// Handler answers dashboard requests.
type Handler struct {
	reports Reports
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default().
func NewHandler(reports Reports, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reports: reports, logger: logger, now: time.Now}
}

// NewRouter mounts the dashboard routes behind request id, logging and panic
// recovery middleware.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/home/integrations", h.HomeIntegrations)
	r.Get("/apps/integrations", h.AppsIntegrations)

	return r
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GET /home/integrations?startDate=&endDate=
func (h *Handler) HomeIntegrations(w http.ResponseWriter, r *http.Request) {
	window, ok := h.window(w, r)
	if !ok {
		return
	}

	summaries, err := h.reports.Home(r.Context(), window)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, summaries)
}

// GET /apps/integrations?startDate=&endDate=
func (h *Handler) AppsIntegrations(w http.ResponseWriter, r *http.Request) {
	window, ok := h.window(w, r)
	if !ok {
		return
	}

	epics, err := h.reports.Apps(r.Context(), window)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, epics)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (worklog.Window, bool) {
	q := r.URL.Query()
	window, err := worklog.ParseWindow(q.Get("startDate"), q.Get("endDate"), h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return worklog.Window{}, false
	}
	return window, true
}

// fail logs err in full and answers with an opaque 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		h.logger.Warn("request cancelled by client",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	} else {
		h.logger.Error("report failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(serverError))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
