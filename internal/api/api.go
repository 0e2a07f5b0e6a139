// Package api exposes the dispatcher over HTTP under /api/notifications.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/titanhq/notifier/pkg/clientip"
	"github.com/titanhq/notifier/pkg/httpserver"
	"github.com/titanhq/notifier/pkg/inapp"
	"github.com/titanhq/notifier/pkg/logger"
	"github.com/titanhq/notifier/pkg/notifications"
	"github.com/titanhq/notifier/pkg/requestid"
)

// Service is the part of *notifications.Dispatcher the API uses.
type Service interface {
	Send(ctx context.Context, typ notifications.Type, data map[string]any, priority notifications.Priority, channels ...notifications.Channel) (notifications.Message, error)
	SendTradeAlert(ctx context.Context, symbol, side string, price, quantity float64, agent string) (notifications.Message, error)
	SendPriceAlert(ctx context.Context, symbol string, price, target float64, direction string) (notifications.Message, error)
	SendSystemAlert(ctx context.Context, title, message string, priority notifications.Priority) (notifications.Message, error)
	ProcessQueue(ctx context.Context) (int, error)
	HistoryPage(limit, offset int) ([]notifications.Message, int)
	Get(id string) (notifications.Message, error)
	Stats() notifications.Stats
	TestNotification(ctx context.Context, ch notifications.Channel, recipient, message string) notifications.TestResult
	ConfigStatus() notifications.ConfigStatus
	UpdateConfig(fn func(*notifications.Config)) notifications.Config
}

// Archive looks up messages that have left the in-memory history.
type Archive interface {
	Get(ctx context.Context, id string) (notifications.Message, error)
}

// Inbox is polled by GET /inapp.
type Inbox interface {
	Poll(ctx context.Context, limit int) ([]inapp.Notification, error)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	inAppPollLimit      = 10
	healthCheckTimeout  = 2 * time.Second
	maxBodyBytes        = 1 << 20
)

type Handler struct {
	svc      Service
	archive  Archive
	inbox    Inbox
	checks   []httpserver.Check
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Handler)

func WithArchive(a Archive) Option {
	return func(h *Handler) { h.archive = a }
}

func WithInbox(i Inbox) Option {
	return func(h *Handler) { h.inbox = i }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithHealthChecks adds readiness probes reported by GET /healthz.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(h *Handler) { h.checks = append(h.checks, checks...) }
}

func New(svc Service, opts ...Option) *Handler {
	h := &Handler{
		svc:      svc,
		validate: newValidator(),
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("api"))
	return h
}

// Router returns the complete HTTP handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware())
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthHandler(h.log, healthCheckTimeout, h.checks...))

	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/config", h.getConfig)
		r.Put("/config", h.updateConfig)
		r.Post("/test", h.test)
		r.Post("/trade", h.trade)
		r.Post("/price-alert", h.priceAlert)
		r.Post("/system", h.system)
		r.Post("/custom", h.custom)
		r.Post("/process-queue", h.processQueue)
		r.Get("/stats", h.stats)
		r.Get("/history", h.history)
		r.Get("/inapp", h.inApp)
		r.Get("/{id}", h.get)
	})
	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.log.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
