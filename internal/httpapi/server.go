package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/events"
	apimw "github.com/hamed0406/botscope/internal/httpapi/middleware"
)

// Service is what the HTTP layer needs from the monitor.
type Service interface {
	Register(ctx context.Context, name, url string) (domain.Target, error)
	Remove(ctx context.Context, name string) (domain.Target, error)
	Statuses() []domain.TargetStatus
}

// EventSource returns recently published events, oldest first.
type EventSource interface {
	Recent() []events.Event
}

type Server struct {
	Logger  *zap.Logger
	Monitor Service
	Events  EventSource
	Metrics http.Handler

	now func() time.Time
}

type RouterOptions struct {
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// RegisterRPM and RegisterBurst limit registrations per client IP.
	// RegisterRPM <= 0 disables the limit.
	RegisterRPM   int
	RegisterBurst int
}

func NewServer(l *zap.Logger, svc Service, ev EventSource, metrics http.Handler) *Server {
	return &Server{Logger: l, Monitor: svc, Events: ev, Metrics: metrics, now: time.Now}
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.RequestLogger(s.Logger))
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins))

	limit := apimw.RateLimit(opts.RegisterRPM, opts.RegisterBurst)

	r.Get("/", s.handleStatusPage)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Get("/ping", s.handlePing)
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)

		r.Get("/targets", s.handleListTargets)
		r.With(limit).Post("/targets", s.handleAddTarget)
		r.Delete("/targets/{name}", s.handleRemoveTarget)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	})
}
