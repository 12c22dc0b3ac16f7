package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/botconversa/contactsheet/internal/jobs"
	"github.com/botconversa/contactsheet/internal/pipeline"
)

const defaultMaxUploadBytes = 50 * 1024 * 1024

// Server exposes the polling protocol around the background pipeline:
// upload, status, download. Request handlers never block on a running
// job; status and download are a single registry lookup.
type Server struct {
	registry  jobs.Registry
	pool      *jobs.Pool
	processor *pipeline.Processor

	uploadsDir     string
	maxUploadBytes int64

	// validate dedupes concurrent download-side workbook validation of
	// the same artifact.
	validate singleflight.Group

	router chi.Router
	server *http.Server
}

type Option func(*Server)

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func NewServer(registry jobs.Registry, pool *jobs.Pool, processor *pipeline.Processor, uploadsDir string, opts ...Option) *Server {
	s := &Server{
		registry:       registry,
		pool:           pool,
		processor:      processor,
		uploadsDir:     uploadsDir,
		maxUploadBytes: defaultMaxUploadBytes,
		router:         chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/upload", s.handleUpload)
	s.router.Get("/status/{id}", s.handleStatus)
	s.router.Get("/download/{id}", s.handleDownload)
	s.router.Get("/healthz", s.handleHealth)
}
