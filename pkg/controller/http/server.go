package http

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/riskmodel/frontend"
	"github.com/secmon-lab/riskmodel/pkg/usecase"
	"github.com/secmon-lab/riskmodel/pkg/utils/errutil"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
	"github.com/secmon-lab/riskmodel/pkg/webapp"
)

// MediaServer serves uploaded files stored on the local filesystem
type MediaServer interface {
	Prefix() string
	Handler() http.Handler
}

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	app      *webapp.App
	media    MediaServer
	registry *prometheus.Registry
	metrics  *metrics
}

type Options func(*Server)

// WithWebApp serves the page shell of the web app for its routes
func WithWebApp(app *webapp.App) Options {
	return func(s *Server) {
		s.app = app
	}
}

func WithMedia(media MediaServer) Options {
	return func(s *Server) {
		s.media = media
	}
}

// WithRegistry exports metrics through registry instead of a new one
func WithRegistry(registry *prometheus.Registry) Options {
	return func(s *Server) {
		s.registry = registry
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m, err := newMetrics(s.registry)
	if err != nil {
		return nil, err
	}
	s.metrics = m

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.metrics.middleware)

	r.Route("/risk_model", func(r chi.Router) {
		r.Get("/", s.listRiskModels)
		r.Post("/", s.createRiskModel)
		r.Get("/field_types", s.listFieldTypes)
		r.Get("/{id}", s.getRiskModel)
		r.Put("/{id}", s.updateRiskModel)
	})
	r.Route("/risk_data", func(r chi.Router) {
		r.Post("/", s.createRiskData)
		r.Get("/{id}", s.getRiskData)
	})
	r.Get("/risk_data_log", s.listRiskDataLog)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	if s.media != nil {
		r.Mount(s.media.Prefix(), s.media.Handler())
	}

	if s.app != nil {
		staticFS, err := fs.Sub(frontend.StaticFiles, "dist")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to bind dist dir for static")
		}
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

		for _, route := range s.app.Router().Routes() {
			r.Get(route.Pattern(), s.mountWebApp)
		}
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// mountWebApp renders the page shell with the view of the requested path
func (s *Server) mountWebApp(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.app.Mount(&buf, r.URL.Path); err != nil {
		if errors.Is(err, webapp.ErrRouteNotFound) {
			http.NotFound(w, r)
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	safe.Write(r.Context(), w, buf.Bytes())
}
