// Package api serves the dashboard page and the JSON view API. Every
// request is answered from the immutable dataset built at startup; handlers
// hold no mutable state, so concurrent requests need no locking.
package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmenezes/aguaviva/internal/dataset"
	"github.com/rmenezes/aguaviva/internal/geo"
	"github.com/rmenezes/aguaviva/internal/metrics"
)

//go:embed templates/*
var templateFS embed.FS

type Server struct {
	ds         *dataset.Dataset
	boundaries *geo.Boundaries // nil when no GeoJSON was configured
	port       string
	tmpl       *template.Template
	startedAt  time.Time
}

func NewServer(ds *dataset.Dataset, boundaries *geo.Boundaries, port string) *Server {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	return &Server{
		ds:         ds,
		boundaries: boundaries,
		port:       port,
		tmpl:       tmpl,
		startedAt:  time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.instrument("/", s.handleIndex))
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("/api/view", s.instrument("/api/view", s.handleView))
	mux.HandleFunc("/api/map", s.instrument("/api/map", s.handleMapPoints))
	mux.HandleFunc("/api/boundaries", s.instrument("/api/boundaries", s.handleBoundaries))
	mux.HandleFunc("/api/neighborhoods", s.instrument("/api/neighborhoods", s.handleNeighborhoods))
	mux.HandleFunc("/api/monthly", s.instrument("/api/monthly", s.handleMonthly))
	mux.HandleFunc("/api/collection-points", s.instrument("/api/collection-points", s.handleCollectionPoints))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}
