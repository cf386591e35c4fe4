// Package api serves fixation detection and stored runs over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/gaze.report/internal/cache"
	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/banshee-data/gaze.report/internal/timeutil"
)

// ANSI escape codes used by LoggingMiddleware
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// maxBodyBytes bounds request bodies. A 60 s trial at 1 kHz is roughly
// 2 MB of JSON.
const maxBodyBytes = 32 << 20

type Server struct {
	runs    *db.RunStore
	cache   *cache.Cache
	cfg     *config.DetectionConfig
	timings *monitoring.Timings
}

// NewServer creates a server. database and c may be nil: without a
// database, run storage endpoints answer 503; without a cache every
// detection is computed.
func NewServer(database *db.DB, c *cache.Cache, cfg *config.DetectionConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyDetectionConfig()
	}
	s := &Server{
		cache:   c,
		cfg:     cfg,
		timings: monitoring.NewTimings(timeutil.RealClock{}),
	}
	if database != nil {
		s.runs = db.NewRunStore(database)
	}
	return s
}

// Timings returns the segmentation timings collected by the server.
func (s *Server) Timings() *monitoring.Timings {
	return s.timings
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs status, method, path and duration of each request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/detect", s.handleDetect)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)
	mux.HandleFunc("GET /api/runs/{id}/fixations", s.runFixations)
	mux.HandleFunc("GET /api/config", s.showConfig)
	mux.HandleFunc("GET /api/timings", s.showTimings)
	mux.HandleFunc("POST /charts/velocity", s.velocityChart)
	mux.HandleFunc("GET /charts/runs/{id}/scanpath", s.scanpathChart)
	return mux
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

func (s *Server) showTimings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.timings.Snapshot())
}
