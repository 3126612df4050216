// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/verte-zerg/pronounce/internal/observe"
	"github.com/verte-zerg/pronounce/internal/scoring"
)

// DefaultMaxUploadBytes bounds an /analyze request body.
const DefaultMaxUploadBytes = 10 << 20

// Analyzer is the pipeline behind POST /analyze.
type Analyzer interface {
	Analyze(ctx context.Context, audioPath, text string) (scoring.SessionReport, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers. Handlers share no mutable state.
type Server struct {
	analyzer       Analyzer
	pinger         Pinger
	metrics        *observe.Metrics
	maxUploadBytes int64
	allowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes sets the request body limit for /analyze.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithAllowedOrigins enables CORS for the given origins. "*" allows any
// origin. Without origins no CORS headers are sent.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithPinger adds a store check to /healthz.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithMetrics overrides the default metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New returns a Server around a.
func New(a Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer:       a,
		metrics:        observe.DefaultMetrics(),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in the CORS and observe
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	if len(s.allowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{"X-Correlation-ID"},
		}).Handler(mux)
	}
	return observe.Middleware(s.metrics)(h)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pronounce is alive"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	status := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			resp["status"] = "fail"
			resp["store"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp["store"] = "ok"
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing text"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing file"))
		return
	}
	defer file.Close()

	dir, err := os.MkdirTemp("", "pronounce-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(dir)

	uploadPath := filepath.Join(dir, "upload"+filepath.Ext(filepath.Base(header.Filename)))
	if err := saveUpload(uploadPath, file); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), uploadPath, text)
	if err != nil {
		observe.Logger(r.Context()).Error("analyze failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	return dst.Close()
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}
