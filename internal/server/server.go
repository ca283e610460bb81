// Package server provides the HTTP server of the chord tutor.
package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/server/api"
	"github.com/ayusman/fretwise/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default limits for POST /api/evaluate.
const (
	DefaultEvalRate  = 60
	DefaultEvalBurst = 10
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Session   *session.Session
	// Frames, when set, is served as an MJPEG stream on /api/stream.
	Frames    FrameSource
	StreamFPS int
	EvalRate  float64
	EvalBurst int
}

// Server represents the HTTP server of the application.
type Server struct {
	config      Config
	mux         *http.ServeMux
	hub         *FeedbackHub
	unsubscribe func()
	start       time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.EvalRate <= 0 {
		config.EvalRate = DefaultEvalRate
	}
	if config.EvalBurst <= 0 {
		config.EvalBurst = DefaultEvalBurst
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewFeedbackHub(),
		start:  time.Now(),
	}
	if config.Session != nil {
		s.unsubscribe = config.Session.Subscribe(s.hub.Publish)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Session != nil {
		chords := api.NewChordHandler(s.config.Session)
		s.mux.Handle("/api/chords", chords)
		s.mux.Handle("/api/chords/", chords)
		s.mux.Handle("/api/target", api.NewTargetHandler(s.config.Session))
		s.mux.Handle("/api/layout", api.NewLayoutHandler(s.config.Session))
		s.mux.Handle("/api/evaluate", api.NewEvaluateHandler(s.config.Session, s.config.EvalRate, s.config.EvalBurst))
		s.mux.Handle("/api/feedback", s.hub)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.config.StreamFPS))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Hub returns the feedback hub.
func (s *Server) Hub() *FeedbackHub {
	return s.hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	s.mux.ServeHTTP(rec, r)

	entry := log.WithFields(log.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     rec.status,
		"latency_ms": time.Since(start).Milliseconds(),
	})
	switch {
	case rec.status >= 500:
		entry.Error("server error")
	case rec.status >= 400:
		entry.Warn("client error")
	default:
		entry.Debug("request served")
	}
}

type healthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	LibraryVersion int    `json:"library_version"`
	Chords         int    `json:"chords"`
	Target         string `json:"target,omitempty"`
	Camera         bool   `json:"camera"`
	Clients        int    `json:"clients"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status:         "ok",
		Uptime:         time.Since(s.start).Round(time.Second).String(),
		LibraryVersion: chord.LibraryVersion,
		Camera:         s.config.Frames != nil,
		Clients:        s.hub.Clients(),
	}
	if s.config.Session != nil {
		response.Chords = s.config.Session.Library().Len()
		response.Target = s.config.Session.Target()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops feedback delivery and disconnects WebSocket clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.hub.Close()
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps MJPEG streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack hands the connection to the WebSocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
