// Package web provides the HTTP status server for the pulse-relay daemon,
// plus the ingest endpoint used by smartwatch companion apps.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/sweeney/pulse-relay/internal/status"
)

// Ingester accepts heart rate readings delivered over HTTP.
type Ingester interface {
	Ingest(bpm int)
}

// Server serves the status page, the JSON status, the metrics endpoint and
// the watch ingest endpoint.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	ingester   Ingester
}

// New creates a Server that reads state from the given tracker. ingester
// receives readings posted to /heart; metrics, if non-nil, is mounted at
// /metrics.
func New(addr string, tracker *status.Tracker, ingester Ingester, metrics http.Handler) *Server {
	s := &Server{tracker: tracker, ingester: ingester}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/heart", s.handleHeart)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleHeart ingests one reading from a watch companion app:
// GET /heart?bpm=72. Readings outside (0, 300) are rejected.
func (s *Server) handleHeart(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("bpm")
	if raw == "" {
		http.Error(w, "missing bpm parameter", http.StatusBadRequest)
		return
	}

	bpm, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "bpm must be an integer", http.StatusBadRequest)
		return
	}
	if bpm <= 0 || bpm >= 300 {
		http.Error(w, fmt.Sprintf("bpm %d out of range", bpm), http.StatusBadRequest)
		return
	}

	if s.ingester != nil {
		s.ingester.Ingest(bpm)
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
