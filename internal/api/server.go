// Package api exposes a durable event log over HTTP. It is the wire
// surface replicas push to and pull from; the server holds no tree
// state of its own, only the shared log.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"paperdrive/pkg/eventlog"
)

// Server is the replication HTTP server.
type Server struct {
	store  eventlog.DurableLog
	logger *zap.Logger
	mux    *http.ServeMux
}

// New creates a Server over the given store.
func New(store eventlog.DurableLog, logger *zap.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/events", s.handleEventList)
	s.mux.HandleFunc("POST /api/events", s.handleEventCreate)
	s.mux.HandleFunc("GET /api/events/stream", s.handleEventStream)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleEventPut)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleEventGet)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write json", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
