package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"paperdrive/pkg/eventlog"
)

func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	after := r.URL.Query().Get("after")
	limit := queryInt(r, "limit", 500)

	events, err := s.store.Since(r.Context(), after, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

// handleEventPut stores one event under the ID in the path. Events are
// immutable: an existing ID answers 409 and the stored record is left
// untouched, which is how racing replicas deduplicate.
func (s *Server) handleEventPut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var e eventlog.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if e.ID == "" {
		e.ID = id
	}
	if e.ID != id {
		s.writeError(w, http.StatusBadRequest, "body id does not match path id")
		return
	}
	s.putEvent(w, r, &e)
}

func (s *Server) handleEventCreate(w http.ResponseWriter, r *http.Request) {
	var e eventlog.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.putEvent(w, r, &e)
}

func (s *Server) putEvent(w http.ResponseWriter, r *http.Request, e *eventlog.Event) {
	if e.ID == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if e.Type == "" {
		s.writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	err := s.store.Put(r.Context(), e)
	if errors.Is(err, eventlog.ErrConflict) {
		s.writeError(w, http.StatusConflict, "event already exists")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("event stored",
		zap.String("id", e.ID),
		zap.String("type", string(e.Type)))
	s.writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleEventGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := s.store.Get(r.Context(), id)
	if errors.Is(err, eventlog.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

// handleEventStream is an SSE feed of appended events, polling the
// store from the client's cursor. Clients resume with ?after=<id>.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	lastID := r.URL.Query().Get("after")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, err := s.store.Since(ctx, lastID, 500)
			if err != nil {
				s.logger.Warn("stream poll", zap.Error(err))
				continue
			}
			for i := range events {
				data, err := json.Marshal(&events[i])
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				lastID = events[i].ID
			}
			if len(events) > 0 {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": n})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
