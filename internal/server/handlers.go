package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/CloudShih/ripsearch/internal/command"
	"github.com/CloudShih/ripsearch/internal/history"
	"github.com/CloudShih/ripsearch/internal/models"
	"github.com/CloudShih/ripsearch/internal/worker"
)

// wireEvent is the NDJSON shape of one lifecycle event.
type wireEvent struct {
	Type     string                `json:"type"`
	SearchID string                `json:"search_id"`
	Files    int                   `json:"files,omitempty"`
	Matches  int                   `json:"matches,omitempty"`
	Result   *models.FileResult    `json:"result,omitempty"`
	Summary  *models.SearchSummary `json:"summary,omitempty"`
	Message  string                `json:"message,omitempty"`
}

func wireFrom(e worker.Event) wireEvent {
	out := wireEvent{SearchID: e.SearchID}
	switch e.Kind {
	case worker.EventStarted:
		out.Type = "started"
	case worker.EventProgress:
		out.Type = "progress"
		out.Files = e.Files
		out.Matches = e.Matches
	case worker.EventResult:
		out.Type = "result"
		out.Result = e.Result
	case worker.EventCompleted:
		out.Type = "completed"
		out.Summary = e.Summary
	case worker.EventCancelled:
		out.Type = "cancelled"
		out.Summary = e.Summary
	case worker.EventError:
		out.Type = "error"
		out.Summary = e.Summary
		out.Message = e.Message
	}
	return out
}

func commandFormat(jsonOutput bool) command.OutputFormat {
	if jsonOutput {
		return command.FormatJSON
	}
	return command.FormatText
}

// handleSearch runs one search and streams its events as NDJSON. A search
// already in flight yields 409: starting a second concurrent search is a
// caller error, not something the core serializes internally.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var params models.SearchParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wk := worker.New(s.workerConfig(), s.logger)
	if !s.acquire(wk) {
		s.respondError(w, http.StatusConflict, "a search is already in progress")
		return
	}
	defer s.release(wk)

	s.logger.Debug("search request",
		zap.String("search_id", wk.ID()),
		zap.String("pattern", params.Pattern),
		zap.String("path", params.SearchPath))

	// The request context ends when the client goes away, cancelling the
	// search even if no event write is in flight to notice the dead socket.
	if err := wk.Start(r.Context(), &params); err != nil {
		// Drain the terminal Error event the worker emitted.
		for range wk.Events() {
		}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	enc := json.NewEncoder(w)
	var terminal *worker.Event
	for e := range wk.Events() {
		if err := enc.Encode(wireFrom(e)); err != nil {
			// Client went away; stop the search and drain.
			wk.Cancel()
			for range wk.Events() {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if e.Terminal() {
			ev := e
			terminal = &ev
		}
	}

	if terminal != nil && terminal.Summary != nil {
		s.recordHistory(wk.ID(), params.SearchPath, terminal.Summary)
	}
}

func (s *Server) recordHistory(id, searchPath string, summary *models.SearchSummary) {
	if s.history == nil || !s.cfg.History.EnabledOrDefault() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	if err := s.history.RecordSummary(ctx, id, searchPath, summary); err != nil {
		s.logger.Warn("failed to record search history", zap.Error(err))
	}
}

// handleCancel cancels the active search, if any.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active == nil {
		s.respondError(w, http.StatusNotFound, "no search in progress")
		return
	}
	active.Cancel()
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"status":    "cancelling",
		"search_id": active.ID(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondJSON(w, http.StatusOK, []struct{}{})
		return
	}
	entries, err := s.history.Recent(r.Context(), 50)
	if err != nil {
		s.logger.Error("history query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	available, version := command.Probe(r.Context(), s.cfg.Binary.Path)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"binary_available": available,
		"binary_version":   version,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
