// Package web serves battles over HTTP: a JSON view of opponents and
// finished battles, PDF reports, and live battles over a websocket.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pokebattle/internal/arena"
	"pokebattle/internal/report"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	Arena *arena.Service
	Log   zerolog.Logger
	// Upgrader defaults to one that accepts any origin.
	Upgrader *websocket.Upgrader
}

// Routes returns the HTTP handler for the server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /opponents", s.handleOpponents)
	mux.HandleFunc("GET /battles/{id}", s.handleBattle)
	mux.HandleFunc("GET /battles/{id}/report.pdf", s.handleReport)
	mux.HandleFunc("GET /ws", s.handleBattleSocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// GET /opponents
func (s *Server) handleOpponents(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Arena.Opponents.All())
}

// GET /battles/{id}
func (s *Server) handleBattle(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// GET /battles/{id}/report.pdf
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	pdf, err := report.Generate(rec)
	if err != nil {
		s.Log.Error().Err(err).Str("battle", rec.ID).Msg("generate report")
		http.Error(w, "could not build report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="battle-`+rec.ID+`.pdf"`)
	if _, err := w.Write(pdf); err != nil {
		s.Log.Debug().Err(err).Msg("write report")
	}
}

// record loads the battle named by the path, writing the error response
// when it cannot.
func (s *Server) record(w http.ResponseWriter, r *http.Request) (arena.Record, bool) {
	id := r.PathValue("id")
	rec, ok, err := s.Arena.Record(r.Context(), id)
	if err != nil {
		s.Log.Error().Err(err).Str("battle", id).Msg("load battle record")
		http.Error(w, "could not load battle", http.StatusInternalServerError)
		return arena.Record{}, false
	}
	if !ok {
		http.Error(w, "battle not found", http.StatusNotFound)
		return arena.Record{}, false
	}
	return rec, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Debug().Err(err).Msg("write json")
	}
}
