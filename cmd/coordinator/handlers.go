package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dreamware/treeset/internal/client"
	"github.com/dreamware/treeset/internal/coordinator"
	"github.com/dreamware/treeset/internal/protocol"
)

type statsSource interface {
	Stats() coordinator.Stats
}

type server struct {
	client  *client.Client
	stats   statsSource
	log     *slog.Logger
	timeout time.Duration
}

func newServer(coord *coordinator.Coordinator, log *slog.Logger, timeout time.Duration) *server {
	return &server{
		client:  client.New(coord, log),
		stats:   coord,
		log:     log.With("system", "api"),
		timeout: timeout,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/insert", s.handleOperation(protocol.Insert))
	mux.HandleFunc("/contains", s.handleOperation(protocol.Contains))
	mux.HandleFunc("/remove", s.handleOperation(protocol.Remove))
	mux.HandleFunc("/gc", s.handleGC)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// handleOperation submits one set operation and answers with its reply.
// The caller's id is echoed back; internally every request gets a unique id.
func (s *server) handleOperation(kind protocol.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req protocol.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		reply, err := s.client.Do(ctx, kind, req.Elem)
		if err != nil {
			s.log.Warn("operation failed", "kind", kind, "elem", req.Elem, "error", err)
			switch {
			case errors.Is(err, client.ErrStopped):
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			case errors.Is(err, context.DeadlineExceeded):
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		reply.ID = req.ID
		writeJSON(w, reply)
	}
}

func (s *server) handleGC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.client.GC()
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.stats.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
