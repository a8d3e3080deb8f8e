package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wicketwise/wicketwise/internal/aggregator"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

// Server exposes the feed-service snapshot over HTTP.
type Server struct {
	agg *aggregator.Aggregator
}

func NewServer(agg *aggregator.Aggregator) *Server {
	return &Server{agg: agg}
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string, readHeaderTimeout time.Duration) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/matches", s.handleMatches)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Feed server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Feed server error", "error", err)
		}
	}()
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"last_updated": s.agg.LastUpdated(),
	})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	source := models.Source(r.URL.Query().Get("source"))
	matches := s.agg.Matches(source)

	w.Header().Set("X-Query-Duration", time.Since(start).String())
	w.Header().Set("X-Matches-Count", fmt.Sprintf("%d", len(matches)))
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"meta": map[string]any{
			"count":        len(matches),
			"last_updated": s.agg.LastUpdated(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// AddrFor formats a listen address for a port.
func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
