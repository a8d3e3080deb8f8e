package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wicketwise/wicketwise/internal/consensus"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
)

// HTTPServer exposes the engine service.
type HTTPServer struct {
	svc *Service
}

func NewHTTPServer(svc *Service) *HTTPServer {
	return &HTTPServer{svc: svc}
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func (h *HTTPServer) Run(ctx context.Context, addr string, readHeaderTimeout time.Duration) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Mux(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Engine server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Engine server error", "error", err)
		}
	}()
}

// Mux builds the route table.
func (h *HTTPServer) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", h.handlePing)
	mux.HandleFunc("/health", h.handlePing)
	mux.HandleFunc("/matches", h.handleMatches)
	mux.HandleFunc("/analyze", h.handleAnalyze)
	mux.HandleFunc("/edges", h.handleEdges)
	mux.HandleFunc("/rules", h.handleRules)
	mux.HandleFunc("/trades", h.handleTrades)
	mux.HandleFunc("/trades/settle", h.handleSettle)
	mux.HandleFunc("/drift", h.handleDrift)
	return mux
}

func (h *HTTPServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPServer) handleMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.svc.Matches(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

type analyzeRequest struct {
	MatchID     string `json:"match_id"`
	UserContext string `json:"user_context"`
}

// handleAnalyze runs one consensus round for a match. The match id comes
// from ?match_id= or the JSON body; the body may also carry free-text
// user_context forwarded to the oracle. Error mapping: 409 when an analysis
// for the match is already running, 429 on oracle quota, 503 when the
// oracle is unreachable. A verdict the oracle failed to produce in valid
// form is 200 with a null result.
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	matchID := r.URL.Query().Get("match_id")
	if matchID == "" {
		matchID = req.MatchID
	}
	if matchID == "" {
		writeError(w, http.StatusBadRequest, errors.New("match_id is required"))
		return
	}

	result, err := h.svc.Analyze(r.Context(), matchID, req.UserContext)
	switch {
	case errors.Is(err, consensus.ErrAnalysisInFlight):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, consensus.ErrQuotaExhausted):
		writeError(w, http.StatusTooManyRequests, err)
	case errors.Is(err, consensus.ErrOracleUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}
}

func (h *HTTPServer) handleEdges(w http.ResponseWriter, _ *http.Request) {
	edges := h.svc.Edges()
	if edges == nil {
		edges = []models.Edge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

func (h *HTTPServer) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rules, err := h.svc.Rules(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
	case http.MethodPost:
		var rules []models.UserRule
		if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.svc.SaveRules(r.Context(), rules); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("GET or POST required"))
	}
}

type tradeRequest struct {
	MatchID  string `json:"match_id"`
	MarketID string `json:"market_id"`
	Side     string `json:"side"`
}

func (h *HTTPServer) handleTrades(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		trades, err := h.svc.Trades(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if trades == nil {
			trades = []models.Trade{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"trades": trades})
	case http.MethodPost:
		var req tradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		side := models.TradeSide(req.Side)
		if side != models.SideBack && side != models.SideLay {
			writeError(w, http.StatusBadRequest, errors.New("side must be BACK or LAY"))
			return
		}
		trade, err := h.svc.RecordTrade(r.Context(), req.MatchID, req.MarketID, side)
		switch {
		case errors.Is(err, ErrMatchNotFound):
			writeError(w, http.StatusNotFound, err)
		case err != nil:
			writeError(w, http.StatusBadRequest, err)
		default:
			writeJSON(w, http.StatusCreated, map[string]any{"trade": trade})
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("GET or POST required"))
	}
}

type settleRequest struct {
	TradeID     string `json:"trade_id"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
}

func (h *HTTPServer) handleSettle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := h.svc.SettleTrade(r.Context(), req.TradeID, models.TradeStatus(req.Status), req.Explanation)
	switch {
	case errors.Is(err, storage.ErrTradeNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrAlreadySettled):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
	}
}

func (h *HTTPServer) handleDrift(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match_id")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, errors.New("match_id is required"))
		return
	}
	moves, err := h.svc.Drift(r.Context(), matchID)
	switch {
	case errors.Is(err, ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"drift": moves})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
