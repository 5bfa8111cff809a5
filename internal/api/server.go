package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"hedgebot/internal/journal"
	"hedgebot/internal/logger"
	"hedgebot/internal/strategy"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

type StatusSource interface {
	Snapshot() strategy.Snapshot
}

type TransactionSource interface {
	Recent(ctx context.Context, limit int) ([]journal.Transaction, error)
}

// Server exposes the bot state over HTTP: health, the current status
// snapshot, the trade journal and prometheus metrics.
type Server struct {
	router  *mux.Router
	status  StatusSource
	journal TransactionSource
	log     *logger.Logger
}

func New(status StatusSource, journal TransactionSource, metrics http.Handler, log *logger.Logger) *Server {
	s := &Server{router: mux.NewRouter(), status: status, journal: journal, log: log}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/transactions", s.handleTransactions).Methods("GET")
	if metrics != nil {
		s.router.Handle("/metrics", metrics).Methods("GET")
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

type statusResponse struct {
	PositionStatus string          `json:"position_status"`
	HedgeStatus    string          `json:"hedge_status"`
	Counts         strategy.Counts `json:"counts"`
	CheckedAt      time.Time       `json:"checked_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.status.Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		PositionStatus: snap.PositionStatus.String(),
		HedgeStatus:    snap.HedgeStatus.String(),
		Counts:         snap.Counts,
		CheckedAt:      snap.CheckedAt,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	txs, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logEntry().WithError(err).Error("Не удалось прочитать журнал.")
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []journal.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logEntry() *logrus.Entry {
	return s.log.WithComponent("api")
}
