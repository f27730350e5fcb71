package http

import (
	"log/slog"
	"net/http"

	"moneytracker/internal/core"
	"moneytracker/internal/services"
)

type createSourceRequest struct {
	UserID               string `json:"user_id"`
	Name                 string `json:"name"`
	OwnerType            string `json:"owner_type"`
	Currency             string `json:"currency"`
	Color                string `json:"color"`
	InitialAmount        int64  `json:"initial_amount"`
	InitialAmountDecimal string `json:"initial_amount_decimal"`
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	initial := req.InitialAmount
	if initial == 0 && req.InitialAmountDecimal != "" {
		parsed, err := core.ParseDecimalToUnits(req.InitialAmountDecimal)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid initial_amount_decimal")
			return
		}
		initial = parsed
	}

	src, err := s.ledger.CreateMoneySource(r.Context(), services.CreateSourceParams{
		UserID:        req.UserID,
		Name:          sanitizeInput(req.Name),
		OwnerType:     core.OwnerType(req.OwnerType),
		Currency:      req.Currency,
		Color:         req.Color,
		InitialAmount: initial,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create source failed", "user_id", req.UserID, "error", err)
		writeServiceError(w, err)
		return
	}

	s.invalidateAggregates(src.UserID)
	writeJSON(w, http.StatusCreated, toSourceJSON(*src))
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	sources, err := s.store.ListMoneySources(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List sources failed", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}

	out := make([]sourceJSON, 0, len(sources))
	for _, src := range sources {
		out = append(out, toSourceJSON(src))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	src, err := s.store.GetMoneySource(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get source failed", "source_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	if src == nil {
		writeError(w, http.StatusNotFound, "money source not found")
		return
	}
	writeJSON(w, http.StatusOK, toSourceJSON(*src))
}

type updateSourceRequest struct {
	Name          *string `json:"name"`
	OwnerType     *string `json:"owner_type"`
	Currency      *string `json:"currency"`
	Color         *string `json:"color"`
	InitialAmount *int64  `json:"initial_amount"`
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := core.SourceUpdate{
		Name:          req.Name,
		Currency:      req.Currency,
		Color:         req.Color,
		InitialAmount: req.InitialAmount,
	}
	if req.OwnerType != nil {
		ot := core.OwnerType(*req.OwnerType)
		upd.OwnerType = &ot
	}

	existing, err := s.store.GetMoneySource(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get source failed", "source_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}

	if err := s.ledger.UpdateMoneySource(r.Context(), id, upd); err != nil {
		slog.ErrorContext(r.Context(), "Update source failed", "source_id", id, "error", err)
		writeServiceError(w, err)
		return
	}

	// Drop cached aggregates as soon as the update commits, even if
	// the read-back below fails.
	s.invalidateAggregates(existing.UserID)

	src, err := s.store.GetMoneySource(r.Context(), id)
	if err != nil || src == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toSourceJSON(*src))
}

// handleSourceTransactions lists a single source's transactions, newest
// first, for the source detail view.
func (s *Server) handleSourceTransactions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	src, err := s.store.GetMoneySource(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get source failed", "source_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	if src == nil {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}

	txs, err := s.store.ListTransactionsBySource(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "List source transactions failed", "source_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionListJSON(txs))
}

func (s *Server) handleSourceBalance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	balance, err := s.store.SourceBalance(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Source balance failed", "source_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source_id": id,
		"balance":   balance,
	})
}
