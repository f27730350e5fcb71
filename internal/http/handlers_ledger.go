package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"moneytracker/internal/core"
	"moneytracker/internal/services"
)

type createTransactionRequest struct {
	UserID        string `json:"user_id"`
	SourceID      string `json:"source_id"`
	CategoryID    string `json:"category_id"`
	Kind          string `json:"kind"`
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amount_decimal"`
	OccurredAt    int64  `json:"occurred_at"`
	Note          string `json:"note"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := resolveAmount(req.Amount, req.AmountDecimal)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	tx, err := s.ledger.CreateTransaction(r.Context(), services.CreateTransactionParams{
		UserID:     req.UserID,
		SourceID:   req.SourceID,
		CategoryID: req.CategoryID,
		Kind:       core.TransactionKind(req.Kind),
		Amount:     amount,
		OccurredAt: req.OccurredAt,
		Note:       sanitizeInput(req.Note),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed",
			"user_id", req.UserID, "source_id", req.SourceID, "error", err)
		writeServiceError(w, err)
		return
	}

	s.invalidateAggregates(tx.UserID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(*tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	q := r.URL.Query()
	filter := core.TransactionFilter{
		SourceID:   strings.TrimSpace(q.Get("source_id")),
		OwnerType:  core.OwnerType(strings.TrimSpace(q.Get("owner_type"))),
		Kind:       core.TransactionKind(strings.TrimSpace(q.Get("kind"))),
		SearchNote: strings.TrimSpace(q.Get("q")),
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.FromMillis = ms
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ToMillis = ms
		}
	}

	txs, err := s.store.ListTransactionsByUser(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}
	sources, err := s.store.ListMoneySources(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List sources failed", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionListJSON(filter.Apply(sources, txs)))
}

type createTransferRequest struct {
	UserID        string `json:"user_id"`
	FromSourceID  string `json:"from_source_id"`
	ToSourceID    string `json:"to_source_id"`
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amount_decimal"`
	OccurredAt    int64  `json:"occurred_at"`
	Note          string `json:"note"`
}

type transferResponse struct {
	GroupID string          `json:"group_id"`
	Out     transactionJSON `json:"out"`
	In      transactionJSON `json:"in"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := resolveAmount(req.Amount, req.AmountDecimal)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	res, err := s.ledger.CreateTransfer(r.Context(), services.CreateTransferParams{
		UserID:       req.UserID,
		FromSourceID: req.FromSourceID,
		ToSourceID:   req.ToSourceID,
		Amount:       amount,
		OccurredAt:   req.OccurredAt,
		Note:         sanitizeInput(req.Note),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transfer failed",
			"user_id", req.UserID,
			"from_source_id", req.FromSourceID,
			"to_source_id", req.ToSourceID,
			"error", err)
		writeServiceError(w, err)
		return
	}

	s.invalidateAggregates(req.UserID)
	writeJSON(w, http.StatusCreated, transferResponse{
		GroupID: res.Group.ID,
		Out:     toTransactionJSON(res.Out),
		In:      toTransactionJSON(res.In),
	})
}

type createAdjustmentRequest struct {
	UserID               string `json:"user_id"`
	SourceID             string `json:"source_id"`
	ActualBalance        int64  `json:"actual_balance"`
	ActualBalanceDecimal string `json:"actual_balance_decimal"`
	OccurredAt           int64  `json:"occurred_at"`
	IncludeInCashflow    bool   `json:"include_in_cashflow"`
}

func (s *Server) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req createAdjustmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actual := req.ActualBalance
	if actual == 0 && strings.TrimSpace(req.ActualBalanceDecimal) != "" {
		parsed, err := core.ParseDecimalToUnits(req.ActualBalanceDecimal)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid actual_balance_decimal")
			return
		}
		actual = parsed
	}

	tx, err := s.ledger.CreateAdjustment(r.Context(), services.CreateAdjustmentParams{
		UserID:            req.UserID,
		SourceID:          req.SourceID,
		ActualBalance:     actual,
		OccurredAt:        req.OccurredAt,
		IncludeInCashflow: req.IncludeInCashflow,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create adjustment failed",
			"user_id", req.UserID, "source_id", req.SourceID, "error", err)
		writeServiceError(w, err)
		return
	}

	s.invalidateAggregates(tx.UserID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(*tx))
}
