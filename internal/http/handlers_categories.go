package http

import (
	"log/slog"
	"net/http"

	"moneytracker/internal/core"
)

type createCategoryRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cat, err := s.ledger.CreateCategory(r.Context(), req.UserID, sanitizeInput(req.Name), core.TransactionKind(req.Kind))
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "user_id", req.UserID, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(*cat))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	cats, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}

	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type defaultCategoriesRequest struct {
	UserID string `json:"user_id"`
}

// handleDefaultCategories seeds the standard taxonomy once per user.
func (s *Server) handleDefaultCategories(w http.ResponseWriter, r *http.Request) {
	var req defaultCategoriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	cats, err := s.ledger.CreateDefaultCategories(r.Context(), req.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Seed default categories failed", "user_id", req.UserID, "error", err)
		writeServiceError(w, err)
		return
	}

	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}
