package http

import (
	"log/slog"
	"net/http"
	"strings"

	"moneytracker/internal/services"
)

type ensureUserRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// handleEnsureUser upserts the user row. An empty user_id means "use
// the device identity", minting one on first call.
func (s *Server) handleEnsureUser(w http.ResponseWriter, r *http.Request) {
	var req ensureUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		id, err := s.identity.InitializeDeviceUser(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Device user init failed", "error", err)
			writeServiceError(w, err)
			return
		}
		userID = id
	} else {
		if err := s.identity.EnsureUser(r.Context(), userID, sanitizeInput(req.Email)); err != nil {
			slog.ErrorContext(r.Context(), "Ensure user failed", "user_id", userID, "error", err)
			writeServiceError(w, err)
			return
		}
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		slog.ErrorContext(r.Context(), "Read back user failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(*user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Get user failed", "user_id", id, "error", err)
		writeServiceError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(*user))
}

type migrateUserRequest struct {
	LegacyUserID string `json:"legacy_user_id"`
	AuthUserID   string `json:"auth_user_id"`
}

type migrateUserResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Moved   struct {
		Sources        int64 `json:"sources"`
		Categories     int64 `json:"categories"`
		TransferGroups int64 `json:"transfer_groups"`
		Transactions   int64 `json:"transactions"`
	} `json:"moved"`
}

// handleMigrateUser reassigns every record of a legacy anonymous user
// to the authenticated one. When legacy_user_id is empty the device
// identity is used and repointed on success.
func (s *Server) handleMigrateUser(w http.ResponseWriter, r *http.Request) {
	var req migrateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.AuthUserID) == "" {
		writeError(w, http.StatusUnprocessableEntity, "auth_user_id is required")
		return
	}

	if err := s.identity.EnsureUser(r.Context(), req.AuthUserID, ""); err != nil {
		slog.ErrorContext(r.Context(), "Ensure auth user failed", "user_id", req.AuthUserID, "error", err)
		writeServiceError(w, err)
		return
	}

	res, err := s.runMigration(r, req)
	if err != nil {
		slog.ErrorContext(r.Context(), "Migration failed",
			"legacy_user_id", req.LegacyUserID,
			"auth_user_id", req.AuthUserID,
			"error", err)
		writeError(w, http.StatusInternalServerError, "migration failed")
		return
	}

	s.invalidateAggregates(req.LegacyUserID)
	s.invalidateAggregates(req.AuthUserID)

	var resp migrateUserResponse
	resp.Status = string(res.Status)
	resp.Message = res.Message
	resp.Moved.Sources = res.Moved.Sources
	resp.Moved.Categories = res.Moved.Categories
	resp.Moved.TransferGroups = res.Moved.TransferGroups
	resp.Moved.Transactions = res.Moved.Transactions
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runMigration(r *http.Request, req migrateUserRequest) (services.MigrationResult, error) {
	if strings.TrimSpace(req.LegacyUserID) == "" {
		return s.identity.MigrateFromDevice(r.Context(), req.AuthUserID)
	}
	return s.identity.Migrate(r.Context(), req.LegacyUserID, req.AuthUserID)
}
