package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"moneytracker/internal/core"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnknownSource):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidOwnerType),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyUserID),
		errors.Is(err, core.ErrEmptySourceID),
		errors.Is(err, core.ErrEmptyCurrency),
		errors.Is(err, core.ErrSameSource),
		errors.Is(err, core.ErrNegativeInitial):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// resolveAmount picks the integer amount, falling back to the decimal
// string form ("12.50" or "12,50") when the integer is absent.
func resolveAmount(amount int64, amountDecimal string) (int64, error) {
	if amount != 0 {
		return amount, nil
	}
	if strings.TrimSpace(amountDecimal) == "" {
		return 0, core.ErrInvalidAmount
	}
	return core.ParseDecimalToUnits(amountDecimal)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// userIDParam reads the mandatory user_id query parameter.
func userIDParam(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		return "", core.ErrEmptyUserID
	}
	return userID, nil
}

type userJSON struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type sourceJSON struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	OwnerType     string `json:"owner_type"`
	Currency      string `json:"currency"`
	Color         string `json:"color"`
	InitialAmount int64  `json:"initial_amount"`
	CreatedAt     int64  `json:"created_at"`
}

type categoryJSON struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	CreatedAt int64  `json:"created_at"`
}

type transactionJSON struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	SourceID          string `json:"source_id"`
	CategoryID        string `json:"category_id,omitempty"`
	TransferGroupID   string `json:"transfer_group_id,omitempty"`
	Kind              string `json:"kind"`
	AmountSigned      int64  `json:"amount_signed"`
	OccurredAt        int64  `json:"occurred_at"`
	Note              string `json:"note,omitempty"`
	IncludeInCashflow bool   `json:"include_in_cashflow"`
	CreatedAt         int64  `json:"created_at"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toSourceJSON(s core.MoneySource) sourceJSON {
	return sourceJSON{
		ID:            s.ID,
		UserID:        s.UserID,
		Name:          s.Name,
		OwnerType:     string(s.OwnerType),
		Currency:      s.Currency,
		Color:         s.Color,
		InitialAmount: s.InitialAmount,
		CreatedAt:     s.CreatedAt,
	}
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		CreatedAt: c.CreatedAt,
	}
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:                t.ID,
		UserID:            t.UserID,
		SourceID:          t.SourceID,
		CategoryID:        t.CategoryID,
		TransferGroupID:   t.TransferGroupID,
		Kind:              string(t.Kind),
		AmountSigned:      t.AmountSigned,
		OccurredAt:        t.OccurredAt,
		Note:              t.Note,
		IncludeInCashflow: t.IncludeInCashflow,
		CreatedAt:         t.CreatedAt,
	}
}

func toTransactionListJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}
