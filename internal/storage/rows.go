package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"moneytracker/internal/core"
)

// numeric scans an integer column regardless of the storage class the
// value actually arrived in. SQLite columns are dynamically typed, so a
// row written by another client may hold the amount as INTEGER, REAL,
// or a numeric TEXT string; all of them coerce to int64 here. NULL
// coerces to zero.
type numeric int64

func (n *numeric) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*n = 0
	case int64:
		*n = numeric(v)
	case float64:
		*n = numeric(int64(v))
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into numeric", value)
	}
	return nil
}

func (n *numeric) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*n = 0
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Tolerate decimal strings the way the remote rows did.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parse numeric %q: %w", s, err)
		}
		i = int64(f)
	}
	*n = numeric(i)
	return nil
}

// Row shapes mirror the snake_case remote format; the map functions
// below translate them into the camelCase in-memory records.
type (
	userRow struct {
		ID        string
		Email     sql.NullString
		CreatedAt numeric
	}

	moneySourceRow struct {
		ID            string
		UserID        string
		Name          string
		OwnerType     string
		Currency      string
		Color         sql.NullString
		InitialAmount numeric
		CreatedAt     numeric
	}

	categoryRow struct {
		ID        string
		UserID    string
		Name      string
		Kind      string
		CreatedAt numeric
	}

	transactionRow struct {
		ID                string
		UserID            string
		SourceID          string
		CategoryID        sql.NullString
		TransferGroupID   sql.NullString
		Kind              string
		AmountSigned      numeric
		OccurredAt        numeric
		Note              sql.NullString
		IncludeInCashflow sql.NullBool
		CreatedAt         numeric
	}
)

func mapUser(r userRow) core.User {
	return core.User{
		ID:        r.ID,
		Email:     r.Email.String,
		CreatedAt: int64(r.CreatedAt),
	}
}

func mapMoneySource(r moneySourceRow) core.MoneySource {
	color := r.Color.String
	if color == "" {
		color = "blue"
	}
	return core.MoneySource{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		OwnerType:     core.OwnerType(r.OwnerType),
		Currency:      r.Currency,
		Color:         color,
		InitialAmount: int64(r.InitialAmount),
		CreatedAt:     int64(r.CreatedAt),
	}
}

func mapCategory(r categoryRow) core.Category {
	return core.Category{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Kind:      core.TransactionKind(r.Kind),
		CreatedAt: int64(r.CreatedAt),
	}
}

func mapTransaction(r transactionRow) core.Transaction {
	include := true
	if r.IncludeInCashflow.Valid {
		include = r.IncludeInCashflow.Bool
	}
	return core.Transaction{
		ID:                r.ID,
		UserID:            r.UserID,
		SourceID:          r.SourceID,
		CategoryID:        r.CategoryID.String,
		TransferGroupID:   r.TransferGroupID.String,
		Kind:              core.TransactionKind(r.Kind),
		AmountSigned:      int64(r.AmountSigned),
		OccurredAt:        int64(r.OccurredAt),
		Note:              r.Note.String,
		IncludeInCashflow: include,
		CreatedAt:         int64(r.CreatedAt),
	}
}

// nullable maps an empty string to NULL, keeping optional foreign keys
// and notes out of the row when absent.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
