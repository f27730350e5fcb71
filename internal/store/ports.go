// Package store defines the persistence ports shared by all backends.
package store

import (
	"context"

	"moneytracker/internal/core"
)

// Ports for outbound persistence adapters.
type (
	UserStore interface {
		// UpsertUser inserts the user or refreshes its email.
		UpsertUser(ctx context.Context, u core.User) error
		// GetUser returns nil when the user does not exist.
		GetUser(ctx context.Context, id string) (*core.User, error)
	}

	SourceStore interface {
		CreateMoneySource(ctx context.Context, s core.MoneySource) error
		ListMoneySources(ctx context.Context, userID string) ([]core.MoneySource, error)
		// GetMoneySource returns nil when the source does not exist.
		GetMoneySource(ctx context.Context, id string) (*core.MoneySource, error)
		// UpdateMoneySource applies metadata changes only; zero fields
		// are left untouched. It never rewrites derived balance state.
		UpdateMoneySource(ctx context.Context, id string, upd core.SourceUpdate) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	}

	// LedgerStore writes signed ledger rows. CreateTransfer and
	// CreateAdjustment are atomic: either every row of the operation is
	// committed or none is, and the adjustment delta is computed against
	// the balance inside the same database transaction.
	LedgerStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		CreateTransfer(ctx context.Context, group core.TransferGroup, out, in core.Transaction) error
		// CreateAdjustment derives amountSigned = actualBalance - current
		// balance and inserts the row, returning the stored transaction.
		CreateAdjustment(ctx context.Context, tx core.Transaction, actualBalance int64) (*core.Transaction, error)
		ListTransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error)
		ListTransactionsBySource(ctx context.Context, sourceID string) ([]core.Transaction, error)
		// GetTransaction returns nil when the row does not exist.
		GetTransaction(ctx context.Context, id string) (*core.Transaction, error)
		// SourceBalance returns initialAmount plus the signed sum of the
		// source's transactions.
		SourceBalance(ctx context.Context, sourceID string) (int64, error)
	}

	// MigrationStore reassigns ownership of every record of one user id
	// to another, atomically, for the legacy-identity migration.
	MigrationStore interface {
		// ReassignUserData returns the number of moved records per table.
		ReassignUserData(ctx context.Context, fromUserID, toUserID string) (MovedCounts, error)
	}

	// SyncQueue is the export worker's view of the store: ledger rows
	// pending a mirror to the external sheet.
	SyncQueue interface {
		PendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkSynced(ctx context.Context, txID string) error
		MarkSyncError(ctx context.Context, txID string) error
	}
)

// Store is the full persistence surface a backend must provide.
type Store interface {
	UserStore
	SourceStore
	CategoryStore
	LedgerStore
	MigrationStore
	SyncQueue

	Close() error
}

// MovedCounts reports how many rows a migration reassigned per table.
type MovedCounts struct {
	Sources        int64
	Categories     int64
	TransferGroups int64
	Transactions   int64
}

// Total is the number of moved rows across all tables.
func (m MovedCounts) Total() int64 {
	return m.Sources + m.Categories + m.TransferGroups + m.Transactions
}
