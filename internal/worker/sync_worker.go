// Package worker mirrors committed ledger rows to an external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"moneytracker/internal/amqp"
	"moneytracker/internal/core"
	"moneytracker/internal/sheets"
	"moneytracker/internal/store"
)

// SyncWorker handles synchronization of transactions from the store to
// the export sheet. AMQP messages drive the fast path; the pending sweep
// is a backup in case messages are lost.
type SyncWorker struct {
	store     store.Store
	appender  sheets.TransactionAppender
	batchSize int
}

func NewSyncWorker(st store.Store, appender sheets.TransactionAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     st,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if tx == nil {
		// Row deleted or never committed; nothing to mirror.
		slog.WarnContext(ctx, "Transaction not found, dropping message", "id", msg.ID)
		return nil
	}

	if err := w.syncToSheet(ctx, *tx); err != nil {
		return fmt.Errorf("sync transaction to sheet: %w", err)
	}
	return nil
}

// ProcessPendingTransactions syncs any rows still marked pending.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.store.PendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.syncToSheet(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", tx.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains pending rows accumulated while the worker was
// down. It uses a larger batch than the periodic sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.PendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, tx := range pending {
		if err := w.syncToSheet(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncToSheet(ctx context.Context, tx core.Transaction) error {
	sourceName := tx.SourceID
	if src, err := w.store.GetMoneySource(ctx, tx.SourceID); err == nil && src != nil {
		sourceName = src.Name
	}

	ref, err := w.appender.Append(ctx, tx, sourceName)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
		// The append itself worked; don't fail the message.
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", tx.ID,
		"sheet_ref", ref,
		"amount_signed", tx.AmountSigned)

	return nil
}
