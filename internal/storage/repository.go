package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"moneytracker/internal/core"
	"moneytracker/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the system of record. Transfers and adjustments
// run inside database transactions, so the two-row transfer insert and
// the adjustment's balance-read-then-insert cannot interleave with a
// concurrent mutation on the same source.
type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) error {
	// An empty incoming email must not clobber a stored one.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END`,
		u.ID, u.Email, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*core.User, error) {
	var row userRow
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`, id).
		Scan(&row.ID, &row.Email, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := mapUser(row)
	return &u, nil
}

func (r *SQLiteRepository) CreateMoneySource(ctx context.Context, s core.MoneySource) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO money_sources (id, user_id, name, owner_type, currency, color, initial_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Name, string(s.OwnerType), s.Currency, s.Color, s.InitialAmount, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create money source: %w", err)
	}

	slog.InfoContext(ctx, "Money source saved",
		"id", s.ID,
		"name", s.Name,
		"owner_type", s.OwnerType,
		"initial_amount", s.InitialAmount)
	return nil
}

func (r *SQLiteRepository) ListMoneySources(ctx context.Context, userID string) ([]core.MoneySource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, owner_type, currency, color, initial_amount, created_at
		FROM money_sources WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list money sources: %w", err)
	}
	defer rows.Close()

	var out []core.MoneySource
	for rows.Next() {
		var row moneySourceRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.Name, &row.OwnerType,
			&row.Currency, &row.Color, &row.InitialAmount, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan money source: %w", err)
		}
		out = append(out, mapMoneySource(row))
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetMoneySource(ctx context.Context, id string) (*core.MoneySource, error) {
	var row moneySourceRow
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, owner_type, currency, color, initial_amount, created_at
		FROM money_sources WHERE id = ?`, id).
		Scan(&row.ID, &row.UserID, &row.Name, &row.OwnerType,
			&row.Currency, &row.Color, &row.InitialAmount, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get money source: %w", err)
	}
	s := mapMoneySource(row)
	return &s, nil
}

func (r *SQLiteRepository) UpdateMoneySource(ctx context.Context, id string, upd core.SourceUpdate) error {
	if upd.Empty() {
		return nil
	}

	set := ""
	var args []any
	add := func(col string, v any) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.OwnerType != nil {
		add("owner_type", string(*upd.OwnerType))
	}
	if upd.Currency != nil {
		add("currency", *upd.Currency)
	}
	if upd.Color != nil {
		add("color", *upd.Color)
	}
	if upd.InitialAmount != nil {
		add("initial_amount", *upd.InitialAmount)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE money_sources SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update money source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUnknownSource
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, name, kind) DO NOTHING`,
		c.ID, c.UserID, c.Name, string(c.Kind), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, kind, created_at
		FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var row categoryRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.Name, &row.Kind, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, mapCategory(row))
	}
	return out, rows.Err()
}

const transactionCols = `id, user_id, source_id, category_id, transfer_group_id,
	kind, amount_signed, occurred_at, note, include_in_cashflow, created_at`

const insertTransactionSQL = `
	INSERT INTO transactions (id, user_id, source_id, category_id, transfer_group_id,
		kind, amount_signed, occurred_at, note, include_in_cashflow, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, t core.Transaction) error {
	_, err := db.ExecContext(ctx, insertTransactionSQL,
		t.ID, t.UserID, t.SourceID, nullable(t.CategoryID), nullable(t.TransferGroupID),
		string(t.Kind), t.AmountSigned, t.OccurredAt, nullable(t.Note),
		t.IncludeInCashflow, t.CreatedAt)
	return err
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if err := insertTransaction(ctx, r.db, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"source_id", t.SourceID,
		"kind", t.Kind,
		"amount_signed", t.AmountSigned)
	return nil
}

// CreateTransfer inserts the group and both legs atomically. A failure
// on the second leg rolls back the first; no orphaned half-transfer can
// remain.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, group core.TransferGroup, out, in core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transfer_groups (id, user_id, created_at) VALUES (?, ?, ?)`,
		group.ID, group.UserID, group.CreatedAt); err != nil {
		return fmt.Errorf("create transfer group: %w", err)
	}
	if err := insertTransaction(ctx, tx, out); err != nil {
		return fmt.Errorf("insert outbound leg: %w", err)
	}
	if err := insertTransaction(ctx, tx, in); err != nil {
		return fmt.Errorf("insert inbound leg: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer saved",
		"group_id", group.ID,
		"from_source", out.SourceID,
		"to_source", in.SourceID,
		"amount", in.AmountSigned)
	return nil
}

// CreateAdjustment computes the delta against the derived balance and
// inserts the adjustment row in one database transaction, so a
// concurrent write to the same source cannot slip between the read and
// the insert.
func (r *SQLiteRepository) CreateAdjustment(ctx context.Context, t core.Transaction, actualBalance int64) (*core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin adjustment: %w", err)
	}
	defer tx.Rollback()

	var initial numeric
	err = tx.QueryRowContext(ctx,
		`SELECT initial_amount FROM money_sources WHERE id = ?`, t.SourceID).Scan(&initial)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUnknownSource
	}
	if err != nil {
		return nil, fmt.Errorf("read initial amount: %w", err)
	}

	var sum numeric
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_signed), 0) FROM transactions WHERE source_id = ?`,
		t.SourceID).Scan(&sum); err != nil {
		return nil, fmt.Errorf("sum transactions: %w", err)
	}

	currentBalance := int64(initial) + int64(sum)
	t.Kind = core.KindAdjustment
	t.AmountSigned = actualBalance - currentBalance

	if err := insertTransaction(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("insert adjustment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adjustment: %w", err)
	}

	slog.InfoContext(ctx, "Adjustment saved",
		"id", t.ID,
		"source_id", t.SourceID,
		"actual_balance", actualBalance,
		"delta", t.AmountSigned)
	return &t, nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, where string, arg any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE `+where+` ORDER BY occurred_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var row transactionRow
	if err := rows.Scan(&row.ID, &row.UserID, &row.SourceID, &row.CategoryID,
		&row.TransferGroupID, &row.Kind, &row.AmountSigned, &row.OccurredAt,
		&row.Note, &row.IncludeInCashflow, &row.CreatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	return mapTransaction(row), nil
}

func (r *SQLiteRepository) ListTransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	return r.listTransactions(ctx, "user_id = ?", userID)
}

func (r *SQLiteRepository) ListTransactionsBySource(ctx context.Context, sourceID string) ([]core.Transaction, error) {
	return r.listTransactions(ctx, "source_id = ?", sourceID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	var row transactionRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id).
		Scan(&row.ID, &row.UserID, &row.SourceID, &row.CategoryID,
			&row.TransferGroupID, &row.Kind, &row.AmountSigned, &row.OccurredAt,
			&row.Note, &row.IncludeInCashflow, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	t := mapTransaction(row)
	return &t, nil
}

func (r *SQLiteRepository) SourceBalance(ctx context.Context, sourceID string) (int64, error) {
	var initial numeric
	err := r.db.QueryRowContext(ctx,
		`SELECT initial_amount FROM money_sources WHERE id = ?`, sourceID).Scan(&initial)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrUnknownSource
	}
	if err != nil {
		return 0, fmt.Errorf("read initial amount: %w", err)
	}

	var sum numeric
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_signed), 0) FROM transactions WHERE source_id = ?`,
		sourceID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return int64(initial) + int64(sum), nil
}

// ReassignUserData moves every record owned by fromUserID to toUserID in
// one transaction and removes the legacy user row.
func (r *SQLiteRepository) ReassignUserData(ctx context.Context, fromUserID, toUserID string) (store.MovedCounts, error) {
	var counts store.MovedCounts

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	move := func(table string) (int64, error) {
		res, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET user_id = ? WHERE user_id = ?", toUserID, fromUserID)
		if err != nil {
			return 0, fmt.Errorf("reassign %s: %w", table, err)
		}
		return res.RowsAffected()
	}

	if counts.Sources, err = move("money_sources"); err != nil {
		return counts, err
	}
	if counts.Categories, err = move("categories"); err != nil {
		return counts, err
	}
	if counts.TransferGroups, err = move("transfer_groups"); err != nil {
		return counts, err
	}
	if counts.Transactions, err = move("transactions"); err != nil {
		return counts, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, fromUserID); err != nil {
		return counts, fmt.Errorf("remove legacy user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit migration: %w", err)
	}

	slog.InfoContext(ctx, "Legacy user data reassigned",
		"from", fromUserID,
		"to", toUserID,
		"moved", counts.Total())
	return counts, nil
}

func (r *SQLiteRepository) PendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM transactions
		 WHERE sync_status = 'pending' ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, txID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, txID); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", txID)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, txID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, txID); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", txID)
	return nil
}
