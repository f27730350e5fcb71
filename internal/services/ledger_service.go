package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"moneytracker/internal/core"
	"moneytracker/internal/store"
)

// SyncPublisher announces committed ledger writes to the export queue.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, txID string, version int64) error
}

// LedgerService orchestrates ledger mutations: validation, signing,
// persistence, and the async export publish. A failed publish never
// fails the write; the periodic worker sweep picks the row up later.
type LedgerService struct {
	store     store.Store
	publisher SyncPublisher
}

func NewLedgerService(st store.Store, publisher SyncPublisher) *LedgerService {
	return &LedgerService{
		store:     st,
		publisher: publisher,
	}
}

type CreateSourceParams struct {
	UserID        string
	Name          string
	OwnerType     core.OwnerType
	Currency      string
	Color         string
	InitialAmount int64
}

func (s *LedgerService) CreateMoneySource(ctx context.Context, p CreateSourceParams) (*core.MoneySource, error) {
	src := core.MoneySource{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		Name:          p.Name,
		OwnerType:     p.OwnerType,
		Currency:      p.Currency,
		Color:         p.Color,
		InitialAmount: p.InitialAmount,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if src.Color == "" {
		src.Color = "blue"
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateMoneySource(ctx, src); err != nil {
		return nil, fmt.Errorf("save money source: %w", err)
	}
	return &src, nil
}

func (s *LedgerService) UpdateMoneySource(ctx context.Context, id string, upd core.SourceUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}
	if upd.Empty() {
		return nil
	}
	return s.store.UpdateMoneySource(ctx, id, upd)
}

func (s *LedgerService) CreateCategory(ctx context.Context, userID, name string, kind core.TransactionKind) (*core.Category, error) {
	cat := core.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, cat); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return &cat, nil
}

// defaultCategories seed a fresh user's taxonomy.
var defaultCategories = []struct {
	Name string
	Kind core.TransactionKind
}{
	{"Food", core.KindExpense},
	{"Transport", core.KindExpense},
	{"Utilities", core.KindExpense},
	{"Salary", core.KindIncome},
	{"Revenue", core.KindIncome},
}

// CreateDefaultCategories seeds the standard set once. Existing
// categories win: the call is a no-op when the user already has any.
func (s *LedgerService) CreateDefaultCategories(ctx context.Context, userID string) ([]core.Category, error) {
	existing, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	createdAt := time.Now().UnixMilli()
	for _, d := range defaultCategories {
		cat := core.Category{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      d.Name,
			Kind:      d.Kind,
			CreatedAt: createdAt,
		}
		if err := s.store.CreateCategory(ctx, cat); err != nil {
			return nil, fmt.Errorf("seed category %q: %w", d.Name, err)
		}
	}
	return s.store.ListCategories(ctx, userID)
}

type CreateTransactionParams struct {
	UserID     string
	SourceID   string
	CategoryID string
	Kind       core.TransactionKind // income or expense
	Amount     int64                // unsigned, > 0
	OccurredAt int64
	Note       string
}

// CreateTransaction stores one income or expense row, signing the
// amount by kind: +amount for income, -amount for expense.
func (s *LedgerService) CreateTransaction(ctx context.Context, p CreateTransactionParams) (*core.Transaction, error) {
	if p.Kind != core.KindIncome && p.Kind != core.KindExpense {
		return nil, core.ErrInvalidKind
	}
	if p.Amount <= 0 {
		return nil, core.ErrInvalidAmount
	}
	if err := s.requireSource(ctx, p.SourceID); err != nil {
		return nil, err
	}

	amountSigned := p.Amount
	if p.Kind == core.KindExpense {
		amountSigned = -p.Amount
	}

	tx := core.Transaction{
		ID:                uuid.NewString(),
		UserID:            p.UserID,
		SourceID:          p.SourceID,
		CategoryID:        p.CategoryID,
		Kind:              p.Kind,
		AmountSigned:      amountSigned,
		OccurredAt:        p.OccurredAt,
		Note:              p.Note,
		IncludeInCashflow: true,
		CreatedAt:         time.Now().UnixMilli(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, tx.ID)
	return &tx, nil
}

type CreateTransferParams struct {
	UserID       string
	FromSourceID string
	ToSourceID   string
	Amount       int64 // unsigned, > 0
	OccurredAt   int64
	Note         string
}

// TransferResult is the created group plus both legs.
type TransferResult struct {
	Group core.TransferGroup
	Out   core.Transaction
	In    core.Transaction
}

// CreateTransfer creates one transfer group and its two legs: -amount
// on the outbound source, +amount on the inbound one, identical
// occurredAt and note.
func (s *LedgerService) CreateTransfer(ctx context.Context, p CreateTransferParams) (*TransferResult, error) {
	if p.FromSourceID == p.ToSourceID {
		return nil, core.ErrSameSource
	}
	if p.Amount <= 0 {
		return nil, core.ErrInvalidAmount
	}
	if err := s.requireSource(ctx, p.FromSourceID); err != nil {
		return nil, err
	}
	if err := s.requireSource(ctx, p.ToSourceID); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	group := core.TransferGroup{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		CreatedAt: now,
	}
	out := core.Transaction{
		ID:                uuid.NewString(),
		UserID:            p.UserID,
		SourceID:          p.FromSourceID,
		TransferGroupID:   group.ID,
		Kind:              core.KindTransfer,
		AmountSigned:      -p.Amount,
		OccurredAt:        p.OccurredAt,
		Note:              p.Note,
		IncludeInCashflow: true,
		CreatedAt:         now,
	}
	in := out
	in.ID = uuid.NewString()
	in.SourceID = p.ToSourceID
	in.AmountSigned = p.Amount

	if err := s.store.CreateTransfer(ctx, group, out, in); err != nil {
		return nil, fmt.Errorf("save transfer: %w", err)
	}

	s.publishSync(ctx, out.ID)
	s.publishSync(ctx, in.ID)
	return &TransferResult{Group: group, Out: out, In: in}, nil
}

type CreateAdjustmentParams struct {
	UserID            string
	SourceID          string
	ActualBalance     int64
	OccurredAt        int64
	IncludeInCashflow bool // defaults false: corrections stay out of cashflow
}

// CreateAdjustment records the delta between the stated actual balance
// and the derived balance. The store computes the delta atomically with
// the insert.
func (s *LedgerService) CreateAdjustment(ctx context.Context, p CreateAdjustmentParams) (*core.Transaction, error) {
	tx := core.Transaction{
		ID:                uuid.NewString(),
		UserID:            p.UserID,
		SourceID:          p.SourceID,
		Kind:              core.KindAdjustment,
		OccurredAt:        p.OccurredAt,
		IncludeInCashflow: p.IncludeInCashflow,
		CreatedAt:         time.Now().UnixMilli(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateAdjustment(ctx, tx, p.ActualBalance)
	if err != nil {
		return nil, err
	}

	s.publishSync(ctx, created.ID)
	return created, nil
}

func (s *LedgerService) requireSource(ctx context.Context, sourceID string) error {
	src, err := s.store.GetMoneySource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("check source: %w", err)
	}
	if src == nil {
		return core.ErrUnknownSource
	}
	return nil
}

func (s *LedgerService) publishSync(ctx context.Context, txID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, txID, 1); err != nil {
		// The write already committed; the periodic sweep will retry.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", txID, "error", err)
	}
}

// Close releases the underlying store.
func (s *LedgerService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
