package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"moneytracker/internal/core"
	"moneytracker/internal/store/memory"
)

type recordingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, txID string, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, txID)
	return nil
}

func newTestService(t *testing.T) (*LedgerService, *memory.Store, *recordingPublisher) {
	t.Helper()
	st := memory.New()
	pub := &recordingPublisher{}
	return NewLedgerService(st, pub), st, pub
}

func mustCreateSource(t *testing.T, svc *LedgerService, name string, initial int64) *core.MoneySource {
	t.Helper()
	src, err := svc.CreateMoneySource(context.Background(), CreateSourceParams{
		UserID:        "u1",
		Name:          name,
		OwnerType:     core.OwnerPersonal,
		Currency:      "EUR",
		InitialAmount: initial,
	})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	return src
}

func TestCreateTransactionSigning(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()
	src := mustCreateSource(t, svc, "Checking", 0)

	income, err := svc.CreateTransaction(ctx, CreateTransactionParams{
		UserID: "u1", SourceID: src.ID, Kind: core.KindIncome, Amount: 500, OccurredAt: 1,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if income.AmountSigned != 500 {
		t.Fatalf("income amount: expected +500, got %d", income.AmountSigned)
	}
	if !income.IncludeInCashflow {
		t.Fatalf("income should default to cashflow-included")
	}

	expense, err := svc.CreateTransaction(ctx, CreateTransactionParams{
		UserID: "u1", SourceID: src.ID, Kind: core.KindExpense, Amount: 500, OccurredAt: 2,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if expense.AmountSigned != -500 {
		t.Fatalf("expense amount: expected -500, got %d", expense.AmountSigned)
	}

	balance, err := st.SourceBalance(ctx, src.ID)
	if err != nil || balance != 0 {
		t.Fatalf("balance: expected 0, got %d (err=%v)", balance, err)
	}
	if len(pub.ids) != 2 {
		t.Fatalf("expected 2 sync publishes, got %d", len(pub.ids))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	src := mustCreateSource(t, svc, "Checking", 0)

	cases := []struct {
		name string
		p    CreateTransactionParams
		want error
	}{
		{"zero amount", CreateTransactionParams{UserID: "u1", SourceID: src.ID, Kind: core.KindIncome, Amount: 0}, core.ErrInvalidAmount},
		{"negative amount", CreateTransactionParams{UserID: "u1", SourceID: src.ID, Kind: core.KindExpense, Amount: -5}, core.ErrInvalidAmount},
		{"transfer kind rejected", CreateTransactionParams{UserID: "u1", SourceID: src.ID, Kind: core.KindTransfer, Amount: 5}, core.ErrInvalidKind},
		{"unknown source", CreateTransactionParams{UserID: "u1", SourceID: "ghost", Kind: core.KindIncome, Amount: 5}, core.ErrUnknownSource},
	}
	for _, tc := range cases {
		if _, err := svc.CreateTransaction(ctx, tc.p); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateTransfer(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	from := mustCreateSource(t, svc, "Checking", 5000)
	to := mustCreateSource(t, svc, "Savings", 100)

	res, err := svc.CreateTransfer(ctx, CreateTransferParams{
		UserID:       "u1",
		FromSourceID: from.ID,
		ToSourceID:   to.ID,
		Amount:       1000,
		OccurredAt:   42,
		Note:         "monthly saving",
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if res.Out.AmountSigned != -1000 || res.In.AmountSigned != 1000 {
		t.Fatalf("legs: out=%d in=%d", res.Out.AmountSigned, res.In.AmountSigned)
	}
	if res.Out.TransferGroupID != res.Group.ID || res.In.TransferGroupID != res.Group.ID {
		t.Fatalf("legs must share the group id")
	}
	if res.Out.OccurredAt != res.In.OccurredAt || res.Out.Note != res.In.Note {
		t.Fatalf("legs must share occurredAt and note")
	}

	fromBalance, _ := st.SourceBalance(ctx, from.ID)
	toBalance, _ := st.SourceBalance(ctx, to.ID)
	if fromBalance != 4000 {
		t.Fatalf("from balance: expected 4000, got %d", fromBalance)
	}
	if toBalance != 1100 {
		t.Fatalf("to balance: expected 1100, got %d", toBalance)
	}
}

func TestCreateTransferValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	src := mustCreateSource(t, svc, "Checking", 0)

	if _, err := svc.CreateTransfer(ctx, CreateTransferParams{
		UserID: "u1", FromSourceID: src.ID, ToSourceID: src.ID, Amount: 100,
	}); !errors.Is(err, core.ErrSameSource) {
		t.Fatalf("same source: expected ErrSameSource, got %v", err)
	}

	other := mustCreateSource(t, svc, "Savings", 0)
	if _, err := svc.CreateTransfer(ctx, CreateTransferParams{
		UserID: "u1", FromSourceID: src.ID, ToSourceID: other.ID, Amount: 0,
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateAdjustment(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	src := mustCreateSource(t, svc, "Checking", 1500)

	if _, err := svc.CreateTransaction(ctx, CreateTransactionParams{
		UserID: "u1", SourceID: src.ID, Kind: core.KindIncome, Amount: 500, OccurredAt: 1,
	}); err != nil {
		t.Fatalf("seed income: %v", err)
	}

	// Computed balance is 2000; stating 2500 must insert a +500 delta.
	adj, err := svc.CreateAdjustment(ctx, CreateAdjustmentParams{
		UserID: "u1", SourceID: src.ID, ActualBalance: 2500, OccurredAt: 2,
	})
	if err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	if adj.AmountSigned != 500 {
		t.Fatalf("delta: expected +500, got %d", adj.AmountSigned)
	}
	if adj.Kind != core.KindAdjustment {
		t.Fatalf("kind: got %s", adj.Kind)
	}
	if adj.IncludeInCashflow {
		t.Fatalf("adjustments default to cashflow-excluded")
	}

	balance, _ := st.SourceBalance(ctx, src.ID)
	if balance != 2500 {
		t.Fatalf("recomputed balance: expected 2500, got %d", balance)
	}

	if _, err := svc.CreateAdjustment(ctx, CreateAdjustmentParams{
		UserID: "u1", SourceID: "ghost", ActualBalance: 1,
	}); !errors.Is(err, core.ErrUnknownSource) {
		t.Fatalf("unknown source: expected ErrUnknownSource, got %v", err)
	}
}

func TestCreateDefaultCategoriesOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateDefaultCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("seed defaults: %v", err)
	}
	if len(first) != len(defaultCategories) {
		t.Fatalf("expected %d categories, got %d", len(defaultCategories), len(first))
	}

	again, err := svc.CreateDefaultCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if len(again) != len(first) {
		t.Fatalf("seeding must be idempotent: %d vs %d", len(again), len(first))
	}
}
