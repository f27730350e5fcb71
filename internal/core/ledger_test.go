package core

import (
	"reflect"
	"testing"
	"time"
)

func millis(t time.Time) int64 { return t.UnixMilli() }

func TestComputeSourceStats(t *testing.T) {
	sources := []MoneySource{
		{ID: "a", OwnerType: OwnerPersonal, InitialAmount: 1000},
		{ID: "b", OwnerType: OwnerCompany, InitialAmount: 0},
	}
	txs := []Transaction{
		{SourceID: "a", Kind: KindIncome, AmountSigned: 500, IncludeInCashflow: true},
		{SourceID: "a", Kind: KindExpense, AmountSigned: -200, IncludeInCashflow: true},
		{SourceID: "b", Kind: KindIncome, AmountSigned: 300, IncludeInCashflow: true},
		{SourceID: "ghost", Kind: KindIncome, AmountSigned: 999, IncludeInCashflow: true}, // unknown source skipped
	}

	stats := ComputeSourceStats(sources, txs)
	if got := stats["a"]; got.Balance != 1300 || got.Count != 2 {
		t.Fatalf("source a: got %+v", got)
	}
	if got := stats["b"]; got.Balance != 300 || got.Count != 1 {
		t.Fatalf("source b: got %+v", got)
	}
	if _, ok := stats["ghost"]; ok {
		t.Fatalf("unknown source must not appear in stats")
	}

	// Pure function: same inputs, same output.
	again := ComputeSourceStats(sources, txs)
	if !reflect.DeepEqual(stats, again) {
		t.Fatalf("recomputation diverged: %v vs %v", stats, again)
	}
}

func TestDashboardTotalsPartition(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	sources := []MoneySource{
		{ID: "p", OwnerType: OwnerPersonal, InitialAmount: 2000},
		{ID: "c", OwnerType: OwnerCompany, InitialAmount: 5000},
	}
	txs := []Transaction{
		{SourceID: "p", Kind: KindIncome, AmountSigned: 500, OccurredAt: millis(now), IncludeInCashflow: true},
		{SourceID: "c", Kind: KindExpense, AmountSigned: -300, OccurredAt: millis(now), IncludeInCashflow: true},
	}

	sum := DashboardTotals(sources, txs, now)
	if sum.PersonalBalance != 2500 || sum.CompanyBalance != 4700 {
		t.Fatalf("partition: got %+v", sum)
	}
	if sum.TotalBalance != sum.PersonalBalance+sum.CompanyBalance {
		t.Fatalf("total != personal+company: %+v", sum)
	}
	if sum.MonthIncome != 500 || sum.MonthExpense != 300 || sum.MonthNet != 200 {
		t.Fatalf("month figures: got %+v", sum)
	}
}

func TestDashboardTotalsMonthWindow(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	monthStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)
	sources := []MoneySource{{ID: "s", OwnerType: OwnerPersonal}}

	txs := []Transaction{
		// One millisecond before the month boundary: excluded.
		{SourceID: "s", Kind: KindIncome, AmountSigned: 100, OccurredAt: millis(monthStart) - 1, IncludeInCashflow: true},
		// Exactly at the boundary: included.
		{SourceID: "s", Kind: KindIncome, AmountSigned: 40, OccurredAt: millis(monthStart), IncludeInCashflow: true},
		{SourceID: "s", Kind: KindExpense, AmountSigned: -15, OccurredAt: millis(now), IncludeInCashflow: true},
	}

	sum := DashboardTotals(sources, txs, now)
	if sum.MonthIncome != 40 {
		t.Fatalf("expected month income 40, got %d", sum.MonthIncome)
	}
	if sum.MonthExpense != 15 {
		t.Fatalf("expected month expense 15, got %d", sum.MonthExpense)
	}
	// The pre-month transaction still counts toward the balance.
	if sum.TotalBalance != 125 {
		t.Fatalf("expected total balance 125, got %d", sum.TotalBalance)
	}
}

func TestDashboardTotalsCashflowGate(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	sources := []MoneySource{{ID: "s", OwnerType: OwnerPersonal}}

	txs := []Transaction{
		// Adjustment excluded from cashflow by default: moves balance only.
		{SourceID: "s", Kind: KindAdjustment, AmountSigned: 700, OccurredAt: millis(now), IncludeInCashflow: false},
		// Opted-in positive adjustment counts as income.
		{SourceID: "s", Kind: KindAdjustment, AmountSigned: 50, OccurredAt: millis(now), IncludeInCashflow: true},
		// Transfer legs count by sign when included.
		{SourceID: "s", Kind: KindTransfer, TransferGroupID: "g", AmountSigned: -30, OccurredAt: millis(now), IncludeInCashflow: true},
	}

	sum := DashboardTotals(sources, txs, now)
	if sum.MonthIncome != 50 {
		t.Fatalf("expected month income 50, got %d", sum.MonthIncome)
	}
	if sum.MonthExpense != 30 {
		t.Fatalf("expected month expense 30, got %d", sum.MonthExpense)
	}
	if sum.TotalBalance != 720 {
		t.Fatalf("expected total balance 720, got %d", sum.TotalBalance)
	}
}

func TestDashboardTotalsMatchSourceStats(t *testing.T) {
	now := time.Now()
	sources := []MoneySource{
		{ID: "a", OwnerType: OwnerPersonal, InitialAmount: 10},
		{ID: "b", OwnerType: OwnerPersonal, InitialAmount: 20},
		{ID: "c", OwnerType: OwnerCompany, InitialAmount: 30},
	}
	txs := []Transaction{
		{SourceID: "a", Kind: KindIncome, AmountSigned: 5, OccurredAt: millis(now), IncludeInCashflow: true},
		{SourceID: "b", Kind: KindExpense, AmountSigned: -7, OccurredAt: millis(now), IncludeInCashflow: true},
		{SourceID: "c", Kind: KindIncome, AmountSigned: 11, OccurredAt: millis(now), IncludeInCashflow: true},
	}

	stats := ComputeSourceStats(sources, txs)
	sum := DashboardTotals(sources, txs, now)

	var total int64
	for _, s := range sources {
		total += stats[s.ID].Balance
	}
	if sum.TotalBalance != total {
		t.Fatalf("dashboard total %d != stats sum %d", sum.TotalBalance, total)
	}
}

func TestMonthStartMillis(t *testing.T) {
	now := time.Date(2026, 2, 28, 23, 59, 59, 0, time.Local)
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local).UnixMilli()
	if got := MonthStartMillis(now); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}
