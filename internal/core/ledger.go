package core

import "time"

// SourceStats is the derived state of one money source.
type SourceStats struct {
	Balance int64
	Count   int
}

// DashboardSummary aggregates all sources of a user plus the
// month-to-date cashflow. MonthExpense is a positive magnitude;
// MonthNet = MonthIncome - MonthExpense.
type DashboardSummary struct {
	TotalBalance    int64
	PersonalBalance int64
	CompanyBalance  int64
	MonthIncome     int64
	MonthExpense    int64
	MonthNet        int64
}

// ComputeSourceStats folds every transaction into its source, starting
// each source at its initial amount. The sum is commutative, so input
// order never matters. Transactions referencing an unknown source are
// skipped.
func ComputeSourceStats(sources []MoneySource, txs []Transaction) map[string]SourceStats {
	stats := make(map[string]SourceStats, len(sources))
	for _, s := range sources {
		stats[s.ID] = SourceStats{Balance: s.InitialAmount}
	}
	for _, tx := range txs {
		entry, ok := stats[tx.SourceID]
		if !ok {
			continue
		}
		entry.Balance += tx.AmountSigned
		entry.Count++
		stats[tx.SourceID] = entry
	}
	return stats
}

// countsAsIncome reports whether a transaction contributes to monthly
// income: cashflow-included and either an income, an inbound transfer
// leg, or a positive adjustment.
func countsAsIncome(t Transaction) bool {
	if !t.IncludeInCashflow {
		return false
	}
	return t.Kind == KindIncome ||
		(t.Kind == KindTransfer && t.AmountSigned > 0) ||
		(t.Kind == KindAdjustment && t.AmountSigned > 0)
}

func countsAsExpense(t Transaction) bool {
	if !t.IncludeInCashflow {
		return false
	}
	return t.Kind == KindExpense ||
		(t.Kind == KindTransfer && t.AmountSigned < 0) ||
		(t.Kind == KindAdjustment && t.AmountSigned < 0)
}

// MonthStartMillis returns midnight of the first day of the calendar
// month containing now, in now's location, as unix millis.
func MonthStartMillis(now time.Time) int64 {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).UnixMilli()
}

// DashboardTotals derives the dashboard aggregates from the full record
// set of one user. The month window runs from the first of the calendar
// month of now (00:00:00, now's location) with no upper bound.
func DashboardTotals(sources []MoneySource, txs []Transaction, now time.Time) DashboardSummary {
	stats := ComputeSourceStats(sources, txs)

	var summary DashboardSummary
	for _, s := range sources {
		balance := stats[s.ID].Balance
		summary.TotalBalance += balance
		switch s.OwnerType {
		case OwnerPersonal:
			summary.PersonalBalance += balance
		case OwnerCompany:
			summary.CompanyBalance += balance
		}
	}

	monthStart := MonthStartMillis(now)
	for _, t := range txs {
		if t.OccurredAt < monthStart {
			continue
		}
		if countsAsIncome(t) {
			summary.MonthIncome += t.AmountSigned
		} else if countsAsExpense(t) {
			summary.MonthExpense -= t.AmountSigned
		}
	}
	summary.MonthNet = summary.MonthIncome - summary.MonthExpense

	return summary
}
