package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"moneytracker/internal/core"
)

type dashboardResponse struct {
	TotalBalance    int64 `json:"total_balance"`
	PersonalBalance int64 `json:"personal_balance"`
	CompanyBalance  int64 `json:"company_balance"`
	MonthIncome     int64 `json:"month_income"`
	MonthExpense    int64 `json:"month_expense"`
	MonthNet        int64 `json:"month_net"`
}

// handleDashboard returns the user's aggregate balances and the
// month-to-date cashflow.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	summary, err := s.getDashboard(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard error", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalBalance:    summary.TotalBalance,
		PersonalBalance: summary.PersonalBalance,
		CompanyBalance:  summary.CompanyBalance,
		MonthIncome:     summary.MonthIncome,
		MonthExpense:    summary.MonthExpense,
		MonthNet:        summary.MonthNet,
	})
}

func (s *Server) getDashboard(ctx context.Context, userID string) (core.DashboardSummary, error) {
	if summary, found := s.dashboardCache.Get(userID); found {
		slog.DebugContext(ctx, "Dashboard cache hit", "user_id", userID)
		return summary, nil
	}

	sources, txs, err := s.loadLedger(ctx, userID)
	if err != nil {
		return core.DashboardSummary{}, err
	}

	summary := core.DashboardTotals(sources, txs, time.Now())
	s.dashboardCache.Set(userID, summary)
	return summary, nil
}

type sourceStatsJSON struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Balance  int64  `json:"balance"`
	Count    int    `json:"count"`
}

// handleStats returns per-source derived balances and transaction
// counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	stats, found := s.statsCache.Get(userID)
	var sources []core.MoneySource
	if !found {
		var txs []core.Transaction
		sources, txs, err = s.loadLedger(r.Context(), userID)
		if err != nil {
			slog.ErrorContext(r.Context(), "Stats error", "user_id", userID, "error", err)
			writeServiceError(w, err)
			return
		}
		stats = core.ComputeSourceStats(sources, txs)
		s.statsCache.Set(userID, stats)
	} else {
		sources, err = s.store.ListMoneySources(r.Context(), userID)
		if err != nil {
			slog.ErrorContext(r.Context(), "Stats error", "user_id", userID, "error", err)
			writeServiceError(w, err)
			return
		}
	}

	out := make([]sourceStatsJSON, 0, len(sources))
	for _, src := range sources {
		st := stats[src.ID]
		out = append(out, sourceStatsJSON{
			SourceID: src.ID,
			Name:     src.Name,
			Balance:  st.Balance,
			Count:    st.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) loadLedger(ctx context.Context, userID string) ([]core.MoneySource, []core.Transaction, error) {
	sources, err := s.store.ListMoneySources(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return sources, txs, nil
}
