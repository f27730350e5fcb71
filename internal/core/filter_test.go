package core

import "testing"

func TestTransactionFilterApply(t *testing.T) {
	sources := []MoneySource{
		{ID: "p", OwnerType: OwnerPersonal},
		{ID: "c", OwnerType: OwnerCompany},
	}
	txs := []Transaction{
		{ID: "1", SourceID: "p", Kind: KindIncome, Note: "Salary August", OccurredAt: 100},
		{ID: "2", SourceID: "c", Kind: KindExpense, Note: "office rent", OccurredAt: 200},
		{ID: "3", SourceID: "p", Kind: KindExpense, Note: "groceries", OccurredAt: 300},
		{ID: "4", SourceID: "orphan", Kind: KindIncome, Note: "lost", OccurredAt: 400},
	}

	ids := func(got []Transaction) []string {
		out := make([]string, len(got))
		for i, tx := range got {
			out[i] = tx.ID
		}
		return out
	}

	cases := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{"all", TransactionFilter{}, []string{"1", "2", "3"}},
		{"owner type", TransactionFilter{OwnerType: OwnerCompany}, []string{"2"}},
		{"kind", TransactionFilter{Kind: KindExpense}, []string{"2", "3"}},
		{"note search is case-insensitive", TransactionFilter{SearchNote: "SALARY"}, []string{"1"}},
		{"from", TransactionFilter{FromMillis: 200}, []string{"2", "3"}},
		{"to inclusive", TransactionFilter{ToMillis: 200}, []string{"1", "2"}},
		{"source id", TransactionFilter{SourceID: "p"}, []string{"1", "3"}},
		{"combined", TransactionFilter{OwnerType: OwnerPersonal, Kind: KindExpense, FromMillis: 250}, []string{"3"}},
	}
	for _, tc := range cases {
		got := ids(tc.filter.Apply(sources, txs))
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
			}
		}
	}
}
