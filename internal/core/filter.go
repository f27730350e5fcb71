package core

import "strings"

// TransactionFilter narrows a fully fetched transaction set in memory.
// The zero value matches everything. Owner-type filtering needs the
// source list because transactions don't carry their source's owner
// type; a transaction whose source is missing from the list never
// matches.
type TransactionFilter struct {
	SourceID   string
	OwnerType  OwnerType
	Kind       TransactionKind
	SearchNote string
	FromMillis int64
	ToMillis   int64 // inclusive upper bound, 0 = unbounded
}

// Apply returns the transactions matching the filter, preserving input
// order.
func (f TransactionFilter) Apply(sources []MoneySource, txs []Transaction) []Transaction {
	byID := make(map[string]MoneySource, len(sources))
	for _, s := range sources {
		byID[s.ID] = s
	}

	search := strings.ToLower(strings.TrimSpace(f.SearchNote))

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		src, ok := byID[tx.SourceID]
		if !ok {
			continue
		}
		if f.SourceID != "" && tx.SourceID != f.SourceID {
			continue
		}
		if f.OwnerType != "" && src.OwnerType != f.OwnerType {
			continue
		}
		if f.Kind != "" && tx.Kind != f.Kind {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tx.Note), search) {
			continue
		}
		if f.FromMillis != 0 && tx.OccurredAt < f.FromMillis {
			continue
		}
		if f.ToMillis != 0 && tx.OccurredAt > f.ToMillis {
			continue
		}
		out = append(out, tx)
	}
	return out
}
