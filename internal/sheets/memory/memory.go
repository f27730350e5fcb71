package memory

import (
	"context"
	"fmt"
	"sync"

	"moneytracker/internal/core"
)

type AppendedRow struct {
	Tx         core.Transaction
	SourceName string
}

type Store struct {
	mu    sync.Mutex
	items []AppendedRow
	fail  error
}

func New() *Store {
	return &Store{}
}

// FailWith makes subsequent Append calls return err.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction, sourceName string) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.items = append(s.items, AppendedRow{Tx: tx, SourceName: sourceName})
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []AppendedRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AppendedRow(nil), s.items...)
}
