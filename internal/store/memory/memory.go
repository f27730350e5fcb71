// Package memory provides an in-memory Store used by tests and the
// "memory" backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"moneytracker/internal/core"
	"moneytracker/internal/store"
)

type Store struct {
	mu         sync.Mutex
	users      map[string]core.User
	sources    []core.MoneySource
	categories []core.Category
	groups     []core.TransferGroup
	txs        []core.Transaction
	syncStatus map[string]string // tx id -> pending|synced|error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      make(map[string]core.User),
		syncStatus: make(map[string]string),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) UpsertUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		// An empty incoming email must not clobber a stored one.
		if u.Email != "" {
			existing.Email = u.Email
		}
		s.users[u.ID] = existing
		return nil
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Store) CreateMoneySource(_ context.Context, src core.MoneySource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, src)
	return nil
}

func (s *Store) ListMoneySources(_ context.Context, userID string) ([]core.MoneySource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MoneySource
	for _, src := range s.sources {
		if src.UserID == userID {
			out = append(out, src)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *Store) GetMoneySource(_ context.Context, id string) (*core.MoneySource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.ID == id {
			cp := src
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateMoneySource(_ context.Context, id string, upd core.SourceUpdate) error {
	if upd.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sources {
		if s.sources[i].ID != id {
			continue
		}
		if upd.Name != nil {
			s.sources[i].Name = *upd.Name
		}
		if upd.OwnerType != nil {
			s.sources[i].OwnerType = *upd.OwnerType
		}
		if upd.Currency != nil {
			s.sources[i].Currency = *upd.Currency
		}
		if upd.Color != nil {
			s.sources[i].Color = *upd.Color
		}
		if upd.InitialAmount != nil {
			s.sources[i].InitialAmount = *upd.InitialAmount
		}
		return nil
	}
	return core.ErrUnknownSource
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		// Same uniqueness rule as the database: (user, name, kind)
		if existing.UserID == c.UserID && existing.Name == c.Name && existing.Kind == c.Kind {
			return nil
		}
	}
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(t)
	return nil
}

func (s *Store) CreateTransfer(_ context.Context, group core.TransferGroup, out, in core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, group)
	s.append(out)
	s.append(in)
	return nil
}

func (s *Store) CreateAdjustment(_ context.Context, t core.Transaction, actualBalance int64) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.balanceLocked(t.SourceID)
	if err != nil {
		return nil, err
	}
	t.Kind = core.KindAdjustment
	t.AmountSigned = actualBalance - balance
	s.append(t)
	return &t, nil
}

// append records a ledger row and queues it for export. Callers hold mu.
func (s *Store) append(t core.Transaction) {
	s.txs = append(s.txs, t)
	s.syncStatus[t.ID] = "pending"
}

func (s *Store) balanceLocked(sourceID string) (int64, error) {
	var initial int64
	found := false
	for _, src := range s.sources {
		if src.ID == sourceID {
			initial = src.InitialAmount
			found = true
			break
		}
	}
	if !found {
		return 0, core.ErrUnknownSource
	}
	for _, tx := range s.txs {
		if tx.SourceID == sourceID {
			initial += tx.AmountSigned
		}
	}
	return initial, nil
}

func (s *Store) listTxs(match func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for _, tx := range s.txs {
		if match(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt > out[j].OccurredAt })
	return out
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listTxs(func(t core.Transaction) bool { return t.UserID == userID }), nil
}

func (s *Store) ListTransactionsBySource(_ context.Context, sourceID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listTxs(func(t core.Transaction) bool { return t.SourceID == sourceID }), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			cp := tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) SourceBalance(_ context.Context, sourceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(sourceID)
}

func (s *Store) ReassignUserData(_ context.Context, fromUserID, toUserID string) (store.MovedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts store.MovedCounts
	for i := range s.sources {
		if s.sources[i].UserID == fromUserID {
			s.sources[i].UserID = toUserID
			counts.Sources++
		}
	}
	for i := range s.categories {
		if s.categories[i].UserID == fromUserID {
			s.categories[i].UserID = toUserID
			counts.Categories++
		}
	}
	for i := range s.groups {
		if s.groups[i].UserID == fromUserID {
			s.groups[i].UserID = toUserID
			counts.TransferGroups++
		}
	}
	for i := range s.txs {
		if s.txs[i].UserID == fromUserID {
			s.txs[i].UserID = toUserID
			counts.Transactions++
		}
	}
	delete(s.users, fromUserID)
	return counts, nil
}

func (s *Store) PendingSyncTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.txs {
		if s.syncStatus[tx.ID] != "pending" {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncStatus[txID] = "synced"
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncStatus[txID] = "error"
	return nil
}
