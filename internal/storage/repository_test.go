package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"moneytracker/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertUserKeepsStoredEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	if err := repo.UpsertUser(ctx, core.User{ID: "u1", Email: "me@example.com", CreatedAt: now}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Upserting without an email must not wipe the stored one.
	if err := repo.UpsertUser(ctx, core.User{ID: "u1", Email: "", CreatedAt: now}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	u, err := repo.GetUser(ctx, "u1")
	if err != nil || u == nil {
		t.Fatalf("users row missing (err=%v)", err)
	}
	if u.Email != "me@example.com" {
		t.Fatalf("email: got %q, want %q", u.Email, "me@example.com")
	}

	if err := repo.UpsertUser(ctx, core.User{ID: "u1", Email: "new@example.com", CreatedAt: now}); err != nil {
		t.Fatalf("update email: %v", err)
	}
	u, _ = repo.GetUser(ctx, "u1")
	if u.Email != "new@example.com" {
		t.Fatalf("email: got %q, want %q", u.Email, "new@example.com")
	}
}
