package services

import (
	"context"
	"testing"

	"moneytracker/internal/core"
	"moneytracker/internal/identity"
	"moneytracker/internal/store/memory"
)

func TestInitializeDeviceUser(t *testing.T) {
	st := memory.New()
	device := &identity.MemoryProvider{}
	svc := NewIdentityService(st, device)
	ctx := context.Background()

	id, err := svc.InitializeDeviceUser(ctx)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if id == "" {
		t.Fatalf("expected minted id")
	}

	// Second call returns the same identity.
	again, err := svc.InitializeDeviceUser(ctx)
	if err != nil || again != id {
		t.Fatalf("expected stable id %q, got %q (err=%v)", id, again, err)
	}

	u, err := st.GetUser(ctx, id)
	if err != nil || u == nil {
		t.Fatalf("users row missing after initialize (err=%v)", err)
	}
}

func TestEnsureUserKeepsStoredEmail(t *testing.T) {
	st := memory.New()
	svc := NewIdentityService(st, &identity.MemoryProvider{})
	ctx := context.Background()

	if err := svc.EnsureUser(ctx, "auth-1", "me@example.com"); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	// Re-ensuring without an email, as the migrate endpoint does, must
	// not wipe the stored one.
	if err := svc.EnsureUser(ctx, "auth-1", ""); err != nil {
		t.Fatalf("re-ensure user: %v", err)
	}

	u, err := st.GetUser(ctx, "auth-1")
	if err != nil || u == nil {
		t.Fatalf("users row missing (err=%v)", err)
	}
	if u.Email != "me@example.com" {
		t.Fatalf("email: got %q, want %q", u.Email, "me@example.com")
	}

	// A real email still overwrites.
	if err := svc.EnsureUser(ctx, "auth-1", "new@example.com"); err != nil {
		t.Fatalf("update email: %v", err)
	}
	u, _ = st.GetUser(ctx, "auth-1")
	if u.Email != "new@example.com" {
		t.Fatalf("email: got %q, want %q", u.Email, "new@example.com")
	}
}

func TestMigrateSkipped(t *testing.T) {
	st := memory.New()
	svc := NewIdentityService(st, &identity.MemoryProvider{})
	ctx := context.Background()

	cases := []struct {
		name   string
		legacy string
		auth   string
	}{
		{"empty legacy", "", "auth-1"},
		{"same id", "auth-1", "auth-1"},
		{"legacy user unknown", "ghost", "auth-1"},
	}
	for _, tc := range cases {
		res, err := svc.Migrate(ctx, tc.legacy, tc.auth)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if res.Status != MigrationSkipped {
			t.Fatalf("%s: expected skipped, got %s", tc.name, res.Status)
		}
	}
}

func TestMigrateMovesRecords(t *testing.T) {
	st := memory.New()
	device := &identity.MemoryProvider{}
	svc := NewIdentityService(st, device)
	ledger := NewLedgerService(st, nil)
	ctx := context.Background()

	if err := device.Set("legacy-1"); err != nil {
		t.Fatalf("set device id: %v", err)
	}
	if err := svc.EnsureUser(ctx, "legacy-1", ""); err != nil {
		t.Fatalf("ensure legacy user: %v", err)
	}
	src, err := ledger.CreateMoneySource(ctx, CreateSourceParams{
		UserID: "legacy-1", Name: "Cash", OwnerType: core.OwnerPersonal, Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	if _, err := ledger.CreateTransaction(ctx, CreateTransactionParams{
		UserID: "legacy-1", SourceID: src.ID, Kind: core.KindIncome, Amount: 100,
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := svc.EnsureUser(ctx, "auth-1", "me@example.com"); err != nil {
		t.Fatalf("ensure auth user: %v", err)
	}
	res, err := svc.MigrateFromDevice(ctx, "auth-1")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if res.Status != MigrationMigrated {
		t.Fatalf("expected migrated, got %s (%s)", res.Status, res.Message)
	}
	if res.Moved.Sources != 1 || res.Moved.Transactions != 1 {
		t.Fatalf("moved counts: %+v", res.Moved)
	}

	moved, err := st.ListMoneySources(ctx, "auth-1")
	if err != nil || len(moved) != 1 {
		t.Fatalf("expected 1 source under auth user, got %d (err=%v)", len(moved), err)
	}
	orphans, err := st.ListTransactionsByUser(ctx, "legacy-1")
	if err != nil || len(orphans) != 0 {
		t.Fatalf("legacy user must own nothing after migration")
	}

	// Device identity now points at the authenticated id, so the
	// reconciliation never re-runs.
	id, _ := device.Get()
	if id != "auth-1" {
		t.Fatalf("device identity: expected auth-1, got %q", id)
	}
	res, err = svc.MigrateFromDevice(ctx, "auth-1")
	if err != nil || res.Status != MigrationSkipped {
		t.Fatalf("second run: expected skipped, got %s (err=%v)", res.Status, err)
	}
}
