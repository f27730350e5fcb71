package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"moneytracker/internal/core"
	"moneytracker/internal/identity"
	"moneytracker/internal/store"
)

const (
	MigrationMigrated MigrationStatus = "migrated"
	MigrationSkipped  MigrationStatus = "skipped"
	MigrationError    MigrationStatus = "error"
)

type MigrationStatus string

// MigrationResult reports the outcome of one legacy-identity
// reconciliation.
type MigrationResult struct {
	Status  MigrationStatus
	Message string
	Moved   store.MovedCounts
}

// IdentityService manages user rows and the one-time migration of a
// device-local anonymous identity into an authenticated one.
type IdentityService struct {
	store  store.Store
	device identity.Provider
}

func NewIdentityService(st store.Store, device identity.Provider) *IdentityService {
	return &IdentityService{
		store:  st,
		device: device,
	}
}

// InitializeDeviceUser returns the device's anonymous user id, minting
// and persisting one on first run, and makes sure the users row exists.
func (s *IdentityService) InitializeDeviceUser(ctx context.Context) (string, error) {
	userID, err := s.device.Get()
	if err != nil {
		return "", fmt.Errorf("read device identity: %w", err)
	}
	if userID == "" {
		userID = uuid.NewString()
		if err := s.device.Set(userID); err != nil {
			return "", fmt.Errorf("persist device identity: %w", err)
		}
		slog.InfoContext(ctx, "Minted anonymous device user", "user_id", userID)
	}

	if err := s.EnsureUser(ctx, userID, ""); err != nil {
		return "", err
	}
	return userID, nil
}

// EnsureUser upserts the users row for an identity.
func (s *IdentityService) EnsureUser(ctx context.Context, userID, email string) error {
	return s.store.UpsertUser(ctx, core.User{
		ID:        userID,
		Email:     email,
		CreatedAt: time.Now().UnixMilli(),
	})
}

// Migrate reassigns every record owned by legacyUserID to authUserID.
// It is explicit and one-shot: identical or empty ids skip, a legacy id
// owning nothing skips, and any storage failure reports an error status
// alongside the returned error.
func (s *IdentityService) Migrate(ctx context.Context, legacyUserID, authUserID string) (MigrationResult, error) {
	if legacyUserID == "" || legacyUserID == authUserID {
		return MigrationResult{
			Status:  MigrationSkipped,
			Message: "nothing to migrate",
		}, nil
	}

	legacy, err := s.store.GetUser(ctx, legacyUserID)
	if err != nil {
		return MigrationResult{Status: MigrationError, Message: err.Error()}, err
	}
	if legacy == nil {
		return MigrationResult{
			Status:  MigrationSkipped,
			Message: "legacy user not found",
		}, nil
	}

	counts, err := s.store.ReassignUserData(ctx, legacyUserID, authUserID)
	if err != nil {
		return MigrationResult{Status: MigrationError, Message: err.Error()}, err
	}
	if counts.Total() == 0 {
		return MigrationResult{
			Status:  MigrationSkipped,
			Message: "legacy user owned no records",
		}, nil
	}

	return MigrationResult{
		Status:  MigrationMigrated,
		Message: fmt.Sprintf("moved %d records", counts.Total()),
		Moved:   counts,
	}, nil
}

// MigrateFromDevice runs Migrate against the device-stored legacy id
// and, on success, repoints the device identity at the authenticated
// id so the reconciliation never re-runs.
func (s *IdentityService) MigrateFromDevice(ctx context.Context, authUserID string) (MigrationResult, error) {
	legacyUserID, err := s.device.Get()
	if err != nil {
		return MigrationResult{Status: MigrationError, Message: err.Error()},
			fmt.Errorf("read device identity: %w", err)
	}

	result, err := s.Migrate(ctx, legacyUserID, authUserID)
	if err != nil {
		return result, err
	}

	if err := s.device.Set(authUserID); err != nil {
		slog.WarnContext(ctx, "Failed to update device identity after migration",
			"error", err)
	}
	return result, nil
}
