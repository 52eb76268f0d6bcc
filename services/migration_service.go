package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/clan"
	"tapEmpireAPI/internal/types/powerup"
	"tapEmpireAPI/internal/types/profile"
	"tapEmpireAPI/internal/types/referral"
	"tapEmpireAPI/internal/types/settings"
	"tapEmpireAPI/internal/types/statistics"

	"github.com/google/uuid"
)

// MigrationService moves a user's locally staged game state into the
// hosted backend, then purges the local copies. The transfer is
// all-or-nothing per user: any failed hosted write aborts the run
// before any local key is deleted, so the staged data stays intact
// and the migration can be retried. Hosted updates overwrite and
// referral creation dedupes on the (referrer, referred) pair, which
// makes the retry idempotent. Runs for different users are
// independent and may overlap; writes within one run are strictly
// sequential.
type MigrationService struct {
	local *LocalStore
}

func NewMigrationService(local *LocalStore) *MigrationService {
	return &MigrationService{local: local}
}

// MigrateUser transfers every staged entity kind for userID into the
// given backend. Errors wrap the underlying cause and name the user.
func (s *MigrationService) MigrateUser(ctx context.Context, userID string, backend storage.Backend) error {
	if err := s.migrateProfile(ctx, userID, backend); err != nil {
		return fmt.Errorf("migration failed for user %s: %w", userID, err)
	}
	if err := s.migrateSettings(ctx, userID, backend); err != nil {
		return fmt.Errorf("migration failed for user %s: %w", userID, err)
	}
	if err := s.migrateStatistics(ctx, userID, backend); err != nil {
		return fmt.Errorf("migration failed for user %s: %w", userID, err)
	}
	if err := s.migratePowerUps(ctx, userID, backend); err != nil {
		return fmt.Errorf("migration failed for user %s: %w", userID, err)
	}
	if err := s.migrateClan(ctx, userID, backend); err != nil {
		return fmt.Errorf("migration failed for user %s: %w", userID, err)
	}
	if err := s.migrateReferrals(ctx, userID, backend); err != nil {
		return fmt.Errorf("migration failed for user %s: %w", userID, err)
	}

	// Every hosted write succeeded; only now purge the staged copies.
	for _, key := range StagedKeys(userID) {
		if err := s.local.Delete(ctx, key); err != nil {
			return fmt.Errorf("migration failed for user %s: %w", userID, err)
		}
	}

	log.Printf("Migration complete for user %s", userID)
	return nil
}

func (s *MigrationService) migrateProfile(ctx context.Context, userID string, backend storage.Backend) error {
	raw, found, err := s.local.Get(ctx, profileKey(userID))
	if err != nil || !found {
		return err
	}

	var p profile.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode staged profile: %w", err)
	}
	p.ID = userID

	if _, err := backend.CreateUserProfile(ctx, &p); err != nil {
		return fmt.Errorf("failed to migrate profile: %w", err)
	}
	return nil
}

func (s *MigrationService) migrateSettings(ctx context.Context, userID string, backend storage.Backend) error {
	raw, found, err := s.local.Get(ctx, settingsKey(userID))
	if err != nil || !found {
		return err
	}

	var gs settings.GameSettings
	if err := json.Unmarshal(raw, &gs); err != nil {
		return fmt.Errorf("failed to decode staged settings: %w", err)
	}

	if _, err := backend.UpdateGameSettings(ctx, userID, &gs); err != nil {
		return fmt.Errorf("failed to migrate settings: %w", err)
	}
	return nil
}

func (s *MigrationService) migrateStatistics(ctx context.Context, userID string, backend storage.Backend) error {
	raw, found, err := s.local.Get(ctx, statisticsKey(userID))
	if err != nil || !found {
		return err
	}

	var gs statistics.GameStatistics
	if err := json.Unmarshal(raw, &gs); err != nil {
		return fmt.Errorf("failed to decode staged statistics: %w", err)
	}

	if _, err := backend.UpdateStatistics(ctx, userID, &gs); err != nil {
		return fmt.Errorf("failed to migrate statistics: %w", err)
	}
	return nil
}

// Power-ups move one row per inventory type: the hosted write is
// scoped to a single (user, type) pair.
func (s *MigrationService) migratePowerUps(ctx context.Context, userID string, backend storage.Backend) error {
	raw, found, err := s.local.Get(ctx, powerUpsKey(userID))
	if err != nil || !found {
		return err
	}

	var powerUps []powerup.PowerUp
	if err := json.Unmarshal(raw, &powerUps); err != nil {
		return fmt.Errorf("failed to decode staged power-ups: %w", err)
	}

	for _, p := range powerUps {
		if _, err := backend.AddPowerUp(ctx, userID, p.Type, p.Quantity); err != nil {
			return fmt.Errorf("failed to migrate power-up %s: %w", p.Type, err)
		}
	}
	return nil
}

// Only the clan's owner migrates the clan record; members see the
// hosted copy once the owner's run created it.
func (s *MigrationService) migrateClan(ctx context.Context, userID string, backend storage.Backend) error {
	raw, found, err := s.local.Get(ctx, clanKey(userID))
	if err != nil || !found {
		return err
	}

	var c clan.Clan
	if err := json.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("failed to decode staged clan: %w", err)
	}
	if c.OwnerID != userID {
		return nil
	}

	req := &clan.CreateClanRequest{Name: c.Name, OwnerID: userID}
	if c.ID != uuid.Nil {
		id := c.ID
		req.ID = &id
	}
	if _, err := backend.CreateClan(ctx, req); err != nil {
		return fmt.Errorf("failed to migrate clan: %w", err)
	}
	return nil
}

// Referrals are created rather than updated: migration is their
// first appearance in the hosted system. Rows where this user is not
// the referrer are skipped; the referrer's own run migrates those.
func (s *MigrationService) migrateReferrals(ctx context.Context, userID string, backend storage.Backend) error {
	raw, found, err := s.local.Get(ctx, referralsKey(userID))
	if err != nil || !found {
		return err
	}

	var referrals []referral.Referral
	if err := json.Unmarshal(raw, &referrals); err != nil {
		return fmt.Errorf("failed to decode staged referrals: %w", err)
	}

	for _, r := range referrals {
		if r.ReferrerID != userID {
			continue
		}
		if _, err := backend.CreateReferral(ctx, r.ReferrerID, r.ReferredID); err != nil {
			return fmt.Errorf("failed to migrate referral to %s: %w", r.ReferredID, err)
		}
	}
	return nil
}
