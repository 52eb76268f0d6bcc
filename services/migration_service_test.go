package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/clan"
	"tapEmpireAPI/internal/types/powerup"
	"tapEmpireAPI/internal/types/profile"
	"tapEmpireAPI/internal/types/referral"
	"tapEmpireAPI/internal/types/settings"
	"tapEmpireAPI/internal/types/statistics"

	"github.com/google/uuid"
)

// fakeBackend records the hosted writes the migration performs. The
// embedded interface leaves every operation the migration never
// touches unimplemented.
type fakeBackend struct {
	storage.Backend

	profiles  map[string]*profile.UserProfile
	settings  map[string]*settings.GameSettings
	stats     map[string]*statistics.GameStatistics
	powerUps  map[string]int
	clans     map[uuid.UUID]*clan.Clan
	referrals map[string]*referral.Referral

	failOp string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles:  make(map[string]*profile.UserProfile),
		settings:  make(map[string]*settings.GameSettings),
		stats:     make(map[string]*statistics.GameStatistics),
		powerUps:  make(map[string]int),
		clans:     make(map[uuid.UUID]*clan.Clan),
		referrals: make(map[string]*referral.Referral),
	}
}

var errBackendDown = errors.New("backend unavailable")

func (f *fakeBackend) CreateUserProfile(_ context.Context, p *profile.UserProfile) (*profile.UserProfile, error) {
	if f.failOp == "profile" {
		return nil, errBackendDown
	}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeBackend) UpdateGameSettings(_ context.Context, userID string, s *settings.GameSettings) (*settings.GameSettings, error) {
	if f.failOp == "settings" {
		return nil, errBackendDown
	}
	s.UserID = userID
	f.settings[userID] = s
	return s, nil
}

func (f *fakeBackend) UpdateStatistics(_ context.Context, userID string, s *statistics.GameStatistics) (*statistics.GameStatistics, error) {
	if f.failOp == "statistics" {
		return nil, errBackendDown
	}
	s.UserID = userID
	f.stats[userID] = s
	return s, nil
}

func (f *fakeBackend) AddPowerUp(_ context.Context, userID, puType string, quantity int) (*powerup.PowerUp, error) {
	if f.failOp == "powerup" {
		return nil, errBackendDown
	}
	f.powerUps[userID+"/"+puType] = quantity
	return &powerup.PowerUp{UserID: userID, Type: puType, Quantity: quantity}, nil
}

func (f *fakeBackend) CreateClan(_ context.Context, req *clan.CreateClanRequest) (*clan.Clan, error) {
	if f.failOp == "clan" {
		return nil, errBackendDown
	}
	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}
	c := &clan.Clan{ID: id, Name: req.Name, OwnerID: req.OwnerID, Members: []string{req.OwnerID}}
	f.clans[id] = c
	return c, nil
}

func (f *fakeBackend) CreateReferral(_ context.Context, referrerID, referredID string) (*referral.Referral, error) {
	if f.failOp == "referral" {
		return nil, errBackendDown
	}
	key := referrerID + "/" + referredID
	if existing, ok := f.referrals[key]; ok {
		return existing, nil
	}
	r := &referral.Referral{ID: uuid.New(), ReferrerID: referrerID, ReferredID: referredID, Status: referral.StatusPending}
	f.referrals[key] = r
	return r, nil
}

func mustSet(t *testing.T, store *LocalStore, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal staged %s: %v", key, err)
	}
	if err := store.Set(context.Background(), key, raw); err != nil {
		t.Fatalf("stage %s: %v", key, err)
	}
}

func stageFullUser(t *testing.T, store *LocalStore, userID string) {
	t.Helper()

	username := "tapper"
	clanID := uuid.New()
	mustSet(t, store, "user_profile_"+userID, profile.UserProfile{Email: "tapper@example.com", Username: &username})
	mustSet(t, store, "game_settings_"+userID, settings.GameSettings{Sound: true, Theme: "neon"})
	mustSet(t, store, "game_statistics_"+userID, statistics.GameStatistics{TotalClicks: 100, PrestigeLevel: 2, CurrentStreak: 5})
	mustSet(t, store, "power_ups_"+userID, []powerup.PowerUp{
		{Type: powerup.TypeAutoClicker, Quantity: 3},
		{Type: powerup.TypeDoubleTap, Quantity: 1},
	})
	mustSet(t, store, "clan_"+userID, clan.Clan{ID: clanID, Name: "Tap Titans", OwnerID: userID})
	mustSet(t, store, "referrals_"+userID, []referral.Referral{
		{ReferrerID: userID, ReferredID: "friend-1", Status: referral.StatusPending},
		{ReferrerID: userID, ReferredID: "friend-2", Status: referral.StatusPending},
		{ReferrerID: "someone-else", ReferredID: userID, Status: referral.StatusPending},
	})
}

func TestMigrateUserSuccess(t *testing.T) {
	store := newTestLocalStore(t)
	backend := newFakeBackend()
	svc := NewMigrationService(store)
	ctx := context.Background()

	stageFullUser(t, store, "42")

	if err := svc.MigrateUser(ctx, "42", backend); err != nil {
		t.Fatalf("MigrateUser: %v", err)
	}

	p, ok := backend.profiles["42"]
	if !ok {
		t.Fatal("profile was not migrated")
	}
	if p.Email != "tapper@example.com" {
		t.Errorf("unexpected migrated email: %s", p.Email)
	}

	if got := backend.settings["42"]; got == nil || got.Theme != "neon" {
		t.Errorf("settings not migrated correctly: %+v", got)
	}
	if got := backend.stats["42"]; got == nil || got.TotalClicks != 100 || got.PrestigeLevel != 2 {
		t.Errorf("statistics not migrated correctly: %+v", got)
	}
	if backend.powerUps["42/"+powerup.TypeAutoClicker] != 3 || backend.powerUps["42/"+powerup.TypeDoubleTap] != 1 {
		t.Errorf("power-ups not migrated item by item: %v", backend.powerUps)
	}
	if len(backend.clans) != 1 {
		t.Errorf("expected 1 migrated clan, got %d", len(backend.clans))
	}

	// Only rows where the user is the referrer move.
	if len(backend.referrals) != 2 {
		t.Errorf("expected 2 migrated referrals, got %d", len(backend.referrals))
	}
	if _, ok := backend.referrals["someone-else/42"]; ok {
		t.Error("migrated a referral owned by another referrer")
	}

	// All staged keys are purged after success.
	for _, key := range StagedKeys("42") {
		if _, found, _ := store.Get(ctx, key); found {
			t.Errorf("staged key %s survived a successful migration", key)
		}
	}
}

func TestMigrateUserFailurePreservesLocalData(t *testing.T) {
	for _, failOp := range []string{"profile", "settings", "statistics", "powerup", "clan", "referral"} {
		t.Run(failOp, func(t *testing.T) {
			store := newTestLocalStore(t)
			backend := newFakeBackend()
			backend.failOp = failOp
			svc := NewMigrationService(store)
			ctx := context.Background()

			stageFullUser(t, store, "42")

			err := svc.MigrateUser(ctx, "42", backend)
			if err == nil {
				t.Fatal("expected migration to fail")
			}
			if !errors.Is(err, errBackendDown) {
				t.Errorf("error does not wrap the cause: %v", err)
			}
			if !strings.Contains(err.Error(), "42") {
				t.Errorf("error does not name the affected user: %v", err)
			}

			// No partial purge: every staged key survives.
			for _, key := range StagedKeys("42") {
				if _, found, _ := store.Get(ctx, key); !found {
					t.Errorf("staged key %s was purged despite failure", key)
				}
			}
		})
	}
}

func TestMigrateUserRetryAfterFailure(t *testing.T) {
	store := newTestLocalStore(t)
	backend := newFakeBackend()
	backend.failOp = "referral"
	svc := NewMigrationService(store)
	ctx := context.Background()

	stageFullUser(t, store, "42")

	if err := svc.MigrateUser(ctx, "42", backend); err == nil {
		t.Fatal("expected first run to fail")
	}

	// The backend recovers; the retry re-applies every write and
	// then purges.
	backend.failOp = ""
	if err := svc.MigrateUser(ctx, "42", backend); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if len(backend.referrals) != 2 {
		t.Errorf("expected 2 referrals after retry, got %d", len(backend.referrals))
	}
	for _, key := range StagedKeys("42") {
		if _, found, _ := store.Get(ctx, key); found {
			t.Errorf("staged key %s survived the successful retry", key)
		}
	}
}

func TestMigrateUserSkipsForeignClan(t *testing.T) {
	store := newTestLocalStore(t)
	backend := newFakeBackend()
	svc := NewMigrationService(store)

	// Member of someone else's clan: the staged record is skipped,
	// not written.
	mustSet(t, store, "clan_42", clan.Clan{ID: uuid.New(), Name: "Not Mine", OwnerID: "other"})

	if err := svc.MigrateUser(context.Background(), "42", backend); err != nil {
		t.Fatalf("MigrateUser: %v", err)
	}
	if len(backend.clans) != 0 {
		t.Errorf("migrated a clan the user does not own")
	}
}

func TestMigrateUserWithNoStagedData(t *testing.T) {
	store := newTestLocalStore(t)
	backend := newFakeBackend()
	svc := NewMigrationService(store)

	if err := svc.MigrateUser(context.Background(), "42", backend); err != nil {
		t.Fatalf("migration of an empty stage should succeed: %v", err)
	}
	if len(backend.profiles)+len(backend.settings)+len(backend.stats) != 0 {
		t.Error("writes happened without staged data")
	}
}

func TestMigrateUserConcurrentUsersIndependent(t *testing.T) {
	store := newTestLocalStore(t)
	backend := newFakeBackend()
	backend.failOp = "statistics"
	svc := NewMigrationService(store)
	ctx := context.Background()

	// User A will fail on statistics; user B has none staged and
	// succeeds. A's failure must not disturb B.
	mustSet(t, store, "game_statistics_a", statistics.GameStatistics{TotalClicks: 10})
	mustSet(t, store, "game_settings_b", settings.GameSettings{Theme: "dark"})

	if err := svc.MigrateUser(ctx, "a", backend); err == nil {
		t.Fatal("expected user a to fail")
	}
	if err := svc.MigrateUser(ctx, "b", backend); err != nil {
		t.Fatalf("user b failed: %v", err)
	}

	if _, found, _ := store.Get(ctx, "game_statistics_a"); !found {
		t.Error("user a's staged data was purged despite failure")
	}
	if _, found, _ := store.Get(ctx, "game_settings_b"); found {
		t.Error("user b's staged data survived a successful migration")
	}
}
