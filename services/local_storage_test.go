package services

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()

	store, err := OpenLocalStore(filepath.Join(t.TempDir(), "staging.db"))
	if err != nil {
		t.Fatalf("Failed to open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "user_profile_42"); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}

	value := []byte(`{"email":"player@example.com"}`)
	if err := store.Set(ctx, "user_profile_42", value); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := store.Get(ctx, "user_profile_42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist after Set")
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %s", got)
	}

	// Overwrite replaces the previous value.
	if err := store.Set(ctx, "user_profile_42", []byte(`{"email":"new@example.com"}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, "user_profile_42")
	if string(got) != `{"email":"new@example.com"}` {
		t.Errorf("overwrite not applied, got %s", got)
	}

	if err := store.Delete(ctx, "user_profile_42"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := store.Get(ctx, "user_profile_42"); found {
		t.Error("expected key to be gone after Delete")
	}
}

func TestLocalStoreDeleteMissingKey(t *testing.T) {
	store := newTestLocalStore(t)

	if err := store.Delete(context.Background(), "no_such_key"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestStagedKeys(t *testing.T) {
	keys := StagedKeys("42")

	want := []string{
		"user_profile_42",
		"game_settings_42",
		"game_statistics_42",
		"power_ups_42",
		"clan_42",
		"referrals_42",
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d staged keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key %d: got %q, want %q", i, keys[i], k)
		}
	}
}

func TestHasStagedData(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	staged, err := store.HasStagedData(ctx, "42")
	if err != nil {
		t.Fatalf("HasStagedData: %v", err)
	}
	if staged {
		t.Error("empty store should report no staged data")
	}

	if err := store.Set(ctx, "game_statistics_42", []byte(`{"total_clicks":100}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	staged, err = store.HasStagedData(ctx, "42")
	if err != nil {
		t.Fatalf("HasStagedData: %v", err)
	}
	if !staged {
		t.Error("expected staged data after Set")
	}

	// Another user's data stays invisible.
	staged, _ = store.HasStagedData(ctx, "other")
	if staged {
		t.Error("staged data leaked across users")
	}
}
