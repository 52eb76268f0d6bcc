package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/settings"
	"tapEmpireAPI/middleware"
)

// fakeGameBackend covers the operations these handler tests reach.
type fakeGameBackend struct {
	storage.Backend

	settings map[string]*settings.GameSettings
	clicks   map[string]int64
}

func (f *fakeGameBackend) GetGameSettings(_ context.Context, userID string) (*settings.GameSettings, error) {
	gs, ok := f.settings[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return gs, nil
}

func (f *fakeGameBackend) RecordClick(_ context.Context, userID string) error {
	f.clicks[userID]++
	return nil
}

func (f *fakeGameBackend) GetClickCount(_ context.Context, userID string) (int64, error) {
	return f.clicks[userID], nil
}

func hostedSelector(t *testing.T, backend storage.Backend) *storage.Selector {
	t.Helper()

	s := storage.NewSelector(func() (storage.Backend, error) { return backend, nil })
	if err := s.SetBackendType(storage.BackendHosted); err != nil {
		t.Fatalf("SetBackendType: %v", err)
	}
	return s
}

func authedRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestGetSettingsReturnsDefaultsForNewUser(t *testing.T) {
	backend := &fakeGameBackend{settings: map[string]*settings.GameSettings{}, clicks: map[string]int64{}}
	h := NewUserHandler(hostedSelector(t, backend), nil)

	w := httptest.NewRecorder()
	h.GetSettings(w, authedRequest(http.MethodGet, "/api/v1/settings", "42"))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var gs settings.GameSettings
	if err := json.Unmarshal(w.Body.Bytes(), &gs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !gs.Sound || !gs.Music || !gs.Notifications {
		t.Errorf("expected default settings, got %+v", gs)
	}
}

func TestClickFlow(t *testing.T) {
	backend := &fakeGameBackend{settings: map[string]*settings.GameSettings{}, clicks: map[string]int64{}}
	h := NewUserHandler(hostedSelector(t, backend), nil)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.RecordClick(w, authedRequest(http.MethodPost, "/api/v1/clicks", "42"))
		if w.Code != http.StatusOK {
			t.Fatalf("RecordClick: got status %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.GetClickCount(w, authedRequest(http.MethodGet, "/api/v1/clicks", "42"))
	if w.Code != http.StatusOK {
		t.Fatalf("GetClickCount: got status %d", w.Code)
	}

	var resp map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["total_clicks"] != 3 {
		t.Errorf("expected 3 clicks, got %d", resp["total_clicks"])
	}
}

func TestHandlersRejectLocalOnlyBackend(t *testing.T) {
	// Selector never switched to hosted: every storage-backed route
	// reports the hosted store as unavailable.
	s := storage.NewSelector(func() (storage.Backend, error) { return nil, nil })
	h := NewUserHandler(s, nil)

	w := httptest.NewRecorder()
	h.GetProfile(w, authedRequest(http.MethodGet, "/api/v1/profile", "42"))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", w.Code)
	}
}

func TestHandlersRequireAuthentication(t *testing.T) {
	backend := &fakeGameBackend{settings: map[string]*settings.GameSettings{}, clicks: map[string]int64{}}
	h := NewUserHandler(hostedSelector(t, backend), nil)

	// No user ID in context: the middleware never ran.
	w := httptest.NewRecorder()
	h.GetSettings(w, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", w.Code)
	}
}
