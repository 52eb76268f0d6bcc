package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/gameconfig"
	"tapEmpireAPI/internal/types/profile"
)

type fakeAdminStore struct {
	profiles map[string]*profile.UserProfile
	configs  []*gameconfig.GameConfig
	queryErr error
}

func (f *fakeAdminStore) GetProfileByWallet(_ context.Context, userID, wallet string) (*profile.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok || p.WalletAddress == nil || *p.WalletAddress != wallet {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeAdminStore) GetUserProfile(_ context.Context, userID string) (*profile.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeAdminStore) GetGameConfigs(_ context.Context) ([]*gameconfig.GameConfig, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.configs, nil
}

// stubVerify maps fixed bearer tokens to user IDs for the duration
// of a test.
func stubVerify(t *testing.T, tokens map[string]string) {
	t.Helper()

	orig := verifyToken
	verifyToken = func(_ context.Context, token string) (string, error) {
		userID, ok := tokens[token]
		if !ok {
			return "", errors.New("token signature invalid")
		}
		return userID, nil
	}
	t.Cleanup(func() { verifyToken = orig })
}

func adminWallet() *string {
	w := "0xABC123"
	return &w
}

func newAdminFixture(t *testing.T) (*AdminHandler, *fakeAdminStore) {
	t.Helper()

	store := &fakeAdminStore{
		profiles: map[string]*profile.UserProfile{
			"admin-user": {ID: "admin-user", Email: "a@example.com", WalletAddress: adminWallet(), Roles: []string{"admin"}},
			"plain-user": {ID: "plain-user", Email: "p@example.com", WalletAddress: adminWallet(), Roles: nil},
		},
		configs: []*gameconfig.GameConfig{
			{Key: "click_reward", Value: json.RawMessage(`1`), UpdatedAt: time.Now()},
			{Key: "prestige_cost", Value: json.RawMessage(`1000`), UpdatedAt: time.Now()},
		},
	}
	stubVerify(t, map[string]string{
		"admin-token": "admin-user",
		"plain-token": "plain-user",
	})
	return NewAdminHandler(store), store
}

func doVerifyRole(h *AdminHandler, body, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/verify-role", strings.NewReader(body))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.VerifyRole(w, req)
	return w
}

func TestVerifyRoleMissingWallet(t *testing.T) {
	h, _ := newAdminFixture(t)

	for _, body := range []string{`{}`, `{"wallet_address": 7}`, `{"wallet_address": ""}`, `not json`} {
		if w := doVerifyRole(h, body, "Bearer admin-token"); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: got status %d, want 400", body, w.Code)
		}
	}
}

func TestVerifyRoleMissingCredential(t *testing.T) {
	h, _ := newAdminFixture(t)

	if w := doVerifyRole(h, `{"wallet_address":"0xABC123"}`, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got status %d, want 401", w.Code)
	}
	if w := doVerifyRole(h, `{"wallet_address":"0xABC123"}`, "Token abc"); w.Code != http.StatusUnauthorized {
		t.Errorf("malformed header: got status %d, want 401", w.Code)
	}
	if w := doVerifyRole(h, `{"wallet_address":"0xABC123"}`, "Bearer forged"); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got status %d, want 401", w.Code)
	}
}

func TestVerifyRoleWalletMismatch(t *testing.T) {
	h, _ := newAdminFixture(t)

	if w := doVerifyRole(h, `{"wallet_address":"0xOTHER"}`, "Bearer admin-token"); w.Code != http.StatusForbidden {
		t.Errorf("wallet mismatch: got status %d, want 403", w.Code)
	}
}

func TestVerifyRoleAdmin(t *testing.T) {
	h, _ := newAdminFixture(t)

	w := doVerifyRole(h, `{"wallet_address":"0xABC123"}`, "Bearer admin-token")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp verifyRoleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsAdmin {
		t.Error("expected isAdmin true for admin profile")
	}
	if resp.UserID != "admin-user" || resp.WalletAddress != "0xABC123" {
		t.Errorf("unexpected response payload: %+v", resp)
	}
}

func TestVerifyRoleNonAdmin(t *testing.T) {
	h, _ := newAdminFixture(t)

	w := doVerifyRole(h, `{"wallet_address":"0xABC123"}`, "Bearer plain-token")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var resp verifyRoleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.IsAdmin {
		t.Error("expected isAdmin false for profile without the admin role")
	}
}

func doGetConfig(h *AdminHandler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/config", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.GetGameConfig(w, req)
	return w
}

func TestGetGameConfigAuthLadder(t *testing.T) {
	h, _ := newAdminFixture(t)

	if w := doGetConfig(h, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want 401", w.Code)
	}
	if w := doGetConfig(h, "Bearer forged"); w.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want 401", w.Code)
	}
	if w := doGetConfig(h, "Bearer plain-token"); w.Code != http.StatusForbidden {
		t.Errorf("non-admin: got %d, want 403", w.Code)
	}
}

func TestGetGameConfigUnknownProfile(t *testing.T) {
	h, store := newAdminFixture(t)
	delete(store.profiles, "admin-user")

	if w := doGetConfig(h, "Bearer admin-token"); w.Code != http.StatusNotFound {
		t.Errorf("missing profile: got %d, want 404", w.Code)
	}
}

func TestGetGameConfigAdmin(t *testing.T) {
	h, _ := newAdminFixture(t)

	w := doGetConfig(h, "Bearer admin-token")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Configs   []*gameconfig.GameConfig `json:"configs"`
		Timestamp string                   `json:"timestamp"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Configs) != 2 {
		t.Fatalf("expected 2 config rows, got %d", len(resp.Configs))
	}
	if resp.Configs[0].Key != "click_reward" || resp.Configs[1].Key != "prestige_cost" {
		t.Error("config rows not ordered by key")
	}
	if resp.Timestamp == "" {
		t.Error("response timestamp missing")
	}
}

func TestGetGameConfigQueryFailure(t *testing.T) {
	h, store := newAdminFixture(t)
	store.queryErr = errors.New("connection reset")

	w := doGetConfig(h, "Bearer admin-token")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("query failure: got %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Error("internal error detail leaked to the caller")
	}
}
