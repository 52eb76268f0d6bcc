package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/gameconfig"
	"tapEmpireAPI/internal/types/profile"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

// AdminStore is the slice of the hosted backend the admin endpoints
// consume: profile/role lookups and the config table.
type AdminStore interface {
	GetProfileByWallet(ctx context.Context, userID, walletAddress string) (*profile.UserProfile, error)
	GetUserProfile(ctx context.Context, userID string) (*profile.UserProfile, error)
	GetGameConfigs(ctx context.Context) ([]*gameconfig.GameConfig, error)
}

// AdminHandler serves the two privileged endpoints. Both are
// standalone: they authenticate the bearer token themselves and talk
// to the hosted backend directly, bypassing the selector.
type AdminHandler struct {
	hosted AdminStore
}

func NewAdminHandler(hosted AdminStore) *AdminHandler {
	return &AdminHandler{hosted: hosted}
}

// verifyToken is swapped out in tests; production uses Clerk.
var verifyToken = func(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// authenticate extracts and verifies the bearer credential, writing
// the 401 response itself on failure.
func authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		respondWithError(w, http.StatusUnauthorized, "Authorization header required")
		return "", false
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
		return "", false
	}

	userID, err := verifyToken(ctx, token)
	if err != nil {
		respondWithDetails(w, http.StatusUnauthorized, "Invalid token", err.Error())
		return "", false
	}
	return userID, true
}

type verifyRoleRequest struct {
	WalletAddress any `json:"wallet_address"`
}

type verifyRoleResponse struct {
	IsAdmin       bool   `json:"isAdmin"`
	UserID        string `json:"userId"`
	WalletAddress string `json:"walletAddress"`
}

// VerifyRole confirms that the caller's token is valid, that the
// authenticated identity owns a profile with the claimed wallet
// address, and reports whether that profile carries the admin role.
func (h *AdminHandler) VerifyRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req verifyRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wallet, ok := req.WalletAddress.(string)
	if !ok || wallet == "" {
		respondWithError(w, http.StatusBadRequest, "wallet_address is required and must be a string")
		return
	}

	userID, ok := authenticate(ctx, w, r)
	if !ok {
		return
	}

	p, err := h.hosted.GetProfileByWallet(ctx, userID, wallet)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusForbidden, "No profile matches this wallet address")
			return
		}
		log.Printf("VerifyRole: profile lookup failed for %s: %v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, verifyRoleResponse{
		IsAdmin:       p.HasRole("admin"),
		UserID:        p.ID,
		WalletAddress: wallet,
	})
}

// GetGameConfig returns every stored configuration row, ordered by
// key, to admin callers only.
func (h *AdminHandler) GetGameConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := authenticate(ctx, w, r)
	if !ok {
		return
	}

	p, err := h.hosted.GetUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Printf("GetGameConfig: profile lookup failed for %s: %v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !p.HasRole("admin") {
		respondWithError(w, http.StatusForbidden, "Admin role required")
		return
	}

	configs, err := h.hosted.GetGameConfigs(ctx)
	if err != nil {
		log.Printf("GetGameConfig: config query failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"configs":   configs,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
