package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/clan"
	"tapEmpireAPI/internal/types/powerup"
	"tapEmpireAPI/internal/types/referral"
	"tapEmpireAPI/middleware"
	"tapEmpireAPI/services"

	"github.com/gorilla/mux"
)

// GameHandler serves power-up inventory, clans and referrals.
type GameHandler struct {
	selector      *storage.Selector
	notifications *services.NotificationService
}

func NewGameHandler(selector *storage.Selector, notifications *services.NotificationService) *GameHandler {
	return &GameHandler{
		selector:      selector,
		notifications: notifications,
	}
}

func (h *GameHandler) activeBackend(w http.ResponseWriter) (storage.Backend, bool) {
	backend, err := h.selector.Active()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Hosted storage is not enabled")
		return nil, false
	}
	return backend, true
}

func (h *GameHandler) GetPowerUps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	powerUps, err := backend.GetPowerUps(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get power-ups")
		return
	}

	respondWithJSON(w, http.StatusOK, powerUps)
}

func (h *GameHandler) AddPowerUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req powerup.AddPowerUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" || req.Quantity < 0 {
		respondWithError(w, http.StatusBadRequest, "type is required and quantity must not be negative")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	p, err := backend.AddPowerUp(ctx, userID, req.Type, req.Quantity)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to add power-up")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *GameHandler) UsePowerUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	puType := mux.Vars(r)["type"]
	if puType == "" {
		respondWithError(w, http.StatusBadRequest, "power-up type is required")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	p, err := backend.UsePowerUp(ctx, userID, puType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "No such power-up in inventory")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to use power-up")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *GameHandler) CreateClan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req clan.CreateClanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "clan name is required")
		return
	}
	// The creator becomes the owner regardless of the request body.
	req.OwnerID = userID
	req.ID = nil

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	c, err := backend.CreateClan(ctx, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create clan")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *GameHandler) GetClan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetUserID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	c, err := backend.GetClan(ctx, mux.Vars(r)["clanID"])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Clan not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get clan")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *GameHandler) AddClanMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetUserID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req clan.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	c, err := backend.AddClanMember(ctx, mux.Vars(r)["clanID"], req.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Clan not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to add clan member")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *GameHandler) RemoveClanMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetUserID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req clan.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	c, err := backend.RemoveClanMember(ctx, mux.Vars(r)["clanID"], req.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Clan not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to remove clan member")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *GameHandler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req referral.CreateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReferredID == "" {
		respondWithError(w, http.StatusBadRequest, "referred_id is required")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	ref, err := backend.CreateReferral(ctx, userID, req.ReferredID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create referral")
		return
	}

	respondWithJSON(w, http.StatusCreated, ref)
}

func (h *GameHandler) CompleteReferral(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetUserID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	ref, err := backend.CompleteReferral(ctx, mux.Vars(r)["referralID"])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Referral not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to complete referral")
		return
	}

	if ref.Status == referral.StatusCompleted {
		go h.notifications.NotifyReferralCompleted(context.Background(), ref.ReferrerID, ref.ReferredID)
	}

	respondWithJSON(w, http.StatusOK, ref)
}

func (h *GameHandler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	referrals, err := backend.GetReferrals(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get referrals")
		return
	}

	respondWithJSON(w, http.StatusOK, referrals)
}
