package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/notification"
	"tapEmpireAPI/internal/types/profile"
	"tapEmpireAPI/internal/types/settings"
	"tapEmpireAPI/middleware"
	"tapEmpireAPI/services"
)

type UserHandler struct {
	selector *storage.Selector
	hosted   *services.HostedBackend
}

func NewUserHandler(selector *storage.Selector, hosted *services.HostedBackend) *UserHandler {
	return &UserHandler{
		selector: selector,
		hosted:   hosted,
	}
}

type createProfileRequest struct {
	Email         string  `json:"email"`
	Username      *string `json:"username,omitempty"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

func (h *UserHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	p, err := backend.CreateUserProfile(ctx, &profile.UserProfile{
		ID:            userID,
		Email:         req.Email,
		Username:      req.Username,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
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

	p, err := backend.GetUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req profile.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	p, err := backend.UpdateUserProfile(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
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

	gs, err := backend.GetGameSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithJSON(w, http.StatusOK, settings.Defaults(userID))
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	respondWithJSON(w, http.StatusOK, gs)
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var gs settings.GameSettings
	if err := json.NewDecoder(r.Body).Decode(&gs); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	updated, err := backend.UpdateGameSettings(ctx, userID, &gs)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
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

	stats, err := backend.GetStatistics(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Statistics not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
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

	if err := backend.RecordClick(ctx, userID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to record click")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *UserHandler) GetClickCount(w http.ResponseWriter, r *http.Request) {
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

	count, err := backend.GetClickCount(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get click count")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"total_clicks": count})
}

type updateStreakRequest struct {
	Count int `json:"count"`
}

func (h *UserHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
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

	st, err := backend.GetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Streak not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get streak")
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

func (h *UserHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req updateStreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Count < 0 {
		respondWithError(w, http.StatusBadRequest, "count must not be negative")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	st, err := backend.UpdateStreak(ctx, userID, req.Count)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update streak")
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

func (h *UserHandler) ResetStreak(w http.ResponseWriter, r *http.Request) {
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

	st, err := backend.ResetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Streak not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to reset streak")
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.hosted.RegisterDeviceToken(ctx, userID, req.Token, req.Platform); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (h *UserHandler) activeBackend(w http.ResponseWriter) (storage.Backend, bool) {
	backend, err := h.selector.Active()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Hosted storage is not enabled")
		return nil, false
	}
	return backend, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDetails mirrors respondWithError but carries an extra
// details field, matching the admin endpoints' error contract.
func respondWithDetails(w http.ResponseWriter, code int, message, details string) {
	respondWithJSON(w, code, map[string]string{"error": message, "details": details})
}
