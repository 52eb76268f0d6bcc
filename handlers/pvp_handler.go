package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/pvp"
	"tapEmpireAPI/middleware"

	"github.com/gorilla/mux"
)

type PvPHandler struct {
	selector *storage.Selector
}

func NewPvPHandler(selector *storage.Selector) *PvPHandler {
	return &PvPHandler{selector: selector}
}

func (h *PvPHandler) activeBackend(w http.ResponseWriter) (storage.Backend, bool) {
	backend, err := h.selector.Active()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Hosted storage is not enabled")
		return nil, false
	}
	return backend, true
}

func (h *PvPHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req pvp.CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	m, err := backend.CreatePvPMatch(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create match")
		return
	}

	respondWithJSON(w, http.StatusCreated, m)
}

func (h *PvPHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
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

	m, err := backend.GetPvPMatch(ctx, mux.Vars(r)["matchID"])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Match not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get match")
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

func (h *PvPHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req pvp.UpdateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	m, err := backend.UpdatePvPScore(ctx, mux.Vars(r)["matchID"], userID, req.Score)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Match not found")
			return
		}
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

func (h *PvPHandler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetUserID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req pvp.CompleteMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WinnerID == "" {
		respondWithError(w, http.StatusBadRequest, "winner_id is required")
		return
	}

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	m, err := backend.CompletePvPMatch(ctx, mux.Vars(r)["matchID"], req.WinnerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Match not found")
			return
		}
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

func (h *PvPHandler) GetPlayerMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	matches, err := backend.GetPlayerMatches(ctx, userID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get matches")
		return
	}

	respondWithJSON(w, http.StatusOK, matches)
}

func (h *PvPHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	category := storage.LeaderboardCategory(r.URL.Query().Get("category"))
	if category == "" {
		category = storage.CategoryClicks
	}
	timeframe := storage.LeaderboardTimeframe(r.URL.Query().Get("timeframe"))
	if timeframe == "" {
		timeframe = storage.TimeframeAll
	}
	if !storage.ValidCategory(category) || !storage.ValidTimeframe(timeframe) {
		respondWithError(w, http.StatusBadRequest, "unknown category or timeframe")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	backend, ok := h.activeBackend(w)
	if !ok {
		return
	}

	lb, err := backend.GetLeaderboard(ctx, userID, category, timeframe, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}

func (h *PvPHandler) GetPlayerRank(w http.ResponseWriter, r *http.Request) {
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

	entry, err := backend.GetPlayerRank(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get player rank")
		return
	}

	// entry is nil for an unranked player; serialize that as null.
	respondWithJSON(w, http.StatusOK, map[string]any{"rank": entry})
}
