package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/middleware"
	"tapEmpireAPI/services"
)

// MigrationHandler triggers the one-shot transfer of the caller's
// locally staged state into the hosted backend.
type MigrationHandler struct {
	selector      *storage.Selector
	local         *services.LocalStore
	migrations    *services.MigrationService
	notifications *services.NotificationService
}

func NewMigrationHandler(selector *storage.Selector, local *services.LocalStore, migrations *services.MigrationService, notifications *services.NotificationService) *MigrationHandler {
	return &MigrationHandler{
		selector:      selector,
		local:         local,
		migrations:    migrations,
		notifications: notifications,
	}
}

func (h *MigrationHandler) MigrateUserData(w http.ResponseWriter, r *http.Request) {
	// Migration performs a sequence of network writes; give it more
	// room than a plain request.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	backend, err := h.selector.Active()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Hosted storage is not enabled")
		return
	}

	staged, err := h.local.HasStagedData(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to inspect local data")
		return
	}
	if !staged {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "nothing_to_migrate"})
		return
	}

	if err := h.migrations.MigrateUser(ctx, userID, backend); err != nil {
		log.Printf("Migration failed: %v", err)
		middleware.CountMigration("failure")
		respondWithError(w, http.StatusBadGateway, "Migration failed; local data preserved for retry")
		return
	}

	middleware.CountMigration("success")
	go h.notifications.NotifyMigrationCompleted(context.Background(), userID)

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "migrated"})
}
