package services

import (
	"context"
	"errors"
	"log"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/notification"
)

// PushProvider delivers a push message to a set of device tokens.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

// NotificationService sends push notifications for game events. A
// user's settings.notifications flag gates every send. Push failures
// are logged and swallowed; they never fail the triggering request.
type NotificationService struct {
	hosted *HostedBackend
	push   PushProvider
}

func NewNotificationService(hosted *HostedBackend) *NotificationService {
	return &NotificationService{hosted: hosted}
}

// SetPushProvider injects the push transport. Without one, sends are
// silently skipped.
func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

func (s *NotificationService) notify(ctx context.Context, userID, title, body string, data map[string]string) {
	if s == nil || s.push == nil {
		return
	}

	gs, err := s.hosted.GetGameSettings(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("Notification skipped for %s: settings lookup failed: %v", userID, err)
		return
	}
	if gs != nil && !gs.Notifications {
		return
	}

	tokens, err := s.hosted.GetDeviceTokens(ctx, userID)
	if err != nil {
		log.Printf("Notification skipped for %s: token lookup failed: %v", userID, err)
		return
	}

	if err := s.push.SendPush(ctx, tokens, title, body, data); err != nil {
		log.Printf("Push delivery incomplete for %s: %v", userID, err)
	}
}

// NotifyReferralCompleted tells the referrer their referral paid out.
func (s *NotificationService) NotifyReferralCompleted(ctx context.Context, referrerID, referredID string) {
	s.notify(ctx, referrerID,
		"Referral completed!",
		"A friend you invited just finished onboarding. Your reward is waiting.",
		map[string]string{"type": "referral_completed", "referred_id": referredID},
	)
}

// NotifyMigrationCompleted tells the user their progress is synced.
func (s *NotificationService) NotifyMigrationCompleted(ctx context.Context, userID string) {
	s.notify(ctx, userID,
		"Progress synced",
		"Your game progress is now safely stored in the cloud.",
		map[string]string{"type": "migration_completed"},
	)
}
