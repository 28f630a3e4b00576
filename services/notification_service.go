package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quadra-gg/quadra/live"
	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

// Notifier — интерфейс доставки уведомлений, внедряется в сервисы как
// зависимость. Вызовы best-effort: ошибка доставки логируется вызывающим
// и не валит основную операцию.
type Notifier interface {
	Dispatch(ctx context.Context, userID int, notificationType, message string, meta models.NotificationMeta) error
	DispatchToSquad(ctx context.Context, teamID int, notificationType, message string, meta models.NotificationMeta) error
}

// NotificationService расширяет Notifier операциями чтения для HTTP-слоя.
type NotificationService interface {
	Notifier
	ListForUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	hub              Broadcaster
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	hub Broadcaster,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		hub:              hub,
		logger:           logger,
	}
}

// Dispatch persists the notification and pushes it to the user's socket room.
func (s *notificationService) Dispatch(ctx context.Context, userID int, notificationType, message string, meta models.NotificationMeta) error {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Message: message,
		Meta:    meta,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to persist notification for user %d: %w", userID, err)
	}

	s.hub.BroadcastToRoom(live.UserRoom(userID), live.Message{
		Type: "notification",
		Payload: map[string]interface{}{
			"type":    notificationType,
			"message": message,
		},
	})
	return nil
}

// DispatchToSquad fans a notification out to every current member of a team.
// A failing member does not stop delivery to the rest.
func (s *notificationService) DispatchToSquad(ctx context.Context, teamID int, notificationType, message string, meta models.NotificationMeta) error {
	members, err := s.userRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}

	var firstErr error
	for _, member := range members {
		if err := s.Dispatch(ctx, member.ID, notificationType, message, meta); err != nil {
			s.logger.Error("failed to dispatch squad notification",
				slog.Int("team_id", teamID),
				slog.Int("user_id", member.ID),
				slog.Any("error", err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *notificationService) ListForUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark notification %d read: %w", notificationID, err)
	}
	return nil
}
