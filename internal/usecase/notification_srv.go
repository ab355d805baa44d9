package usecase

import (
	"context"
	"fmt"

	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	GetUserNotifications(ctx context.Context, userID string, page *request.PaginatedRequest) ([]response.NotificationResponse, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type notificationService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewNotificationService(repo *repository.Repository, log *zap.Logger) NotificationService {
	return &notificationService{
		repo: repo,
		log:  log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, page *request.PaginatedRequest) ([]response.NotificationResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	page.Normalize()
	notifications, err := s.repo.Notification.FindByUserID(ctx, userUUID, page.Limit(), page.Offset())
	if err != nil {
		s.log.Error("Failed to list notifications", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	items := make([]response.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, response.NotificationToResponse(n))
	}
	return items, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	id, err := uuid.Parse(notificationID)
	if err != nil {
		return fmt.Errorf("%w: notification ID %s", ErrInvalidInput, notificationID)
	}

	updated, err := s.repo.Notification.MarkRead(ctx, id, userUUID)
	if err != nil {
		s.log.Error("Failed to mark notification read", zap.Error(err))
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !updated {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}
