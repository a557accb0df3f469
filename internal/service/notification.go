package service

import (
	"context"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Notification, error) {
	return s.noteRepo.ListByReservation(ctx, reservationID)
}
