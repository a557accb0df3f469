package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		return wrapPersistence("create notification", err)
	}
	query := `INSERT INTO notifications (id, type, reservation_id, title, message, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, query, n.ID, n.Type, n.ReservationID, n.Title, n.Message, attrs, n.CreatedAt)
	if err != nil {
		return wrapPersistence("create notification", err)
	}
	return nil
}

func (r *notificationRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, reservation_id, title, message, attributes, created_at
		 FROM notifications WHERE reservation_id = $1 ORDER BY created_at`, reservationID)
	if err != nil {
		return nil, wrapPersistence("list notifications", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.Type, &n.ReservationID, &n.Title, &n.Message, &attrs, &n.CreatedAt); err != nil {
			return nil, wrapPersistence("list notifications", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, wrapPersistence("list notifications", err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
