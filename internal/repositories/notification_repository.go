package repositories

import (
	"fmt"
	"time"

	"qrdine_backend/internal/models"
)

// NotificationRepository is the create-only sink for low-stock and
// revenue-milestone signals, plus the existence check that keeps milestone
// notifications to one per restaurant per day.
type NotificationRepository interface {
	Create(n *models.Notification) (int64, error)
	ExistsToday(restaurantID int64, notificationType string) (bool, error)
}

type notificationRepository struct {
	exec SQLExecutor
}

// NewNotificationRepository creates a NotificationRepository over the given executor.
func NewNotificationRepository(exec SQLExecutor) NotificationRepository {
	return &notificationRepository{exec: exec}
}

func (r *notificationRepository) Create(n *models.Notification) (int64, error) {
	query := `INSERT INTO notifications (restaurant_id, type, message, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	err := r.exec.QueryRow(query, n.RestaurantID, n.Type, n.Message, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating notification: %v", ErrDatabaseError, err)
	}
	return n.ID, nil
}

func (r *notificationRepository) ExistsToday(restaurantID int64, notificationType string) (bool, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var exists bool
	query := `SELECT EXISTS(
	            SELECT 1 FROM notifications
	            WHERE restaurant_id = $1 AND type = $2 AND created_at >= $3)`
	err := r.exec.QueryRow(query, restaurantID, notificationType, startOfDay).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking notifications for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	return exists, nil
}
