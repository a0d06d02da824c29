package repositories

import (
	"fmt"
	"time"

	"qrdine_backend/internal/models"
)

// PaymentEventRepository records every processed gateway webhook for
// reconciliation reporting. Rows are append-only.
type PaymentEventRepository interface {
	Create(event *models.PaymentEvent) (int64, error)
	ListRecent(limit int) ([]models.PaymentEvent, error)
}

type paymentEventRepository struct {
	exec SQLExecutor
}

// NewPaymentEventRepository creates a PaymentEventRepository over the given executor.
func NewPaymentEventRepository(exec SQLExecutor) PaymentEventRepository {
	return &paymentEventRepository{exec: exec}
}

func (r *paymentEventRepository) Create(event *models.PaymentEvent) (int64, error) {
	query := `INSERT INTO payment_events
	            (restaurant_id, order_id, event_type, gateway_order_id, gateway_txn_id, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	err := r.exec.QueryRow(query,
		event.RestaurantID, event.OrderID, event.EventType,
		event.GatewayOrderID, event.GatewayTxnID, []byte(event.Payload), event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating payment event: %v", ErrDatabaseError, err)
	}
	return event.ID, nil
}

func (r *paymentEventRepository) ListRecent(limit int) ([]models.PaymentEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, restaurant_id, order_id, event_type, gateway_order_id, gateway_txn_id, payload, created_at
	          FROM payment_events
	          ORDER BY created_at DESC
	          LIMIT $1`
	rows, err := r.exec.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payment events: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	events := []models.PaymentEvent{}
	for rows.Next() {
		var e models.PaymentEvent
		var payload []byte
		err := rows.Scan(&e.ID, &e.RestaurantID, &e.OrderID, &e.EventType, &e.GatewayOrderID, &e.GatewayTxnID, &payload, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning payment event: %v", ErrDatabaseError, err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment event rows: %v", ErrDatabaseError, err)
	}
	return events, nil
}
