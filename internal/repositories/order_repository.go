package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrdine_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	Create(order *models.Order) (int64, error) // inserts the order row and its item snapshot
	GetByID(orderID int64) (*models.Order, error)
	GetByTransactionID(transactionID string) (*models.Order, error)
	GetActive(restaurantID int64) ([]models.Order, error)
	UpdateStatus(orderID int64, newStatus string, updatedAt time.Time) error
	UpdatePayment(orderID int64, upd models.PaymentUpdate) error
	// SumRevenueSince totals non-cancelled orders of a restaurant created at
	// or after the given instant. Used for the same-day revenue milestone.
	SumRevenueSince(restaurantID int64, since time.Time) (float64, error)
}

type orderRepository struct {
	exec SQLExecutor
}

// NewOrderRepository creates an OrderRepository over the given executor.
func NewOrderRepository(exec SQLExecutor) OrderRepository {
	return &orderRepository{exec: exec}
}

const orderColumns = `id, restaurant_id, order_number, table_id, table_number,
	customer_phone, customer_email, ordered_by, captain_id,
	subtotal, discount, promo_code, tax_percentage, tax_amount, total_amount,
	status, payment_method, payment_status, transaction_id,
	created_at, updated_at`

func (r *orderRepository) Create(order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (restaurant_id, order_number, table_id, table_number,
	             customer_phone, customer_email, ordered_by, captain_id,
	             subtotal, discount, promo_code, tax_percentage, tax_amount, total_amount,
	             status, payment_method, payment_status, transaction_id,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	err := r.exec.QueryRow(query,
		order.RestaurantID, order.OrderNumber, order.TableID, order.TableNumber,
		order.CustomerPhone, order.CustomerEmail, order.OrderedBy, order.CaptainID,
		order.Subtotal, order.Discount, order.PromoCode, order.TaxPercentage, order.TaxAmount, order.TotalAmount,
		order.Status, order.PaymentMethod, order.PaymentStatus, order.TransactionID,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: order number %s", ErrDuplicateKey, order.OrderNumber)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}

	itemQuery := `INSERT INTO order_items
	                (order_id, menu_item_id, name, quantity, unit_price, special_instructions)
	              VALUES ($1, $2, $3, $4, $5, $6)
	              RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := r.exec.QueryRow(itemQuery,
			item.OrderID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice, item.SpecialInstructions,
		).Scan(&item.ID)
		if err != nil {
			return 0, fmt.Errorf("%w: creating order item (menu_item_id: %d): %v", ErrDatabaseError, item.MenuItemID, err)
		}
	}

	return order.ID, nil
}

func (r *orderRepository) GetByID(orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOrder(r.exec.QueryRow(query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if err := r.loadItems(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByTransactionID(transactionID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE transaction_id = $1`
	order, err := r.scanOrder(r.exec.QueryRow(query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by transaction ID %s: %v", ErrDatabaseError, transactionID, err)
	}
	if err := r.loadItems(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetActive(restaurantID int64) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
	          FROM orders
	          WHERE restaurant_id = $1 AND status = ANY($2)
	          ORDER BY created_at DESC`

	rows, err := r.exec.Query(query, restaurantID, pq.Array(models.ActiveStatuses))
	if err != nil {
		return nil, fmt.Errorf("%w: querying active orders for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning active order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating active order rows: %v", ErrDatabaseError, err)
	}

	for i := range orders {
		if err := r.loadItems(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(orderID int64, newStatus string, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec.Exec(query, newStatus, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdatePayment(orderID int64, upd models.PaymentUpdate) error {
	query := `UPDATE orders
	          SET payment_status = $1,
	              transaction_id = COALESCE($2, transaction_id),
	              payment_method = COALESCE($3, payment_method),
	              status = COALESCE($4, status),
	              updated_at = $5
	          WHERE id = $6`
	result, err := r.exec.Exec(query, upd.PaymentStatus, upd.TransactionID, upd.PaymentMethod, upd.Status, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("%w: updating payment fields for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for payment update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) SumRevenueSince(restaurantID int64, since time.Time) (float64, error) {
	var total sql.NullFloat64
	query := `SELECT COALESCE(SUM(total_amount), 0)
	          FROM orders
	          WHERE restaurant_id = $1 AND created_at >= $2 AND status <> $3`
	err := r.exec.QueryRow(query, restaurantID, since, models.StatusCancelled).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: summing revenue for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	return total.Float64, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *orderRepository) scanOrder(s scanner) (*models.Order, error) {
	order := &models.Order{}
	err := s.Scan(
		&order.ID, &order.RestaurantID, &order.OrderNumber, &order.TableID, &order.TableNumber,
		&order.CustomerPhone, &order.CustomerEmail, &order.OrderedBy, &order.CaptainID,
		&order.Subtotal, &order.Discount, &order.PromoCode, &order.TaxPercentage, &order.TaxAmount, &order.TotalAmount,
		&order.Status, &order.PaymentMethod, &order.PaymentStatus, &order.TransactionID,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) loadItems(order *models.Order) error {
	query := `SELECT id, order_id, menu_item_id, name, quantity, unit_price, special_instructions
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`
	rows, err := r.exec.Query(query, order.ID)
	if err != nil {
		return fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &item.UnitPrice, &item.SpecialInstructions)
		if err != nil {
			return fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, order.ID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	order.Items = items
	return nil
}
