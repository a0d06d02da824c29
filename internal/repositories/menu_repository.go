package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrdine_backend/internal/models"
)

// MenuRepository exposes the read-and-decrement surface intake needs from the
// externally managed menu.
type MenuRepository interface {
	GetByID(itemID int64) (*models.MenuItem, error)
	// DecrementInventory atomically subtracts quantity from the item's
	// inventory and returns the remaining count. The availability and stock
	// checks are part of the UPDATE predicate, so two concurrent orders can
	// never both pass a stale read.
	DecrementInventory(itemID int64, quantity int) (int, error)
}

type menuRepository struct {
	exec SQLExecutor
}

// NewMenuRepository creates a MenuRepository over the given executor.
func NewMenuRepository(exec SQLExecutor) MenuRepository {
	return &menuRepository{exec: exec}
}

func (r *menuRepository) GetByID(itemID int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	query := `SELECT id, restaurant_id, name, price, is_available, inventory_count, low_stock_threshold, created_at, updated_at
	          FROM menu_items
	          WHERE id = $1`
	err := r.exec.QueryRow(query, itemID).Scan(
		&item.ID, &item.RestaurantID, &item.Name, &item.Price, &item.IsAvailable,
		&item.InventoryCount, &item.LowStockThreshold, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *menuRepository) DecrementInventory(itemID int64, quantity int) (int, error) {
	var remaining int
	query := `UPDATE menu_items
	          SET inventory_count = inventory_count - $1, updated_at = $2
	          WHERE id = $3 AND is_available = TRUE AND inventory_count >= $1
	          RETURNING inventory_count`
	err := r.exec.QueryRow(query, quantity, time.Now(), itemID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing item from one with too little stock.
			var exists bool
			checkErr := r.exec.QueryRow(`SELECT EXISTS(SELECT 1 FROM menu_items WHERE id = $1)`, itemID).Scan(&exists)
			if checkErr == nil && !exists {
				return 0, ErrNotFound
			}
			return 0, ErrInsufficientStock
		}
		return 0, fmt.Errorf("%w: decrementing inventory for menu item %d: %v", ErrDatabaseError, itemID, err)
	}
	return remaining, nil
}
