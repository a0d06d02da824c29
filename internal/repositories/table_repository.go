package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"qrdine_backend/internal/models"
)

// TableRepository resolves dining tables during intake.
type TableRepository interface {
	GetByID(restaurantID, tableID int64) (*models.Table, error)
}

type tableRepository struct {
	exec SQLExecutor
}

// NewTableRepository creates a TableRepository over the given executor.
func NewTableRepository(exec SQLExecutor) TableRepository {
	return &tableRepository{exec: exec}
}

func (r *tableRepository) GetByID(restaurantID, tableID int64) (*models.Table, error) {
	table := &models.Table{}
	query := `SELECT id, restaurant_id, table_number, is_active
	          FROM tables
	          WHERE restaurant_id = $1 AND id = $2`
	err := r.exec.QueryRow(query, restaurantID, tableID).Scan(
		&table.ID, &table.RestaurantID, &table.TableNumber, &table.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table %d for restaurant %d: %v", ErrDatabaseError, tableID, restaurantID, err)
	}
	return table, nil
}
