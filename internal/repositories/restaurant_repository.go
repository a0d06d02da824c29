package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrdine_backend/internal/models"
)

// RestaurantRepository reads restaurant tax/settlement state and writes the
// lazily provisioned gateway vendor id. Everything else about a restaurant is
// managed elsewhere.
type RestaurantRepository interface {
	GetByID(restaurantID int64) (*models.Restaurant, error)
	GetBySlug(slug string) (*models.Restaurant, error)
	UpdateVendorID(restaurantID int64, vendorID string) error
}

type restaurantRepository struct {
	exec SQLExecutor
}

// NewRestaurantRepository creates a RestaurantRepository over the given executor.
func NewRestaurantRepository(exec SQLExecutor) RestaurantRepository {
	return &restaurantRepository{exec: exec}
}

const restaurantColumns = `id, name, slug, is_active, tax_percentage, vendor_id,
	contact_phone, contact_email, bank_account_number, bank_ifsc, account_holder,
	created_at, updated_at`

func (r *restaurantRepository) GetByID(restaurantID int64) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return r.scan(r.exec.QueryRow(query, restaurantID), fmt.Sprintf("ID %d", restaurantID))
}

func (r *restaurantRepository) GetBySlug(slug string) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE slug = $1`
	return r.scan(r.exec.QueryRow(query, slug), fmt.Sprintf("slug %q", slug))
}

func (r *restaurantRepository) UpdateVendorID(restaurantID int64, vendorID string) error {
	query := `UPDATE restaurants SET vendor_id = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec.Exec(query, vendorID, time.Now(), restaurantID)
	if err != nil {
		return fmt.Errorf("%w: updating vendor id for restaurant %d: %v", ErrDatabaseError, restaurantID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for vendor id update %d: %v", ErrDatabaseError, restaurantID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *restaurantRepository) scan(row *sql.Row, ref string) (*models.Restaurant, error) {
	rest := &models.Restaurant{}
	err := row.Scan(
		&rest.ID, &rest.Name, &rest.Slug, &rest.IsActive, &rest.TaxPercentage, &rest.VendorID,
		&rest.ContactPhone, &rest.ContactEmail, &rest.BankAccountNumber, &rest.BankIFSC, &rest.AccountHolder,
		&rest.CreatedAt, &rest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting restaurant by %s: %v", ErrDatabaseError, ref, err)
	}
	return rest, nil
}
