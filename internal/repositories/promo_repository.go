package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"qrdine_backend/internal/models"
)

// PromoRepository exposes case-insensitive lookup and bounded usage counting
// for promo codes.
type PromoRepository interface {
	GetByCode(restaurantID int64, code string) (*models.PromoCode, error)
	// IncrementUsage bumps used_count by one, but only while it is below
	// max_uses. Returns ErrPromoExhausted when the cap has been reached.
	IncrementUsage(promoID int64) error
}

type promoRepository struct {
	exec SQLExecutor
}

// NewPromoRepository creates a PromoRepository over the given executor.
func NewPromoRepository(exec SQLExecutor) PromoRepository {
	return &promoRepository{exec: exec}
}

func (r *promoRepository) GetByCode(restaurantID int64, code string) (*models.PromoCode, error) {
	promo := &models.PromoCode{}
	query := `SELECT id, restaurant_id, code, discount_percentage, min_order_amount,
	                 max_uses, used_count, is_active, valid_from, valid_until
	          FROM promo_codes
	          WHERE restaurant_id = $1 AND LOWER(code) = LOWER($2)`
	err := r.exec.QueryRow(query, restaurantID, code).Scan(
		&promo.ID, &promo.RestaurantID, &promo.Code, &promo.DiscountPercentage, &promo.MinOrderAmount,
		&promo.MaxUses, &promo.UsedCount, &promo.IsActive, &promo.ValidFrom, &promo.ValidUntil,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting promo code %q for restaurant %d: %v", ErrDatabaseError, code, restaurantID, err)
	}
	return promo, nil
}

func (r *promoRepository) IncrementUsage(promoID int64) error {
	query := `UPDATE promo_codes
	          SET used_count = used_count + 1
	          WHERE id = $1 AND used_count < max_uses`
	result, err := r.exec.Exec(query, promoID)
	if err != nil {
		return fmt.Errorf("%w: incrementing usage for promo %d: %v", ErrDatabaseError, promoID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for promo usage %d: %v", ErrDatabaseError, promoID, err)
	}
	if rowsAffected == 0 {
		var exists bool
		checkErr := r.exec.QueryRow(`SELECT EXISTS(SELECT 1 FROM promo_codes WHERE id = $1)`, promoID).Scan(&exists)
		if checkErr == nil && !exists {
			return ErrNotFound
		}
		return ErrPromoExhausted
	}
	return nil
}
