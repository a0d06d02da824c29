package models

import "time"

// PromoCode is consumed by intake; UsedCount is incremented atomically as a
// side effect of a successful application.
type PromoCode struct {
	ID                 int64      `json:"id"`
	RestaurantID       int64      `json:"restaurant_id"`
	Code               string     `json:"code"` // matched case-insensitively
	DiscountPercentage float64    `json:"discount_percentage"`
	MinOrderAmount     float64    `json:"min_order_amount"`
	MaxUses            int        `json:"max_uses"`
	UsedCount          int        `json:"used_count"`
	IsActive           bool       `json:"is_active"`
	ValidFrom          *time.Time `json:"valid_from,omitempty"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
}
