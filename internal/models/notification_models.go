package models

import "time"

// Notification types created by the engine.
const (
	NotificationLowStock         = "low_stock"
	NotificationRevenueMilestone = "revenue_milestone"
)

// Notification is create-only from the engine's perspective; reading and
// acknowledging notifications belongs to the staff-facing CRUD surface.
type Notification struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}
