package models

import "time"

// MenuItem is consumed, not owned, by the orchestration engine: intake reads
// price/availability and decrements inventory as a side effect.
type MenuItem struct {
	ID                int64     `json:"id"`
	RestaurantID      int64     `json:"restaurant_id"`
	Name              string    `json:"name"`
	Price             float64   `json:"price"`
	IsAvailable       bool      `json:"is_available"`
	InventoryCount    int       `json:"inventory_count"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Table is a dining table within a restaurant.
type Table struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	TableNumber  string `json:"table_number"`
	IsActive     bool   `json:"is_active"`
}
