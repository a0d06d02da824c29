package models

import "time"

// Restaurant holds the tax and settlement state the engine needs. Profile
// management is external; VendorID is the only field this backend writes.
type Restaurant struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	IsActive      bool    `json:"is_active"`
	TaxPercentage float64 `json:"tax_percentage"`

	// Gateway vendor mapping, created lazily on first provisioning call.
	VendorID *string `json:"vendor_id,omitempty"`

	// Contact and bank details forwarded to the gateway when provisioning.
	ContactPhone      string `json:"contact_phone"`
	ContactEmail      string `json:"contact_email"`
	BankAccountNumber string `json:"-"`
	BankIFSC          string `json:"-"`
	AccountHolder     string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestaurantPublicInfo is the cached, customer-facing projection of a
// restaurant. It intentionally excludes contact and bank fields.
type RestaurantPublicInfo struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	IsActive      bool    `json:"is_active"`
	TaxPercentage float64 `json:"tax_percentage"`
}
