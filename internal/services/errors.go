package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map them to API
// error responses with errors.Is.
var (
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrRestaurantInactive  = errors.New("restaurant is not accepting orders")
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyOrder          = errors.New("order must contain at least one item")
	ErrItemNotFound        = errors.New("menu item not found")
	ErrItemUnavailable     = errors.New("menu item is not available")
	ErrInsufficientStock   = errors.New("insufficient stock for menu item")
	ErrInvalidQuantity     = errors.New("item quantity must be positive")
	ErrItemWrongRestaurant = errors.New("menu item belongs to a different restaurant")
	ErrTableInactive       = errors.New("table is not active")

	ErrPromoNotFound  = errors.New("promo code not found")
	ErrPromoInactive  = errors.New("promo code is not active")
	ErrPromoNotYet    = errors.New("promo code is not valid yet")
	ErrPromoExpired   = errors.New("promo code has expired")
	ErrPromoExhausted = errors.New("promo code usage limit reached")
	ErrPromoMinOrder  = errors.New("order amount below promo code minimum")

	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPaymentRequired     = errors.New("order cannot be completed before payment")
	ErrPaymentNotCompleted = errors.New("payment is not completed")

	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrVendorNotReady   = errors.New("restaurant has no payment vendor account")
)
