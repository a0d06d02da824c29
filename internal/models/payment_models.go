package models

import (
	"encoding/json"
	"time"
)

// Gateway webhook event types.
const (
	EventPaymentSuccess     = "PAYMENT_SUCCESS_WEBHOOK"
	EventPaymentFailed      = "PAYMENT_FAILED_WEBHOOK"
	EventSettlementDone     = "SETTLEMENT_PROCESSED"
	EventVendorPayoutUpdate = "VENDOR_PAYOUT_UPDATE"
)

// PaymentEvent is the audit row written for every processed webhook.
// Informational events (settlements, payouts) live only here and never
// mutate an Order.
type PaymentEvent struct {
	ID             int64           `json:"id"`
	RestaurantID   *int64          `json:"restaurant_id,omitempty"`
	OrderID        *int64          `json:"order_id,omitempty"`
	EventType      string          `json:"event_type"`
	GatewayOrderID *string         `json:"gateway_order_id,omitempty"`
	GatewayTxnID   *string         `json:"gateway_txn_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
