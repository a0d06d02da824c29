package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"qrdine_backend/internal/broadcast"
	"qrdine_backend/internal/cache"
	"qrdine_backend/internal/gateway"
	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
	"qrdine_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// gatewayOrderPattern recovers the internal order id from a legacy gateway
// order id. The primary lookup is the indexed transaction_id column; this is
// the fallback for webhooks referencing sessions created before that column
// existed.
var gatewayOrderPattern = regexp.MustCompile(`^CF_ORD_(\d+)_\d+$`)

// PaymentConfig tunes the split and settlement behaviour.
type PaymentConfig struct {
	CommissionRate     float64 // platform share of every order, default 0.01
	SettlementSchedule int     // gateway schedule option, 1 = next business day
}

// PaymentService owns vendor provisioning, payment-session creation, webhook
// reconciliation, refunds and gateway passthrough reads.
type PaymentService interface {
	ProvisionVendor(ctx context.Context, restaurantID int64) (string, error)
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*PaymentSession, error)
	HandleWebhook(ctx context.Context, timestamp string, body []byte, signature string) error
	Refund(ctx context.Context, req RefundOrderRequest) (*models.Order, error)
	PaymentStatus(ctx context.Context, orderID int64) (json.RawMessage, error)
	Settlements(ctx context.Context, restaurantID int64, limit int) (json.RawMessage, error)
}

// InitiatePaymentRequest asks for a gateway payment session for an order.
type InitiatePaymentRequest struct {
	OrderID       int64   `json:"order_id"`
	RestaurantID  int64   `json:"restaurant_id"`
	Amount        float64 `json:"amount"`
	CustomerPhone string  `json:"customer_phone"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
}

// PaymentSession is what the frontend needs to collect the payment, plus the
// split breakdown for transparency.
type PaymentSession struct {
	OrderID            int64   `json:"order_id"`
	GatewayOrderID     string  `json:"gateway_order_id"`
	SessionID          string  `json:"session_id"`
	PaymentLink        string  `json:"payment_link"`
	PlatformCommission float64 `json:"platform_commission"`
	VendorAmount       float64 `json:"vendor_amount"`
}

// RefundOrderRequest reverses a paid order, fully when Amount is zero.
type RefundOrderRequest struct {
	OrderID int64   `json:"order_id"`
	Amount  float64 `json:"amount"`
	Reason  string  `json:"reason"`
}

type paymentService struct {
	ds          repositories.Datastore
	gw          gateway.Gateway
	broadcaster broadcast.Broadcaster
	cache       cache.Cache
	cfg         PaymentConfig
}

// NewPaymentService creates a PaymentService. broadcaster and cache may be
// nil in tests that do not exercise fan-out or invalidation.
func NewPaymentService(ds repositories.Datastore, gw gateway.Gateway, b broadcast.Broadcaster, c cache.Cache, cfg PaymentConfig) PaymentService {
	if cfg.CommissionRate <= 0 {
		cfg.CommissionRate = 0.01
	}
	if cfg.SettlementSchedule == 0 {
		cfg.SettlementSchedule = 1
	}
	return &paymentService{ds: ds, gw: gw, broadcaster: b, cache: c, cfg: cfg}
}

// ProvisionVendor returns the restaurant's gateway vendor id, creating the
// vendor account on first use. The id is deterministic, so a gateway-side
// "already exists" answer is adopted as success.
func (s *paymentService) ProvisionVendor(ctx context.Context, restaurantID int64) (string, error) {
	restaurant, err := s.ds.Restaurants().GetByID(restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrRestaurantNotFound
		}
		return "", err
	}
	if restaurant.VendorID != nil && *restaurant.VendorID != "" {
		return *restaurant.VendorID, nil
	}

	vendorID := fmt.Sprintf("VENDOR_%d", restaurant.ID)
	_, err = s.gw.CreateVendor(ctx, gateway.VendorRequest{
		VendorID:           vendorID,
		Name:               restaurant.Name,
		Phone:              restaurant.ContactPhone,
		Email:              restaurant.ContactEmail,
		BankAccountNumber:  restaurant.BankAccountNumber,
		BankIFSC:           restaurant.BankIFSC,
		AccountHolder:      restaurant.AccountHolder,
		SettlementSchedule: s.cfg.SettlementSchedule,
	})
	if err != nil && !errors.Is(err, gateway.ErrVendorExists) {
		return "", fmt.Errorf("provisioning vendor for restaurant %d: %w", restaurant.ID, err)
	}

	if err := s.ds.Restaurants().UpdateVendorID(restaurant.ID, vendorID); err != nil {
		return "", err
	}
	s.invalidateRestaurant(ctx, restaurant)
	return vendorID, nil
}

// InitiatePayment creates a gateway split order for the given amount: the
// platform keeps its commission, the rest is routed to the restaurant's
// vendor account. The gateway order id is stored on the order for webhook
// correlation.
func (s *paymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*PaymentSession, error) {
	order, err := s.ds.Orders().GetByID(req.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if req.RestaurantID != 0 && order.RestaurantID != req.RestaurantID {
		return nil, ErrOrderNotFound
	}

	amount := req.Amount
	if amount <= 0 {
		amount = order.TotalAmount
	}

	vendorID, err := s.ProvisionVendor(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}

	total := decimal.NewFromFloat(amount)
	commission := total.Mul(decimal.NewFromFloat(s.cfg.CommissionRate)).Round(2)
	vendorAmount := total.Sub(commission).Round(2)

	gatewayOrderID := fmt.Sprintf("CF_ORD_%d_%d", order.ID, time.Now().Unix())
	resp, err := s.gw.CreateSplitOrder(ctx, gateway.SplitOrderRequest{
		GatewayOrderID: gatewayOrderID,
		Amount:         round2(total),
		CustomerID:     fmt.Sprintf("CUST_%d", order.ID),
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		Splits:         []gateway.Split{{VendorID: vendorID, Amount: round2(vendorAmount)}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating payment session for order %d: %w", order.ID, err)
	}

	upd := models.PaymentUpdate{
		PaymentStatus: models.PaymentPending,
		TransactionID: &gatewayOrderID,
	}
	if err := s.ds.Orders().UpdatePayment(order.ID, upd); err != nil {
		return nil, err
	}

	return &PaymentSession{
		OrderID:            order.ID,
		GatewayOrderID:     gatewayOrderID,
		SessionID:          resp.PaymentSessionID,
		PaymentLink:        resp.PaymentLink,
		PlatformCommission: round2(commission),
		VendorAmount:       round2(vendorAmount),
	}, nil
}

// webhookEnvelope mirrors the gateway's callback body. Fields not needed for
// reconciliation stay in the raw payload persisted for audit.
type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CfPaymentID  json.Number `json:"cf_payment_id"`
			PaymentGroup string      `json:"payment_group"`
		} `json:"payment"`
		Vendor struct {
			VendorID string `json:"vendor_id"`
		} `json:"vendor"`
	} `json:"data"`
}

// HandleWebhook verifies and processes one gateway callback. Only a bad
// signature produces an error; every internal failure is logged and swallowed
// so the gateway does not retry conditions that cannot resolve by retrying.
func (s *paymentService) HandleWebhook(ctx context.Context, timestamp string, body []byte, signature string) error {
	if !s.gw.VerifySignature(timestamp, body, signature) {
		return ErrInvalidSignature
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		utils.LogWarn("webhook body is not valid JSON", map[string]interface{}{"error": err.Error()})
		return nil
	}

	switch envelope.Type {
	case models.EventPaymentSuccess:
		s.reconcilePayment(ctx, envelope, body, true)
	case models.EventPaymentFailed:
		s.reconcilePayment(ctx, envelope, body, false)
	case models.EventSettlementDone, models.EventVendorPayoutUpdate:
		s.recordInformationalEvent(envelope, body)
	default:
		utils.LogInfo("ignoring unknown webhook type", map[string]interface{}{"type": envelope.Type})
	}
	return nil
}

// reconcilePayment applies a success or failure webhook as an idempotent
// merge: if the order already reached the target payment state, or a human
// already advanced the status past preparing, nothing is overwritten.
func (s *paymentService) reconcilePayment(ctx context.Context, envelope webhookEnvelope, body []byte, success bool) {
	gatewayOrderID := envelope.Data.Order.OrderID
	order, err := s.locateOrder(gatewayOrderID)
	if err != nil {
		utils.LogWarn("webhook references unknown order", map[string]interface{}{
			"gateway_order_id": gatewayOrderID, "type": envelope.Type,
		})
		return
	}

	target := models.PaymentPaid
	if !success {
		target = models.PaymentFailed
	}
	if order.PaymentStatus == target {
		utils.LogInfo("duplicate payment webhook, no-op", map[string]interface{}{
			"order_id": order.ID, "payment_status": order.PaymentStatus,
		})
		return
	}
	if !success && order.PaymentStatus == models.PaymentPaid {
		// A late failure webhook never downgrades a captured payment.
		utils.LogWarn("failure webhook for already paid order, no-op", map[string]interface{}{"order_id": order.ID})
		return
	}

	upd := models.PaymentUpdate{PaymentStatus: target}
	if success {
		if paymentID := envelope.Data.Payment.CfPaymentID.String(); paymentID != "" {
			upd.TransactionID = &paymentID
		}
		if method := mapPaymentGroup(envelope.Data.Payment.PaymentGroup); method != "" {
			upd.PaymentMethod = &method
		}
		// Advance only forward along the status graph. An order a human has
		// already moved to ready or beyond keeps its status.
		if IsValidTransition(order.Status, models.StatusPreparing) {
			status := models.StatusPreparing
			upd.Status = &status
		}
	}

	err = s.ds.RunInTx(func(tx repositories.Datastore) error {
		if err := tx.Orders().UpdatePayment(order.ID, upd); err != nil {
			return err
		}
		event := &models.PaymentEvent{
			RestaurantID:   &order.RestaurantID,
			OrderID:        &order.ID,
			EventType:      envelope.Type,
			GatewayOrderID: &gatewayOrderID,
			Payload:        json.RawMessage(body),
		}
		if paymentID := envelope.Data.Payment.CfPaymentID.String(); paymentID != "" {
			event.GatewayTxnID = &paymentID
		}
		_, err := tx.PaymentEvents().Create(event)
		return err
	})
	if err != nil {
		utils.LogError(err, "failed to apply payment webhook")
		return
	}

	updated, err := s.ds.Orders().GetByID(order.ID)
	if err != nil {
		utils.LogError(err, "failed to reload order after webhook")
		return
	}
	broadcast.PublishOrder(ctx, s.broadcaster, updated, broadcast.EventOrderUpdated)
	utils.LogInfo("payment webhook reconciled", map[string]interface{}{
		"order_id": updated.ID, "payment_status": updated.PaymentStatus, "status": updated.Status,
	})
}

// recordInformationalEvent persists settlement and payout webhooks for
// reconciliation reporting. They never touch an order.
func (s *paymentService) recordInformationalEvent(envelope webhookEnvelope, body []byte) {
	event := &models.PaymentEvent{
		EventType: envelope.Type,
		Payload:   json.RawMessage(body),
	}
	if envelope.Data.Order.OrderID != "" {
		id := envelope.Data.Order.OrderID
		event.GatewayOrderID = &id
	}
	if _, err := s.ds.PaymentEvents().Create(event); err != nil {
		utils.LogError(err, "failed to persist informational payment event")
		return
	}
	utils.LogInfo("settlement event recorded", map[string]interface{}{"type": envelope.Type})
}

// locateOrder resolves a gateway order id to an internal order, first by the
// stored transaction id and then by parsing the id pattern.
func (s *paymentService) locateOrder(gatewayOrderID string) (*models.Order, error) {
	if gatewayOrderID == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.ds.Orders().GetByTransactionID(gatewayOrderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	match := gatewayOrderPattern.FindStringSubmatch(gatewayOrderID)
	if match == nil {
		return nil, ErrOrderNotFound
	}
	orderID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err = s.ds.Orders().GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// Refund reverses a captured payment through the gateway and marks the order
// refunded.
func (s *paymentService) Refund(ctx context.Context, req RefundOrderRequest) (*models.Order, error) {
	order, err := s.ds.Orders().GetByID(req.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPaid || order.TransactionID == nil {
		return nil, ErrPaymentNotCompleted
	}

	amount := req.Amount
	if amount <= 0 {
		amount = order.TotalAmount
	}
	_, err = s.gw.Refund(ctx, gateway.RefundRequest{
		GatewayOrderID: *order.TransactionID,
		RefundID:       fmt.Sprintf("REFUND_%d_%d", order.ID, time.Now().Unix()),
		Amount:         amount,
		Note:           req.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting refund for order %d: %w", order.ID, err)
	}

	upd := models.PaymentUpdate{PaymentStatus: models.PaymentRefunded}
	if err := s.ds.Orders().UpdatePayment(order.ID, upd); err != nil {
		return nil, err
	}
	order.PaymentStatus = models.PaymentRefunded

	broadcast.PublishOrder(ctx, s.broadcaster, order, broadcast.EventOrderUpdated)
	return order, nil
}

// PaymentStatus passes the gateway's view of an order's payment through
// untranslated.
func (s *paymentService) PaymentStatus(ctx context.Context, orderID int64) (json.RawMessage, error) {
	order, err := s.ds.Orders().GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.TransactionID == nil {
		return nil, fmt.Errorf("%w: order %d has no payment session", ErrPaymentNotCompleted, orderID)
	}
	return s.gw.OrderStatus(ctx, *order.TransactionID)
}

// Settlements lists the gateway settlement history for a restaurant's vendor
// account.
func (s *paymentService) Settlements(ctx context.Context, restaurantID int64, limit int) (json.RawMessage, error) {
	restaurant, err := s.ds.Restaurants().GetByID(restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	if restaurant.VendorID == nil || *restaurant.VendorID == "" {
		return nil, ErrVendorNotReady
	}
	return s.gw.Settlements(ctx, *restaurant.VendorID, limit)
}

func (s *paymentService) invalidateRestaurant(ctx context.Context, restaurant *models.Restaurant) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, restaurantCacheKey(restaurant.ID))
	if restaurant.Slug != "" {
		s.cache.Delete(ctx, restaurantSlugCacheKey(restaurant.Slug))
	}
}

// mapPaymentGroup translates the gateway's payment group to our methods.
func mapPaymentGroup(group string) string {
	switch group {
	case "upi":
		return models.MethodUPI
	case "credit_card", "debit_card", "card":
		return models.MethodCard
	case "":
		return ""
	default:
		return models.MethodCard
	}
}
