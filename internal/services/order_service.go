package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
	"qrdine_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// revenueMilestoneAmount is the same-day gross revenue level that triggers a
// celebratory notification, at most once per restaurant per day.
const revenueMilestoneAmount = 5000.0

// orderNumberAttempts bounds the retries on an order-number collision.
const orderNumberAttempts = 3

// OrderService defines order intake and lifecycle operations.
type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*IntakeResult, error)
	UpdateOrderStatus(orderID int64, newStatus string) (*models.Order, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetActiveOrders(restaurantID int64) ([]models.Order, error)
}

// CreateOrderRequest is the intake payload. Either RestaurantID or
// RestaurantSlug must be set; the slug form serves QR deep links.
type CreateOrderRequest struct {
	RestaurantID   int64  `json:"restaurant_id"`
	RestaurantSlug string `json:"restaurant_slug"`

	TableID     int64  `json:"table_id"`
	TableNumber string `json:"table_number"`

	Items []OrderItemRequest `json:"items"`

	PromoCode     string  `json:"promo_code"`
	PaymentMethod string  `json:"payment_method"`
	CustomerPhone *string `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`
	OrderedBy     *string `json:"ordered_by"`
	CaptainID     *int64  `json:"captain_id"`
}

// OrderItemRequest references a menu item by id; name and price are always
// snapshotted from the menu, never trusted from the client.
type OrderItemRequest struct {
	MenuItemID          int64   `json:"menu_item_id"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions *string `json:"special_instructions"`
}

// LowStockAlert reports an item whose inventory crossed its threshold while
// this order was being placed.
type LowStockAlert struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Remaining  int    `json:"remaining"`
}

// IntakeResult is the outcome of a successful CreateOrder, including the
// side-channel signals the caller broadcasts after commit.
type IntakeResult struct {
	Order            *models.Order   `json:"order"`
	LowStockAlerts   []LowStockAlert `json:"low_stock_alerts,omitempty"`
	RevenueMilestone bool            `json:"revenue_milestone,omitempty"`
}

type orderService struct {
	ds repositories.Datastore
}

// NewOrderService creates an OrderService over the given datastore.
func NewOrderService(ds repositories.Datastore) OrderService {
	return &orderService{ds: ds}
}

// CreateOrder runs the whole intake pipeline in one transaction: restaurant
// and table resolution, item snapshotting with atomic inventory decrements,
// promo application, tax math and the revenue milestone check. Any failure
// rolls everything back, inventory decrements included.
func (s *orderService) CreateOrder(req CreateOrderRequest) (*IntakeResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: menu item %d", ErrInvalidQuantity, item.MenuItemID)
		}
	}

	var result *IntakeResult
	err := s.ds.RunInTx(func(tx repositories.Datastore) error {
		restaurant, err := s.resolveRestaurant(tx, req)
		if err != nil {
			return err
		}
		if !restaurant.IsActive {
			return ErrRestaurantInactive
		}

		tableID, tableNumber, err := s.resolveTable(tx, restaurant.ID, req)
		if err != nil {
			return err
		}

		order := &models.Order{
			RestaurantID:  restaurant.ID,
			TableID:       tableID,
			TableNumber:   tableNumber,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
			OrderedBy:     req.OrderedBy,
			CaptainID:     req.CaptainID,
			Status:        models.StatusPreparing,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: models.PaymentPending,
		}
		if order.PaymentMethod == "" {
			order.PaymentMethod = models.MethodCash
		}

		alerts, subtotal, err := s.snapshotItems(tx, restaurant.ID, req.Items, order)
		if err != nil {
			return err
		}

		discount := decimal.Zero
		if req.PromoCode != "" {
			discount, err = s.applyPromo(tx, restaurant.ID, req.PromoCode, subtotal)
			if err != nil {
				return err
			}
			code := req.PromoCode
			order.PromoCode = &code
		}

		taxable := subtotal.Sub(discount)
		taxRate := decimal.NewFromFloat(restaurant.TaxPercentage).Div(decimal.NewFromInt(100))
		taxAmount := taxable.Mul(taxRate).Round(2)
		total := taxable.Add(taxAmount).Round(2)

		order.Subtotal = round2(subtotal)
		order.Discount = round2(discount)
		order.TaxPercentage = restaurant.TaxPercentage
		order.TaxAmount = round2(taxAmount)
		order.TotalAmount = round2(total)

		if err := s.insertWithFreshNumber(tx, order); err != nil {
			return err
		}

		milestone, err := s.checkRevenueMilestone(tx, restaurant, order)
		if err != nil {
			return err
		}

		result = &IntakeResult{
			Order:            order,
			LowStockAlerts:   alerts,
			RevenueMilestone: milestone,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *orderService) resolveRestaurant(tx repositories.Datastore, req CreateOrderRequest) (*models.Restaurant, error) {
	var (
		restaurant *models.Restaurant
		err        error
	)
	switch {
	case req.RestaurantID > 0:
		restaurant, err = tx.Restaurants().GetByID(req.RestaurantID)
	case req.RestaurantSlug != "":
		restaurant, err = tx.Restaurants().GetBySlug(req.RestaurantSlug)
	default:
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return restaurant, nil
}

// resolveTable prefers an explicit table id, which must point at an active
// table. An unknown id and the no-id case both fall back to the free-form
// number scanned from the QR code, deriving a numeric id from its digits so
// walk-in orders still group by table.
func (s *orderService) resolveTable(tx repositories.Datastore, restaurantID int64, req CreateOrderRequest) (int64, string, error) {
	if req.TableID > 0 {
		table, err := tx.Tables().GetByID(restaurantID, req.TableID)
		switch {
		case err == nil:
			if !table.IsActive {
				return 0, "", fmt.Errorf("%w: %s", ErrTableInactive, table.TableNumber)
			}
			return table.ID, table.TableNumber, nil
		case !errors.Is(err, repositories.ErrNotFound):
			return 0, "", err
		}
	}

	number := req.TableNumber
	if number == "" {
		number = "1"
	}
	return utils.DigitsOrDefault(number, 1), number, nil
}

// snapshotItems copies name and price from the live menu into order items and
// decrements inventory per line. The decrement is conditional at the storage
// layer, so concurrent orders cannot oversell the same item.
func (s *orderService) snapshotItems(tx repositories.Datastore, restaurantID int64, items []OrderItemRequest, order *models.Order) ([]LowStockAlert, decimal.Decimal, error) {
	subtotal := decimal.Zero
	var alerts []LowStockAlert

	for _, line := range items {
		menuItem, err := tx.Menu().GetByID(line.MenuItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, decimal.Zero, fmt.Errorf("%w: ID %d", ErrItemNotFound, line.MenuItemID)
			}
			return nil, decimal.Zero, err
		}
		if menuItem.RestaurantID != restaurantID {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrItemWrongRestaurant, menuItem.Name)
		}
		if !menuItem.IsAvailable {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrItemUnavailable, menuItem.Name)
		}

		remaining, err := tx.Menu().DecrementInventory(menuItem.ID, line.Quantity)
		if err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, decimal.Zero, fmt.Errorf("%w: %s (requested %d, in stock %d)",
					ErrInsufficientStock, menuItem.Name, line.Quantity, menuItem.InventoryCount)
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, decimal.Zero, fmt.Errorf("%w: ID %d", ErrItemNotFound, line.MenuItemID)
			}
			return nil, decimal.Zero, err
		}

		if remaining <= menuItem.LowStockThreshold {
			alert := LowStockAlert{MenuItemID: menuItem.ID, Name: menuItem.Name, Remaining: remaining}
			alerts = append(alerts, alert)
			notification := &models.Notification{
				RestaurantID: restaurantID,
				Type:         models.NotificationLowStock,
				Message:      fmt.Sprintf("%s is running low: %d left in stock", menuItem.Name, remaining),
			}
			if _, err := tx.Notifications().Create(notification); err != nil {
				return nil, decimal.Zero, err
			}
		}

		order.Items = append(order.Items, models.OrderItem{
			MenuItemID:          menuItem.ID,
			Name:                menuItem.Name,
			Quantity:            line.Quantity,
			UnitPrice:           menuItem.Price,
			SpecialInstructions: line.SpecialInstructions,
		})
		lineTotal := decimal.NewFromFloat(menuItem.Price).Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
	}

	return alerts, subtotal.Round(2), nil
}

// applyPromo validates the code against its activity flag, validity window,
// usage cap and minimum order amount, then burns one use. Returns the
// discount amount.
func (s *orderService) applyPromo(tx repositories.Datastore, restaurantID int64, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	promo, err := tx.Promos().GetByCode(restaurantID, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrPromoNotFound, code)
		}
		return decimal.Zero, err
	}

	now := time.Now()
	if !promo.IsActive {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPromoInactive, promo.Code)
	}
	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPromoNotYet, promo.Code)
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPromoExpired, promo.Code)
	}
	if promo.UsedCount >= promo.MaxUses {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPromoExhausted, promo.Code)
	}
	minAmount := decimal.NewFromFloat(promo.MinOrderAmount)
	if subtotal.LessThan(minAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s requires a minimum order of %s, current subtotal %s",
			ErrPromoMinOrder, promo.Code, minAmount.StringFixed(2), subtotal.StringFixed(2))
	}

	if err := tx.Promos().IncrementUsage(promo.ID); err != nil {
		if errors.Is(err, repositories.ErrPromoExhausted) {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrPromoExhausted, promo.Code)
		}
		return decimal.Zero, err
	}

	rate := decimal.NewFromFloat(promo.DiscountPercentage).Div(decimal.NewFromInt(100))
	return subtotal.Mul(rate).Round(2), nil
}

// insertWithFreshNumber generates the order number and retries on the rare
// collision within the same millisecond.
func (s *orderService) insertWithFreshNumber(tx repositories.Datastore, order *models.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = fmt.Sprintf("R%d_%d_%03d", order.RestaurantID, time.Now().UnixMilli(), rand.Intn(1000))
		_, err := tx.Orders().Create(order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return err
		}
	}
	return fmt.Errorf("could not generate a unique order number for restaurant %d", order.RestaurantID)
}

// checkRevenueMilestone fires when this order pushes the restaurant's
// same-day revenue across the milestone for the first time that day.
func (s *orderService) checkRevenueMilestone(tx repositories.Datastore, restaurant *models.Restaurant, order *models.Order) (bool, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	revenue, err := tx.Orders().SumRevenueSince(restaurant.ID, startOfDay)
	if err != nil {
		return false, err
	}
	if revenue < revenueMilestoneAmount || revenue-order.TotalAmount >= revenueMilestoneAmount {
		return false, nil
	}

	already, err := tx.Notifications().ExistsToday(restaurant.ID, models.NotificationRevenueMilestone)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	notification := &models.Notification{
		RestaurantID: restaurant.ID,
		Type:         models.NotificationRevenueMilestone,
		Message:      fmt.Sprintf("%s crossed ₹%.0f in revenue today", restaurant.Name, revenueMilestoneAmount),
	}
	if _, err := tx.Notifications().Create(notification); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateOrderStatus moves an order along the status graph. A request for the
// status the order already has is an idempotent no-op. Completing an order is
// refused while its payment is still outstanding, except for cash orders
// which are settled at the table.
func (s *orderService) UpdateOrderStatus(orderID int64, newStatus string) (*models.Order, error) {
	var updated *models.Order
	err := s.ds.RunInTx(func(tx repositories.Datastore) error {
		order, err := tx.Orders().GetByID(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if err := ValidateTransition(order.Status, newStatus); err != nil {
			return err
		}
		if order.Status == newStatus {
			updated = order
			return nil
		}

		now := time.Now()
		if newStatus == models.StatusCompleted && order.PaymentStatus != models.PaymentPaid {
			// Cash orders are settled at the table; completing one records
			// the payment. Anything else must be paid through the gateway
			// before it can complete.
			if order.PaymentMethod != models.MethodCash {
				return fmt.Errorf("%w: payment status is %s", ErrPaymentRequired, order.PaymentStatus)
			}
			status := newStatus
			upd := models.PaymentUpdate{PaymentStatus: models.PaymentPaid, Status: &status}
			if err := tx.Orders().UpdatePayment(orderID, upd); err != nil {
				return err
			}
			order.PaymentStatus = models.PaymentPaid
		} else if err := tx.Orders().UpdateStatus(orderID, newStatus, now); err != nil {
			return err
		}
		order.Status = newStatus
		order.UpdatedAt = now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.ds.Orders().GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetActiveOrders(restaurantID int64) ([]models.Order, error) {
	return s.ds.Orders().GetActive(restaurantID)
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
