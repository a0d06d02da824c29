package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
	"qrdine_backend/internal/repositories/memory"
)

func seededStore(t *testing.T) repositories.Datastore {
	t.Helper()
	ds := memory.New()
	memory.Load(ds, memory.Seed{
		Restaurants: []models.Restaurant{
			{ID: 1, Name: "Spice Route", Slug: "spice-route", IsActive: true, TaxPercentage: 5},
			{ID: 2, Name: "Shut Down Diner", Slug: "shut-down", IsActive: false, TaxPercentage: 5},
		},
		Tables: []models.Table{
			{ID: 10, RestaurantID: 1, TableNumber: "T4", IsActive: true},
			{ID: 11, RestaurantID: 1, TableNumber: "T9", IsActive: false},
		},
		MenuItems: []models.MenuItem{
			{ID: 100, RestaurantID: 1, Name: "Paneer Tikka", Price: 100, IsAvailable: true, InventoryCount: 50, LowStockThreshold: 5},
			{ID: 101, RestaurantID: 1, Name: "Masala Chai", Price: 50, IsAvailable: true, InventoryCount: 50, LowStockThreshold: 5},
			{ID: 102, RestaurantID: 1, Name: "Day Special", Price: 80, IsAvailable: false, InventoryCount: 50, LowStockThreshold: 5},
			{ID: 103, RestaurantID: 1, Name: "Gulab Jamun", Price: 40, IsAvailable: true, InventoryCount: 6, LowStockThreshold: 5},
		},
		Promos: []models.PromoCode{
			{ID: 200, RestaurantID: 1, Code: "SAVE10", DiscountPercentage: 10, MinOrderAmount: 200, MaxUses: 100, UsedCount: 0, IsActive: true},
			{ID: 201, RestaurantID: 1, Code: "BURNT", DiscountPercentage: 10, MinOrderAmount: 0, MaxUses: 3, UsedCount: 3, IsActive: true},
		},
	})
	return ds
}

func TestCreateOrderMoneyMath(t *testing.T) {
	// Two items, qty 2 @ 100 and qty 1 @ 50, tax 5%.
	svc := NewOrderService(seededStore(t))

	result, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1,
		TableID:      10,
		Items: []OrderItemRequest{
			{MenuItemID: 100, Quantity: 2},
			{MenuItemID: 101, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	order := result.Order
	if order.Subtotal != 250.00 {
		t.Errorf("subtotal = %.2f, want 250.00", order.Subtotal)
	}
	if order.TaxAmount != 12.50 {
		t.Errorf("tax = %.2f, want 12.50", order.TaxAmount)
	}
	if order.TotalAmount != 262.50 {
		t.Errorf("total = %.2f, want 262.50", order.TotalAmount)
	}
	if order.Status != models.StatusPreparing {
		t.Errorf("status = %s, want preparing", order.Status)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Errorf("payment status = %s, want pending", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if order.Items[0].Name != "Paneer Tikka" || order.Items[0].UnitPrice != 100 {
		t.Errorf("item snapshot should carry menu name and price, got %+v", order.Items[0])
	}
	if order.TableNumber != "T4" {
		t.Errorf("table number = %s, want T4", order.TableNumber)
	}
	if !strings.HasPrefix(order.OrderNumber, "R1_") {
		t.Errorf("order number = %s, want R1_ prefix", order.OrderNumber)
	}
}

func TestCreateOrderBySlug(t *testing.T) {
	svc := NewOrderService(seededStore(t))
	result, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantSlug: "spice-route",
		TableNumber:    "T7",
		Items:          []OrderItemRequest{{MenuItemID: 101, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder by slug: %v", err)
	}
	if result.Order.RestaurantID != 1 {
		t.Errorf("restaurant = %d, want 1", result.Order.RestaurantID)
	}
	if result.Order.TableID != 7 {
		t.Errorf("derived table id = %d, want 7", result.Order.TableID)
	}
}

func TestCreateOrderUnknownTableIDFallsBackToNumber(t *testing.T) {
	svc := NewOrderService(seededStore(t))

	result, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1,
		TableID:      999,
		TableNumber:  "T12",
		Items:        []OrderItemRequest{{MenuItemID: 101, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder with stale table id: %v", err)
	}
	if result.Order.TableID != 12 {
		t.Errorf("derived table id = %d, want 12", result.Order.TableID)
	}
	if result.Order.TableNumber != "T12" {
		t.Errorf("table number = %s, want T12", result.Order.TableNumber)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(seededStore(t))

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{
			name:    "empty items",
			req:     CreateOrderRequest{RestaurantID: 1, TableID: 10},
			wantErr: ErrEmptyOrder,
		},
		{
			name: "zero quantity",
			req: CreateOrderRequest{RestaurantID: 1, TableID: 10,
				Items: []OrderItemRequest{{MenuItemID: 100, Quantity: 0}}},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "unknown restaurant",
			req: CreateOrderRequest{RestaurantID: 99,
				Items: []OrderItemRequest{{MenuItemID: 100, Quantity: 1}}},
			wantErr: ErrRestaurantNotFound,
		},
		{
			name: "inactive restaurant",
			req: CreateOrderRequest{RestaurantID: 2,
				Items: []OrderItemRequest{{MenuItemID: 100, Quantity: 1}}},
			wantErr: ErrRestaurantInactive,
		},
		{
			name: "inactive table",
			req: CreateOrderRequest{RestaurantID: 1, TableID: 11,
				Items: []OrderItemRequest{{MenuItemID: 100, Quantity: 1}}},
			wantErr: ErrTableInactive,
		},
		{
			name: "unknown menu item",
			req: CreateOrderRequest{RestaurantID: 1, TableID: 10,
				Items: []OrderItemRequest{{MenuItemID: 999, Quantity: 1}}},
			wantErr: ErrItemNotFound,
		},
		{
			name: "unavailable item",
			req: CreateOrderRequest{RestaurantID: 1, TableID: 10,
				Items: []OrderItemRequest{{MenuItemID: 102, Quantity: 1}}},
			wantErr: ErrItemUnavailable,
		},
		{
			name: "insufficient stock",
			req: CreateOrderRequest{RestaurantID: 1, TableID: 10,
				Items: []OrderItemRequest{{MenuItemID: 103, Quantity: 10}}},
			wantErr: ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateOrderRollsBackInventoryOnFailure(t *testing.T) {
	ds := seededStore(t)
	svc := NewOrderService(ds)

	// First item decrements, second item fails; nothing may survive.
	_, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableID: 10,
		Items: []OrderItemRequest{
			{MenuItemID: 100, Quantity: 2},
			{MenuItemID: 102, Quantity: 1},
		},
	})
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}

	item, err := ds.Menu().GetByID(100)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.InventoryCount != 50 {
		t.Errorf("inventory = %d after rollback, want 50", item.InventoryCount)
	}
}

func TestCreateOrderPromoDiscount(t *testing.T) {
	ds := seededStore(t)
	svc := NewOrderService(ds)

	result, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableID: 10,
		PromoCode: "save10", // case-insensitive match
		Items: []OrderItemRequest{
			{MenuItemID: 100, Quantity: 2},
			{MenuItemID: 101, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder with promo: %v", err)
	}

	order := result.Order
	if order.Discount != 25.00 {
		t.Errorf("discount = %.2f, want 25.00", order.Discount)
	}
	// (250 - 25) * 1.05 = 236.25
	if order.TotalAmount != 236.25 {
		t.Errorf("total = %.2f, want 236.25", order.TotalAmount)
	}

	promo, err := ds.Promos().GetByCode(1, "SAVE10")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if promo.UsedCount != 1 {
		t.Errorf("used count = %d, want 1", promo.UsedCount)
	}
}

func TestCreateOrderPromoBelowMinimumNamesThreshold(t *testing.T) {
	svc := NewOrderService(seededStore(t))

	_, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableID: 10,
		PromoCode: "SAVE10",
		Items:     []OrderItemRequest{{MenuItemID: 101, Quantity: 1}}, // subtotal 50 < 200
	})
	if !errors.Is(err, ErrPromoMinOrder) {
		t.Fatalf("expected ErrPromoMinOrder, got %v", err)
	}
	if !strings.Contains(err.Error(), "200.00") {
		t.Errorf("error should name the minimum amount, got %q", err.Error())
	}
}

func TestCreateOrderPromoExhausted(t *testing.T) {
	svc := NewOrderService(seededStore(t))

	_, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableID: 10,
		PromoCode: "BURNT",
		Items:     []OrderItemRequest{{MenuItemID: 100, Quantity: 1}},
	})
	if !errors.Is(err, ErrPromoExhausted) {
		t.Errorf("expected ErrPromoExhausted, got %v", err)
	}
}

func TestCreateOrderPromoWindow(t *testing.T) {
	ds := memory.New()
	past := time.Now().Add(-48 * time.Hour)
	earlier := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(48 * time.Hour)
	memory.Load(ds, memory.Seed{
		Restaurants: []models.Restaurant{{ID: 1, Name: "R", Slug: "r", IsActive: true}},
		MenuItems: []models.MenuItem{
			{ID: 100, RestaurantID: 1, Name: "Item", Price: 100, IsAvailable: true, InventoryCount: 50, LowStockThreshold: 0},
		},
		Promos: []models.PromoCode{
			{ID: 1, RestaurantID: 1, Code: "EXPIRED", DiscountPercentage: 10, MaxUses: 10, IsActive: true, ValidFrom: &past, ValidUntil: &earlier},
			{ID: 2, RestaurantID: 1, Code: "SOON", DiscountPercentage: 10, MaxUses: 10, IsActive: true, ValidFrom: &future, ValidUntil: &later},
			{ID: 3, RestaurantID: 1, Code: "OFF", DiscountPercentage: 10, MaxUses: 10, IsActive: false},
		},
	})
	svc := NewOrderService(ds)

	tests := []struct {
		code    string
		wantErr error
	}{
		{"EXPIRED", ErrPromoExpired},
		{"SOON", ErrPromoNotYet},
		{"OFF", ErrPromoInactive},
		{"NOSUCH", ErrPromoNotFound},
	}
	for _, tt := range tests {
		_, err := svc.CreateOrder(CreateOrderRequest{
			RestaurantID: 1, TableNumber: "1",
			PromoCode: tt.code,
			Items:     []OrderItemRequest{{MenuItemID: 100, Quantity: 1}},
		})
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("promo %s: got %v, want %v", tt.code, err, tt.wantErr)
		}
	}
}

func TestCreateOrderLowStockAlert(t *testing.T) {
	svc := NewOrderService(seededStore(t))

	result, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableID: 10,
		Items: []OrderItemRequest{{MenuItemID: 103, Quantity: 2}}, // 6 - 2 = 4 <= threshold 5
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if len(result.LowStockAlerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(result.LowStockAlerts))
	}
	alert := result.LowStockAlerts[0]
	if alert.MenuItemID != 103 || alert.Remaining != 4 {
		t.Errorf("alert = %+v, want item 103 with 4 remaining", alert)
	}
}

func TestCreateOrderRevenueMilestone(t *testing.T) {
	ds := memory.New()
	memory.Load(ds, memory.Seed{
		Restaurants: []models.Restaurant{{ID: 1, Name: "R", Slug: "r", IsActive: true}},
		MenuItems: []models.MenuItem{
			{ID: 100, RestaurantID: 1, Name: "Thali", Price: 2400, IsAvailable: true, InventoryCount: 100, LowStockThreshold: 0},
		},
		Orders: []models.Order{
			{ID: 1, RestaurantID: 1, OrderNumber: "R1_x_001", Status: models.StatusServed, TotalAmount: 2600, CreatedAt: time.Now()},
		},
	})
	svc := NewOrderService(ds)

	// 2600 existing + 2400 pushes today's revenue to 5000.
	result, err := svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableNumber: "1",
		Items: []OrderItemRequest{{MenuItemID: 100, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !result.RevenueMilestone {
		t.Fatal("expected the milestone to fire on crossing 5000")
	}

	// The next order stays above the line but must not fire again.
	result, err = svc.CreateOrder(CreateOrderRequest{
		RestaurantID: 1, TableNumber: "1",
		Items: []OrderItemRequest{{MenuItemID: 100, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if result.RevenueMilestone {
		t.Error("milestone fired twice on the same day")
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	const stock = 10
	const workers = 25
	const qtyPerOrder = 2

	ds := memory.New()
	memory.Load(ds, memory.Seed{
		Restaurants: []models.Restaurant{{ID: 1, Name: "R", Slug: "r", IsActive: true}},
		MenuItems: []models.MenuItem{
			{ID: 100, RestaurantID: 1, Name: "Biryani", Price: 150, IsAvailable: true, InventoryCount: stock, LowStockThreshold: 0},
		},
	})
	svc := NewOrderService(ds)

	var wg sync.WaitGroup
	accepted := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.CreateOrder(CreateOrderRequest{
				RestaurantID: 1,
				TableNumber:  fmt.Sprintf("T%d", n),
				Items:        []OrderItemRequest{{MenuItemID: 100, Quantity: qtyPerOrder}},
			})
			if err == nil {
				accepted <- struct{}{}
			} else if !errors.Is(err, ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	close(accepted)

	got := len(accepted)
	if want := stock / qtyPerOrder; got != want {
		t.Errorf("accepted %d orders, want exactly %d", got, want)
	}
	item, err := ds.Menu().GetByID(100)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.InventoryCount < 0 {
		t.Errorf("inventory went negative: %d", item.InventoryCount)
	}
	if item.InventoryCount != 0 {
		t.Errorf("inventory = %d, want 0", item.InventoryCount)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ds := memory.New()
	memory.Load(ds, memory.Seed{
		Restaurants: []models.Restaurant{{ID: 1, Name: "R", Slug: "r", IsActive: true}},
		Orders: []models.Order{
			{ID: 1, RestaurantID: 1, OrderNumber: "R1_x_001", Status: models.StatusPending, PaymentMethod: models.MethodCash, PaymentStatus: models.PaymentPending},
			{ID: 2, RestaurantID: 1, OrderNumber: "R1_x_002", Status: models.StatusServed, PaymentMethod: models.MethodUPI, PaymentStatus: models.PaymentPending},
			{ID: 3, RestaurantID: 1, OrderNumber: "R1_x_003", Status: models.StatusServed, PaymentMethod: models.MethodCash, PaymentStatus: models.PaymentPending},
		},
	})
	svc := NewOrderService(ds)

	t.Run("valid transition", func(t *testing.T) {
		order, err := svc.UpdateOrderStatus(1, models.StatusPreparing)
		if err != nil {
			t.Fatalf("UpdateOrderStatus: %v", err)
		}
		if order.Status != models.StatusPreparing {
			t.Errorf("status = %s, want preparing", order.Status)
		}
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		order, err := svc.UpdateOrderStatus(1, models.StatusPreparing)
		if err != nil {
			t.Fatalf("idempotent update: %v", err)
		}
		if order.Status != models.StatusPreparing {
			t.Errorf("status = %s, want preparing", order.Status)
		}
	})

	t.Run("invalid transition lists allowed", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(1, models.StatusCompleted)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(999, models.StatusPreparing)
		if !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("unpaid gateway order cannot complete", func(t *testing.T) {
		_, err := svc.UpdateOrderStatus(2, models.StatusCompleted)
		if !errors.Is(err, ErrPaymentRequired) {
			t.Errorf("expected ErrPaymentRequired, got %v", err)
		}
	})

	t.Run("completing cash order settles payment", func(t *testing.T) {
		order, err := svc.UpdateOrderStatus(3, models.StatusCompleted)
		if err != nil {
			t.Fatalf("UpdateOrderStatus: %v", err)
		}
		if order.Status != models.StatusCompleted {
			t.Errorf("status = %s, want completed", order.Status)
		}
		if order.PaymentStatus != models.PaymentPaid {
			t.Errorf("payment status = %s, want paid", order.PaymentStatus)
		}
	})
}

func TestGetActiveOrdersExcludesTerminal(t *testing.T) {
	ds := memory.New()
	memory.Load(ds, memory.Seed{
		Restaurants: []models.Restaurant{{ID: 1, Name: "R", Slug: "r", IsActive: true}},
		Orders: []models.Order{
			{ID: 1, RestaurantID: 1, OrderNumber: "a", Status: models.StatusPending, CreatedAt: time.Now()},
			{ID: 2, RestaurantID: 1, OrderNumber: "b", Status: models.StatusCompleted, CreatedAt: time.Now()},
			{ID: 3, RestaurantID: 1, OrderNumber: "c", Status: models.StatusCancelled, CreatedAt: time.Now()},
			{ID: 4, RestaurantID: 2, OrderNumber: "d", Status: models.StatusReady, CreatedAt: time.Now()},
		},
	})
	svc := NewOrderService(ds)

	orders, err := svc.GetActiveOrders(1)
	if err != nil {
		t.Fatalf("GetActiveOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != 1 {
		t.Errorf("active orders = %+v, want only order 1", orders)
	}
}
