// Package memory provides an in-memory Datastore implementation. It is
// selected with STORAGE_DRIVER=memory and backs the package-level tests; it
// replaces the source system's global "no save" toggle with a real storage
// backend chosen once at startup.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
)

type state struct {
	orders        map[int64]models.Order
	menuItems     map[int64]models.MenuItem
	promos        map[int64]models.PromoCode
	restaurants   map[int64]models.Restaurant
	tables        map[int64]models.Table
	notifications map[int64]models.Notification
	paymentEvents map[int64]models.PaymentEvent

	nextOrderID        int64
	nextOrderItemID    int64
	nextNotificationID int64
	nextPaymentEventID int64
}

func newState() *state {
	return &state{
		orders:        map[int64]models.Order{},
		menuItems:     map[int64]models.MenuItem{},
		promos:        map[int64]models.PromoCode{},
		restaurants:   map[int64]models.Restaurant{},
		tables:        map[int64]models.Table{},
		notifications: map[int64]models.Notification{},
		paymentEvents: map[int64]models.PaymentEvent{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.orders {
		v.Items = append([]models.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.menuItems {
		c.menuItems[k] = v
	}
	for k, v := range s.promos {
		c.promos[k] = v
	}
	for k, v := range s.restaurants {
		c.restaurants[k] = v
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.paymentEvents {
		c.paymentEvents[k] = v
	}
	c.nextOrderID = s.nextOrderID
	c.nextOrderItemID = s.nextOrderItemID
	c.nextNotificationID = s.nextNotificationID
	c.nextPaymentEventID = s.nextPaymentEventID
	return c
}

// Store is the shared mutable state behind every view of the datastore.
type Store struct {
	mu sync.Mutex
	st *state
}

type conn struct {
	store *Store
	inTx  bool
}

// New creates an empty in-memory Datastore.
func New() repositories.Datastore {
	return &conn{store: &Store{st: newState()}}
}

// acquire takes the store lock unless the caller is already inside a
// transaction, which holds it for its whole extent.
func (c *conn) acquire() func() {
	if c.inTx {
		return func() {}
	}
	c.store.mu.Lock()
	return c.store.mu.Unlock
}

func (c *conn) Orders() repositories.OrderRepository             { return &orderRepo{c} }
func (c *conn) Menu() repositories.MenuRepository                { return &menuRepo{c} }
func (c *conn) Promos() repositories.PromoRepository             { return &promoRepo{c} }
func (c *conn) Restaurants() repositories.RestaurantRepository   { return &restaurantRepo{c} }
func (c *conn) Tables() repositories.TableRepository             { return &tableRepo{c} }
func (c *conn) Notifications() repositories.NotificationRepository {
	return &notificationRepo{c}
}
func (c *conn) PaymentEvents() repositories.PaymentEventRepository {
	return &paymentEventRepo{c}
}

// RunInTx serializes transactions with a store-wide lock and rolls back by
// restoring a pre-transaction snapshot when fn fails.
func (c *conn) RunInTx(fn func(tx repositories.Datastore) error) error {
	if c.inTx {
		return fn(c)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	snapshot := c.store.st.clone()
	if err := fn(&conn{store: c.store, inTx: true}); err != nil {
		c.store.st = snapshot
		return err
	}
	return nil
}

// --- Seeding helpers (used by tests and the memory-backed dev mode) ---

// Seed loads entities into the store, assigning ids when absent.
type Seed struct {
	Restaurants []models.Restaurant
	Tables      []models.Table
	MenuItems   []models.MenuItem
	Promos      []models.PromoCode
	Orders      []models.Order
}

// Load populates ds with the given seed data. ds must have been created by New.
func Load(ds repositories.Datastore, seed Seed) {
	c := ds.(*conn)
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	st := c.store.st
	for _, r := range seed.Restaurants {
		st.restaurants[r.ID] = r
	}
	for _, t := range seed.Tables {
		st.tables[t.ID] = t
	}
	for _, m := range seed.MenuItems {
		st.menuItems[m.ID] = m
	}
	for _, p := range seed.Promos {
		st.promos[p.ID] = p
	}
	for _, o := range seed.Orders {
		if o.ID > st.nextOrderID {
			st.nextOrderID = o.ID
		}
		o.Items = append([]models.OrderItem(nil), o.Items...)
		st.orders[o.ID] = o
	}
}

// --- Order repository ---

type orderRepo struct{ c *conn }

func (r *orderRepo) Create(order *models.Order) (int64, error) {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	for _, existing := range st.orders {
		if existing.RestaurantID == order.RestaurantID && existing.OrderNumber == order.OrderNumber {
			return 0, repositories.ErrDuplicateKey
		}
	}

	st.nextOrderID++
	order.ID = st.nextOrderID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	for i := range order.Items {
		st.nextOrderItemID++
		order.Items[i].ID = st.nextOrderItemID
		order.Items[i].OrderID = order.ID
	}

	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	st.orders[order.ID] = stored
	return order.ID, nil
}

func (r *orderRepo) GetByID(orderID int64) (*models.Order, error) {
	release := r.c.acquire()
	defer release()

	order, ok := r.c.store.st.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	order.Items = append([]models.OrderItem(nil), order.Items...)
	return &order, nil
}

func (r *orderRepo) GetByTransactionID(transactionID string) (*models.Order, error) {
	release := r.c.acquire()
	defer release()

	for _, order := range r.c.store.st.orders {
		if order.TransactionID != nil && *order.TransactionID == transactionID {
			order.Items = append([]models.OrderItem(nil), order.Items...)
			return &order, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *orderRepo) GetActive(restaurantID int64) ([]models.Order, error) {
	release := r.c.acquire()
	defer release()

	active := []models.Order{}
	for _, order := range r.c.store.st.orders {
		if order.RestaurantID != restaurantID {
			continue
		}
		for _, s := range models.ActiveStatuses {
			if order.Status == s {
				order.Items = append([]models.OrderItem(nil), order.Items...)
				active = append(active, order)
				break
			}
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	return active, nil
}

func (r *orderRepo) UpdateStatus(orderID int64, newStatus string, updatedAt time.Time) error {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	order, ok := st.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = newStatus
	order.UpdatedAt = updatedAt
	st.orders[orderID] = order
	return nil
}

func (r *orderRepo) UpdatePayment(orderID int64, upd models.PaymentUpdate) error {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	order, ok := st.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.PaymentStatus = upd.PaymentStatus
	if upd.TransactionID != nil {
		order.TransactionID = upd.TransactionID
	}
	if upd.PaymentMethod != nil {
		order.PaymentMethod = *upd.PaymentMethod
	}
	if upd.Status != nil {
		order.Status = *upd.Status
	}
	order.UpdatedAt = time.Now()
	st.orders[orderID] = order
	return nil
}

func (r *orderRepo) SumRevenueSince(restaurantID int64, since time.Time) (float64, error) {
	release := r.c.acquire()
	defer release()

	var total float64
	for _, order := range r.c.store.st.orders {
		if order.RestaurantID == restaurantID && order.Status != models.StatusCancelled && !order.CreatedAt.Before(since) {
			total += order.TotalAmount
		}
	}
	return total, nil
}

// --- Menu repository ---

type menuRepo struct{ c *conn }

func (r *menuRepo) GetByID(itemID int64) (*models.MenuItem, error) {
	release := r.c.acquire()
	defer release()

	item, ok := r.c.store.st.menuItems[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (r *menuRepo) DecrementInventory(itemID int64, quantity int) (int, error) {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	item, ok := st.menuItems[itemID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if !item.IsAvailable || item.InventoryCount < quantity {
		return 0, repositories.ErrInsufficientStock
	}
	item.InventoryCount -= quantity
	item.UpdatedAt = time.Now()
	st.menuItems[itemID] = item
	return item.InventoryCount, nil
}

// --- Promo repository ---

type promoRepo struct{ c *conn }

func (r *promoRepo) GetByCode(restaurantID int64, code string) (*models.PromoCode, error) {
	release := r.c.acquire()
	defer release()

	for _, promo := range r.c.store.st.promos {
		if promo.RestaurantID == restaurantID && strings.EqualFold(promo.Code, code) {
			return &promo, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *promoRepo) IncrementUsage(promoID int64) error {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	promo, ok := st.promos[promoID]
	if !ok {
		return repositories.ErrNotFound
	}
	if promo.UsedCount >= promo.MaxUses {
		return repositories.ErrPromoExhausted
	}
	promo.UsedCount++
	st.promos[promoID] = promo
	return nil
}

// --- Restaurant repository ---

type restaurantRepo struct{ c *conn }

func (r *restaurantRepo) GetByID(restaurantID int64) (*models.Restaurant, error) {
	release := r.c.acquire()
	defer release()

	rest, ok := r.c.store.st.restaurants[restaurantID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rest, nil
}

func (r *restaurantRepo) GetBySlug(slug string) (*models.Restaurant, error) {
	release := r.c.acquire()
	defer release()

	for _, rest := range r.c.store.st.restaurants {
		if rest.Slug == slug {
			return &rest, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *restaurantRepo) UpdateVendorID(restaurantID int64, vendorID string) error {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	rest, ok := st.restaurants[restaurantID]
	if !ok {
		return repositories.ErrNotFound
	}
	rest.VendorID = &vendorID
	rest.UpdatedAt = time.Now()
	st.restaurants[restaurantID] = rest
	return nil
}

// --- Table repository ---

type tableRepo struct{ c *conn }

func (r *tableRepo) GetByID(restaurantID, tableID int64) (*models.Table, error) {
	release := r.c.acquire()
	defer release()

	table, ok := r.c.store.st.tables[tableID]
	if !ok || table.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	return &table, nil
}

// --- Notification repository ---

type notificationRepo struct{ c *conn }

func (r *notificationRepo) Create(n *models.Notification) (int64, error) {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	st.nextNotificationID++
	n.ID = st.nextNotificationID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	st.notifications[n.ID] = *n
	return n.ID, nil
}

func (r *notificationRepo) ExistsToday(restaurantID int64, notificationType string) (bool, error) {
	release := r.c.acquire()
	defer release()

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, n := range r.c.store.st.notifications {
		if n.RestaurantID == restaurantID && n.Type == notificationType && !n.CreatedAt.Before(startOfDay) {
			return true, nil
		}
	}
	return false, nil
}

// --- Payment event repository ---

type paymentEventRepo struct{ c *conn }

func (r *paymentEventRepo) Create(event *models.PaymentEvent) (int64, error) {
	release := r.c.acquire()
	defer release()
	st := r.c.store.st

	st.nextPaymentEventID++
	event.ID = st.nextPaymentEventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	st.paymentEvents[event.ID] = *event
	return event.ID, nil
}

func (r *paymentEventRepo) ListRecent(limit int) ([]models.PaymentEvent, error) {
	release := r.c.acquire()
	defer release()

	if limit <= 0 {
		limit = 50
	}
	events := []models.PaymentEvent{}
	for _, e := range r.c.store.st.paymentEvents {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
