package repositories

import (
	"database/sql"
	"fmt"
)

// Datastore aggregates the repositories the orchestration engine depends on
// and owns the unit-of-work boundary. Implementations: postgres (this
// package) and memory (repositories/memory), selected by configuration at
// startup.
type Datastore interface {
	Orders() OrderRepository
	Menu() MenuRepository
	Promos() PromoRepository
	Restaurants() RestaurantRepository
	Tables() TableRepository
	Notifications() NotificationRepository
	PaymentEvents() PaymentEventRepository

	// RunInTx executes fn against a Datastore view whose writes are atomic:
	// if fn returns an error, none of its writes survive.
	RunInTx(fn func(tx Datastore) error) error
}

type pgDatastore struct {
	db   *sql.DB
	exec SQLExecutor // db outside a transaction, *sql.Tx inside one
}

// NewPostgresDatastore wraps a sql.DB pool in the Datastore interface.
func NewPostgresDatastore(db *sql.DB) Datastore {
	return &pgDatastore{db: db, exec: db}
}

func (d *pgDatastore) Orders() OrderRepository             { return &orderRepository{exec: d.exec} }
func (d *pgDatastore) Menu() MenuRepository                { return &menuRepository{exec: d.exec} }
func (d *pgDatastore) Promos() PromoRepository             { return &promoRepository{exec: d.exec} }
func (d *pgDatastore) Restaurants() RestaurantRepository   { return &restaurantRepository{exec: d.exec} }
func (d *pgDatastore) Tables() TableRepository             { return &tableRepository{exec: d.exec} }
func (d *pgDatastore) Notifications() NotificationRepository {
	return &notificationRepository{exec: d.exec}
}
func (d *pgDatastore) PaymentEvents() PaymentEventRepository {
	return &paymentEventRepository{exec: d.exec}
}

func (d *pgDatastore) RunInTx(fn func(tx Datastore) error) error {
	if _, alreadyTx := d.exec.(*sql.Tx); alreadyTx {
		// Nested call: reuse the surrounding transaction.
		return fn(d)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgDatastore{db: d.db, exec: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
