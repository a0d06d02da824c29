package memory

import (
	"errors"
	"sync"
	"testing"

	"qrdine_backend/internal/models"
	"qrdine_backend/internal/repositories"
)

func TestRunInTxRollsBackOnError(t *testing.T) {
	ds := New()
	Load(ds, Seed{
		MenuItems: []models.MenuItem{
			{ID: 1, Name: "Item", IsAvailable: true, InventoryCount: 10},
		},
	})

	wantErr := errors.New("boom")
	err := ds.RunInTx(func(tx repositories.Datastore) error {
		if _, err := tx.Menu().DecrementInventory(1, 4); err != nil {
			t.Fatalf("DecrementInventory: %v", err)
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunInTx error = %v, want %v", err, wantErr)
	}

	item, err := ds.Menu().GetByID(1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.InventoryCount != 10 {
		t.Errorf("inventory = %d after rollback, want 10", item.InventoryCount)
	}
}

func TestRunInTxCommits(t *testing.T) {
	ds := New()
	Load(ds, Seed{
		MenuItems: []models.MenuItem{{ID: 1, Name: "Item", IsAvailable: true, InventoryCount: 10}},
	})

	err := ds.RunInTx(func(tx repositories.Datastore) error {
		_, err := tx.Menu().DecrementInventory(1, 4)
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}
	item, _ := ds.Menu().GetByID(1)
	if item.InventoryCount != 6 {
		t.Errorf("inventory = %d, want 6", item.InventoryCount)
	}
}

func TestDecrementInventoryGuards(t *testing.T) {
	ds := New()
	Load(ds, Seed{
		MenuItems: []models.MenuItem{
			{ID: 1, Name: "Low", IsAvailable: true, InventoryCount: 3},
			{ID: 2, Name: "Off", IsAvailable: false, InventoryCount: 10},
		},
	})

	if _, err := ds.Menu().DecrementInventory(1, 5); !errors.Is(err, repositories.ErrInsufficientStock) {
		t.Errorf("over-decrement: got %v, want ErrInsufficientStock", err)
	}
	if _, err := ds.Menu().DecrementInventory(2, 1); !errors.Is(err, repositories.ErrInsufficientStock) {
		t.Errorf("unavailable item: got %v, want ErrInsufficientStock", err)
	}
	if _, err := ds.Menu().DecrementInventory(99, 1); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("missing item: got %v, want ErrNotFound", err)
	}
}

func TestIncrementUsageBounded(t *testing.T) {
	ds := New()
	Load(ds, Seed{
		Promos: []models.PromoCode{{ID: 1, RestaurantID: 1, Code: "X", MaxUses: 2, UsedCount: 1, IsActive: true}},
	})

	if err := ds.Promos().IncrementUsage(1); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if err := ds.Promos().IncrementUsage(1); !errors.Is(err, repositories.ErrPromoExhausted) {
		t.Errorf("increment past max: got %v, want ErrPromoExhausted", err)
	}
}

func TestConcurrentTransactionsSerialize(t *testing.T) {
	ds := New()
	Load(ds, Seed{
		MenuItems: []models.MenuItem{{ID: 1, Name: "Item", IsAvailable: true, InventoryCount: 100}},
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ds.RunInTx(func(tx repositories.Datastore) error {
				_, err := tx.Menu().DecrementInventory(1, 2)
				return err
			})
		}()
	}
	wg.Wait()

	item, _ := ds.Menu().GetByID(1)
	if item.InventoryCount != 0 {
		t.Errorf("inventory = %d, want 0 after 50 serialized decrements of 2", item.InventoryCount)
	}
}

func TestOrderCreateRejectsDuplicateNumber(t *testing.T) {
	ds := New()
	if _, err := ds.Orders().Create(&models.Order{RestaurantID: 1, OrderNumber: "R1_1_001"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := ds.Orders().Create(&models.Order{RestaurantID: 1, OrderNumber: "R1_1_001"})
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		t.Errorf("duplicate order number: got %v, want ErrDuplicateKey", err)
	}
}
