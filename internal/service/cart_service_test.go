package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/shopapi"
)

func TestCartScenarioReplaceAndReject(t *testing.T) {
	svc, catalog, _, _ := setupCartService(t)
	catalog.put("p1", 100, 5)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", "p1", 2); err != nil {
		t.Fatalf("add p1x2 failed: %v", err)
	}
	view, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if view.TotalUnits != 2 || view.TotalPrice.String() != "200.00" {
		t.Fatalf("want 2 / 200.00 got %d / %s", view.TotalUnits, view.TotalPrice)
	}

	if _, err := svc.AddItem(ctx, "s1", "p1", 5); err != nil {
		t.Fatalf("add p1x5 failed: %v", err)
	}
	view, _ = svc.Get(ctx, "s1")
	if len(view.Items) != 1 || view.TotalUnits != 5 || view.TotalPrice.String() != "500.00" {
		t.Fatalf("want single line 5 / 500.00 got %d lines %d / %s", len(view.Items), view.TotalUnits, view.TotalPrice)
	}

	applied, err := svc.UpdateQuantity(ctx, "s1", "p1", 1)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if applied {
		t.Fatalf("increment beyond stock should be rejected")
	}
	view, _ = svc.Get(ctx, "s1")
	if view.Items[0].Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", view.Items[0].Quantity)
	}
}

func TestCartAddRefetchesSnapshot(t *testing.T) {
	svc, catalog, _, _ := setupCartService(t)
	catalog.put("p1", 100, 5)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", "p1", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	catalog.put("p1", 120, 8)
	line, err := svc.AddItem(ctx, "s1", "p1", 1)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if catalog.calls != 2 {
		t.Fatalf("catalog should be hit on every add, calls=%d", catalog.calls)
	}
	if line.UnitPrice.String() != "120.00" || line.AvailableStock != 8 {
		t.Fatalf("snapshot not refreshed: %+v", line)
	}
}

func TestCartAddClampsAndRejects(t *testing.T) {
	svc, catalog, _, _ := setupCartService(t)
	catalog.put("p1", 10, 3)
	catalog.put("empty", 10, 0)
	ctx := context.Background()

	line, err := svc.AddItem(ctx, "s1", "p1", 9)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if line.Quantity != 3 {
		t.Fatalf("quantity should clamp to stock 3 got %d", line.Quantity)
	}
	if _, err := svc.AddItem(ctx, "s1", "p1", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity got %v", err)
	}
	if _, err := svc.AddItem(ctx, "s1", "empty", 1); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("want ErrOutOfStock got %v", err)
	}
	if _, err := svc.AddItem(ctx, "", "p1", 1); !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("want ErrSessionRequired got %v", err)
	}
}

func TestCartAddFailureLeavesCartUnchanged(t *testing.T) {
	svc, catalog, _, _ := setupCartService(t)
	catalog.put("p1", 10, 3)
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "s1", "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if _, err := svc.AddItem(ctx, "s1", "missing", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
	catalog.err = fmt.Errorf("%w: dial tcp", shopapi.ErrRequestFailed)
	if _, err := svc.AddItem(ctx, "s1", "p1", 3); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("want ErrCatalogUnavailable got %v", err)
	}

	view, _ := svc.Get(ctx, "s1")
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("cart should be unchanged after failures: %+v", view.Items)
	}
}

func TestCartRemoveAndDecrement(t *testing.T) {
	svc, catalog, _, _ := setupCartService(t)
	catalog.put("a", 5, 4)
	catalog.put("b", 7, 4)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", "a", 1)
	_, _ = svc.AddItem(ctx, "s1", "b", 2)

	if applied, _ := svc.UpdateQuantity(ctx, "s1", "a", -1); applied {
		t.Fatalf("decrement below 1 should be rejected")
	}
	if applied, _ := svc.UpdateQuantity(ctx, "s1", "b", -1); !applied {
		t.Fatalf("decrement from 2 should apply")
	}
	if removed, err := svc.RemoveItem(ctx, "s1", "zzz"); err != nil || removed {
		t.Fatalf("removing absent line should be a silent no-op, removed=%v err=%v", removed, err)
	}
	if removed, _ := svc.RemoveItem(ctx, "s1", "a"); !removed {
		t.Fatalf("remove a should report true")
	}
	view, _ := svc.Get(ctx, "s1")
	if len(view.Items) != 1 || view.Items[0].ProductID != "b" || view.Items[0].Quantity != 1 {
		t.Fatalf("unexpected cart %+v", view.Items)
	}
}

func TestCartClearRemovesPersistedState(t *testing.T) {
	svc, catalog, durable, session := setupCartService(t)
	catalog.put("p1", 10, 3)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", "p1", 1)
	if err := svc.SetShippingInfo(ctx, "s1", models.ShippingInfo{"address": "1 Main St"}); err != nil {
		t.Fatalf("set shipping failed: %v", err)
	}
	_ = session.SetItem(ctx, "s1", constants.SessionKeyCheckoutInProgress, true)

	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	var items []models.CartLineItem
	if hit, _ := durable.GetItem(ctx, "s1", constants.StorageKeyCartItems, &items); hit {
		t.Fatalf("cart items key should be deleted")
	}
	var info models.ShippingInfo
	if hit, _ := durable.GetItem(ctx, "s1", constants.StorageKeyShippingInfo, &info); hit {
		t.Fatalf("shipping info key should be deleted")
	}
	var marker bool
	if hit, _ := session.GetItem(ctx, "s1", constants.SessionKeyCheckoutInProgress, &marker); hit {
		t.Fatalf("checkout marker should be deleted")
	}
}

func TestCartHydratesFromDurableStore(t *testing.T) {
	svc, catalog, durable, session := setupCartService(t)
	catalog.put("p1", 10, 3)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "s1", "p1", 2)
	_ = svc.SetShippingInfo(ctx, "s1", models.ShippingInfo{"city": "Turin"})

	reloaded := NewCartService(durable, session, catalog)
	view, err := reloaded.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.TotalUnits != 2 || view.ShippingInfo["city"] != "Turin" {
		t.Fatalf("state not hydrated: %+v", view)
	}
}

func TestCartConcurrentAddsKeepOneLinePerProduct(t *testing.T) {
	svc, catalog, _, _ := setupCartService(t)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		catalog.put(fmt.Sprintf("p%d", i), 10, 10)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for round := 1; round <= 3; round++ {
			wg.Add(1)
			go func(id string, qty int) {
				defer wg.Done()
				if _, err := svc.AddItem(ctx, "s1", id, qty); err != nil {
					t.Errorf("add %s failed: %v", id, err)
				}
			}(fmt.Sprintf("p%d", i), round)
		}
	}
	wg.Wait()

	view, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(view.Items) != 8 {
		t.Fatalf("want 8 distinct lines got %d", len(view.Items))
	}
	seen := map[string]bool{}
	for _, item := range view.Items {
		if seen[item.ProductID] {
			t.Fatalf("duplicate line for %s", item.ProductID)
		}
		seen[item.ProductID] = true
	}
}

func TestSessionLocksReleaseEntries(t *testing.T) {
	locks := newSessionLocks()
	unlock := locks.lock("a")
	unlock()
	if len(locks.locks) != 0 {
		t.Fatalf("lock entry should be released, got %d", len(locks.locks))
	}
}
