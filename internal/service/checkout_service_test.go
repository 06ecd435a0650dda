package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/shopapi"
)

type orderPlacerStub struct {
	err      error
	received *shopapi.OrderRequest
	token    string
}

func (o *orderPlacerStub) PlaceOrder(_ context.Context, token string, order shopapi.OrderRequest) (models.JSON, error) {
	o.token = token
	o.received = &order
	if o.err != nil {
		return nil, o.err
	}
	return models.JSON{"_id": "o1"}, nil
}

func TestCheckoutRequiresCartAndShipping(t *testing.T) {
	cart, catalog, _, session := setupCartService(t)
	checkout := NewCheckoutService(cart, session, &orderPlacerStub{})
	ctx := context.Background()

	if _, err := checkout.Start(ctx, "s1"); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("want ErrCartEmpty got %v", err)
	}
	catalog.put("p1", 50, 2)
	_, _ = cart.AddItem(ctx, "s1", "p1", 1)
	if _, err := checkout.Start(ctx, "s1"); !errors.Is(err, ErrShippingRequired) {
		t.Fatalf("want ErrShippingRequired got %v", err)
	}
	_ = cart.SetShippingInfo(ctx, "s1", models.ShippingInfo{"address": "x"})
	summary, err := checkout.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if summary.TotalPrice.String() != "50.00" {
		t.Fatalf("total want 50.00 got %s", summary.TotalPrice)
	}
	if ok, _ := checkout.InProgress(ctx, "s1"); !ok {
		t.Fatalf("checkout marker should be set")
	}
}

func TestPlaceOrderClearsCartOnSuccess(t *testing.T) {
	cart, catalog, _, session := setupCartService(t)
	placer := &orderPlacerStub{}
	checkout := NewCheckoutService(cart, session, placer)
	ctx := context.Background()
	catalog.put("p1", 25, 4)
	_, _ = cart.AddItem(ctx, "s1", "p1", 2)
	_ = cart.SetShippingInfo(ctx, "s1", models.ShippingInfo{"address": "x"})

	if _, err := checkout.PlaceOrder(ctx, "s1", "tok", nil); !errors.Is(err, ErrCheckoutNotStarted) {
		t.Fatalf("want ErrCheckoutNotStarted got %v", err)
	}
	if _, err := checkout.Start(ctx, "s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	order, err := checkout.PlaceOrder(ctx, "s1", "tok", models.JSON{"method": "card"})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if order["_id"] != "o1" || placer.token != "tok" {
		t.Fatalf("unexpected order %+v token %s", order, placer.token)
	}
	if placer.received.TotalPrice.String() != "50.00" || len(placer.received.OrderItems) != 1 {
		t.Fatalf("unexpected request %+v", placer.received)
	}
	view, _ := cart.Get(ctx, "s1")
	if len(view.Items) != 0 || view.ShippingInfo != nil {
		t.Fatalf("cart should be cleared after order: %+v", view)
	}
	if ok, _ := checkout.InProgress(ctx, "s1"); ok {
		t.Fatalf("checkout marker should be cleared")
	}
}

func TestPlaceOrderFailureKeepsCart(t *testing.T) {
	cart, catalog, _, session := setupCartService(t)
	placer := &orderPlacerStub{err: &shopapi.APIError{Status: 401, Err: shopapi.ErrUnauthorized}}
	checkout := NewCheckoutService(cart, session, placer)
	ctx := context.Background()
	catalog.put("p1", 25, 4)
	_, _ = cart.AddItem(ctx, "s1", "p1", 2)
	_ = cart.SetShippingInfo(ctx, "s1", models.ShippingInfo{"address": "x"})
	_, _ = checkout.Start(ctx, "s1")

	_, err := checkout.PlaceOrder(ctx, "s1", "expired", nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized got %v", err)
	}
	view, _ := cart.Get(ctx, "s1")
	if view.TotalUnits != 2 {
		t.Fatalf("cart must be untouched after failure, units=%d", view.TotalUnits)
	}

	placer.err = &shopapi.APIError{Status: 500, Err: shopapi.ErrRejected}
	if _, err := checkout.PlaceOrder(ctx, "s1", "tok", nil); !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("want ErrOrderRejected got %v", err)
	}
}

type blockingPlacer struct {
	entered  chan struct{}
	release  chan struct{}
	received shopapi.OrderRequest
}

func (b *blockingPlacer) PlaceOrder(_ context.Context, _ string, order shopapi.OrderRequest) (models.JSON, error) {
	b.received = order
	close(b.entered)
	<-b.release
	return models.JSON{"_id": "o2"}, nil
}

func TestPlaceOrderKeepsItemsAddedDuringSubmission(t *testing.T) {
	cart, catalog, _, session := setupCartService(t)
	placer := &blockingPlacer{entered: make(chan struct{}), release: make(chan struct{})}
	checkout := NewCheckoutService(cart, session, placer)
	ctx := context.Background()
	catalog.put("p1", 25, 4)
	catalog.put("p2", 10, 4)
	_, _ = cart.AddItem(ctx, "s1", "p1", 1)
	_ = cart.SetShippingInfo(ctx, "s1", models.ShippingInfo{"address": "x"})
	if _, err := checkout.Start(ctx, "s1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	orderDone := make(chan error, 1)
	go func() {
		_, err := checkout.PlaceOrder(ctx, "s1", "tok", nil)
		orderDone <- err
	}()
	<-placer.entered

	addDone := make(chan error, 1)
	go func() {
		_, err := cart.AddItem(ctx, "s1", "p2", 1)
		addDone <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(placer.release)

	if err := <-orderDone; err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if err := <-addDone; err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if len(placer.received.OrderItems) != 1 || placer.received.OrderItems[0].ProductID != "p1" {
		t.Fatalf("order should only contain p1, got %+v", placer.received.OrderItems)
	}
	view, _ := cart.Get(ctx, "s1")
	if len(view.Items) != 1 || view.Items[0].ProductID != "p2" {
		t.Fatalf("item added during submission should survive the clear, got %+v", view.Items)
	}
}
