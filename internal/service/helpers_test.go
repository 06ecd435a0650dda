package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/relicvault/storefront/internal/cache"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/repository"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type catalogStub struct {
	mu       sync.Mutex
	products map[string]*shopapi.Product
	err      error
	calls    int
}

func newCatalogStub() *catalogStub {
	return &catalogStub{products: make(map[string]*shopapi.Product)}
}

func (c *catalogStub) put(id string, price int64, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[id] = &shopapi.Product{
		ID:           id,
		Name:         "product " + id,
		Price:        models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		ImageURL:     "https://img/" + id + ".png",
		CountInStock: stock,
	}
}

func (c *catalogStub) GetProduct(_ context.Context, id string) (*shopapi.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	product, ok := c.products[id]
	if !ok {
		return nil, &shopapi.APIError{Status: 404, Err: shopapi.ErrNotFound}
	}
	copied := *product
	return &copied, nil
}

func setupDurableStore(t *testing.T) *DurableStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewDurableStore(repository.NewClientStorageRepository(db))
}

func setupCartService(t *testing.T) (*CartService, *catalogStub, *DurableStore, *cache.SessionStore) {
	t.Helper()
	durable := setupDurableStore(t)
	session := cache.NewSessionStore(time.Hour)
	catalog := newCatalogStub()
	return NewCartService(durable, session, catalog), catalog, durable, session
}
