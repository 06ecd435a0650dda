package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/shopapi"
)

// ProductCatalog 商品目录查询
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*shopapi.Product, error)
}

// CartView 购物车视图（用于响应）
type CartView struct {
	Items        []models.CartLineItem `json:"items"`
	TotalUnits   int                   `json:"total_units"`
	TotalPrice   models.Money          `json:"total_price"`
	ShippingInfo models.ShippingInfo   `json:"shipping_info"`
}

// CartService 购物车状态引擎
type CartService struct {
	durable KeyValueStore
	session KeyValueStore
	catalog ProductCatalog
	locks   *sessionLocks
}

// NewCartService 创建购物车服务
func NewCartService(durable, session KeyValueStore, catalog ProductCatalog) *CartService {
	return &CartService{
		durable: durable,
		session: session,
		catalog: catalog,
		locks:   newSessionLocks(),
	}
}

// Get 读取购物车与收货信息
func (s *CartService) Get(ctx context.Context, sessionID string) (*CartView, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	shipping, err := s.GetShippingInfo(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return buildCartView(cart, shipping), nil
}

// AddItem 重新拉取商品快照后写入购物车，已存在的行整体替换
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*models.CartLineItem, error) {
	productID = strings.TrimSpace(productID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if productID == "" {
		return nil, ErrProductNotFound
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		logger.ForSession(sessionID).Warnw("cart_add_item_fetch_failed", "product_id", productID, "error", err)
		if errors.Is(err, shopapi.ErrNotFound) || errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.CountInStock <= 0 {
		return nil, ErrOutOfStock
	}
	if quantity > product.CountInStock {
		quantity = product.CountInStock
	}

	line := models.CartLineItem{
		ProductID:      productID,
		Name:           product.Name,
		UnitPrice:      product.Price,
		ImageURL:       product.ImageURL,
		AvailableStock: product.CountInStock,
		Quantity:       quantity,
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.Upsert(line)
	if err := s.saveCart(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	logger.ForSession(sessionID).Debugw("cart_add_item", "product_id", productID, "quantity", quantity)
	return &line, nil
}

// RemoveItem 删除商品行，不存在时不报错
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (bool, error) {
	if sessionID == "" {
		return false, ErrSessionRequired
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !cart.Remove(strings.TrimSpace(productID)) {
		return false, nil
	}
	if err := s.saveCart(ctx, sessionID, cart); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateQuantity 按增量调整数量，越界时不修改并返回 false
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, delta int) (bool, error) {
	if sessionID == "" {
		return false, ErrSessionRequired
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !cart.Adjust(strings.TrimSpace(productID), delta) {
		return false, nil
	}
	if err := s.saveCart(ctx, sessionID, cart); err != nil {
		return false, err
	}
	return true, nil
}

// SetShippingInfo 整体替换收货信息
func (s *CartService) SetShippingInfo(ctx context.Context, sessionID string, info models.ShippingInfo) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if info == nil {
		info = models.ShippingInfo{}
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()
	return s.durable.SetItem(ctx, sessionID, constants.StorageKeyShippingInfo, info)
}

// GetShippingInfo 读取收货信息，未设置时返回 nil
func (s *CartService) GetShippingInfo(ctx context.Context, sessionID string) (models.ShippingInfo, error) {
	var info models.ShippingInfo
	hit, err := s.durable.GetItem(ctx, sessionID, constants.StorageKeyShippingInfo, &info)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, nil
	}
	return info, nil
}

// Clear 清空购物车、收货信息以及结算中标记
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()
	return s.clearLocked(ctx, sessionID)
}

// Settle 持有会话锁读取购物车并调用 place，成功后清空；期间的其他购物车写操作会等待
func (s *CartService) Settle(ctx context.Context, sessionID string, place func(view *CartView) error) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return err
	}
	shipping, err := s.GetShippingInfo(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := place(buildCartView(cart, shipping)); err != nil {
		return err
	}
	if err := s.clearLocked(ctx, sessionID); err != nil {
		logger.ForSession(sessionID).Errorw("checkout_clear_cart_failed", "error", err)
	}
	return nil
}

func (s *CartService) clearLocked(ctx context.Context, sessionID string) error {
	if err := s.durable.RemoveItem(ctx, sessionID, constants.StorageKeyCartItems, constants.StorageKeyShippingInfo); err != nil {
		return err
	}
	if err := s.session.RemoveItem(ctx, sessionID, constants.SessionKeyCheckoutInProgress); err != nil {
		return err
	}
	logger.ForSession(sessionID).Debugw("cart_cleared")
	return nil
}

func (s *CartService) loadCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	var items []models.CartLineItem
	if _, err := s.durable.GetItem(ctx, sessionID, constants.StorageKeyCartItems, &items); err != nil {
		return nil, err
	}
	return &models.Cart{Items: items}, nil
}

func (s *CartService) saveCart(ctx context.Context, sessionID string, cart *models.Cart) error {
	items := cart.Items
	if items == nil {
		items = []models.CartLineItem{}
	}
	if err := s.durable.SetItem(ctx, sessionID, constants.StorageKeyCartItems, items); err != nil {
		logger.ForSession(sessionID).Errorw("cart_persist_failed", "error", err)
		return err
	}
	return nil
}

func buildCartView(cart *models.Cart, shipping models.ShippingInfo) *CartView {
	items := cart.Items
	if items == nil {
		items = []models.CartLineItem{}
	}
	return &CartView{
		Items:        items,
		TotalUnits:   cart.TotalUnits(),
		TotalPrice:   cart.TotalPrice(),
		ShippingInfo: shipping,
	}
}

// sessionLocks 按客户端会话串行化 读取-修改-写回
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}
