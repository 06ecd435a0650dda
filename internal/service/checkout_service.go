package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/shopapi"
)

// OrderPlacer 下单接口
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, token string, order shopapi.OrderRequest) (models.JSON, error)
}

// CheckoutSummary 结算摘要
type CheckoutSummary struct {
	Items        []models.CartLineItem `json:"items"`
	ShippingInfo models.ShippingInfo   `json:"shipping_info"`
	ItemsPrice   models.Money          `json:"items_price"`
	TotalPrice   models.Money          `json:"total_price"`
}

// CheckoutService 结算流程
type CheckoutService struct {
	cart    *CartService
	session KeyValueStore
	orders  OrderPlacer
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(cart *CartService, session KeyValueStore, orders OrderPlacer) *CheckoutService {
	return &CheckoutService{cart: cart, session: session, orders: orders}
}

// Start 校验购物车与收货信息后设置结算中标记
func (s *CheckoutService) Start(ctx context.Context, sessionID string) (*CheckoutSummary, error) {
	view, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, ErrCartEmpty
	}
	if len(view.ShippingInfo) == 0 {
		return nil, ErrShippingRequired
	}
	if err := s.session.SetItem(ctx, sessionID, constants.SessionKeyCheckoutInProgress, true); err != nil {
		return nil, err
	}
	return summaryOf(view), nil
}

// InProgress 是否处于结算中
func (s *CheckoutService) InProgress(ctx context.Context, sessionID string) (bool, error) {
	var marker bool
	hit, err := s.session.GetItem(ctx, sessionID, constants.SessionKeyCheckoutInProgress, &marker)
	if err != nil {
		return false, err
	}
	return hit && marker, nil
}

// PlaceOrder 提交订单，成功后清空购物车；失败时购物车保持不变
// 从读取购物车到清空期间持有会话锁，并发的加购会在下单完成后再写入
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID, token string, paymentInfo models.JSON) (models.JSON, error) {
	inProgress, err := s.InProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !inProgress {
		return nil, ErrCheckoutNotStarted
	}
	var (
		order   models.JSON
		summary *CheckoutSummary
	)
	err = s.cart.Settle(ctx, sessionID, func(view *CartView) error {
		if len(view.Items) == 0 {
			return ErrCartEmpty
		}
		if len(view.ShippingInfo) == 0 {
			return ErrShippingRequired
		}
		summary = summaryOf(view)
		lines := make([]shopapi.OrderLine, 0, len(view.Items))
		for _, item := range view.Items {
			lines = append(lines, shopapi.OrderLine{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.UnitPrice,
				Image:     item.ImageURL,
				Quantity:  item.Quantity,
			})
		}
		placed, err := s.orders.PlaceOrder(ctx, token, shopapi.OrderRequest{
			OrderItems:   lines,
			ShippingInfo: view.ShippingInfo,
			PaymentInfo:  paymentInfo,
			ItemsPrice:   summary.ItemsPrice,
			TotalPrice:   summary.TotalPrice,
		})
		if err != nil {
			logger.ForSession(sessionID).Warnw("checkout_place_order_failed", "error", err)
			return mapRemoteAuthError(err, ErrOrderRejected)
		}
		order = placed
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.ForSession(sessionID).Infow("checkout_order_placed", "total_price", summary.TotalPrice.String())
	return order, nil
}

func summaryOf(view *CartView) *CheckoutSummary {
	return &CheckoutSummary{
		Items:        view.Items,
		ShippingInfo: view.ShippingInfo,
		ItemsPrice:   view.TotalPrice,
		TotalPrice:   view.TotalPrice,
	}
}

// mapRemoteAuthError 将商城 API 的 401/403 映射为服务层错误，其余归入 fallback
func mapRemoteAuthError(err error, fallback error) error {
	switch {
	case errors.Is(err, shopapi.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, shopapi.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	default:
		return fmt.Errorf("%w: %w", fallback, err)
	}
}
