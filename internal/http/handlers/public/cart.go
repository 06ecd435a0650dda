package public

import (
	"strings"

	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest 数量增减请求（+1 / -1）
type UpdateCartItemRequest struct {
	Delta int `json:"delta" binding:"required,oneof=-1 1"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	view, err := h.CartService.Get(c.Request.Context(), sid)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 重新拉取商品后写入购物车，已存在的行替换数量
func (h *Handler) AddCartItem(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ctx := c.Request.Context()
	line, err := h.CartService.AddItem(ctx, sid, strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_add_failed")
		return
	}
	view, err := h.CartService.Get(ctx, sid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.cart_fetch_failed", err)
		return
	}
	notify(c, "notice.cart_item_added", gin.H{"item": line, "cart": view})
}

// UpdateCartItem 数量加一或减一，越界时不做修改
func (h *Handler) UpdateCartItem(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.quantity_delta_invalid", nil)
		return
	}
	ctx := c.Request.Context()
	changed, err := h.CartService.UpdateQuantity(ctx, sid, strings.TrimSpace(c.Param("product_id")), req.Delta)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	view, err := h.CartService.Get(ctx, sid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.cart_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"changed": changed, "cart": view})
}

// RemoveCartItem 移除购物车行，不存在时视为成功
func (h *Handler) RemoveCartItem(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	removed, err := h.CartService.RemoveItem(ctx, sid, strings.TrimSpace(c.Param("product_id")))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	view, err := h.CartService.Get(ctx, sid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.cart_fetch_failed", err)
		return
	}
	notify(c, "notice.cart_item_removed", gin.H{"removed": removed, "cart": view})
}

// SetShippingInfo 整体替换收货信息
func (h *Handler) SetShippingInfo(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	var info models.JSON
	if err := c.ShouldBindJSON(&info); err != nil || len(info) == 0 {
		respondError(c, response.CodeBadRequest, "error.shipping_required", nil)
		return
	}
	ctx := c.Request.Context()
	if err := h.CartService.SetShippingInfo(ctx, sid, info); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	view, err := h.CartService.Get(ctx, sid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.cart_fetch_failed", err)
		return
	}
	notify(c, "notice.shipping_saved", gin.H{"cart": view})
}

// ClearCart 清空购物车、收货信息与结算标记
func (h *Handler) ClearCart(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(c.Request.Context(), sid); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	notify(c, "notice.cart_cleared", nil)
}
