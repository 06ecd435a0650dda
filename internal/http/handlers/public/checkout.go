package public

import (
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	PaymentInfo models.JSON `json:"payment_info"`
}

// StartCheckout 进入结算
func (h *Handler) StartCheckout(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	summary, err := h.CheckoutService.Start(c.Request.Context(), sid)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.checkout_failed")
		return
	}
	response.Success(c, summary)
}

// PlaceOrder 提交订单，成功后清空购物车
func (h *Handler) PlaceOrder(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
	}
	order, err := h.CheckoutService.PlaceOrder(c.Request.Context(), sid, sessionToken(c), req.PaymentInfo)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.checkout_failed")
		return
	}
	notify(c, "notice.order_placed", gin.H{"order": order})
}
