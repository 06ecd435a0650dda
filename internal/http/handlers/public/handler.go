package public

import "github.com/relicvault/storefront/internal/provider"

// Handler 前台接口：商品浏览、购物车、结算与登录
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
