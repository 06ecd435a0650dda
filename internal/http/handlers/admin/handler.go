package admin

import "github.com/relicvault/storefront/internal/provider"

// Handler 管理端接口：按实体描述驱动的通用列表、表单、导出与上传预检
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
