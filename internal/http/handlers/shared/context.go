package shared

import (
	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ClientSessionID 读取中间件写入的客户端会话 ID，缺失时直接返回错误响应。
func ClientSessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(constants.ContextClientSession)
	if !exists {
		RespondError(c, response.CodeBadRequest, "error.session_required", nil)
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		RespondError(c, response.CodeBadRequest, "error.session_required", nil)
		return "", false
	}
	return id, true
}

// SessionToken 读取已校验的会话令牌，未登录时为空。
func SessionToken(c *gin.Context) string {
	return contextString(c, constants.ContextSessionToken)
}

// UserRole 读取当前用户角色。
func UserRole(c *gin.Context) string {
	return contextString(c, constants.ContextUserRole)
}

func contextString(c *gin.Context, key string) string {
	if value, ok := c.Get(key); ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}
