package admin

import (
	"strings"

	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// adminActor 读取中间件写入的会话与令牌
func adminActor(c *gin.Context) (service.AdminActor, bool) {
	sid, ok := handlershared.ClientSessionID(c)
	if !ok {
		return service.AdminActor{}, false
	}
	token := handlershared.SessionToken(c)
	if token == "" {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return service.AdminActor{}, false
	}
	return service.AdminActor{SessionID: sid, Token: token}, true
}

func resourceParam(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.Param("resource")))
}

func queryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
