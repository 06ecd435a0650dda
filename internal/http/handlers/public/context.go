package public

import (
	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []handlershared.ErrorRule, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

func notify(c *gin.Context, key string, data gin.H) {
	handlershared.Notify(c, key, data)
}

func clientSession(c *gin.Context) (string, bool) {
	return handlershared.ClientSessionID(c)
}

func sessionToken(c *gin.Context) string {
	return handlershared.SessionToken(c)
}
