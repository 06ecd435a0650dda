package shared

import (
	"errors"

	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/i18n"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	RespondErrorWithMsg(c, code, msg, err)
}

// RespondErrorWithMsg 返回自定义消息错误响应。401/403 附带登录跳转。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	RespondErrorWithData(c, code, msg, err, nil)
}

// RespondErrorWithData 返回带附加数据的错误响应。
func RespondErrorWithData(c *gin.Context, code int, msg string, err error, data gin.H) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	if data == nil {
		data = gin.H{}
	}
	data["notice"] = appErr.Notice()
	if appErr.RequiresLogin() {
		data["redirect"] = constants.LoginRoute
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, data)
}

// ErrorRule 业务错误到接口错误响应的映射。
// Upstream 为 true 时优先使用商城 API 返回的提示文本。
type ErrorRule struct {
	Target   error
	Code     int
	Key      string
	Upstream bool
}

// RespondMappedError 按规则顺序匹配错误，未命中时使用兜底响应。
func RespondMappedError(c *gin.Context, err error, rules []ErrorRule, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if !errors.Is(err, rule.Target) {
			continue
		}
		if rule.Upstream {
			if msg := shopapi.MessageOf(err); msg != "" {
				RespondErrorWithMsg(c, rule.Code, msg, nil)
				return
			}
		}
		RespondError(c, rule.Code, rule.Key, nil)
		return
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatErrorRules 合并多组映射规则。
func ConcatErrorRules(groups ...[]ErrorRule) []ErrorRule {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]ErrorRule, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// Notify 写操作成功，返回本地化提示条。
func Notify(c *gin.Context, key string, data gin.H) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	response.SuccessWithNotice(c, response.Notice{Type: constants.NoticeSuccess, Message: msg}, data)
}
