package admin

import (
	"errors"

	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/i18n"
	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func notify(c *gin.Context, key string, data gin.H) {
	handlershared.Notify(c, key, data)
}

var uploadErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrUploadTooMany, Code: response.CodeBadRequest, Key: "error.upload_too_many"},
	{Target: service.ErrUploadTooLarge, Code: response.CodeBadRequest, Key: "error.upload_too_large"},
	{Target: service.ErrUploadExtNotAllowed, Code: response.CodeBadRequest, Key: "error.upload_type_invalid"},
	{Target: service.ErrUploadTypeNotAllowed, Code: response.CodeBadRequest, Key: "error.upload_type_invalid"},
	{Target: service.ErrUploadDimensions, Code: response.CodeBadRequest, Key: "error.upload_dimensions"},
}

var tableErrorRules = handlershared.ConcatErrorRules([]handlershared.ErrorRule{
	{Target: service.ErrSessionRequired, Code: response.CodeBadRequest, Key: "error.session_required"},
	{Target: service.ErrResourceUnknown, Code: response.CodeNotFound, Key: "error.admin_resource_unknown"},
	{Target: service.ErrOperationNotAllowed, Code: response.CodeForbidden, Key: "error.admin_operation_denied"},
	{Target: service.ErrConfirmationRequired, Code: response.CodeBadRequest, Key: "error.admin_confirm_required"},
	{Target: service.ErrRowNotFound, Code: response.CodeNotFound, Key: "error.admin_row_not_found"},
	{Target: service.ErrBulkSelectionRequired, Code: response.CodeBadRequest, Key: "error.admin_selection_required"},
	{Target: service.ErrUnauthorized, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
	{Target: service.ErrAdminAPIFailed, Code: response.CodeBadGateway, Key: "error.admin_api_failed", Upstream: true},
	{Target: service.ErrExportFailed, Code: response.CodeInternal, Key: "error.export_failed"},
}, uploadErrorRules)

// respondTableError 字段校验错误返回 422 与逐字段信息，其余按规则映射
func respondTableError(c *gin.Context, err error, fallbackKey string) {
	if errors.Is(err, service.ErrValidationFailed) {
		msg := i18n.T(i18n.ResolveLocale(c), "error.admin_validation_failed")
		handlershared.RespondErrorWithData(c, response.CodeUnprocessable, msg, nil, gin.H{
			"fields": service.FieldErrorsOf(err),
		})
		return
	}
	handlershared.RespondMappedError(c, err, tableErrorRules, response.CodeInternal, fallbackKey)
}
