package service

import "errors"

// 购物车
var (
	ErrSessionRequired    = errors.New("client session required")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrOutOfStock         = errors.New("product out of stock")
	ErrProductNotFound    = errors.New("product not found")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrShippingRequired   = errors.New("shipping info required")
)

// 结算
var (
	ErrCheckoutNotStarted = errors.New("checkout not started")
	ErrOrderRejected      = errors.New("order rejected")
)

// 认证
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	ErrTokenExchange       = errors.New("session token exchange failed")
	ErrInvalidToken        = errors.New("invalid session token")
	ErrTokenRevoked        = errors.New("session token revoked")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

// 验证码
var (
	ErrCaptchaRequired        = errors.New("captcha required")
	ErrCaptchaInvalid         = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid   = errors.New("captcha config invalid")
	ErrCaptchaProviderUnknown = errors.New("captcha provider unknown")
)

// 管理端
var (
	ErrResourceUnknown       = errors.New("admin resource unknown")
	ErrOperationNotAllowed   = errors.New("operation not allowed for resource")
	ErrValidationFailed      = errors.New("field validation failed")
	ErrConfirmationRequired  = errors.New("confirmation required")
	ErrRowNotFound           = errors.New("row not found in current page")
	ErrAdminAPIFailed        = errors.New("admin api request failed")
	ErrExportFailed          = errors.New("export failed")
	ErrPartialDelete         = errors.New("some rows could not be deleted")
	ErrQueueUnavailable      = errors.New("queue unavailable")
	ErrDescriptorInvalid     = errors.New("entity descriptor invalid")
	ErrBulkSelectionRequired = errors.New("no rows selected")
)

// 上传
var (
	ErrUploadTooLarge       = errors.New("upload too large")
	ErrUploadTypeNotAllowed = errors.New("upload type not allowed")
	ErrUploadExtNotAllowed  = errors.New("upload extension not allowed")
	ErrUploadDimensions     = errors.New("upload image dimensions exceeded")
	ErrUploadTooMany        = errors.New("too many uploads")
)
