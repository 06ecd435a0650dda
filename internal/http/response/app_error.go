package response

import "github.com/relicvault/storefront/internal/constants"

// AppError 接口错误：业务状态码、已本地化的提示与原始错误
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Notice 错误提示条
func (e *AppError) Notice() Notice {
	return Notice{Type: constants.NoticeError, Message: e.Message}
}

// RequiresLogin 401/403 需要前端跳转登录页
func (e *AppError) RequiresLogin() bool {
	return e.Code == CodeUnauthorized || e.Code == CodeForbidden
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
