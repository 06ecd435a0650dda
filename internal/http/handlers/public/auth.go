package public

import (
	"strings"

	"github.com/relicvault/storefront/internal/constants"
	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 邮箱密码登录请求
type LoginRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// SocialLoginRequest 社交登录请求
type SocialLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// Login 经身份提供方登录并换取会话令牌
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.AuthService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Captcha:  req.CaptchaPayload.ToServicePayload(),
	})
	if err != nil {
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	notify(c, "notice.login_success", gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	})
}

// SocialLogin 使用前端社交登录得到的 ID Token 换取会话令牌
func (h *Handler) SocialLogin(c *gin.Context) {
	var req SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.AuthService.SocialLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	notify(c, "notice.login_success", gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	})
}

// Logout 清空购物车并注销会话令牌
func (h *Handler) Logout(c *gin.Context) {
	sid, ok := clientSession(c)
	if !ok {
		return
	}
	token := sessionToken(c)
	if token == "" {
		token = bearerToken(c)
	}
	if err := h.AuthService.Logout(c.Request.Context(), sid, token); err != nil {
		respondError(c, response.CodeInternal, "error.logout_failed", err)
		return
	}
	redirect := strings.TrimSpace(h.Config.Session.LoginRoute)
	if redirect == "" {
		redirect = constants.LoginRoute
	}
	notify(c, "notice.logout_success", gin.H{"redirect": redirect})
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
