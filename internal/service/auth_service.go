package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relicvault/storefront/internal/cache"
	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/identity"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityProvider 第三方身份提供方
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.SignInResult, error)
}

// TokenExchanger 会话令牌交换
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, idToken string) (*shopapi.ExchangeResult, error)
}

// SessionClaims 应用会话令牌声明（由商城 API 使用共享密钥签发）
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdminArea 是否可进入管理端
func (c *SessionClaims) IsAdminArea() bool {
	switch c.Role {
	case constants.RoleAdmin, constants.RoleCatalogManager, constants.RoleModerator, constants.RoleSupport:
		return true
	}
	return false
}

// LoginInput 密码登录输入
type LoginInput struct {
	Email    string
	Password string
	Captcha  CaptchaVerifyPayload
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      models.JSON    `json:"user"`
	Claims    *SessionClaims `json:"-"`
}

// AuthService 登录、令牌校验与登出
type AuthService struct {
	cfg       config.SessionConfig
	identity  IdentityProvider
	exchanger TokenExchanger
	captcha   *CaptchaService
	cart      *CartService
}

// NewAuthService 创建认证服务
func NewAuthService(cfg config.SessionConfig, idp IdentityProvider, exchanger TokenExchanger, captcha *CaptchaService, cart *CartService) *AuthService {
	return &AuthService{
		cfg:       cfg,
		identity:  idp,
		exchanger: exchanger,
		captcha:   captcha,
		cart:      cart,
	}
}

// Login 验证码校验后经身份提供方登录，再换取应用会话令牌
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := s.captcha.Verify(constants.CaptchaSceneLogin, input.Captcha); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	signIn, err := s.identity.SignInWithPassword(ctx, email, input.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		logger.Warnw("auth_identity_sign_in_failed", "email", email, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	return s.exchange(ctx, signIn.IDToken)
}

// SocialLogin 使用前端完成的社交登录 ID Token 直接换取会话令牌
func (s *AuthService) SocialLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrInvalidCredentials
	}
	return s.exchange(ctx, idToken)
}

func (s *AuthService) exchange(ctx context.Context, idToken string) (*LoginResult, error) {
	exchanged, err := s.exchanger.ExchangeToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, shopapi.ErrUnauthorized) || errors.Is(err, shopapi.ErrForbidden) {
			return nil, ErrInvalidCredentials
		}
		logger.Warnw("auth_token_exchange_failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	claims, err := s.parse(exchanged.Token)
	if err != nil {
		logger.Warnw("auth_exchanged_token_invalid", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	result := &LoginResult{
		Token:  exchanged.Token,
		User:   exchanged.User,
		Claims: claims,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	if result.User == nil {
		result.User = models.JSON{"id": claims.UserID, "email": claims.Email, "role": claims.Role}
	}
	return result, nil
}

// ParseSessionToken 校验会话令牌签名、有效期与注销状态
func (s *AuthService) ParseSessionToken(ctx context.Context, token string) (*SessionClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := cache.IsSessionTokenRevoked(ctx, token)
	if err != nil {
		logger.Warnw("auth_revocation_check_failed", "error", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *AuthService) parse(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &SessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout 清空购物车并注销会话令牌
func (s *AuthService) Logout(ctx context.Context, sessionID, token string) error {
	if sessionID != "" {
		if err := s.cart.Clear(ctx, sessionID); err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := cache.RevokeSessionToken(ctx, token, claims.UserID, ttl); err != nil {
		logger.Warnw("auth_revoke_token_failed", "user_id", claims.UserID, "error", err)
		return err
	}
	logger.Infow("auth_logout", "user_id", claims.UserID)
	return nil
}
