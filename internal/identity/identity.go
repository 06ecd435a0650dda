package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/logger"
)

var (
	ErrConfigInvalid       = errors.New("identity provider config invalid")
	ErrInvalidCredentials  = errors.New("identity provider rejected credentials")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// credentialErrorCodes 身份提供方表示账号或密码错误的错误码
var credentialErrorCodes = map[string]struct{}{
	"EMAIL_NOT_FOUND":             {},
	"INVALID_PASSWORD":            {},
	"INVALID_LOGIN_CREDENTIALS":   {},
	"USER_DISABLED":               {},
	"INVALID_EMAIL":               {},
	"MISSING_PASSWORD":            {},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {},
}

// SignInResult 密码登录结果
type SignInResult struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	LocalID      string `json:"localId"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// Client 第三方身份提供方客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 根据配置创建客户端
func NewClient(cfg config.IdentityConfig) *Client {
	return NewClientWithHTTP(cfg.BaseURL, cfg.APIKey, &http.Client{Timeout: cfg.Timeout()})
}

// NewClientWithHTTP 使用自定义 http.Client 创建客户端
func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
	}
}

// SignInWithPassword 邮箱密码登录，返回身份提供方 ID Token
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ErrConfigInvalid
	}
	body, err := json.Marshal(map[string]interface{}{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrProviderUnavailable)
	}
	endpoint := c.baseURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrProviderUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnw("identity_sign_in_request_failed", "error", err)
		return nil, fmt.Errorf("%w: http request failed", ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrProviderUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		code := providerErrorCode(raw)
		if _, ok := credentialErrorCodes[code]; ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, code)
		}
		return nil, fmt.Errorf("%w: status %d %s", ErrProviderUnavailable, resp.StatusCode, code)
	}

	var result SignInResult
	if err := json.Unmarshal(raw, &result); err != nil || strings.TrimSpace(result.IDToken) == "" {
		return nil, fmt.Errorf("%w: id token missing", ErrProviderUnavailable)
	}
	return &result, nil
}

// providerErrorCode 提取 {"error":{"message":"CODE : detail"}} 中的错误码
func providerErrorCode(raw []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	code, _, _ := strings.Cut(payload.Error.Message, ":")
	return strings.TrimSpace(code)
}
