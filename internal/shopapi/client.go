package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/logger"
	"github.com/relicvault/storefront/internal/models"
)

var (
	ErrRequestFailed   = errors.New("shop api request failed")
	ErrResponseInvalid = errors.New("shop api response invalid")
	ErrUnauthorized    = errors.New("shop api unauthorized")
	ErrForbidden       = errors.New("shop api forbidden")
	ErrNotFound        = errors.New("shop api resource not found")
	ErrRejected        = errors.New("shop api rejected request")
)

const maxResponseBytes = 8 << 20

// APIError 商城 API 返回的业务错误
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Err, e.Status)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Err, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// MessageOf 提取 API 返回的提示信息
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Pagination 分页信息
type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Envelope 商城 API 统一响应
type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// FileUpload 随表单提交的文件
type FileUpload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Client 商城 REST API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 根据配置创建客户端
func NewClient(cfg config.ShopAPIConfig) *Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout()})
}

// NewClientWithHTTP 使用自定义 http.Client 创建客户端
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, token string, payload interface{}) (*Envelope, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token)
}

func (c *Client) doMultipart(ctx context.Context, method, path, token string, fields models.JSON, files []FileUpload) (*Envelope, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, formValue(value)); err != nil {
			return nil, fmt.Errorf("%w: write form field failed", ErrRequestFailed)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, fmt.Errorf("%w: create form file failed", ErrRequestFailed)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("%w: write form file failed", ErrRequestFailed)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: close multipart failed", ErrRequestFailed)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, token)
}

func (c *Client) do(req *http.Request, token string) (*Envelope, error) {
	req.Header.Set("Accept", "application/json")
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnw("shop_api_request_failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s %s", ErrRequestFailed, req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	logger.Debugw("shop_api_request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(started).Milliseconds(),
	)

	var env Envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message, Err: statusError(resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode envelope failed", ErrResponseInvalid)
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message, Err: ErrRejected}
	}
	return &env, nil
}

func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrRejected
	}
}

// decodeData 解析 data 字段
func decodeData(env *Envelope, dest interface{}) error {
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrResponseInvalid)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("%w: decode data failed", ErrResponseInvalid)
	}
	return nil
}

func formValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}, []interface{}, models.JSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}
