package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/relicvault/storefront/internal/models"
)

// Product 商品快照
type Product struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Price        models.Money `json:"price"`
	ImageURL     string       `json:"image_url"`
	Images       []string     `json:"images,omitempty"`
	CountInStock int          `json:"count_in_stock"`
	Category     string       `json:"category,omitempty"`
	Team         string       `json:"team,omitempty"`
	Rating       float64      `json:"rating,omitempty"`
	NumReviews   int          `json:"num_reviews,omitempty"`
}

// ProductQuery 商品列表查询
type ProductQuery struct {
	Page     int
	Limit    int
	Keyword  string
	Category string
	PriceMin string
	PriceMax string
}

// ListQuery 管理端列表查询
type ListQuery struct {
	Page  int
	Limit int
}

// OrderLine 下单商品行
type OrderLine struct {
	ProductID string       `json:"product"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	Image     string       `json:"image"`
	Quantity  int          `json:"quantity"`
}

// OrderRequest 下单请求
type OrderRequest struct {
	OrderItems   []OrderLine  `json:"orderItems"`
	ShippingInfo models.JSON  `json:"shippingInfo"`
	PaymentInfo  models.JSON  `json:"paymentInfo,omitempty"`
	ItemsPrice   models.Money `json:"itemsPrice"`
	TotalPrice   models.Money `json:"totalPrice"`
}

// ExchangeResult 令牌交换结果
type ExchangeResult struct {
	Token string      `json:"token"`
	User  models.JSON `json:"user"`
}

// GetProduct 获取商品详情
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: product id is empty", ErrNotFound)
	}
	env, err := c.doJSON(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, "", nil)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := decodeData(env, &raw); err != nil {
		return nil, err
	}
	if product, ok := raw["product"].(map[string]interface{}); ok {
		raw = product
	}
	product := ProductFromMap(raw)
	if product.ID == "" {
		product.ID = id
	}
	return &product, nil
}

// ListProducts 获取商品列表
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]Product, Pagination, error) {
	query := url.Values{}
	setPage(query, q.Page, q.Limit)
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		query.Set("keyword", kw)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		query.Set("category", category)
	}
	if v := strings.TrimSpace(q.PriceMin); v != "" {
		query.Set("price[gte]", v)
	}
	if v := strings.TrimSpace(q.PriceMax); v != "" {
		query.Set("price[lte]", v)
	}

	env, err := c.doJSON(ctx, http.MethodGet, "/products", query, "", nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	rows, err := decodeRows(env, "products")
	if err != nil {
		return nil, Pagination{}, err
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, ProductFromMap(row))
	}
	return products, paginationOf(env, len(products)), nil
}

// ListResource 获取管理端资源列表
func (c *Client) ListResource(ctx context.Context, token, resource string, q ListQuery) ([]models.JSON, Pagination, error) {
	query := url.Values{}
	setPage(query, q.Page, q.Limit)
	env, err := c.doJSON(ctx, http.MethodGet, "/"+resource, query, token, nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	rows, err := decodeRows(env, resource)
	if err != nil {
		return nil, Pagination{}, err
	}
	out := make([]models.JSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.JSON(row))
	}
	return out, paginationOf(env, len(out)), nil
}

// CreateResource 创建资源，带文件时使用 multipart 提交
func (c *Client) CreateResource(ctx context.Context, token, resource string, fields models.JSON, files []FileUpload) (models.JSON, error) {
	return c.writeResource(ctx, http.MethodPost, "/"+resource, token, fields, files)
}

// UpdateResource 更新资源
func (c *Client) UpdateResource(ctx context.Context, token, resource, id string, fields models.JSON, files []FileUpload) (models.JSON, error) {
	return c.writeResource(ctx, http.MethodPut, "/"+resource+"/"+url.PathEscape(id), token, fields, files)
}

// DeleteResource 删除资源
func (c *Client) DeleteResource(ctx context.Context, token, resource, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/"+resource+"/"+url.PathEscape(id), nil, token, nil)
	return err
}

// PlaceOrder 提交订单
func (c *Client) PlaceOrder(ctx context.Context, token string, order OrderRequest) (models.JSON, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/orders", nil, token, order)
	if err != nil {
		return nil, err
	}
	var created models.JSON
	if err := decodeData(env, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// ExchangeToken 使用身份提供方 ID Token 换取应用会话令牌
func (c *Client) ExchangeToken(ctx context.Context, idToken string) (*ExchangeResult, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/auth/exchange", nil, "", map[string]string{"id_token": idToken})
	if err != nil {
		return nil, err
	}
	var result ExchangeResult
	if err := decodeData(env, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrResponseInvalid)
	}
	return &result, nil
}

func (c *Client) writeResource(ctx context.Context, method, path, token string, fields models.JSON, files []FileUpload) (models.JSON, error) {
	var (
		env *Envelope
		err error
	)
	if len(files) > 0 {
		env, err = c.doMultipart(ctx, method, path, token, fields, files)
	} else {
		env, err = c.doJSON(ctx, method, path, nil, token, fields)
	}
	if err != nil {
		return nil, err
	}
	var record models.JSON
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return models.JSON{}, nil
	}
	if err := decodeData(env, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func setPage(query url.Values, page, limit int) {
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
}

// decodeRows 兼容 data 为数组或 {<resource>: [...]} 两种形式
func decodeRows(env *Envelope, collection string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := decodeData(env, &rows); err == nil {
		return rows, nil
	}
	var wrapped map[string]json.RawMessage
	if err := decodeData(env, &wrapped); err != nil {
		return nil, err
	}
	list, ok := wrapped[collection]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s collection", ErrResponseInvalid, collection)
	}
	if err := json.Unmarshal(list, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode %s failed", ErrResponseInvalid, collection)
	}
	return rows, nil
}

func paginationOf(env *Envelope, count int) Pagination {
	if env != nil && env.Pagination != nil {
		return *env.Pagination
	}
	pages := 0
	if count > 0 {
		pages = 1
	}
	return Pagination{Total: count, Pages: pages}
}

// ProductFromMap 从 API 原始记录提取商品快照
func ProductFromMap(raw map[string]interface{}) Product {
	product := Product{
		ID:          firstString(raw, "_id", "id"),
		Name:        firstString(raw, "name", "title"),
		Description: firstString(raw, "description"),
		Category:    nestedName(raw["category"]),
		Team:        nestedName(raw["team"]),
	}
	if price, err := models.ParseMoney(raw["price"]); err == nil {
		product.Price = price
	}
	product.CountInStock = firstInt(raw, "countInStock", "stock", "count_in_stock")
	product.NumReviews = firstInt(raw, "numReviews", "num_reviews")
	if rating, ok := raw["rating"].(float64); ok {
		product.Rating = rating
	}
	product.Images = imageList(raw["images"])
	product.ImageURL = firstString(raw, "image", "imageUrl", "image_url")
	if product.ImageURL == "" && len(product.Images) > 0 {
		product.ImageURL = product.Images[0]
	}
	return product
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstInt(raw map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func nestedName(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		return firstString(v, "name", "_id", "id")
	}
	return ""
}

func imageList(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]interface{}:
			if u := firstString(v, "url", "secure_url"); u != "" {
				out = append(out, u)
			}
		}
	}
	return out
}
