package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/shopspring/decimal"
)

const (
	defaultCatalogPageSize = 12
	maxCatalogPageSize     = 60
)

// ProductSource 商品列表与详情来源
type ProductSource interface {
	ProductCatalog
	ListProducts(ctx context.Context, q shopapi.ProductQuery) ([]shopapi.Product, shopapi.Pagination, error)
}

// CatalogService 商品浏览服务
type CatalogService struct {
	source ProductSource
}

// NewCatalogService 创建商品浏览服务
func NewCatalogService(source ProductSource) *CatalogService {
	return &CatalogService{source: source}
}

// ListProducts 查询商品列表
func (s *CatalogService) ListProducts(ctx context.Context, q shopapi.ProductQuery) ([]shopapi.Product, shopapi.Pagination, error) {
	q = normalizeProductQuery(q)
	products, page, err := s.source.ListProducts(ctx, q)
	if err != nil {
		return nil, shopapi.Pagination{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return products, page, nil
}

// GetProduct 查询商品详情
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*shopapi.Product, error) {
	product, err := s.source.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, shopapi.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return product, nil
}

func normalizeProductQuery(q shopapi.ProductQuery) shopapi.ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultCatalogPageSize
	}
	if q.Limit > maxCatalogPageSize {
		q.Limit = maxCatalogPageSize
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.Category = strings.TrimSpace(q.Category)
	q.PriceMin = normalizePriceBound(q.PriceMin)
	q.PriceMax = normalizePriceBound(q.PriceMax)
	if q.PriceMin != "" && q.PriceMax != "" {
		lo, _ := decimal.NewFromString(q.PriceMin)
		hi, _ := decimal.NewFromString(q.PriceMax)
		if lo.GreaterThan(hi) {
			q.PriceMin, q.PriceMax = q.PriceMax, q.PriceMin
		}
	}
	return q
}

// normalizePriceBound 非法或负数的价格边界视为未设置
func normalizePriceBound(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return ""
	}
	return d.Round(2).String()
}
