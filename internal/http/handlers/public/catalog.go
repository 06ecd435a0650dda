package public

import (
	"strings"

	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表，支持关键字、分类与价格区间
func (h *Handler) ListProducts(c *gin.Context) {
	query := shopapi.ProductQuery{
		Page:     handlershared.QueryInt(c, "page"),
		Limit:    handlershared.QueryInt(c, "limit", "page_size"),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Category: strings.TrimSpace(c.Query("category")),
		PriceMin: strings.TrimSpace(c.Query("price_min")),
		PriceMax: strings.TrimSpace(c.Query("price_max")),
	}
	products, page, err := h.CatalogService.ListProducts(c.Request.Context(), query)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_unavailable")
		return
	}
	pageNo, limit := handlershared.NormalizePagination(query.Page, query.Limit, 12, 60)
	response.SuccessWithPage(c, products, response.Pagination{
		Page:      pageNo,
		PageSize:  limit,
		Total:     int64(page.Total),
		TotalPage: int64(page.Pages),
	})
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.CatalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_unavailable")
		return
	}
	response.Success(c, product)
}
