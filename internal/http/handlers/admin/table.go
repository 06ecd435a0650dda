package admin

import (
	"errors"
	"strings"

	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/i18n"
	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchRequest 当前页搜索请求
type SearchRequest struct {
	Term string `json:"term"`
}

// BulkDeleteRequest 批量删除请求，ids 为空时删除已勾选行
type BulkDeleteRequest struct {
	IDs     []string `json:"ids"`
	Confirm bool     `json:"confirm"`
}

// SelectAllRequest 全选请求
type SelectAllRequest struct {
	Checked bool `json:"checked"`
}

// GetDescriptors 获取全部实体描述
func (h *Handler) GetDescriptors(c *gin.Context) {
	response.Success(c, h.AdminTableService.Descriptors())
}

// ListTable 拉取指定页并重置行状态
func (h *Handler) ListTable(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	page := handlershared.QueryInt(c, "page")
	limit := handlershared.QueryInt(c, "limit", "page_size")
	result, err := h.AdminTableService.List(c.Request.Context(), actor, resourceParam(c), page, limit)
	if err != nil {
		respondTableError(c, err, "error.admin_list_failed")
		return
	}
	response.Success(c, result)
}

// GetTableView 返回当前会话缓存的列表视图，过期时自动刷新
func (h *Handler) GetTableView(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	result, err := h.AdminTableService.View(c.Request.Context(), actor, resourceParam(c))
	if err != nil {
		respondTableError(c, err, "error.admin_list_failed")
		return
	}
	response.Success(c, result)
}

// SearchTable 过滤当前已加载的页
func (h *Handler) SearchTable(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.AdminTableService.Search(c.Request.Context(), actor, resourceParam(c), req.Term)
	if err != nil {
		respondTableError(c, err, "error.admin_list_failed")
		return
	}
	response.Success(c, result)
}

// CreateRecord 新建记录，支持 JSON 或 multipart 表单
func (h *Handler) CreateRecord(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	form, ok := h.bindRecordForm(c)
	if !ok {
		return
	}
	result, err := h.AdminTableService.Create(c.Request.Context(), actor, resourceParam(c), form.Values, form.Uploads)
	if err != nil {
		respondTableError(c, err, "error.admin_save_failed")
		return
	}
	notify(c, "notice.admin_created", gin.H{"record": result.Record, "page": result.Page})
}

// UpdateRecord 局部更新记录
func (h *Handler) UpdateRecord(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	form, ok := h.bindRecordForm(c)
	if !ok {
		return
	}
	result, err := h.AdminTableService.Update(c.Request.Context(), actor, resourceParam(c), id, form.Values, form.Uploads)
	if err != nil {
		respondTableError(c, err, "error.admin_save_failed")
		return
	}
	notify(c, "notice.admin_updated", gin.H{"record": result.Record, "page": result.Page})
}

// DeleteRecord 删除单条记录，需 confirm=true
func (h *Handler) DeleteRecord(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	page, err := h.AdminTableService.Delete(c.Request.Context(), actor, resourceParam(c), id, queryBool(c, "confirm"))
	if err != nil {
		respondTableError(c, err, "error.admin_delete_failed")
		return
	}
	notify(c, "notice.admin_deleted", gin.H{"page": page})
}

// BulkDeleteRecords 批量删除，部分失败时返回成功与失败明细
func (h *Handler) BulkDeleteRecords(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.AdminTableService.BulkDelete(c.Request.Context(), actor, resourceParam(c), req.IDs, req.Confirm)
	if err != nil {
		if errors.Is(err, service.ErrPartialDelete) && result != nil {
			msg := i18n.T(i18n.ResolveLocale(c), "error.admin_partial_delete")
			handlershared.RespondErrorWithData(c, response.CodeConflict, msg, err, gin.H{
				"deleted": result.Deleted,
				"failed":  result.Failed,
				"page":    result.Page,
			})
			return
		}
		respondTableError(c, err, "error.admin_delete_failed")
		return
	}
	notify(c, "notice.admin_bulk_deleted", gin.H{
		"deleted": result.Deleted,
		"failed":  result.Failed,
		"page":    result.Page,
	})
}

// ToggleRowExpand 切换行展开
func (h *Handler) ToggleRowExpand(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	page, err := h.AdminTableService.ToggleExpand(c.Request.Context(), actor, resourceParam(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondTableError(c, err, "error.admin_list_failed")
		return
	}
	response.Success(c, page)
}

// ToggleRowCheck 切换行勾选
func (h *Handler) ToggleRowCheck(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	page, err := h.AdminTableService.ToggleCheck(c.Request.Context(), actor, resourceParam(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		respondTableError(c, err, "error.admin_list_failed")
		return
	}
	response.Success(c, page)
}

// SelectAllRows 勾选或取消勾选全部可见行
func (h *Handler) SelectAllRows(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	var req SelectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	page, err := h.AdminTableService.SelectAll(c.Request.Context(), actor, resourceParam(c), req.Checked)
	if err != nil {
		respondTableError(c, err, "error.admin_list_failed")
		return
	}
	response.Success(c, page)
}
