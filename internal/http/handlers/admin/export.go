package admin

import (
	"fmt"
	"net/http"

	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// ExportTableCSV 导出当前过滤后的页为 CSV
func (h *Handler) ExportTableCSV(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	file, err := h.AdminTableService.ExportCSV(c.Request.Context(), actor, resourceParam(c))
	if err != nil {
		respondTableError(c, err, "error.export_failed")
		return
	}
	writeExport(c, file)
}

// ExportTablePDF 导出当前过滤后的页为 PDF
func (h *Handler) ExportTablePDF(c *gin.Context) {
	actor, ok := adminActor(c)
	if !ok {
		return
	}
	file, err := h.AdminTableService.ExportPDF(c.Request.Context(), actor, resourceParam(c))
	if err != nil {
		respondTableError(c, err, "error.export_failed")
		return
	}
	writeExport(c, file)
}

func writeExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
	requestLog(c).Infow("admin_table_exported", "filename", file.Filename, "bytes", len(file.Data))
}
