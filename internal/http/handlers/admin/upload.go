package admin

import (
	"mime/multipart"
	"strings"

	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/service"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/gin-gonic/gin"
)

const multipartMemoryLimit = 32 << 20

// recordForm 记录写入请求解析结果
type recordForm struct {
	Values  models.JSON
	Uploads []shopapi.FileUpload
}

// ValidateUpload 预校验图片，返回每个文件的类型与尺寸
func (h *Handler) ValidateUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || form == nil || len(form.File) == 0 {
		respondError(c, response.CodeBadRequest, "error.file_missing", nil)
		return
	}
	validated, err := h.UploadService.ValidateImages(form.File)
	if err != nil {
		respondTableError(c, err, "error.upload_failed")
		return
	}
	infos := make([]service.ImageInfo, 0, len(validated))
	for _, item := range validated {
		infos = append(infos, item.Info)
	}
	notify(c, "notice.upload_validated", gin.H{"files": infos})
}

// bindRecordForm 解析 JSON 或 multipart 表单；multipart 中的图片先经过上传校验
func (h *Handler) bindRecordForm(c *gin.Context) (*recordForm, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(multipartMemoryLimit); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return nil, false
		}
		return h.bindMultipart(c, c.Request.MultipartForm)
	}
	values := models.JSON{}
	if err := c.ShouldBindJSON(&values); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return nil, false
	}
	return &recordForm{Values: values}, true
}

func (h *Handler) bindMultipart(c *gin.Context, form *multipart.Form) (*recordForm, bool) {
	values := models.JSON{}
	for key, items := range form.Value {
		if len(items) == 0 {
			continue
		}
		values[key] = items[0]
	}
	result := &recordForm{Values: values}
	if len(form.File) == 0 {
		return result, true
	}
	validated, err := h.UploadService.ValidateImages(form.File)
	if err != nil {
		respondTableError(c, err, "error.upload_failed")
		return nil, false
	}
	for _, item := range validated {
		result.Uploads = append(result.Uploads, item.Upload)
	}
	return result, true
}
