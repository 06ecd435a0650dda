package public

import (
	"strings"

	"github.com/relicvault/storefront/internal/constants"
	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

var captchaErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrCaptchaConfigInvalid, Code: response.CodeBadRequest, Key: "error.captcha_unavailable"},
}

// GetImageCaptcha 获取登录图片验证码；场景未开启时只返回 required=false
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	scene := strings.TrimSpace(c.DefaultQuery("scene", constants.CaptchaSceneLogin))
	if !h.CaptchaService.Enabled(scene) {
		response.Success(c, gin.H{"scene": scene, "required": false})
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondWithMappedError(c, err, captchaErrorRules, response.CodeInternal, "error.captcha_generate_failed")
		return
	}
	response.Success(c, gin.H{
		"scene":        scene,
		"required":     true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
