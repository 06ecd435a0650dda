package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"

	// DefaultLocale 无法识别请求语言时使用
	DefaultLocale = LocaleEnUS
)

var (
	supportedTags = []language.Tag{
		language.AmericanEnglish,
		language.SimplifiedChinese,
	}
	matcher = language.NewMatcher(supportedTags)
)

// ResolveLocale 按 lang 参数、X-Locale 请求头、Accept-Language 的顺序解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	candidates := []string{
		strings.TrimSpace(c.Query("lang")),
		strings.TrimSpace(c.GetHeader("X-Locale")),
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if locale, ok := matchLocale(candidate); ok {
			return locale
		}
	}
	if accept := strings.TrimSpace(c.GetHeader("Accept-Language")); accept != "" {
		if locale, ok := matchLocale(accept); ok {
			return locale
		}
	}
	return DefaultLocale
}

func matchLocale(raw string) (string, bool) {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	switch supportedTags[index] {
	case language.SimplifiedChinese:
		return LocaleZhCN, true
	default:
		return LocaleEnUS, true
	}
}

// T 查找文案，缺失时回退到默认语言，再回退到 key 本身
func T(locale, key string) string {
	if messages, ok := catalogs[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 查找文案并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	msg := T(locale, key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
