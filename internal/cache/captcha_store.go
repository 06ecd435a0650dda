package cache

import (
	"context"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

const captchaStoreOpTimeout = 2 * time.Second

// redisCaptchaStore 基于 Redis 的图片验证码答案存储，多实例部署时共享
type redisCaptchaStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCaptchaStore 创建验证码存储，Redis 未启用时使用 base64Captcha 内存存储
func NewCaptchaStore(maxStore int, ttl time.Duration) base64Captcha.Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxStore <= 0 {
		maxStore = 10240
	}
	if !Enabled() {
		return base64Captcha.NewMemoryStore(maxStore, ttl)
	}
	return &redisCaptchaStore{client: redisClient, ttl: ttl}
}

func captchaKey(id string) string {
	return buildKey("captcha:" + strings.TrimSpace(id))
}

func (s *redisCaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), captchaStoreOpTimeout)
	defer cancel()
	return s.client.Set(ctx, captchaKey(id), value, s.ttl).Err()
}

func (s *redisCaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), captchaStoreOpTimeout)
	defer cancel()
	var (
		val string
		err error
	)
	if clear {
		val, err = s.client.GetDel(ctx, captchaKey(id)).Result()
	} else {
		val, err = s.client.Get(ctx, captchaKey(id)).Result()
	}
	if err != nil {
		return ""
	}
	return val
}

func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	stored := s.Get(id, clear)
	if stored == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(answer))
}
