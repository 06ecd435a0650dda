package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RevokedToken 已注销的会话令牌记录
type RevokedToken struct {
	UserID    string `json:"user_id"`
	RevokedAt int64  `json:"revoked_at"`
}

var revokedTokens = newMemoryStore()

func revokedTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:revoked:" + hex.EncodeToString(sum[:])
}

// RevokeSessionToken 注销会话令牌，记录保留至令牌自然过期
func RevokeSessionToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return nil
	}
	record := RevokedToken{UserID: userID, RevokedAt: time.Now().Unix()}
	key := revokedTokenKey(token)
	if Enabled() {
		return SetJSON(ctx, key, record, ttl)
	}
	return revokedTokens.setJSON(key, record, ttl)
}

// IsSessionTokenRevoked 判断会话令牌是否已注销
func IsSessionTokenRevoked(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	var record RevokedToken
	key := revokedTokenKey(token)
	if Enabled() {
		return GetJSON(ctx, key, &record)
	}
	return revokedTokens.getJSON(key, &record)
}
