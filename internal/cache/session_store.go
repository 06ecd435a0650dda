package cache

import (
	"context"
	"fmt"
	"time"
)

const defaultSessionTTL = 2 * time.Hour

// SessionStore 会话级键值存储（Redis 带 TTL，未启用时使用进程内存储）
type SessionStore struct {
	ttl    time.Duration
	memory *memoryStore
}

// NewSessionStore 创建会话级存储
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{ttl: ttl, memory: newMemoryStore()}
}

func sessionItemKey(sessionID, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}

// GetItem 读取会话级存储项
func (s *SessionStore) GetItem(ctx context.Context, sessionID, key string, dest interface{}) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	full := sessionItemKey(sessionID, key)
	if Enabled() {
		return GetJSON(ctx, full, dest)
	}
	return s.memory.getJSON(full, dest)
}

// SetItem 写入会话级存储项，每次写入刷新 TTL
func (s *SessionStore) SetItem(ctx context.Context, sessionID, key string, value interface{}) error {
	if sessionID == "" {
		return nil
	}
	full := sessionItemKey(sessionID, key)
	if Enabled() {
		return SetJSON(ctx, full, value, s.ttl)
	}
	return s.memory.setJSON(full, value, s.ttl)
}

// RemoveItem 删除会话级存储项
func (s *SessionStore) RemoveItem(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, sessionItemKey(sessionID, key))
	}
	if Enabled() {
		return Del(ctx, full...)
	}
	s.memory.del(full...)
	return nil
}
