package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relicvault/storefront/internal/repository"
)

// KeyValueStore 按客户端会话隔离的键值存储
type KeyValueStore interface {
	GetItem(ctx context.Context, sessionID, key string, dest interface{}) (bool, error)
	SetItem(ctx context.Context, sessionID, key string, value interface{}) error
	RemoveItem(ctx context.Context, sessionID string, keys ...string) error
}

// DurableStore 基于 client_storage 表的持久化存储
type DurableStore struct {
	repo repository.ClientStorageRepository
}

// NewDurableStore 创建持久化存储
func NewDurableStore(repo repository.ClientStorageRepository) *DurableStore {
	return &DurableStore{repo: repo}
}

// GetItem 读取并解析 JSON 值
func (s *DurableStore) GetItem(_ context.Context, sessionID, key string, dest interface{}) (bool, error) {
	entry, err := s.repo.Get(sessionID, key)
	if err != nil {
		return false, err
	}
	if entry == nil || entry.Value == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(entry.Value), dest); err != nil {
		return false, fmt.Errorf("decode storage %s failed: %w", key, err)
	}
	return true, nil
}

// SetItem 序列化为 JSON 写入
func (s *DurableStore) SetItem(_ context.Context, sessionID, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode storage %s failed: %w", key, err)
	}
	return s.repo.Put(sessionID, key, string(raw))
}

// RemoveItem 删除存储项
func (s *DurableStore) RemoveItem(_ context.Context, sessionID string, keys ...string) error {
	return s.repo.Delete(sessionID, keys...)
}
