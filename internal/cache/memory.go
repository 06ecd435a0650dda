package cache

import (
	"encoding/json"
	"sync"
	"time"
)

const memorySweepInterval = time.Minute

type memoryEntry struct {
	payload  []byte
	expireAt time.Time
}

// memoryStore Redis 未启用时的进程内 TTL 存储
type memoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

func (m *memoryStore) getJSON(key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && entry.expired(m.now()) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memoryStore) setJSON(key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := m.now()
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expireAt = now.Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	if now.Sub(m.lastSweep) >= memorySweepInterval {
		m.sweepLocked(now)
	}
	m.mu.Unlock()
	return nil
}

// sweepLocked 清理过期项，调用方需持有锁
func (m *memoryStore) sweepLocked(now time.Time) {
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
	m.lastSweep = now
}

func (m *memoryStore) del(keys ...string) {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
