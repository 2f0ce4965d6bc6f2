// Package store 保存跨请求共享的状态：access token 和已处理消息的去重标记。
package store

import (
	"context"
	"sync"
	"time"
)

// Store 单实例部署用内存实现，多实例共享时用 Redis 实现
type Store interface {
	GetToken(ctx context.Context, appID string) (string, error)
	SetToken(ctx context.Context, appID, token string, ttl time.Duration) error
	DeleteToken(ctx context.Context, appID string) error
	IsProcessed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) error
	MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

type entry struct {
	value    string
	expireAt time.Time
}

type MemoryStore struct {
	mu        sync.RWMutex
	tokens    map[string]entry
	processed map[string]time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:    make(map[string]entry),
		processed: make(map[string]time.Time),
		now:       time.Now,
	}
}

// GetToken 未命中或已过期返回空串
func (m *MemoryStore) GetToken(_ context.Context, appID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tokens[appID]
	if !ok || !m.now().Before(e.expireAt) {
		return "", nil
	}
	return e.value, nil
}

func (m *MemoryStore) SetToken(_ context.Context, appID, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[appID] = entry{value: token, expireAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) DeleteToken(_ context.Context, appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, appID)
	return nil
}

func (m *MemoryStore) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	expireAt, ok := m.processed[key]
	if !ok {
		return false, nil
	}
	return m.now().Before(expireAt), nil
}

// MarkProcessed 顺带清理过期标记
func (m *MemoryStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.purge()
	m.processed[key] = now.Add(ttl)
	return nil
}

// MarkIfNew 检查与登记在同一把锁内完成，返回 false 表示已登记过
func (m *MemoryStore) MarkIfNew(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.purge()
	if _, ok := m.processed[key]; ok {
		return false, nil
	}
	m.processed[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryStore) Unmark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.processed, key)
	return nil
}

// purge 删除过期标记，调用方持有写锁
func (m *MemoryStore) purge() time.Time {
	now := m.now()
	for k, exp := range m.processed {
		if !now.Before(exp) {
			delete(m.processed, k)
		}
	}
	return now
}
