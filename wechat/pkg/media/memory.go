package media

import (
	"context"
	"sync"
	"time"
)

type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]Record
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]Record), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, mediaType, url string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.items[Key(mediaType, url)]
	if !ok || m.now().Unix() >= r.ExpireAt {
		return "", nil
	}
	return r.MediaID, nil
}

func (m *MemoryCache) Put(_ context.Context, mediaType, url, mediaID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Key(mediaType, url)
	m.items[key] = Record{
		CacheKey:  key,
		MediaType: mediaType,
		SourceURL: url,
		MediaID:   mediaID,
		ExpireAt:  m.now().Add(ttl).Unix(),
	}
	return nil
}
