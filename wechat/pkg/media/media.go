// Package media 缓存临时素材的 media id，避免同一文件在有效期内重复上传。
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TemporaryTTL 临时素材在平台保存 3 天，预留 1 小时余量
const TemporaryTTL = 3*24*time.Hour - time.Hour

// Record 一条缓存记录
type Record struct {
	ID        int    `json:"id" gorm:"column:id;primaryKey"`
	CacheKey  string `json:"cache_key" gorm:"column:cache_key;size:80;uniqueIndex"`
	MediaType string `json:"media_type" gorm:"column:media_type;size:16"`
	SourceURL string `json:"source_url" gorm:"column:source_url;type:text"`
	MediaID   string `json:"media_id" gorm:"column:media_id;size:128"`
	ExpireAt  int64  `json:"expire_at" gorm:"column:expire_at;index"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "wechat_media_cache"
}

// Cache 按素材类型和源地址查找 media id
type Cache interface {
	Get(ctx context.Context, mediaType, url string) (string, error)
	Put(ctx context.Context, mediaType, url, mediaID string, ttl time.Duration) error
}

// Key 源地址可能很长，存储时使用哈希
func Key(mediaType, url string) string {
	sum := sha256.Sum256([]byte(url))
	return mediaType + ":" + hex.EncodeToString(sum[:])
}
