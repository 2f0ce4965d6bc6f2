package media

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCache 多实例共享的数据库缓存
type GormCache struct {
	db *gorm.DB
}

func NewGormCache(db *gorm.DB) *GormCache {
	return &GormCache{db: db}
}

// Migrate 创建或更新缓存表
func (g *GormCache) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&Record{})
}

func (g *GormCache) Get(ctx context.Context, mediaType, url string) (string, error) {
	var r Record
	err := g.db.WithContext(ctx).
		Where("cache_key = ? AND expire_at > ?", Key(mediaType, url), time.Now().Unix()).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return r.MediaID, nil
}

// Put 已存在同一 key 时覆盖 media id 和过期时间
func (g *GormCache) Put(ctx context.Context, mediaType, url, mediaID string, ttl time.Duration) error {
	r := Record{
		CacheKey:  Key(mediaType, url),
		MediaType: mediaType,
		SourceURL: url,
		MediaID:   mediaID,
		ExpireAt:  time.Now().Add(ttl).Unix(),
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"media_id", "expire_at", "updated_at"}),
	}).Create(&r).Error
}

// Purge 删除已过期记录，返回删除条数
func (g *GormCache) Purge(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).Where("expire_at <= ?", time.Now().Unix()).Delete(&Record{})
	return res.RowsAffected, res.Error
}
