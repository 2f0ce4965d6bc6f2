package media

import (
	"context"
	"time"

	"wxadapter/tools/logger"
)

// Uploader 实际执行上传的客户端
type Uploader interface {
	UploadTemporaryMedia(ctx context.Context, mediaType, url string) (string, error)
}

// CachingUploader 先查缓存，未命中再上传并写回。缓存读写失败只记日志
type CachingUploader struct {
	next   Uploader
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

func NewCachingUploader(next Uploader, cache Cache, log *logger.Logger) *CachingUploader {
	if log == nil {
		log = logger.Nop()
	}
	return &CachingUploader{next: next, cache: cache, ttl: TemporaryTTL, logger: log}
}

func (u *CachingUploader) UploadTemporaryMedia(ctx context.Context, mediaType, url string) (string, error) {
	id, err := u.cache.Get(ctx, mediaType, url)
	if err != nil {
		u.logger.Warn("Failed to read media cache: %v", err)
	} else if id != "" {
		u.logger.Debug("Media cache hit for %s %s", mediaType, url)
		return id, nil
	}

	id, err = u.next.UploadTemporaryMedia(ctx, mediaType, url)
	if err != nil {
		return "", err
	}
	if err := u.cache.Put(ctx, mediaType, url, id, u.ttl); err != nil {
		u.logger.Warn("Failed to write media cache: %v", err)
	}
	return id, nil
}
