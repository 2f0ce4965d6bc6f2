package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type countingUploader struct {
	calls int
	err   error
}

func (c *countingUploader) UploadTemporaryMedia(_ context.Context, mediaType, url string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("%s-%d", mediaType, c.calls), nil
}

func TestKeyStable(t *testing.T) {
	if Key("image", "http://x/a.png") != Key("image", "http://x/a.png") {
		t.Fatal("key should be deterministic")
	}
	if Key("image", "http://x/a.png") == Key("thumb", "http://x/a.png") {
		t.Fatal("media type should be part of the key")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }

	_ = c.Put(ctx, "image", "http://x/a.png", "m1", time.Hour)
	if id, _ := c.Get(ctx, "image", "http://x/a.png"); id != "m1" {
		t.Fatalf("expected m1, got %q", id)
	}
	now = now.Add(2 * time.Hour)
	if id, _ := c.Get(ctx, "image", "http://x/a.png"); id != "" {
		t.Fatalf("expired entry returned %q", id)
	}
}

func TestCachingUploader(t *testing.T) {
	ctx := context.Background()
	next := &countingUploader{}
	u := NewCachingUploader(next, NewMemoryCache(), nil)

	first, err := u.UploadTemporaryMedia(ctx, "image", "http://x/a.png")
	if err != nil {
		t.Fatal(err)
	}
	second, err := u.UploadTemporaryMedia(ctx, "image", "http://x/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if first != second || next.calls != 1 {
		t.Fatalf("expected one upload reused, got %s %s after %d calls", first, second, next.calls)
	}

	if _, err := u.UploadTemporaryMedia(ctx, "voice", "http://x/a.png"); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Fatalf("different media type should upload again, got %d calls", next.calls)
	}
}

func TestCachingUploaderError(t *testing.T) {
	ctx := context.Background()
	next := &countingUploader{err: errors.New("quota")}
	cache := NewMemoryCache()
	u := NewCachingUploader(next, cache, nil)

	if _, err := u.UploadTemporaryMedia(ctx, "image", "http://x/a.png"); err == nil {
		t.Fatal("expected upload error")
	}
	if id, _ := cache.Get(ctx, "image", "http://x/a.png"); id != "" {
		t.Fatalf("failed upload must not be cached, got %q", id)
	}
}

func TestGormCache(t *testing.T) {
	if os.Getenv("RUN_MYSQL_INTEGRATION_TESTS") == "" {
		t.Skip("set RUN_MYSQL_INTEGRATION_TESTS=1 and MYSQL_DSN to run")
	}
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c := NewGormCache(db)
	if err := c.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	url := "http://x/" + uuid.NewString() + ".png"
	if id, err := c.Get(ctx, "image", url); err != nil || id != "" {
		t.Fatalf("expected miss, got %q (%v)", id, err)
	}
	if err := c.Put(ctx, "image", url, "m1", time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "image", url, "m2", time.Hour); err != nil {
		t.Fatal(err)
	}
	if id, err := c.Get(ctx, "image", url); err != nil || id != "m2" {
		t.Fatalf("expected m2, got %q (%v)", id, err)
	}
	if _, err := c.Purge(ctx); err != nil {
		t.Fatal(err)
	}
}
