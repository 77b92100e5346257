// Package cache keeps rendered QR codes in Redis.
package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Encoder renders a URL as a base64 PNG.
type Encoder interface {
	EncodeBase64(url string) (string, error)
}

// QRCache 读穿缓存，rdb 为 nil 时直接渲染
type QRCache struct {
	rdb *redis.Client
	enc Encoder
	ttl time.Duration
	log *slog.Logger
}

func NewQRCache(rdb *redis.Client, enc Encoder, ttl time.Duration, logger *slog.Logger) *QRCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &QRCache{rdb: rdb, enc: enc, ttl: ttl, log: logger}
}

func qrKey(url string) string { return fmt.Sprintf("qr:b64:%s", url) }

// Base64 returns the base64 PNG for url, rendering it on a cache miss.
func (c *QRCache) Base64(ctx context.Context, url string) (string, error) {
	if c.rdb != nil {
		s, err := c.rdb.Get(ctx, qrKey(url)).Result()
		switch {
		case err == nil:
			return s, nil
		case !errors.Is(err, redis.Nil):
			c.log.WarnContext(ctx, "qr cache read failed", "err", err)
		}
	}

	s, err := c.enc.EncodeBase64(url)
	if err != nil {
		return "", err
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, qrKey(url), s, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "qr cache write failed", "err", err)
		}
	}
	return s, nil
}

func (c *QRCache) PNG(ctx context.Context, url string) ([]byte, error) {
	s, err := c.Base64(ctx, url)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(s)
}

func (c *QRCache) Forget(ctx context.Context, url string) {
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, qrKey(url)).Err()
	}
}
