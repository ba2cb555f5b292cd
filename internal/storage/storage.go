// Package storage writes uploaded media somewhere the browser can fetch it from.
package storage

import (
	"context"
	"fmt"

	"unnest/internal/config"
)

// Store persists media objects under slash-separated keys such as
// "images/profile_pics/1a2b3c4d5e6f7a8b.png".
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL is the public address of key.
	URL(key string) string
	// Name identifies the backend in logs and traces.
	Name() string
}

// New builds the backend selected by MEDIA_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			PublicURL:       cfg.S3PublicURL,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "local", "":
		return NewLocalStore(cfg.StaticDir, "/static"), nil
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", cfg.MediaBackend)
	}
}
