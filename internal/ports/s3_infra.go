package ports

import (
	"context"
	"time"
)

// Низкоуровневый клиент к S3
type S3Client interface {
	// Download пишет объект key в localPath, возвращает число байт
	Download(ctx context.Context, key, localPath string) (int64, error)
	UploadFile(ctx context.Context, key, localPath, contentType string) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
