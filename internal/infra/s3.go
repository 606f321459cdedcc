package infra

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Vovarama1992/voice_posts/internal/config"
	"github.com/Vovarama1992/voice_posts/internal/ports"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SigV4 не подписывает ссылки дольше недели
const MaxSignedURLExpiry = 7 * 24 * time.Hour

type s3Client struct {
	client *minio.Client
	bucket string
}

func NewS3Client(ctx context.Context, cfg config.S3Config) (ports.S3Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	// проверим, что бакет существует
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	return &s3Client{client: client, bucket: cfg.Bucket}, nil
}

func (s *s3Client) Download(ctx context.Context, key, localPath string) (int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	n, err := writeFile(localPath, obj)
	if err != nil {
		_ = os.Remove(localPath)
		return 0, fmt.Errorf("download %s: %w", key, err)
	}
	return n, nil
}

func (s *s3Client) UploadFile(ctx context.Context, key, localPath, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

func (s *s3Client) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 || expiry > MaxSignedURLExpiry {
		expiry = MaxSignedURLExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
