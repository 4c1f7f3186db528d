// Package storage wraps the S3-compatible media host that serves avatar and
// cover images. Handlers hand it a multipart file and get back a hosted URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"blognest/api/internal/config"
	"blognest/api/internal/ids"
)

type MediaStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewMediaStore(cfg config.StorageConfig) (*MediaStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &MediaStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketMedia)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketMedia, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketMedia, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketMedia, err)
		}
	}
	return nil
}

// UploadImage stores the file on the media host and returns its public URL.
// The payload must be a recognizable raster image.
func (s *MediaStore) UploadImage(ctx context.Context, ownerID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	if file == nil || header == nil {
		return "", fmt.Errorf("invalid file payload")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}

	ext, mime, err := detectImage(data)
	if err != nil {
		return "", err
	}

	objectKey := s.buildObjectKey(ownerID, ext)

	_, err = s.client.PutObject(ctx, s.cfg.BucketMedia, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mime,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.buildPublicURL(objectKey), nil
}

func (s *MediaStore) buildObjectKey(ownerID string, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(ownerID, datePrefix, fmt.Sprintf("%s.%s", ids.New(), ext))
}

func (s *MediaStore) buildPublicURL(objectKey string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.BucketMedia, objectKey)
}
