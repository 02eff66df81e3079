package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"useraccounts/internal/config"
)

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint not configured")
	}

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

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	bucket := s.cfg.BucketAvatars
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// PutAvatar stores data under key and returns its public URL.
func (s *ObjectStore) PutAvatar(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.BucketAvatars, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *ObjectStore) RemoveAvatar(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.BucketAvatars, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) PublicURL(key string) string {
	return BuildPublicURL(s.cfg, key)
}

func BuildPublicURL(cfg config.StorageConfig, key string) string {
	if cfg.PublicURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.PublicURL, "/"), key)
	}
	base := strings.TrimSuffix(cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		base = scheme + base
	}
	return fmt.Sprintf("%s/%s/%s", base, cfg.BucketAvatars, key)
}
