// Package assets resolves asset-key references to image bytes. The editor
// core treats these references as opaque strings; this package is the
// collaborator that actually fetches them.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"xmdedit/internal/xmd/scan"
)

var ErrNotFound = errors.New("assets: not found")

// Resolver turns an asset key into displayable bytes.
type Resolver interface {
	Resolve(ctx context.Context, key string) ([]byte, error)
}

// KeyFromRef extracts the key from an asset-key:// reference token.
func KeyFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, scan.AssetScheme) {
		return "", false
	}
	key := strings.TrimPrefix(ref, scan.AssetScheme)
	return key, key != ""
}

// S3Config carries the object-store connection settings.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// CacheEntries bounds the in-memory byte cache; 0 uses a default.
	CacheEntries int
}

// S3Resolver fetches assets from a minio/S3 bucket with an LRU byte cache
// in front. Objects are immutable per key, so cached entries never expire.
type S3Resolver struct {
	client *minio.Client
	bucket string

	initOnce sync.Once
	initErr  error

	cache *lru.Cache[string, []byte]
}

func NewS3Resolver(cfg S3Config) (*S3Resolver, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("assets: s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("assets: s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("assets: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("assets: init s3 client: %w", err)
	}
	entries := cfg.CacheEntries
	if entries <= 0 {
		entries = 256
	}
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &S3Resolver{client: client, bucket: bucket, cache: cache}, nil
}

func (r *S3Resolver) ensureBucket(ctx context.Context) error {
	r.initOnce.Do(func() {
		exists, err := r.client.BucketExists(ctx, r.bucket)
		if err != nil {
			r.initErr = fmt.Errorf("assets: check bucket: %w", err)
			return
		}
		if !exists {
			r.initErr = r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{})
		}
	})
	return r.initErr
}

func (r *S3Resolver) Resolve(ctx context.Context, key string) ([]byte, error) {
	if b, ok := r.cache.Get(key); ok {
		return b, nil
	}
	if err := r.ensureBucket(ctx); err != nil {
		return nil, err
	}
	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("assets: get %q: %w", key, err)
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return nil, fmt.Errorf("assets: read %q: %w", key, err)
	}
	r.cache.Add(key, b)
	return b, nil
}

// Put stores an asset; used by upload paths and tests.
func (r *S3Resolver) Put(ctx context.Context, key string, b []byte) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("assets: put %q: %w", key, err)
	}
	r.cache.Add(key, b)
	return nil
}

// MemoryResolver is an in-process resolver for local runs and tests.
type MemoryResolver struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{data: make(map[string][]byte)}
}

func (m *MemoryResolver) Put(key string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
}

func (m *MemoryResolver) Resolve(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return b, nil
}
