package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultSessionObjectKey = "session.json"

// ObjectStoreConfig captures configuration for the object storage-backed
// session store.
type ObjectStoreConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	Prefix    string
	UseSSL    bool
	PathStyle bool
}

// ObjectStore persists the session as a JSON object in an S3-compatible
// bucket.
type ObjectStore struct {
	client *minio.Client
	cfg    ObjectStoreConfig
	mu     sync.Mutex
}

// NewObjectStore initializes an object storage backed session store and
// verifies the bucket exists.
func NewObjectStore(ctx context.Context, cfg ObjectStoreConfig) (*ObjectStore, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.AccessKey = strings.TrimSpace(cfg.AccessKey)
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object session store: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object session store: bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("object session store: credentials are required")
	}

	options := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		options.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(cfg.Endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("object session store: create client: %w", err)
	}

	s := &ObjectStore{client: client, cfg: cfg}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("object session store: check bucket: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("object session store: create bucket: %w", err)
		}
	}
	return s, nil
}

func (s *ObjectStore) objectKey() string {
	if s.cfg.Prefix != "" {
		return s.cfg.Prefix + "/" + defaultSessionObjectKey
	}
	return defaultSessionObjectKey
}

// Save uploads the session object, replacing any previous value.
func (s *ObjectStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("object session store: session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("object session store: marshal failed: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, s.objectKey(), bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("object session store: put failed: %w", err)
	}
	return nil
}

// Load downloads the session object, returning nil when none is stored.
func (s *ObjectStore) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	object, err := s.client.GetObject(ctx, s.cfg.Bucket, s.objectKey(), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("object session store: get failed: %w", err)
	}
	defer func() {
		_ = object.Close()
	}()

	raw, err := io.ReadAll(object)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("object session store: read failed: %w", err)
	}

	var sess Session
	if err = json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("object session store: parse failed: %w", err)
	}
	return &sess, nil
}

// Clear removes the session object.
func (s *ObjectStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.client.RemoveObject(ctx, s.cfg.Bucket, s.objectKey(), minio.RemoveObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("object session store: remove failed: %w", err)
	}
	return nil
}
