package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Storage mirrors attachment files in an S3 compatible bucket (MinIO).
type Storage struct {
	cl     *minio.Client
	bucket string
	logger *zap.Logger
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}

	exists, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists: %w", err)
	}
	if !exists {
		logger.Info("creating bucket", zap.String("bucket", cfg.Bucket))
		if err := cl.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}
	return &Storage{cl: cl, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		s.logger.Warn("bucket check failed", zap.Error(err))
	}
	return err
}

// Put stores r under key. size may be -1 when unknown.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType, fileName string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if fileName != "" {
		opts.ContentDisposition = "attachment; filename*=UTF-8''" + url.PathEscape(fileName)
		opts.UserMetadata = map[string]string{"filename": fileName}
	}
	info, err := s.cl.PutObject(ctx, s.bucket, key, r, size, opts)
	if err != nil {
		s.logger.Warn("put failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: put %s: %v", domain.ErrUnexpected, key, err)
	}
	s.logger.Debug("put ok", zap.String("key", key), zap.Int64("size", info.Size))
	return nil
}

// Get opens key for reading. A missing object is domain.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, domain.BlobInfo, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, domain.BlobInfo{}, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, domain.BlobInfo{}, fmt.Errorf("%w: stat %s: %v", domain.ErrUnexpected, key, err)
	}
	obj, err := s.cl.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, domain.BlobInfo{}, fmt.Errorf("%w: get %s: %v", domain.ErrUnexpected, key, err)
	}
	bi := domain.BlobInfo{
		Size:        info.Size,
		ContentType: info.ContentType,
		FileName:    info.UserMetadata["Filename"],
	}
	return obj, bi, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove %s: %v", domain.ErrUnexpected, key, err)
	}
	return nil
}

// DeletePrefix removes every object under prefix and returns how many.
func (s *Storage) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	objs := s.cl.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	n := 0
	for obj := range objs {
		if obj.Err != nil {
			return n, fmt.Errorf("%w: list %s: %v", domain.ErrUnexpected, prefix, obj.Err)
		}
		if err := s.Delete(ctx, obj.Key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Key builds an object key from path segments, escaping each one.
func Key(parts ...string) string {
	esc := make([]string, len(parts))
	for i, p := range parts {
		esc[i] = strings.ReplaceAll(url.PathEscape(p), "%2F", "_")
	}
	return strings.Join(esc, "/")
}
