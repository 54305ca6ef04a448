package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/objectstore"
	"jan-server/services/consent-api/internal/infrastructure/metrics"
)

const backendS3 = "s3"

var errStorageDisabled = errors.New("recording storage backend is not configured; set CONSENT_S3_* to enable uploads")

// S3Storage stores recordings and the ledger in an S3-compatible bucket.
type S3Storage struct {
	bucket    string
	region    string
	endpoint  string
	pathStyle bool
	client    *s3.Client
	log       zerolog.Logger
	disabled  bool
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		endpoint:  strings.TrimSuffix(firstNonEmpty(cfg.S3PublicEndpoint, cfg.S3Endpoint), "/"),
		pathStyle: cfg.S3UsePathStyle,
		log:       logger,
	}

	if cfg.S3Bucket == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
		logger.Warn().Msg("CONSENT_S3_BUCKET or credentials are not set; uploads will be disabled until configured")
		storage.disabled = true
		return storage, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	logger.Info().
		Str("bucket", cfg.S3Bucket).
		Str("region", cfg.S3Region).
		Str("endpoint", cfg.S3Endpoint).
		Msg("s3 storage initialized")

	return storage, nil
}

func (s *S3Storage) ensureEnabled() error {
	if s.disabled {
		return errStorageDisabled
	}
	return nil
}

// Put uploads data in a single request and returns the object URL.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := s.ensureEnabled(); err != nil {
		return "", err
	}

	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	metrics.RecordStorageOperation(backendS3, "put", status(err), time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("object stored")
	return s.ObjectURL(key), nil
}

// Get downloads an object. A missing key wraps objectstore.ErrNotFound; any
// other failure is returned as is.
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			metrics.RecordStorageOperation(backendS3, "get", "not_found", time.Since(start).Seconds())
			return nil, fmt.Errorf("get object %s: %w", key, objectstore.ErrNotFound)
		}
		metrics.RecordStorageOperation(backendS3, "get", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	metrics.RecordStorageOperation(backendS3, "get", status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// ObjectURL returns the address of key, honoring a public endpoint override.
func (s *S3Storage) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if s.endpoint != "" {
		if s.pathStyle {
			return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escaped)
		}
		if u, err := url.Parse(s.endpoint); err == nil && u.Host != "" {
			u.Host = s.bucket + "." + u.Host
			return strings.TrimSuffix(u.String(), "/") + "/" + escaped
		}
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

// Health performs a simple HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return errStorageDisabled
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
