package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"dailybread/internal/logging"
)

// s3API is the subset of *s3.Client used by S3.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config names the bucket and URL layout.
type S3Config struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
}

// S3 uploads objects to an S3 bucket.
type S3 struct {
	api    s3API
	cfg    S3Config
	logger *slog.Logger
}

// NewS3 wraps api. When PublicBaseURL is empty, URLs use the bucket's
// virtual-hosted endpoint.
func NewS3(api s3API, cfg S3Config, logger *slog.Logger) (*S3, error) {
	if api == nil {
		return nil, fmt.Errorf("storage: s3 api must not be nil")
	}
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: s3 bucket is required")
	}
	cfg.Prefix = strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if strings.TrimSpace(cfg.PublicBaseURL) == "" {
		if cfg.Region != "" {
			cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		} else {
			cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &S3{api: api, cfg: cfg, logger: logging.NewComponentLogger(logger, "storage")}, nil
}

// NewS3FromConfig loads the default AWS configuration and returns an S3 uploader.
func NewS3FromConfig(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg, logger)
}

func (s *S3) objectKey(key string) string {
	if s.cfg.Prefix == "" {
		return key
	}
	return s.cfg.Prefix + "/" + key
}

// Upload implements Uploader.
func (s *S3) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	key, err := validateKey(key)
	if err != nil {
		return "", err
	}
	objectKey := s.objectKey(key)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("storage: put s3://%s/%s: %w", s.cfg.Bucket, objectKey, err)
	}
	s.logger.Debug("object uploaded",
		logging.String("bucket", s.cfg.Bucket),
		logging.String("key", objectKey),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return publicURL(s.cfg.PublicBaseURL, objectKey), nil
}
