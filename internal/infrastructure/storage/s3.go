package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/devstudio/site-api/internal/domain"
)

type S3Config struct {
	Endpoint        string // empty => AWS default
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool   // MinIO
	PublicBaseURL   string // CDN or bucket URL prefix for returned links
	KeyPrefix       string // e.g. "uploads/"
}

// objectAPI is the slice of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Store keeps profile uploads in an S3 compatible bucket (UPLOAD_BACKEND=s3).
type S3Store struct {
	api        objectAPI
	bucket     string
	prefix     string
	publicBase string
	log        zerolog.Logger
}

func NewS3Store(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3Store(client, cfg, log), nil
}

func newS3Store(api objectAPI, cfg S3Config, log zerolog.Logger) *S3Store {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Store{
		api:        api,
		bucket:     cfg.Bucket,
		prefix:     cfg.KeyPrefix,
		publicBase: base,
		log:        log.With().Str("component", "s3_store").Logger(),
	}
}

// Put uploads r under key and returns its public URL.
func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	objectKey := s.prefix + key
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          r,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", domain.ErrStorageUnavailable(fmt.Errorf("failed to put object %s: %w", objectKey, err))
	}
	return s.PublicURL(objectKey), nil
}

// Delete removes the object stored under key. S3 treats a missing key as deleted.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	objectKey := s.prefix + key
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return domain.ErrStorageUnavailable(fmt.Errorf("failed to delete object %s: %w", objectKey, err))
	}
	return nil
}

// PublicURL returns the public URL for an object key.
func (s *S3Store) PublicURL(objectKey string) string {
	return s.publicBase + "/" + objectKey
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}
	s.log.Info().Str("bucket", s.bucket).Msg("creating bucket")
	if _, err := s.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Ping backs the readiness probe.
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return domain.ErrStorageUnavailable(err)
	}
	return nil
}
