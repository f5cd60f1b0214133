// Package s3 stores image bytes in an S3-compatible bucket (AWS S3 or
// MinIO). Keys map to object keys directly.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/imagestore"
)

// API is the subset of *s3.Client the store calls.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; set for MinIO and other compatible servers
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	PathStyle       bool
}

type Store struct {
	client API
	bucket string
}

// New builds a client from cfg and the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket), nil
}

func NewWithClient(client API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := imagestore.NewKey(prefix, mimeType)
	if mimeType == "" {
		mimeType = imagestore.ExtToMimeType(key)
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(mimeType),
	}); err != nil {
		return "", fmt.Errorf("failed to put image %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(storageKey)})
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("image %s: %w", storageKey, domain.ErrImageNotFound)
		}
		return nil, "", fmt.Errorf("failed to get image %s: %w", storageKey, err)
	}
	mimeType := aws.ToString(out.ContentType)
	if mimeType == "" {
		mimeType = imagestore.ExtToMimeType(storageKey)
	}
	return out.Body, mimeType, nil
}

// Delete heads the object first because S3 deletes of missing keys succeed.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(storageKey)}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("image %s: %w", storageKey, domain.ErrImageNotFound)
		}
		return fmt.Errorf("failed to head image %s: %w", storageKey, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(storageKey)}); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", storageKey, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
