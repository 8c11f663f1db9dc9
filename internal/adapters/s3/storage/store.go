// Package storage implements the attachment store on S3 or any S3-compatible service.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
	"github.com/fieldops/fieldops-api/internal/ports/out/storage"
)

const Scheme = "s3"

type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, e.g. MinIO
	PathStyle bool

	// Static credentials; the default chain is used when empty.
	AccessKeyID     string
	SecretAccessKey string

	HTTPClient  s3.HTTPClient
	MaxAttempts int
}

// Store implements storage.Store on a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

var _ storage.Store = (*Store)(nil)

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
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
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		if cfg.MaxAttempts > 0 {
			o.RetryMaxAttempts = cfg.MaxAttempts
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Upload overwrites any existing object at the same key, so retries are safe.
func (s *Store) Upload(ctx context.Context, data []byte, p string) (storage.Location, error) {
	key, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return "", classify("storage.upload", err)
	}
	return storage.Location(fmt.Sprintf("%s://%s/%s", Scheme, s.bucket, key)), nil
}

func (s *Store) Delete(ctx context.Context, loc storage.Location) error {
	scheme, bucket, key, err := storage.SplitLocation(loc)
	if err != nil {
		return err
	}
	if scheme != Scheme || bucket != s.bucket {
		return fmt.Errorf("%w: location %q is not in bucket %s", storage.ErrInvalidPath, loc, s.bucket)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return classify("storage.delete", err)
	}
	return nil
}

type statusCoder interface{ HTTPStatusCode() int }

func isNotFound(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) && (ae.ErrorCode() == "NoSuchKey" || ae.ErrorCode() == "NotFound") {
		return true
	}
	var sc statusCoder
	return errors.As(err, &sc) && sc.HTTPStatusCode() == http.StatusNotFound
}

func classify(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "AccessDenied" {
		return fmt.Errorf("%s: %w: %v", op, storage.ErrForbidden, err)
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.HTTPStatusCode(); {
		case code == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, storage.ErrForbidden, err)
		case code == http.StatusTooManyRequests, code >= 500:
			return repoerr.Transient(op, err)
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return repoerr.Transient(op, err)
	}
	return err
}
