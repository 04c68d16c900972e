package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"

	pkgerrors "plategate/pkg/errors"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	Gzip     bool
	Timeout  time.Duration
	Sanitize bool
}

// S3Store writes areas as key prefixes in a bucket. Keys are
// <prefix>/<area dir>/<name>.
type S3Store struct {
	client S3API
	opts   S3Options
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// writes are not retried, a failed part is logged and dropped
		o.RetryMaxAttempts = 1
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, opts), nil
}

func NewS3StoreWithClient(client S3API, opts S3Options) *S3Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &S3Store{client: client, opts: opts}
}

func (s *S3Store) Key(area Area, name string) string {
	return path.Join(s.opts.Prefix, area.Dir(), name)
}

func (s *S3Store) Put(ctx context.Context, area Area, name string, data []byte) (string, error) {
	if s.opts.Sanitize {
		if err := checkName(name); err != nil {
			return "", err
		}
	}

	key := s.Key(area, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}

	body := data
	if s.opts.Gzip {
		compressed, err := gzipBytes(data)
		if err != nil {
			return "", pkgerrors.ErrStorage.WithCause(err)
		}
		body = compressed
		input.ContentEncoding = aws.String("gzip")
	}
	input.Body = bytes.NewReader(body)
	input.ContentLength = aws.Int64(int64(len(body)))

	putCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if _, err := s.client.PutObject(putCtx, input); err != nil {
		return "", pkgerrors.ErrStorage.WithCause(err).WithDetail("key", key)
	}
	return fmt.Sprintf("s3://%s/%s", s.opts.Bucket, key), nil
}

// Name implements health.Checker.
func (s *S3Store) Name() string {
	return "storage"
}

// Check implements health.Checker.
func (s *S3Store) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.opts.Bucket)}); err != nil {
		return fmt.Errorf("s3 head bucket failed: %w", err)
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
