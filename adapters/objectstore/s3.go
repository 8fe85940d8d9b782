// Package objectstore adapts the S3 API to the pipeline's read and write
// views of the frame store.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// S3API is the slice of the S3 client the adapter uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store performs single, non-retried object operations. Retry policy is
// owned by the call sites.
type S3Store struct {
	client S3API
	bucket string
	logger *zap.Logger
}

// NewS3Store creates a store bound to one bucket for writes. Fetch honors the
// bucket named by the storage event instead.
func NewS3Store(client S3API, bucket string, logger *zap.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

// Put writes one object under the given identity-scoped key.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	s.logger.Info("object written",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}

// Fetch retrieves a stored object named by a storage event.
func (s *S3Store) Fetch(ctx context.Context, bucket, key string) (*entities.StorageObject, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}

	lastModified := time.Now().UTC()
	if out.LastModified != nil {
		lastModified = *out.LastModified
	}

	return &entities.StorageObject{
		Bucket:       bucket,
		Key:          key,
		Data:         data,
		LastModified: lastModified,
	}, nil
}
