package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutAPI is the subset of the S3 client used by S3Sink.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads tables to Bucket under Prefix.
type S3Sink struct {
	Bucket string
	Prefix string
	client S3PutAPI
}

// NewS3Sink returns a sink writing to s3://bucket/prefix/<name>.
func NewS3Sink(client S3PutAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{
		Bucket: bucket,
		Prefix: prefix,
		client: client,
	}
}

// Key returns the object key a table name is stored under.
func (s *S3Sink) Key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return nil
}
