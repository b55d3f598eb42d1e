package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/OFFIS-RIT/claimgraph/pkg/loader"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GetObjectAPI is the subset of the S3 client the loader needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3FileLoader loads input files from an S3 bucket. The file Path is used
// as the object key.
type S3FileLoader struct {
	bucket string
	client GetObjectAPI
	cache  *loader.Cache
}

// NewS3FileLoaderWithClient creates a loader that reuses an existing client.
func NewS3FileLoaderWithClient(bucket string, client GetObjectAPI) *S3FileLoader {
	return &S3FileLoader{
		bucket: bucket,
		client: client,
		cache:  loader.NewCache(),
	}
}

// NewS3FileLoaderParams configures a loader with its own client.
// Endpoint allows S3-compatible storage such as MinIO.
type NewS3FileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3FileLoader(ctx context.Context, params NewS3FileLoaderParams) (*S3FileLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3FileLoaderWithClient(params.Bucket, client), nil
}

// GetFile downloads the object named by file.Path. Results are cached.
func (l *S3FileLoader) GetFile(ctx context.Context, file loader.InputFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.Path),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}
