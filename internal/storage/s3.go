package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Params configures the object storage client. Endpoint allows
// S3-compatible servers; PublicEndpoint is the address handed out in
// download links when it differs from the internal one.
type S3Params struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
}

func NewS3Client(ctx context.Context, params S3Params) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(params.Region),
	}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}
	if params.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// ListObjectsAPI is the subset of the S3 client used by ListFilesWithPrefix.
type ListObjectsAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func ListFilesWithPrefix(ctx context.Context, client ListObjectsAPI, bucket, prefix string) ([]string, error) {
	var keys []string
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listOutput, err := client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}

		for _, obj := range listOutput.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}

	return keys, nil
}

// GenerateDownloadLink presigns a GET for key that is valid for expires.
// When publicEndpoint is set the link is signed for that host, and a path
// prefix on it is kept in front of the object path.
func GenerateDownloadLink(
	ctx context.Context,
	baseClient *s3.Client,
	bucket string,
	publicEndpoint string,
	key string,
	expires time.Duration,
) (string, error) {
	if expires <= 0 {
		expires = 15 * time.Minute
	}

	presignClient := baseClient
	prefix := ""
	if publicEndpoint != "" {
		publicURL, err := url.Parse(publicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return "", fmt.Errorf("invalid public endpoint: %s", publicEndpoint)
		}
		prefix = strings.TrimSuffix(publicURL.Path, "/")
		publicBaseEndpoint := fmt.Sprintf("%s://%s", publicURL.Scheme, publicURL.Host)

		presignClient = s3.NewFromConfig(
			aws.Config{
				Region:      baseClient.Options().Region,
				Credentials: baseClient.Options().Credentials,
				HTTPClient:  baseClient.Options().HTTPClient,
			},
			func(o *s3.Options) {
				o.BaseEndpoint = aws.String(publicBaseEndpoint)
				o.UsePathStyle = true
			},
		)
	}

	out, err := s3.NewPresignClient(presignClient).PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expires),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}

	if prefix != "" {
		signedURL, parseErr := url.Parse(out.URL)
		if parseErr != nil {
			return "", fmt.Errorf("failed to parse presigned url: %w", parseErr)
		}
		signedURL.Path = prefix + signedURL.Path
		return signedURL.String(), nil
	}

	return out.URL, nil
}

// ParseURI splits s3://bucket/some/prefix into bucket and prefix.
func ParseURI(uri string) (bucket string, prefix string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// IsURI reports whether s names an S3 location.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// RunPrefix is the key prefix under which a run's exports are stored.
func RunPrefix(runID string) string {
	return "runs/" + runID
}
