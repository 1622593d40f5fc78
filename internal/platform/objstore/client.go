// Package objstore backs up infrastructure state to an S3-compatible
// bucket. Google Cloud Storage is addressed through its S3 interoperability
// endpoint, so the same client also works against MinIO in tests.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/skylift/skylift/internal/state"
)

const putTimeout = 30 * time.Second

// Client wraps an S3-compatible object storage endpoint.
type Client struct {
	s3     *s3.Client
	bucket string
	key    string
}

// NewClient creates a client for the given endpoint and bucket.
func NewClient(endpoint, region, accessKey, secretKey, bucket, key string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("loading object storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Client{s3: client, bucket: bucket, key: key}, nil
}

var _ state.RestoringBackup = (*Client)(nil)

// EnsureBucket creates the backup bucket if it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		if isBucketAlreadyOwned(err) {
			return nil
		}
		return fmt.Errorf("creating bucket %s: %w", c.bucket, err)
	}
	return nil
}

// Put uploads a state snapshot, implementing state.Backup.
func (c *Client) Put(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
	defer cancel()

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(c.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to bucket %s: %w", c.key, c.bucket, err)
	}
	return nil
}

// Fetch downloads the most recent state snapshot, implementing
// state.RestoringBackup. A bucket without a snapshot reports
// state.ErrSnapshotMissing.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key),
	})
	if err != nil {
		if isNoSnapshot(err) {
			return nil, state.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("fetching %s from bucket %s: %w", c.key, c.bucket, err)
	}
	defer func() { _ = result.Body.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("reading snapshot body: %w", err)
	}
	return buf.Bytes(), nil
}

func isNoSnapshot(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}

	return false
}

func isBucketAlreadyOwned(err error) bool {
	if err == nil {
		return false
	}

	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return true
	}
	var exists *types.BucketAlreadyExists
	if errors.As(err, &exists) {
		return true
	}

	// S3-compatible services do not always return the typed errors.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}

	return false
}
