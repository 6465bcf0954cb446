// Package storage archives synthesized reply audio to an S3-compatible
// bucket, one object per logged response, keyed by log topic.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Client wraps S3 storage operations
type Client struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string // optional base URL for a public bucket
}

// NewClient creates a new S3 storage client. endpoint may point at an
// S3-compatible server such as MinIO.
func NewClient(endpoint, region, bucket, accessKey, secretKey, publicURL string) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	}
	if endpoint != "" {
		configOpts = append(configOpts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing and relaxed checksums for S3-compatible
	// backends that do not fully support CRC32 headers.
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	log.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Msg("S3 client initialized")

	return &Client{
		s3Client:  s3Client,
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

// ArchiveKey builds the object key for one archived reply, grouped per
// log topic.
func ArchiveKey(logTopic, agent, id string) string {
	return fmt.Sprintf("audio-logs/%s/agent_%s_%s.wav", logTopic, agent, id)
}

// PublicURL returns the public URL for an object key. Empty if publicURL
// was not configured.
func (c *Client) PublicURL(key string) string {
	if c.publicURL == "" {
		return ""
	}
	if c.publicURL[len(c.publicURL)-1] == '/' {
		return c.publicURL + key
	}
	return c.publicURL + "/" + key
}

// Upload uploads data to S3. contentLength must be > 0; S3-compatible
// backends require the Content-Length header.
func (c *Client) Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(contentLength),
	}
	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().
		Str("bucket", c.bucket).
		Str("key", key).
		Msg("Audio archived to S3")

	return nil
}

// GeneratePresignedURL generates a presigned URL for downloading an
// archived object.
func (c *Client) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.s3Client)

	req, err := presignClient.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return req.URL, nil
}
