// Package objstore moves run artifacts to and from an S3-compatible bucket.
package objstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/siqueiraa/FrameFlow/pkg/config"
)

// Client uploads files under a fixed key prefix.
type Client struct {
	bucket   string
	prefix   string
	s3       *s3.Client
	uploader *manager.Uploader
}

// New builds a client from static credentials. A custom endpoint switches to
// path-style addressing, as MinIO and most S3 clones expect.
func New(ctx context.Context, cfg config.S3Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		s3:       client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Key returns the object key name is stored under.
func (c *Client) Key(name string) string {
	return c.prefix + name
}

// Upload copies the local file to Key(name) and returns the object location.
func (c *Client) Upload(ctx context.Context, localPath, name string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	res, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.Key(name)),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", c.Key(name), err)
	}
	log.Printf("[S3] Uploaded %s to %s", localPath, res.Location)
	return res.Location, nil
}

// Open streams the object stored under Key(name). The caller closes it.
func (c *Client) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.Key(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.Key(name), err)
	}
	return resp.Body, nil
}
