// Package storage is the blob-store boundary: uploading photo bytes to S3
// (or any S3-compatible service such as MinIO) and issuing time-limited
// signed URLs for viewing them.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultViewExpiry is how long a signed view URL stays valid.
const DefaultViewExpiry = time.Hour

// Options configures NewS3Store.
type Options struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint (e.g. http://minio:9000).
	// A custom endpoint also switches to path-style addressing.
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials.
	// When empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// objectWriter is the subset of *s3.Client used for writes.
type objectWriter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// objectPresigner is the subset of *s3.PresignClient used for view URLs.
type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store stores photo bytes in a single bucket.
type S3Store struct {
	bucket    string
	client    objectWriter
	presigner objectPresigner
}

// NewS3Store loads AWS configuration and builds a store for opts.Bucket.
// No network calls are made until the first Put.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewS3Store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreFromClient(client, opts.Bucket), nil
}

// NewS3StoreFromClient wraps an existing client. Tests use it with a client
// pointed at a fake endpoint; presigning needs no network.
func NewS3StoreFromClient(client *s3.Client, bucket string) *S3Store {
	return &S3Store{
		bucket:    bucket,
		client:    client,
		presigner: s3.NewPresignClient(client),
	}
}

// Put uploads body under key and returns the key to persist.
func (s *S3Store) Put(ctx context.Context, body []byte, contentType string, key ObjectKey) (string, error) {
	k := key.String()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(k),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("storage.S3Store.Put %s: %w", k, err)
	}
	return k, nil
}

// Delete removes the object at key. Deleting a missing key is not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage.S3Store.Delete %s: %w", key, err)
	}
	return nil
}

// SignForView returns a presigned GET URL for key valid for expiry.
func (s *S3Store) SignForView(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("storage.S3Store.SignForView %s: %w", key, err)
	}
	return req.URL, nil
}
