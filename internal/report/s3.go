package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrMissingCredentials is returned when the AWS credential variables are
// not set.
var ErrMissingCredentials = errors.New("report: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")

const defaultRegion = "us-east-1"

// S3Store stores reports in an S3 bucket.
//
// Example usage:
//
//	client, _ := report.NewS3ClientFromEnv()
//	store := report.NewS3Store(client, "my-bucket", "bench/")
//	loc, err := store.Put(ctx, "run.json", "application/json", r)
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates a store that writes to bucket under prefix.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Put uploads r as prefix+name and returns its s3:// location.
func (s *S3Store) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := s.prefix + name
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		Metadata: map[string]string{
			"generator":   "guisync",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// NewS3ClientFromEnv builds an S3 client from the standard AWS environment
// variables.
func NewS3ClientFromEnv() (*s3.Client, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return nil, ErrMissingCredentials
	}
	creds := aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}
	cfg := aws.Config{
		Region: region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		)),
	}

	endpoint := os.Getenv("AWS_ENDPOINT_URL_S3")
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
