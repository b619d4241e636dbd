package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Signer produces presigned blob-store URLs.
type Signer interface {
	UploadURL(ctx context.Context, key, contentType string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

// S3Signer implements Signer against an S3 bucket.
type S3Signer struct {
	svc    *s3.S3
	bucket string
	expiry time.Duration
}

// S3Config holds the credentials and bucket for an S3Signer.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewS3Signer creates a Signer for the configured bucket.
func NewS3Signer(cfg S3Config, expiry time.Duration) (*S3Signer, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}

	return &S3Signer{
		svc:    s3.New(sess),
		bucket: cfg.Bucket,
		expiry: expiry,
	}, nil
}

// UploadURL returns a presigned PUT URL for the key.
func (s *S3Signer) UploadURL(ctx context.Context, key, contentType string) (string, error) {
	req, _ := s.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	req.SetContext(ctx)

	url, err := req.Presign(s.expiry)
	if err != nil {
		return "", fmt.Errorf("presigning upload URL: %w", err)
	}
	return url, nil
}

// DownloadURL returns a presigned GET URL for the key.
func (s *S3Signer) DownloadURL(ctx context.Context, key string) (string, error) {
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	url, err := req.Presign(s.expiry)
	if err != nil {
		return "", fmt.Errorf("presigning download URL: %w", err)
	}
	return url, nil
}
