package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pillarhealth/clinic-api/internal/config"
)

// S3Client is the subset of the S3 API the uploader needs; tests swap
// in a fake.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client S3Client
	bucket string
	region string
}

func NewUploader(cfg *config.Config) *Uploader {
	client := s3.New(s3.Options{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		),
	})

	return &Uploader{
		client: client,
		bucket: cfg.S3Bucket,
		region: cfg.S3Region,
	}
}

func NewUploaderWithClient(client S3Client, bucket, region string) *Uploader {
	return &Uploader{client: client, bucket: bucket, region: region}
}

// Upload stores the object and returns its public URL.
func (u *Uploader) Upload(
	ctx context.Context,
	key string,
	contentType string,
	body []byte,
) (string, error) {

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}
