package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// PutObjectAPI is the subset of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores export files under Prefix in Bucket.
type Uploader struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, bucket, prefix string) (*Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &Uploader{Client: s3.NewFromConfig(cfg), Bucket: bucket, Prefix: prefix}, nil
}

// Key is the object key a file name is stored under.
func (u *Uploader) Key(name string) string {
	return path.Join(strings.Trim(u.Prefix, "/"), name)
}

// Upload writes data to the bucket and returns the object key.
func (u *Uploader) Upload(ctx context.Context, name string, f Format, data []byte) (string, error) {
	key := u.Key(name)
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(f.ContentType()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s to bucket %s: %w", key, u.Bucket, err)
	}
	log.WithFields(log.Fields{"bucket": u.Bucket, "key": key, "bytes": len(data)}).Info("export uploaded")
	return key, nil
}
