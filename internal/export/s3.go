package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config locates the bucket exports are uploaded to.
type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

// UploadResult describes an uploaded export.
type UploadResult struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Location   string    `json:"location"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores export files in S3.
type S3Uploader struct {
	client putObjectAPI
	bucket string
	region string
	prefix string
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		region: awsCfg.Region,
		prefix: cfg.Prefix,
	}, nil
}

// Upload stores data under prefix/name.
func (u *S3Uploader) Upload(ctx context.Context, name string, data []byte, f Format) (*UploadResult, error) {
	key := strings.TrimPrefix(path.Join(u.prefix, name), "/")

	out, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(f.ContentType()),
		Metadata: map[string]string{
			"uploaded-by": "event-scout",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	etag := ""
	if out.ETag != nil {
		etag = strings.Trim(*out.ETag, `"`)
	}
	return &UploadResult{
		Bucket:     u.bucket,
		Key:        key,
		Location:   fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key),
		ETag:       etag,
		Size:       int64(len(data)),
		UploadedAt: time.Now().UTC(),
	}, nil
}
