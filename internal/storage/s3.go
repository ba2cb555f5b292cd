package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectPutter is the part of *s3.Client the store uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures an S3Store. Endpoint and static credentials are only
// needed for S3-compatible services such as MinIO; otherwise the default AWS
// credential chain is used.
type S3Options struct {
	Bucket          string
	Region          string
	Prefix          string
	PublicURL       string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store writes media objects to a bucket.
type S3Store struct {
	client    objectPutter
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Store loads AWS configuration and returns a store for opts.Bucket.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		if opts.Endpoint != "" {
			publicURL = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}

	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		prefix:    strings.Trim(opts.Prefix, "/"),
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Put uploads data as a publicly cacheable object.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + s.objectKey(key)
}
