package export

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// S3Config holds S3 storage backend configuration.
type S3Config struct {
	// Bucket is the target bucket (required).
	Bucket string
	// Prefix is an optional key prefix within the bucket.
	Prefix string
	// Region is the bucket region; empty uses the SDK default chain.
	Region string
}

// Validate checks that the required S3 fields are set.
func (c S3Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("export: s3 bucket is required")
	}
	return nil
}

// NewS3Factory builds a Lode store factory backed by S3.
// Uses the AWS SDK default credential chain (env vars, shared config, IAM role).
func NewS3Factory(s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig)

	return func() (lode.Store, error) {
		return lodes3.New(s3Client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}, nil
}

// NewS3Client creates a Lode client with S3 storage.
func NewS3Client(cfg Config, s3cfg S3Config) (*LodeClient, error) {
	factory, err := NewS3Factory(s3cfg)
	if err != nil {
		return nil, err
	}
	return NewLodeClientWithFactory(cfg, factory)
}
