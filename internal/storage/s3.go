package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mkarlsen/kbingest/internal/domain"
)

// S3Config holds configuration for the S3 client.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
}

// S3Lister implements ObjectLister against Amazon S3.
type S3Lister struct {
	client *s3.Client
	region string
}

// NewS3Lister creates an S3-backed lister. When no static credentials are
// configured the default AWS credential chain applies.
func NewS3Lister(ctx context.Context, cfg *S3Config) (*S3Lister, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Lister{
		client: s3.NewFromConfig(awsCfg),
		region: region,
	}, nil
}

// List enumerates all objects under bucket/prefix, following continuation
// tokens until the backend reports no more pages.
func (s *S3Lister) List(ctx context.Context, bucket, prefix string) ([]domain.DocumentRef, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var refs []domain.DocumentRef
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			refs = append(refs, domain.DocumentRef{
				Bucket: bucket,
				Key:    aws.ToString(obj.Key),
				Size:   aws.ToInt64(obj.Size),
			})
		}
	}

	return refs, nil
}
