package repository

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	s3config "uploadwatch/internal/config"
)

// ObjectRepository reads uploaded objects from S3-compatible storage. The
// bucket is taken per call from the notification, never from configuration:
// this service reacts to uploads made by others and owns no bucket itself.
type ObjectRepository interface {
	FetchObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type objectRepository struct {
	client *s3.Client
	log    *zap.Logger
}

func NewObjectRepository(cfg *s3config.S3Config, log *zap.Logger) (ObjectRepository, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			scheme := "http"
			if cfg.UseSSL {
				scheme = "https"
			}
			return aws.Endpoint{
				URL:               scheme + "://" + cfg.Endpoint,
				HostnameImmutable: true,
				Source:            aws.EndpointSourceCustom,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithEndpointResolverWithOptions(customResolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &objectRepository{
		client: client,
		log:    log,
	}, nil
}

func (r *objectRepository) FetchObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	output, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		r.log.Error("Failed to fetch object",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return nil, err
	}

	return output.Body, nil
}
