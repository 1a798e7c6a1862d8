package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"storyboard-backend/internal/config"
)

const s3KeyPrefix = "storyboard/assets/"

// S3Store uploads assets to a bucket and hands out presigned GET URLs.
type S3Store struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	expiry    time.Duration
	thumbSize int
	logger    *zap.Logger
}

// NewS3Store S3 설정으로 스토어 생성. 정적 키가 없으면 기본 자격 증명 체인 사용
func NewS3Store(ctx context.Context, cfg config.S3Config, thumbSize int, logger *zap.Logger) (*S3Store, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewS3StoreFromClient(s3.NewFromConfig(awsCfg), cfg.BucketName, cfg.PresignExpiry, thumbSize, logger), nil
}

// NewS3StoreFromClient wraps an existing client.
func NewS3StoreFromClient(client *s3.Client, bucket string, expiry time.Duration, thumbSize int, logger *zap.Logger) *S3Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &S3Store{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    bucket,
		expiry:    expiry,
		thumbSize: thumbSize,
		logger:    logger,
	}
}

// Store uploads the file (and a thumbnail when one can be made).
func (s *S3Store) Store(ctx context.Context, up Upload) (*StoredFile, error) {
	name, contentType, err := inspect(up)
	if err != nil {
		return nil, err
	}

	key := s3KeyPrefix + name
	if err := s.put(ctx, key, up.Data, contentType); err != nil {
		return nil, err
	}
	url, err := s.presignGet(ctx, key)
	if err != nil {
		return nil, err
	}

	out := &StoredFile{
		URL:          url,
		Filename:     name,
		ThumbnailURL: url,
		ContentType:  contentType,
		Size:         int64(len(up.Data)),
	}

	if data, ok := thumbnail(up.Data, name, s.thumbSize); ok {
		thumbKey := s3KeyPrefix + thumbnailName(name)
		if err := s.put(ctx, thumbKey, data, contentType); err != nil {
			s.logger.Warn("failed to upload thumbnail", zap.String("key", thumbKey), zap.Error(err))
		} else if turl, err := s.presignGet(ctx, thumbKey); err == nil {
			out.ThumbnailURL = turl
		}
	}

	s.logger.Info("file uploaded to s3", zap.String("bucket", s.bucket), zap.String("key", key))
	return out, nil
}

func (s *S3Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

func (s *S3Store) presignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign url: %w", err)
	}
	return req.URL, nil
}
