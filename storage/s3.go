package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Storage implements BlobStorage using AWS S3.
type S3Storage struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
}

// NewS3Storage creates a new S3 storage client using the default AWS
// credential chain.
func NewS3Storage(bucket, region string) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name cannot be empty")
	}
	if region == "" {
		return nil, fmt.Errorf("S3 region cannot be empty")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            bucket,
		presignExpiration: 15 * time.Minute,
	}, nil
}

// Upload stores data from the reader at the specified path.
func (s *S3Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	key, err := s3Key(path)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// Download retrieves data from the specified path.
func (s *S3Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := s3Key(path)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFoundError(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	return result.Body, nil
}

// Delete removes the data at the specified path.
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	key, err := s3Key(path)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFoundError(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// Exists checks if data exists at the specified path.
func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := s3Key(path)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check S3 object existence: %w", err)
	}

	return true, nil
}

// GetURL returns a presigned URL for accessing the data at the specified path.
func (s *S3Storage) GetURL(ctx context.Context, path string) (string, error) {
	key, err := s3Key(path)
	if err != nil {
		return "", err
	}

	exists, err := s.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrFileNotFound
	}

	presignResult, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignResult.URL, nil
}

// s3Key validates a path and converts it to an S3 object key. S3 has no
// filesystem semantics, but the same traversal rules as LocalStorage apply so
// both backends accept the same paths.
func s3Key(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}

	cleanPath := filepath.Clean(path)
	if cleanPath[0] == '.' {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidPath)
	}
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute paths not allowed", ErrInvalidPath)
	}

	return filepath.ToSlash(cleanPath), nil
}

// isS3NotFoundError checks if an error is an S3 "not found" error.
func isS3NotFoundError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
