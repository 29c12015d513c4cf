// Package storage uploads staged media files to an S3-compatible bucket and
// returns the public URL stored on the account record.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/stream-user-service/internal/config"
	"github.com/iliyamo/stream-user-service/internal/logger"
)

// Uploader is the media-host surface handlers depend on.  It exists so
// handler tests can substitute a fake without an S3 endpoint.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// S3Uploader pushes files to a single bucket with random keys.
type S3Uploader struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewS3Uploader builds the S3 client from static credentials and a custom
// base endpoint so MinIO works the same as AWS.
func NewS3Uploader(cfg config.Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey, cfg.S3SecretKey, "")))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})
	return &S3Uploader{
		client:     client,
		bucket:     cfg.S3Bucket,
		publicBase: strings.TrimRight(cfg.S3PublicBase, "/"),
	}, nil
}

// objectKey builds a date-partitioned random key, keeping the original
// file extension so content type can be inferred later.
func objectKey(localPath string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s",
		d.Year(), d.Month(), d.Day(), uuid.New(), filepath.Ext(localPath))
}

// Upload puts the staged file into the bucket and returns its public URL.
// The staged file is left in place; callers own its cleanup.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := objectKey(localPath)
	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		logger.Log.Errorw("media upload failed", "key", key, "err", err)
		return "", err
	}
	return u.publicBase + "/" + key, nil
}

// Stage copies a multipart file into dir and returns its path.  Files are
// staged locally before the remote upload and removed by the caller once
// the upload attempt finishes, successful or not.
func Stage(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// Discard removes a staged file, logging rather than failing on error.
func Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Log.Warnw("staged file cleanup failed", "path", path, "err", err)
	}
}
