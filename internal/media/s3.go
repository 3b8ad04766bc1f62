// Package media pushes uploaded files to S3-compatible object storage and
// hands back their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	keyCharset       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength        = 16
	minMultipartSize = 12 << 20
)

// ErrNoFile is returned when Upload is called without a local path.
var ErrNoFile = errors.New("no file provided")

// Asset describes a file stored on the media host.
type Asset struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Uploader pushes a local file to the media host. The local file is removed
// whether or not the upload succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*Asset, error)
}

// S3Options configures the S3 client.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	KeyPrefix       string
}

// S3Uploader stores files in an S3 bucket.
type S3Uploader struct {
	client    *s3.Client
	bucket    *string
	publicURL string
	keyPrefix string
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3 builds the S3 client and checks that the bucket exists.
func NewS3(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	bucket := aws.String(opts.Bucket)

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", opts.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = defaultPublicURL(opts)
	}

	return &S3Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		keyPrefix: strings.Trim(opts.KeyPrefix, "/"),
	}, nil
}

func defaultPublicURL(opts S3Options) string {
	if opts.Endpoint != "" {
		return strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
}

// Upload stores the file under a random key and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (*Asset, error) {
	if localPath == "" {
		return nil, ErrNoFile
	}
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload, %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload, %w", err)
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect content type, %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("rewind upload, %w", err)
	}

	key, err := u.objectKey(localPath, mime)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:        u.bucket,
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(mime.String()),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	if stat.Size() > minMultipartSize {
		uploader := manager.NewUploader(u.client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = u.client.PutObject(ctx, input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upload to s3, %w", err)
	}

	zap.L().Debug("Uploaded media", zap.String("key", key), zap.Int64("size", stat.Size()))

	return &Asset{
		Key:         key,
		URL:         u.publicURL + "/" + key,
		ContentType: mime.String(),
		Size:        stat.Size(),
	}, nil
}

func (u *S3Uploader) objectKey(localPath string, mime *mimetype.MIME) (string, error) {
	id, err := gonanoid.Generate(keyCharset, keyLength)
	if err != nil {
		return "", fmt.Errorf("generate object key, %w", err)
	}

	ext := mime.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(localPath))
	}

	key := id + ext
	if u.keyPrefix != "" {
		key = u.keyPrefix + "/" + key
	}
	return key, nil
}
