package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/maymar/testimonials/internal/media"
)

var _ media.Host = (*Storage)(nil)

// Storage is an S3-compatible media host. Objects are expected to be publicly
// readable under PublicURL.
type Storage struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	folder    string
	publicURL string
}

type Config struct {
	Endpoint  string
	PublicURL string // falls back to {Endpoint}/{Bucket}
	Bucket    string
	Folder    string
	AccessKey string
	SecretKey string
	Region    string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Region == "" {
		cfg.Region = "eu-central-1"
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	if cfg.Folder == "" {
		cfg.Folder = media.DefaultFolder
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &Storage{
		client:    client,
		uploader:  uploader,
		bucket:    cfg.Bucket,
		folder:    strings.Trim(cfg.Folder, "/"),
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Upload stores the video under a fresh key and returns its public URL.
func (s *Storage) Upload(ctx context.Context, u media.Upload) (media.Asset, error) {
	if s == nil {
		return media.Asset{}, media.ErrNotConfigured
	}

	key := s.objectKey(u.ContentType)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        u.Body,
		ContentType: aws.String(u.ContentType),
	}
	if u.Name != "" {
		input.ContentDisposition = aws.String(fmt.Sprintf(`inline; filename="%s"`, sanitizeFilename(u.Name)))
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return media.Asset{}, fmt.Errorf("upload object %s: %w", key, err)
	}

	return media.Asset{URL: s.publicURL + "/" + key}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}

	return nil
}

func (s *Storage) objectKey(contentType string) string {
	return fmt.Sprintf("%s/%s%s", s.folder, uuid.NewString(), extensionForContentType(contentType))
}

func extensionForContentType(ct string) string {
	switch strings.ToLower(ct) {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	case "video/x-msvideo":
		return ".avi"
	case "video/x-matroska":
		return ".mkv"
	default:
		return ""
	}
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '"' || r == '\\' || r < 0x20 {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
