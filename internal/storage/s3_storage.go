package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// IObjectStorage defines the interface for the image bucket. The bucket is an
// S3-compatible OSS endpoint, addressed through the aws-sdk s3 client.
type IObjectStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	// KeyFromURL derives the object key from a public image URL, rejecting
	// URLs outside the allowed hosts or containing path tricks.
	KeyFromURL(imageURL string) (string, error)
}

// objectStorage implements IObjectStorage.
type objectStorage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewObjectStorage creates the storage service against the configured endpoint.
func NewObjectStorage(cfg *config.Config) (IObjectStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.OssRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.OssAccessKeyID,
			cfg.OssAccessKeySecret,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.OssEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.OssEndpoint)
		}
	})

	return &objectStorage{cfg: cfg, s3Client: s3Client}, nil
}

func (s *objectStorage) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.OssBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

func (s *objectStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.OssBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %s: %w", key, err)
	}
	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return data, contentType, nil
}

func (s *objectStorage) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.OssBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL builds the public address for a key. Prefers the configured CDN
// base; falls back to composing from the endpoint, virtual-hosted style.
func (s *objectStorage) PublicURL(key string) string {
	if s.cfg.OssPublicBaseURL != "" {
		return strings.TrimRight(s.cfg.OssPublicBaseURL, "/") + "/" + key
	}
	ep := strings.TrimRight(s.cfg.OssEndpoint, "/")
	host := strings.TrimPrefix(strings.TrimPrefix(ep, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.cfg.OssBucket, host, key)
}

func (s *objectStorage) KeyFromURL(imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("invalid url")
	}

	allowed := false
	for _, host := range s.cfg.OssAllowedHosts {
		if u.Hostname() == host {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("forbidden host: %s", u.Hostname())
	}

	key := strings.TrimLeft(u.Path, "/")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid key")
	}
	return key, nil
}
