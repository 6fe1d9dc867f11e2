package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vardhan998997/visual-product-matcer/media"
)

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Deleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// RefResolver loads the bytes behind a remote or data URL.
type RefResolver interface {
	Resolve(ctx context.Context, ref string) (*media.InlineImage, error)
}

type S3Config struct {
	Bucket string
	Prefix string
	// PublicBaseURL is prepended to object keys to form image URLs, e.g. a CloudFront
	// domain or <endpoint>/<bucket> for path-style gateways.
	PublicBaseURL string
}

// S3Store keeps images as objects under one bucket prefix.
type S3Store struct {
	uploader s3Uploader
	deleter  s3Deleter
	resolver RefResolver
	cfg      S3Config
}

func NewS3Store(client *s3.Client, resolver RefResolver, cfg S3Config) *S3Store {
	return &S3Store{
		uploader: manager.NewUploader(client),
		deleter:  client,
		resolver: resolver,
		cfg:      cfg,
	}
}

func (s *S3Store) Upload(ctx context.Context, u Upload) (*Asset, error) {
	body := u.Reader
	contentType := u.ContentType
	if body == nil {
		if u.Ref == "" {
			return nil, errors.New("nothing to upload")
		}
		img, err := s.resolver.Resolve(ctx, u.Ref)
		if err != nil {
			return nil, fmt.Errorf("load image: %w", err)
		}
		body = bytes.NewReader(img.Data)
		contentType = img.MimeType
	}
	if contentType == "" {
		contentType = media.DefaultMimeType
	}

	key := s.cfg.Prefix + uuid.NewString() + extensionFor(u.Filename, contentType)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to s3: %w", err)
	}
	return &Asset{URL: s.urlFor(key), ID: key}, nil
}

func (s *S3Store) Delete(ctx context.Context, imageURL string) error {
	key := s.KeyFromURL(imageURL)
	if key == "" {
		return ErrNotManaged
	}
	_, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3 object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL returns the object key for URLs this store produced, "" otherwise.
func (s *S3Store) KeyFromURL(imageURL string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/"
	if !strings.HasPrefix(imageURL, base) {
		return ""
	}
	key := strings.TrimPrefix(imageURL, base)
	if !strings.HasPrefix(key, s.cfg.Prefix) {
		return ""
	}
	return key
}

func (s *S3Store) urlFor(key string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

func extensionFor(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return extensions[contentType]
}
