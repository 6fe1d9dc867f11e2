package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const cloudinaryHost = "res.cloudinary.com"

type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore keeps images in one Cloudinary folder.
type CloudinaryStore struct {
	api    cloudinaryAPI
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init error: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{api: &cld.Upload, folder: folder}, nil
}

// Upload streams the reader, or lets Cloudinary ingest Ref (remote or data URL)
// directly.
func (s *CloudinaryStore) Upload(ctx context.Context, u Upload) (*Asset, error) {
	var file interface{}
	switch {
	case u.Reader != nil:
		file = u.Reader
	case u.Ref != "":
		file = u.Ref
	default:
		return nil, errors.New("nothing to upload")
	}

	res, err := s.api.Upload(ctx, file, uploader.UploadParams{Folder: s.folder})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res == nil || res.Error.Message != "" {
		msg := "empty response"
		if res != nil {
			msg = res.Error.Message
		}
		return nil, fmt.Errorf("cloudinary upload: %s", msg)
	}
	if res.SecureURL == "" {
		return nil, errors.New("cloudinary upload: no secure url returned")
	}
	return &Asset{URL: res.SecureURL, ID: res.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, imageURL string) error {
	if !strings.Contains(imageURL, cloudinaryHost) {
		return ErrNotManaged
	}
	publicID := PublicIDFromURL(imageURL)
	if publicID == "" {
		return ErrNotManaged
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL extracts the public id from a delivery URL such as
// https://res.cloudinary.com/<cloud>/image/upload/v1699999999/<folder>/<name>.jpg.
// It returns "" when the URL has no upload segment.
func PublicIDFromURL(secureURL string) string {
	u, err := url.Parse(secureURL)
	if err != nil {
		return ""
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	uploadIdx := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIdx = i
			break
		}
	}
	if uploadIdx == -1 {
		return ""
	}

	rest := parts[uploadIdx+1:]
	if len(rest) > 0 && versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return ""
	}

	last := rest[len(rest)-1]
	rest[len(rest)-1] = strings.TrimSuffix(last, path.Ext(last))
	return strings.Join(rest, "/")
}
