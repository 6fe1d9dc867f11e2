// Package media turns image references (remote URLs and data URLs) into inline bytes.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMimeType = "image/jpeg"

var (
	ErrUnsupported = errors.New("unsupported image reference")
	ErrTooLarge    = errors.New("image too large")
)

// InlineImage is an image held in memory with its content type.
type InlineImage struct {
	MimeType string
	Data     []byte
}

func (i *InlineImage) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as data:<mime>;base64,<data>.
func (i *InlineImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MimeType, i.Base64())
}

var dataURLPattern = regexp.MustCompile(`(?s)^data:(.*?);base64,(.*)$`)

// ParseDataURL decodes a base64 data URL. A missing media type defaults to image/jpeg.
func ParseDataURL(s string) (*InlineImage, error) {
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, ErrUnsupported
	}
	payload := strings.TrimSpace(m[2])
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("%w: invalid base64 payload", ErrUnsupported)
		}
	}
	mimeType := m[1]
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &InlineImage{MimeType: mimeType, Data: data}, nil
}

// DetectMimeType prefers a declared content type and falls back to sniffing the bytes.
// Anything that still isn't an image is reported as image/jpeg.
func DetectMimeType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	if len(data) > 0 {
		if detected := mimetype.Detect(data); strings.HasPrefix(detected.String(), "image/") {
			return detected.String()
		}
	}
	return DefaultMimeType
}

// IsImage reports whether the bytes sniff as an image.
func IsImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}
