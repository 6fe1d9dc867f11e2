package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultMaxBytes = 10 << 20

// FetchError is returned when a remote image could not be downloaded. StatusCode is
// zero for transport failures.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch image (%d)", e.StatusCode)
	}
	return "Failed to fetch image"
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(client *http.Client, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch downloads url and returns its bytes and content type.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*InlineImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &FetchError{Err: ErrTooLarge}
	}

	return &InlineImage{
		MimeType: DetectMimeType(resp.Header.Get("Content-Type"), data),
		Data:     data,
	}, nil
}

// Resolve loads an image reference: http(s) URLs are fetched, data URLs decoded.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (*InlineImage, error) {
	switch {
	case strings.HasPrefix(ref, "http"):
		return f.Fetch(ctx, ref)
	case strings.HasPrefix(ref, "data:"):
		return ParseDataURL(ref)
	default:
		return nil, ErrUnsupported
	}
}
