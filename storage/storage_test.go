package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vardhan998997/visual-product-matcer/media"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1699999999/visual-product-matcher/shoe.jpg", "visual-product-matcher/shoe"},
		{"https://res.cloudinary.com/demo/image/upload/visual-product-matcher/nested/shoe.png", "visual-product-matcher/nested/shoe"},
		{"https://res.cloudinary.com/demo/image/upload/v12/shoe", "shoe"},
		{"https://res.cloudinary.com/demo/image/upload/vintage/shoe.jpg", "vintage/shoe"},
		{"https://res.cloudinary.com/demo/image/upload/v12", ""},
		{"https://res.cloudinary.com/demo/image/fetch/shoe.jpg", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublicIDFromURL(tt.url), tt.url)
	}
}

type fakeCloudinary struct {
	uploaded  interface{}
	folder    string
	destroyed []string
	uploadErr string
}

func (f *fakeCloudinary) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploaded = file
	f.folder = params.Folder
	res := &uploader.UploadResult{
		PublicID:  params.Folder + "/abc",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/" + params.Folder + "/abc.jpg",
	}
	res.Error.Message = f.uploadErr
	return res, nil
}

func (f *fakeCloudinary) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryStore_Upload(t *testing.T) {
	api := &fakeCloudinary{}
	store := &CloudinaryStore{api: api, folder: "visual-product-matcher"}

	asset, err := store.Upload(context.Background(), Upload{Ref: "https://example.com/shoe.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/shoe.jpg", api.uploaded)
	assert.Equal(t, "visual-product-matcher", api.folder)
	assert.Equal(t, "visual-product-matcher/abc", asset.ID)

	_, err = store.Upload(context.Background(), Upload{Reader: strings.NewReader("bytes")})
	require.NoError(t, err)
	_, isReader := api.uploaded.(io.Reader)
	assert.True(t, isReader)

	api.uploadErr = "Invalid image file"
	_, err = store.Upload(context.Background(), Upload{Ref: "data:image/png;base64,AAAA"})
	assert.ErrorContains(t, err, "Invalid image file")

	_, err = store.Upload(context.Background(), Upload{})
	assert.Error(t, err)
}

func TestCloudinaryStore_DeleteOnlyManagedURLs(t *testing.T) {
	api := &fakeCloudinary{}
	store := &CloudinaryStore{api: api}

	err := store.Delete(context.Background(), "https://images.example.com/shoe.jpg")
	assert.ErrorIs(t, err, ErrNotManaged)

	err = store.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/v5/visual-product-matcher/shoe.webp")
	require.NoError(t, err)
	assert.Equal(t, []string{"visual-product-matcher/shoe"}, api.destroyed)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	err     error
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	return &manager.UploadOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, ref string) (*media.InlineImage, error) {
	if ref == "bad" {
		return nil, media.ErrUnsupported
	}
	return &media.InlineImage{MimeType: "image/png", Data: []byte("png")}, nil
}

func newTestS3Store(api *fakeS3) *S3Store {
	return &S3Store{
		uploader: api,
		deleter:  api,
		resolver: fakeResolver{},
		cfg: S3Config{
			Bucket:        "matcher",
			Prefix:        "products/",
			PublicBaseURL: "http://localhost:4566/matcher",
		},
	}
}

func TestS3Store_UploadAndDeleteRoundTrip(t *testing.T) {
	api := &fakeS3{}
	store := newTestS3Store(api)

	asset, err := store.Upload(context.Background(), Upload{Ref: "https://example.com/a"})
	require.NoError(t, err)
	require.Len(t, api.puts, 1)
	assert.Equal(t, "image/png", *api.puts[0].ContentType)
	assert.True(t, strings.HasPrefix(asset.ID, "products/"))
	assert.True(t, strings.HasSuffix(asset.ID, ".png"))
	assert.Equal(t, "http://localhost:4566/matcher/"+asset.ID, asset.URL)

	require.NoError(t, store.Delete(context.Background(), asset.URL))
	assert.Equal(t, []string{asset.ID}, api.deletes)

	assert.ErrorIs(t, store.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/a.jpg"), ErrNotManaged)
}

func TestS3Store_UploadErrors(t *testing.T) {
	store := newTestS3Store(&fakeS3{})
	_, err := store.Upload(context.Background(), Upload{Ref: "bad"})
	assert.ErrorIs(t, err, media.ErrUnsupported)

	store = newTestS3Store(&fakeS3{err: errors.New("AccessDenied")})
	_, err = store.Upload(context.Background(), Upload{Reader: strings.NewReader("x"), Filename: "a.JPG"})
	assert.ErrorContains(t, err, "AccessDenied")
}
