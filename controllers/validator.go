package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/services"
	"github.com/vardhan998997/visual-product-matcer/storage"
)

const (
	MaxUploadSize      = 10 << 20
	maxMultipartMemory = 32 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
}

// createProductForm is the multipart body of POST /products. Tags and colors are comma
// separated.
type createProductForm struct {
	Name        string `form:"name" validate:"max=200"`
	Category    string `form:"category" validate:"max=100"`
	Description string `form:"description" validate:"max=2000"`
	Tags        string `form:"tags" validate:"max=1000"`
	Colors      string `form:"colors" validate:"max=500"`
	Brand       string `form:"brand" validate:"max=100"`
	ImageURL    string `form:"imageUrl"`
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

func (rv *RequestValidator) Struct(v interface{}) error {
	return rv.validate.Struct(v)
}

// ParseCreateProductRequest reads the multipart form. The returned closer releases the
// uploaded file and is never nil.
func (rv *RequestValidator) ParseCreateProductRequest(c *gin.Context) (services.CreateProductRequest, io.Closer, error) {
	noop := io.NopCloser(nil)

	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return services.CreateProductRequest{}, noop, apperrors.BadRequest("Invalid multipart form")
		}
	}

	var form createProductForm
	if err := c.ShouldBind(&form); err != nil {
		return services.CreateProductRequest{}, noop, apperrors.BadRequest("Invalid form data")
	}
	if err := rv.validate.Struct(&form); err != nil {
		return services.CreateProductRequest{}, noop, apperrors.BadRequest("Invalid product fields")
	}

	req := services.CreateProductRequest{
		Name:        form.Name,
		Category:    form.Category,
		Description: form.Description,
		Brand:       form.Brand,
		Tags:        splitCSV(form.Tags),
		Colors:      splitCSV(form.Colors),
		Image:       storage.Upload{Ref: strings.TrimSpace(form.ImageURL)},
	}
	// Name and category are checked by the catalog before the image is looked at.
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return req, noop, nil
	}

	header, err := c.FormFile("imageFile")
	if err != nil || header.Size == 0 {
		return req, noop, nil
	}
	if err := rv.ValidateFileSize(header); err != nil {
		return req, noop, err
	}
	file, err := header.Open()
	if err != nil {
		return req, noop, apperrors.BadRequest("Invalid image file")
	}
	if !rv.IsValidImageType(header, file) {
		file.Close()
		return req, noop, apperrors.BadRequest("Invalid image type. Allowed: jpeg, jpg, png, webp, gif, avif")
	}

	req.Image = storage.Upload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	return req, file, nil
}

// IsValidImageType checks the declared content type, then the extension, then sniffs
// the first bytes. The file is rewound afterwards.
func (rv *RequestValidator) IsValidImageType(header *multipart.FileHeader, file multipart.File) bool {
	if allowedImageTypes[header.Header.Get("Content-Type")] {
		return true
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif":
		return true
	}

	if file == nil {
		return false
	}
	detected, err := mimetype.DetectReader(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil || err != nil {
		return false
	}
	return allowedImageTypes[detected.String()]
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(header *multipart.FileHeader) error {
	if header.Size > MaxUploadSize {
		return apperrors.New(http.StatusRequestEntityTooLarge, "Image file too large (max 10MB)", nil)
	}
	return nil
}

// queryLimit reads ?limit= with parseInt semantics; 0 means "use the default".
func queryLimit(c *gin.Context) int {
	return leadingInt(c.Query("limit"))
}
