package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/media"
	"github.com/vardhan998997/visual-product-matcer/services"
)

// ImageFetcher downloads a remote image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*media.InlineImage, error)
}

// AnalysisController serves image analysis and the image proxy.
type AnalysisController struct {
	analyzer  services.AttributeExtractor
	fetcher   ImageFetcher
	validator *RequestValidator
	logger    *zap.Logger
}

func NewAnalysisController(analyzer services.AttributeExtractor, fetcher ImageFetcher, logger *zap.Logger) *AnalysisController {
	return &AnalysisController{
		analyzer:  analyzer,
		fetcher:   fetcher,
		validator: NewRequestValidator(),
		logger:    logger,
	}
}

// Analyze handles POST /analyze with {"image": "<http url or data url>"}.
func (ac *AnalysisController) Analyze(c *gin.Context) {
	var body analyzeRequest
	// An unreadable body is reported the same way as a missing image.
	_ = c.ShouldBindJSON(&body)

	analysis, err := ac.analyzer.Analyze(c.Request.Context(), string(body.Image))
	if err != nil {
		apperrors.Respond(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// FetchImage handles POST /fetch-image and returns the image as a data URL.
func (ac *AnalysisController) FetchImage(c *gin.Context) {
	var body fetchImageRequest
	_ = c.ShouldBindJSON(&body)
	body.URL = looseString(strings.TrimSpace(string(body.URL)))
	if err := ac.validator.Struct(&body); err != nil {
		apperrors.Respond(c, ac.logger, apperrors.BadRequest("Missing url"))
		return
	}

	img, err := ac.fetcher.Fetch(c.Request.Context(), string(body.URL))
	if err != nil {
		var fetchErr *media.FetchError
		if errors.As(err, &fetchErr) {
			message := fetchErr.Error()
			if errors.Is(err, media.ErrTooLarge) {
				message = "Image too large"
			}
			ac.logger.Debug("Image fetch failed", zap.String("url", string(body.URL)), zap.Error(err))
			apperrors.Respond(c, ac.logger, apperrors.BadRequest(message))
			return
		}
		apperrors.Respond(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataUrl": img.DataURL()})
}
