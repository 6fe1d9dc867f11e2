package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/services"
)

type SearchController struct {
	searcher  services.Searcher
	validator *RequestValidator
	logger    *zap.Logger
}

func NewSearchController(searcher services.Searcher, logger *zap.Logger) *SearchController {
	return &SearchController{
		searcher:  searcher,
		validator: NewRequestValidator(),
		logger:    logger,
	}
}

// Search handles POST /search.
func (sc *SearchController) Search(c *gin.Context) {
	var body searchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.Respond(c, sc.logger, apperrors.BadRequest("Invalid JSON body"))
		return
	}
	if err := sc.validator.Struct(&body); err != nil {
		apperrors.Respond(c, sc.logger, apperrors.BadRequest("Too many search terms"))
		return
	}

	results, err := sc.searcher.Search(c.Request.Context(), services.SearchRequest{
		Keywords: body.Keywords,
		Name:     string(body.Name),
		Category: string(body.Category),
		Brand:    string(body.Brand),
		Colors:   body.Colors,
		Image:    string(body.Image),
		Limit:    int(body.Limit),
	})
	if err != nil {
		apperrors.Respond(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
