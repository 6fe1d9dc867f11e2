package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/services"
)

// ProductController serves the catalog endpoints.
type ProductController struct {
	catalog   services.Catalog
	validator *RequestValidator
	logger    *zap.Logger
}

func NewProductController(catalog services.Catalog, logger *zap.Logger) *ProductController {
	return &ProductController{
		catalog:   catalog,
		validator: NewRequestValidator(),
		logger:    logger,
	}
}

// GetProducts handles GET /products?category=&limit=
func (pc *ProductController) GetProducts(c *gin.Context) {
	products, err := pc.catalog.List(c.Request.Context(), c.Query("category"), queryLimit(c))
	if err != nil {
		apperrors.Respond(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// CreateProduct handles the multipart POST /products.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	req, closer, err := pc.validator.ParseCreateProductRequest(c)
	defer closer.Close()
	if err != nil {
		pc.logger.Warn("Invalid create product request", zap.Error(err))
		apperrors.Respond(c, pc.logger, err)
		return
	}

	product, err := pc.catalog.Create(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// DeleteProduct handles DELETE /products?id= and DELETE /products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		id = c.Query("id")
	}
	if err := pc.catalog.Delete(c.Request.Context(), id); err != nil {
		apperrors.Respond(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetRelated handles GET /related-products?id=&limit=
func (pc *ProductController) GetRelated(c *gin.Context) {
	res, err := pc.catalog.Related(c.Request.Context(), c.Query("id"), queryLimit(c))
	if err != nil {
		apperrors.Respond(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
