package services

import (
	"context"

	"github.com/vardhan998997/visual-product-matcer/models"
	"github.com/vardhan998997/visual-product-matcer/storage"
)

// Catalog is the product lifecycle used by the HTTP layer.
type Catalog interface {
	Create(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	List(ctx context.Context, category string, limit int) ([]models.ProductView, error)
	Delete(ctx context.Context, id string) error
	Related(ctx context.Context, id string, limit int) (*RelatedProducts, error)
}

type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]models.ScoredProduct, error)
}

// AttributeExtractor describes the product shown in an image.
type AttributeExtractor interface {
	Analyze(ctx context.Context, image string) (*models.Analysis, error)
}

// CreateProductRequest carries a product to save. Image must have a Reader or a Ref.
type CreateProductRequest struct {
	Name        string
	Category    string
	Description string
	Brand       string
	Tags        []string
	Colors      []string
	Image       storage.Upload
}

type RelatedProducts struct {
	Product         models.ProductCard      `json:"product"`
	RelatedProducts []models.ProductSummary `json:"relatedProducts"`
}
