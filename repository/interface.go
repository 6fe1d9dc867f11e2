package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vardhan998997/visual-product-matcer/models"
)

var ErrNotFound = errors.New("product not found")

// SearchCriteria are the store-side filters of a search. Empty fields are ignored;
// Text enables full-text search over name and description.
type SearchCriteria struct {
	Category string
	Brand    string
	Colors   []string
	Keywords []string
	Text     string
}

// ProductRepo is the catalog store used by the services.
type ProductRepo interface {
	Create(ctx context.Context, product *models.Product) error
	CreateMany(ctx context.Context, products []*models.Product) (int, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// List returns products newest first, optionally filtered by a category substring.
	List(ctx context.Context, category string, limit int) ([]*models.Product, error)
	All(ctx context.Context) ([]*models.Product, error)
	Search(ctx context.Context, criteria SearchCriteria, limit int) ([]*models.Product, error)
	Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.ProductSummary, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	DeleteAll(ctx context.Context) (int64, error)

	// FindRelationCandidates returns the ids of the newest products, other than id, whose
	// category contains category or whose tags match any of tags.
	FindRelationCandidates(ctx context.Context, id primitive.ObjectID, category string, tags []string, limit int) ([]primitive.ObjectID, error)
	SetRelated(ctx context.Context, id primitive.ObjectID, related []primitive.ObjectID) error
	// AddRelated adds related to the relatedProducts set of every product in ids.
	AddRelated(ctx context.Context, ids []primitive.ObjectID, related primitive.ObjectID) error
	// PullRelated removes id from every product's relatedProducts.
	PullRelated(ctx context.Context, id primitive.ObjectID) (int64, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID, limit int) ([]models.ProductSummary, error)
	// FindSimilar returns products sharing the anchor's exact category, a tag or a color.
	FindSimilar(ctx context.Context, anchor *models.Product, exclude []primitive.ObjectID, limit int) ([]models.ProductSummary, error)

	BackfillDefaults(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
	DropInvalidIndexes(ctx context.Context) ([]string, error)
}
