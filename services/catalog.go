package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/models"
	aws_pkg "github.com/vardhan998997/visual-product-matcer/pkg/aws"
	"github.com/vardhan998997/visual-product-matcer/repository"
	"github.com/vardhan998997/visual-product-matcer/storage"
)

const (
	DefaultListLimit    = 50
	MaxListLimit        = 100
	DefaultRelatedLimit = 10
	MaxRelatedLimit     = 100
)

// CatalogService saves, lists and deletes products and answers related-product lookups.
type CatalogService struct {
	repo      repository.ProductRepo
	images    storage.ImageStore
	relations *RelationMaintainer
	events    *EventPublisher
	metrics   Counter
	logger    *zap.Logger
}

func NewCatalogService(
	repo repository.ProductRepo,
	images storage.ImageStore,
	relations *RelationMaintainer,
	events *EventPublisher,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		repo:      repo,
		images:    images,
		relations: relations,
		events:    events,
		logger:    logger,
	}
}

// SetMetrics enables the ProductsCreated and ProductsDeleted counters.
func (s *CatalogService) SetMetrics(counter Counter) {
	s.metrics = counter
}

// Create hosts the image, stores the product and links it to its siblings. Linking and
// the created event are best-effort.
func (s *CatalogService) Create(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" {
		return nil, apperrors.BadRequest("Missing name or category")
	}
	if req.Image.Reader == nil && strings.TrimSpace(req.Image.Ref) == "" {
		return nil, apperrors.BadRequest("Provide imageFile or imageUrl")
	}
	req.Image.Ref = strings.TrimSpace(req.Image.Ref)

	asset, err := s.images.Upload(ctx, req.Image)
	if err != nil {
		return nil, apperrors.Upstream("Image upload failed", err)
	}

	product := &models.Product{
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(req.Description),
		Brand:       strings.TrimSpace(req.Brand),
		Tags:        cleanList(req.Tags),
		Colors:      cleanList(req.Colors),
		ImageURL:    asset.URL,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, apperrors.Internal(err)
	}

	ids, outcome := s.relations.Link(ctx, product)
	outcome.Log(s.logger, zap.String("product_id", product.ID.Hex()))
	if ids != nil {
		product.RelatedProducts = ids
	}

	s.events.ProductCreated(ctx, product).Log(s.logger, zap.String("product_id", product.ID.Hex()))

	recordCount(s.metrics, aws_pkg.MetricProductsCreated, map[string]string{"Category": product.Category})
	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("category", product.Category),
		zap.Int("related", len(product.RelatedProducts)),
	)
	return product, nil
}

// List returns products newest first with their related products populated.
func (s *CatalogService) List(ctx context.Context, category string, limit int) ([]models.ProductView, error) {
	limit = clampLimit(limit, DefaultListLimit, MaxListLimit)

	products, err := s.repo.List(ctx, strings.TrimSpace(category), limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, p := range products {
		for _, id := range p.RelatedProducts {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	summaries, err := s.repo.Summaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	byID := make(map[primitive.ObjectID]models.ProductSummary, len(summaries))
	for _, summary := range summaries {
		byID[summary.ID] = summary.Shallow()
	}

	views := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		related := make([]models.ProductSummary, 0, len(p.RelatedProducts))
		for _, id := range p.RelatedProducts {
			if summary, ok := byID[id]; ok {
				related = append(related, summary)
			}
		}
		views = append(views, models.ProductView{
			ID:              p.ID,
			Name:            p.Name,
			Category:        p.Category,
			Description:     p.Description,
			Brand:           p.Brand,
			Tags:            nonNil(p.Tags),
			Colors:          nonNil(p.Colors),
			ImageURL:        p.ImageURL,
			RelatedProducts: related,
			SimilarityScore: p.SimilarityScore,
			CreatedAt:       p.CreatedAt,
			UpdatedAt:       p.UpdatedAt,
		})
	}
	return views, nil
}

// Delete removes the product and every link pointing at it, then best-effort deletes
// its image.
func (s *CatalogService) Delete(ctx context.Context, rawID string) error {
	if strings.TrimSpace(rawID) == "" {
		return apperrors.BadRequest("Missing id")
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(rawID))
	if err != nil {
		return apperrors.BadRequest("Invalid product id")
	}

	product, err := s.repo.DeleteByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Not found")
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	unlinked, err := s.repo.PullRelated(ctx, id)
	if err != nil {
		return apperrors.Internal(err)
	}

	s.relations.RemoveAsset(ctx, product.ImageURL).Log(s.logger, zap.String("product_id", id.Hex()))
	s.events.ProductDeleted(ctx, id, unlinked).Log(s.logger, zap.String("product_id", id.Hex()))

	recordCount(s.metrics, aws_pkg.MetricProductsDeleted, nil)
	s.logger.Info("Product deleted", zap.String("product_id", id.Hex()), zap.Int64("unlinked", unlinked))
	return nil
}

// Related returns the product's direct relations, topped up to limit with products that
// share its exact category, a tag or a color.
func (s *CatalogService) Related(ctx context.Context, rawID string, limit int) (*RelatedProducts, error) {
	if strings.TrimSpace(rawID) == "" {
		return nil, apperrors.BadRequest("Missing product ID")
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(rawID))
	if err != nil {
		return nil, apperrors.BadRequest("Invalid product id")
	}
	limit = clampLimit(limit, DefaultRelatedLimit, MaxRelatedLimit)

	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	related, err := s.repo.FindByIDs(ctx, product.RelatedProducts, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if len(related) < limit {
		exclude := make([]primitive.ObjectID, 0, len(related))
		for _, r := range related {
			exclude = append(exclude, r.ID)
		}
		extra, err := s.repo.FindSimilar(ctx, product, exclude, limit-len(related))
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		seen := make(map[primitive.ObjectID]bool, len(exclude))
		for _, id := range exclude {
			seen[id] = true
		}
		for _, e := range extra {
			if e.ID == product.ID || seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			related = append(related, e)
		}
	}

	return &RelatedProducts{
		Product: models.ProductCard{
			ID:       product.ID,
			Name:     product.Name,
			Category: product.Category,
			ImageURL: product.ImageURL,
			Tags:     nonNil(product.Tags),
			Colors:   nonNil(product.Colors),
			Brand:    product.Brand,
		},
		RelatedProducts: related,
	}, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// cleanList trims entries and drops empty ones.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
