package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/vardhan998997/visual-product-matcer/models"
	"github.com/vardhan998997/visual-product-matcer/repository"
	"github.com/vardhan998997/visual-product-matcer/storage"
)

// MaxOutgoingLinks caps the relatedProducts a product gets when it is created. Incoming
// links are not capped.
const MaxOutgoingLinks = 5

// RelationMaintainer keeps the related-products edges in step with creates and deletes.
// Nothing here runs in a transaction; concurrent creates may leave edges one-sided.
type RelationMaintainer struct {
	repo   repository.ProductRepo
	images storage.ImageStore
	logger *zap.Logger
}

func NewRelationMaintainer(repo repository.ProductRepo, images storage.ImageStore, logger *zap.Logger) *RelationMaintainer {
	return &RelationMaintainer{repo: repo, images: images, logger: logger}
}

// Link points p at the newest products sharing its category or a tag, replacing any
// previous links, then adds p to each of them. It returns the ids p now links to, which
// is nil when the links could not be stored.
func (m *RelationMaintainer) Link(ctx context.Context, p *models.Product) ([]primitive.ObjectID, SideEffectOutcome) {
	outcome := SideEffectOutcome{Name: "link_related_products"}

	ids, err := m.repo.FindRelationCandidates(ctx, p.ID, p.Category, p.Tags, MaxOutgoingLinks)
	if err != nil {
		outcome.Err = fmt.Errorf("find candidates: %w", err)
		return nil, outcome
	}
	if err := m.repo.SetRelated(ctx, p.ID, ids); err != nil {
		outcome.Err = fmt.Errorf("set links: %w", err)
		return nil, outcome
	}
	if err := m.repo.AddRelated(ctx, ids, p.ID); err != nil {
		outcome.Err = fmt.Errorf("add back-links: %w", err)
		return ids, outcome
	}
	outcome.Affected = len(ids)
	return ids, outcome
}

// RemoveAsset deletes the hosted image of a deleted product. Images the store does not
// manage are skipped.
func (m *RelationMaintainer) RemoveAsset(ctx context.Context, imageURL string) SideEffectOutcome {
	outcome := SideEffectOutcome{Name: "delete_image_asset"}
	if m.images == nil || imageURL == "" {
		outcome.Skipped = true
		return outcome
	}
	err := m.images.Delete(ctx, imageURL)
	switch {
	case errors.Is(err, storage.ErrNotManaged):
		outcome.Skipped = true
	case err != nil:
		outcome.Err = err
	default:
		outcome.Affected = 1
	}
	return outcome
}

// Rebuild relinks every product, newest first. It returns how many products were
// linked without error.
func (m *RelationMaintainer) Rebuild(ctx context.Context) (int, error) {
	products, err := m.repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load products: %w", err)
	}

	linked := 0
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return linked, err
		}
		_, outcome := m.Link(ctx, p)
		if !outcome.OK() {
			outcome.Log(m.logger, zap.String("product_id", p.ID.Hex()))
			continue
		}
		linked++
	}
	return linked, nil
}
