package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/matching"
	"github.com/vardhan998997/visual-product-matcer/models"
	"github.com/vardhan998997/visual-product-matcer/repository"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type SearchRequest struct {
	Keywords []string
	Name     string
	Category string
	Brand    string
	Colors   []string
	Image    string
	Limit    int
}

// SearchService fetches candidates from the catalog and ranks them by match score.
type SearchService struct {
	repo    repository.ProductRepo
	weights matching.Weights
	logger  *zap.Logger
}

func NewSearchService(repo repository.ProductRepo, weights matching.Weights, logger *zap.Logger) *SearchService {
	return &SearchService{repo: repo, weights: weights, logger: logger}
}

// Search returns candidates ordered by descending score, ties by ascending id. Any store
// failure fails the whole search.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]models.ScoredProduct, error) {
	q := matching.Query{
		Name:     strings.ToLower(strings.TrimSpace(req.Name)),
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		Brand:    strings.ToLower(strings.TrimSpace(req.Brand)),
		Colors:   lowerAll(req.Colors),
		Keywords: lowerAll(req.Keywords),
		Image:    req.Image,
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	criteria := repository.SearchCriteria{
		Category: q.Category,
		Brand:    q.Brand,
		Colors:   q.Colors,
		Keywords: q.Keywords,
	}
	if q.Name != "" || q.Category != "" || q.Brand != "" {
		criteria.Text = strings.TrimSpace(strings.Join([]string{q.Name, q.Category, q.Brand}, " "))
	}

	candidates, err := s.repo.Search(ctx, criteria, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	related, err := s.relatedSummaries(ctx, candidates)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ranked := matching.Rank(q, candidates, s.weights)
	results := make([]models.ScoredProduct, 0, len(ranked))
	for _, r := range ranked {
		p := r.Product
		summaries := make([]models.ProductSummary, 0, len(p.RelatedProducts))
		for _, id := range p.RelatedProducts {
			if summary, ok := related[id]; ok {
				summaries = append(summaries, summary)
			}
		}
		results = append(results, models.ScoredProduct{
			ID:              p.ID.Hex(),
			Name:            p.Name,
			Category:        p.Category,
			Description:     p.Description,
			Brand:           p.Brand,
			Tags:            p.Tags,
			Colors:          p.Colors,
			ImageURL:        p.ImageURL,
			RelatedProducts: summaries,
			Similarity:      r.Score,
		})
	}

	s.logger.Debug("Search completed",
		zap.String("category", q.Category),
		zap.Bool("text", criteria.Text != ""),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// relatedSummaries loads the related products of all candidates in one query.
func (s *SearchService) relatedSummaries(ctx context.Context, products []*models.Product) (map[primitive.ObjectID]models.ProductSummary, error) {
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

	byID := make(map[primitive.ObjectID]models.ProductSummary, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	summaries, err := s.repo.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		summary.Brand = ""
		byID[summary.ID] = summary
	}
	return byID, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
