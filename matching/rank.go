package matching

import (
	"sort"

	"github.com/vardhan998997/visual-product-matcer/models"
)

// Ranked pairs a candidate with its score.
type Ranked struct {
	Product *models.Product
	Score   float64
}

// Rank scores every candidate and orders them by descending score, breaking ties by
// ascending id.
func Rank(q Query, candidates []*models.Product, w Weights) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for _, p := range candidates {
		ranked = append(ranked, Ranked{Product: p, Score: Score(q, p, w)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Product.ID.Hex() < ranked[j].Product.ID.Hex()
	})
	return ranked
}
