// Package matching scores catalog products against a query descriptor.
package matching

import (
	"regexp"
	"strings"

	"github.com/vardhan998997/visual-product-matcer/models"
)

// Weights are the per-signal contributions of the scorer. Each capped signal is clamped
// to its Max before summing.
type Weights struct {
	CategoryExact   float64
	CategoryPartial float64
	BrandExact      float64
	BrandPartial    float64
	ColorPerMatch   float64
	ColorMax        float64
	NamePerToken    float64
	NameMax         float64
	TagPerMatch     float64
	TagMax          float64
	RelationPerLink float64
	RelationMax     float64
}

// DefaultWeights orders the signals category > brand > color > name > tags > relations.
var DefaultWeights = Weights{
	CategoryExact:   0.8,
	CategoryPartial: 0.5,
	BrandExact:      0.6,
	BrandPartial:    0.3,
	ColorPerMatch:   0.2,
	ColorMax:        0.4,
	NamePerToken:    0.1,
	NameMax:         0.3,
	TagPerMatch:     0.05,
	TagMax:          0.2,
	RelationPerLink: 0.02,
	RelationMax:     0.1,
}

// Query describes what the user is looking for in one search request.
type Query struct {
	Name     string
	Category string
	Brand    string
	Colors   []string
	Keywords []string
	Image    string
}

var tokenSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// Score returns the match score of p for q, always within [0, 1].
func Score(q Query, p *models.Product, w Weights) float64 {
	if q.Image != "" && p.ImageURL != "" && q.Image == p.ImageURL {
		return 1
	}

	var score float64

	if category := strings.ToLower(q.Category); category != "" {
		pc := strings.ToLower(p.Category)
		switch {
		case pc == category:
			score += w.CategoryExact
		case strings.Contains(pc, category) || strings.Contains(category, pc):
			score += w.CategoryPartial
		}
	}

	if brand := strings.ToLower(q.Brand); brand != "" && p.Brand != "" {
		pb := strings.ToLower(p.Brand)
		switch {
		case pb == brand:
			score += w.BrandExact
		case strings.Contains(pb, brand) || strings.Contains(brand, pb):
			score += w.BrandPartial
		}
	}

	if n := countOverlap(q.Colors, p.Colors); n > 0 {
		score += capped(float64(n)*w.ColorPerMatch, w.ColorMax)
	}

	if n := countNameTokens(q.Name, haystack(p)); n > 0 {
		score += capped(float64(n)*w.NamePerToken, w.NameMax)
	}

	if n := countOverlap(q.Keywords, p.Tags); n > 0 {
		score += capped(float64(n)*w.TagPerMatch, w.TagMax)
	}

	if n := len(p.RelatedProducts); n > 0 {
		score += capped(float64(n)*w.RelationPerLink, w.RelationMax)
	}

	return clamp(score)
}

// countOverlap counts query terms that contain, or are contained in, any candidate value.
func countOverlap(query, candidate []string) int {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}
	lowered := make([]string, len(candidate))
	for i, c := range candidate {
		lowered[i] = strings.ToLower(c)
	}
	matches := 0
	for _, term := range query {
		t := strings.ToLower(term)
		for _, c := range lowered {
			if strings.Contains(c, t) || strings.Contains(t, c) {
				matches++
				break
			}
		}
	}
	return matches
}

func countNameTokens(name, hay string) int {
	matches := 0
	for _, token := range tokenSplitter.Split(strings.ToLower(name), -1) {
		if token != "" && strings.Contains(hay, token) {
			matches++
		}
	}
	return matches
}

func haystack(p *models.Product) string {
	parts := []string{
		p.Name,
		p.Category,
		p.Brand,
		p.Description,
		strings.Join(p.Tags, " "),
		strings.Join(p.Colors, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
