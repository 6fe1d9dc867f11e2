package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. Field names follow the documents already stored in the
// products collection.
type Product struct {
	ID              primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name            string               `json:"name" bson:"name"`
	Category        string               `json:"category" bson:"category"`
	Description     string               `json:"description" bson:"description"`
	Brand           string               `json:"brand" bson:"brand"`
	Tags            []string             `json:"tags" bson:"tags"`
	Colors          []string             `json:"colors" bson:"colors"`
	ImageURL        string               `json:"imageUrl" bson:"imageUrl"`
	RelatedProducts []primitive.ObjectID `json:"relatedProducts" bson:"relatedProducts"`
	SimilarityScore float64              `json:"similarityScore" bson:"similarityScore"`
	CreatedAt       time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// ProductSummary is the shallow form of a product used when related products are
// embedded in another product's response.
type ProductSummary struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Category string             `json:"category" bson:"category"`
	ImageURL string             `json:"imageUrl" bson:"imageUrl"`
	Tags     []string           `json:"tags,omitempty" bson:"tags"`
	Colors   []string           `json:"colors,omitempty" bson:"colors"`
	Brand    string             `json:"brand,omitempty" bson:"brand"`
}

// Shallow keeps only name, category and image.
func (s ProductSummary) Shallow() ProductSummary {
	return ProductSummary{ID: s.ID, Name: s.Name, Category: s.Category, ImageURL: s.ImageURL}
}

// Summary projects a product onto its summary form.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		ImageURL: p.ImageURL,
		Tags:     p.Tags,
		Colors:   p.Colors,
		Brand:    p.Brand,
	}
}

// ProductView is a product with its related products populated.
type ProductView struct {
	ID              primitive.ObjectID `json:"_id"`
	Name            string             `json:"name"`
	Category        string             `json:"category"`
	Description     string             `json:"description"`
	Brand           string             `json:"brand"`
	Tags            []string           `json:"tags"`
	Colors          []string           `json:"colors"`
	ImageURL        string             `json:"imageUrl"`
	RelatedProducts []ProductSummary   `json:"relatedProducts"`
	SimilarityScore float64            `json:"similarityScore"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// ScoredProduct is a search result.
type ScoredProduct struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Description     string           `json:"description"`
	Brand           string           `json:"brand"`
	Tags            []string         `json:"tags"`
	Colors          []string         `json:"colors"`
	ImageURL        string           `json:"imageUrl"`
	RelatedProducts []ProductSummary `json:"relatedProducts"`
	Similarity      float64          `json:"similarity"`
}

// ProductCard is the anchor product returned by the related-products lookup.
type ProductCard struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	ImageURL string             `json:"imageUrl"`
	Tags     []string           `json:"tags"`
	Colors   []string           `json:"colors"`
	Brand    string             `json:"brand"`
}
