package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/vardhan998997/visual-product-matcer/matching"
	"github.com/vardhan998997/visual-product-matcer/models"
)

func seedSearchRepo(t *testing.T) (*fakeRepo, map[string]*models.Product) {
	t.Helper()
	repo := newFakeRepo()
	products := map[string]*models.Product{
		"nike":   {Name: "Air Runner", Category: "Shoes", Brand: "Nike", Colors: []string{"red"}, Tags: []string{"running"}, ImageURL: "https://cdn.test/nike.jpg"},
		"adidas": {Name: "Trail Boost", Category: "Shoes", Brand: "Adidas", Colors: []string{"blue"}, Tags: []string{"trail"}, ImageURL: "https://cdn.test/adidas.jpg"},
		"hoodie": {Name: "Zip Hoodie", Category: "Hoodies", Brand: "Nike", Colors: []string{"grey"}, ImageURL: "https://cdn.test/hoodie.jpg"},
	}
	for _, key := range []string{"nike", "adidas", "hoodie"} {
		require.NoError(t, repo.Create(context.Background(), products[key]))
	}
	return repo, products
}

func TestSearchRanksByScore(t *testing.T) {
	repo, products := seedSearchRepo(t)
	svc := NewSearchService(repo, matching.DefaultWeights, zap.NewNop())

	results, err := svc.Search(context.Background(), SearchRequest{
		Brand:    "Nike",
		Colors:   []string{"Red"},
		Keywords: []string{"running"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, products["nike"].ID.Hex(), results[0].ID)
	assert.InDelta(t, 0.85, results[0].Similarity, 1e-9)
	assert.Equal(t, products["hoodie"].ID.Hex(), results[1].ID)
	assert.InDelta(t, 0.6, results[1].Similarity, 1e-9)
	assert.Equal(t, products["adidas"].ID.Hex(), results[2].ID)
	assert.Zero(t, results[2].Similarity)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestSearchBuildsCriteria(t *testing.T) {
	repo, _ := seedSearchRepo(t)
	svc := NewSearchService(repo, matching.DefaultWeights, zap.NewNop())

	_, err := svc.Search(context.Background(), SearchRequest{
		Name:     " Air Runner ",
		Category: "SHOES",
		Colors:   []string{"Red", " "},
		Keywords: []string{"Running"},
	})
	require.NoError(t, err)

	assert.Equal(t, "shoes", repo.lastCriteria.Category)
	assert.Equal(t, []string{"red"}, repo.lastCriteria.Colors)
	assert.Equal(t, []string{"running"}, repo.lastCriteria.Keywords)
	assert.Equal(t, "air runner shoes", repo.lastCriteria.Text)
	assert.Equal(t, DefaultSearchLimit, repo.lastLimit)
}

func TestSearchWithoutTextFields(t *testing.T) {
	repo, _ := seedSearchRepo(t)
	svc := NewSearchService(repo, matching.DefaultWeights, zap.NewNop())

	_, err := svc.Search(context.Background(), SearchRequest{Colors: []string{"red"}, Limit: 500})
	require.NoError(t, err)

	assert.Empty(t, repo.lastCriteria.Text)
	assert.Equal(t, MaxSearchLimit, repo.lastLimit)
}

func TestSearchExactImageMatchScoresOne(t *testing.T) {
	repo, products := seedSearchRepo(t)
	svc := NewSearchService(repo, matching.DefaultWeights, zap.NewNop())

	results, err := svc.Search(context.Background(), SearchRequest{Image: "https://cdn.test/adidas.jpg"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, products["adidas"].ID.Hex(), results[0].ID)
	assert.Equal(t, 1.0, results[0].Similarity)
}

func TestSearchPopulatesRelatedWithoutBrand(t *testing.T) {
	repo, products := seedSearchRepo(t)
	require.NoError(t, repo.SetRelated(context.Background(), products["adidas"].ID, []primitive.ObjectID{products["nike"].ID}))
	svc := NewSearchService(repo, matching.DefaultWeights, zap.NewNop())

	results, err := svc.Search(context.Background(), SearchRequest{Category: "shoes"})
	require.NoError(t, err)

	var adidas *models.ScoredProduct
	for i := range results {
		if results[i].ID == products["adidas"].ID.Hex() {
			adidas = &results[i]
		}
	}
	require.NotNil(t, adidas)
	require.Len(t, adidas.RelatedProducts, 1)
	assert.Equal(t, products["nike"].ID, adidas.RelatedProducts[0].ID)
	assert.Equal(t, "Air Runner", adidas.RelatedProducts[0].Name)
	assert.Empty(t, adidas.RelatedProducts[0].Brand)
}

func TestSearchStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.searchErr = errors.New("text index missing")
	svc := NewSearchService(repo, matching.DefaultWeights, zap.NewNop())

	_, err := svc.Search(context.Background(), SearchRequest{Name: "hoodie"})
	requireCode(t, err, http.StatusInternalServerError, "Internal Server Error")
}
