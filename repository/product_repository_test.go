package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/vardhan998997/visual-product-matcer/models"
)

const testNS = "matcher.products"

func productDoc(id primitive.ObjectID, name, category string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "category", Value: category},
		{Key: "tags", Value: bson.A{"warm"}},
		{Key: "colors", Value: bson.A{"red"}},
		{Key: "imageUrl", Value: "https://res.cloudinary.com/demo/image/upload/v1/a.jpg"},
		{Key: "relatedProducts", Value: bson.A{}},
		{Key: "createdAt", Value: primitive.NewDateTimeFromTime(time.Now())},
	}
}

func TestBuildSearchFilter(t *testing.T) {
	filter := BuildSearchFilter(SearchCriteria{
		Category: "t-shirts",
		Brand:    "h&m (us)",
		Colors:   []string{"red", ""},
		Keywords: []string{"cotton"},
		Text:     "t-shirts h&m (us)",
	})

	assert.Equal(t, primitive.Regex{Pattern: `t-shirts`, Options: "i"}, filter["category"])
	assert.Equal(t, primitive.Regex{Pattern: `h&m \(us\)`, Options: "i"}, filter["brand"])
	assert.Equal(t, bson.M{"$in": []primitive.Regex{{Pattern: "red", Options: "i"}}}, filter["colors"])
	assert.Equal(t, bson.M{"$in": []primitive.Regex{{Pattern: "cotton", Options: "i"}}}, filter["tags"])
	assert.Equal(t, bson.M{"$search": "t-shirts h&m (us)"}, filter["$text"])

	assert.Empty(t, BuildSearchFilter(SearchCriteria{Colors: []string{""}}))
}

func TestMongoProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, productDoc(id, "Red Hoodie", "Hoodies")))

		p, err := repo.FindByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, id, p.ID)
		assert.Equal(mt, "Hoodies", p.Category)
		assert.Equal(mt, []string{"warm"}, p.Tags)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Product{Name: "Runner", Category: "Shoes", ImageURL: "https://x/y.jpg"}
		require.NoError(mt, repo.Create(context.Background(), p))
		assert.False(mt, p.ID.IsZero())
		assert.False(mt, p.CreatedAt.IsZero())
		assert.NotNil(mt, p.Tags)
		assert.NotNil(mt, p.RelatedProducts)
	})

	mt.Run("list decodes newest first page", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			productDoc(b, "Blue Hoodie", "Hoodies"),
			productDoc(a, "Red Hoodie", "Hoodies"),
		))

		products, err := repo.List(context.Background(), "hood", 50)
		require.NoError(mt, err)
		require.Len(mt, products, 2)
		assert.Equal(mt, b, products[0].ID)
	})

	mt.Run("search surfaces store errors", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    27,
			Name:    "IndexNotFound",
			Message: "text index required for $text query",
		}))

		_, err := repo.Search(context.Background(), SearchCriteria{Text: "shoes"}, 20)
		assert.ErrorContains(mt, err, "text index required")
	})

	mt.Run("relation candidates", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		q1, q2 := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: q1}},
			bson.D{{Key: "_id", Value: q2}},
		))

		ids, err := repo.FindRelationCandidates(context.Background(), primitive.NewObjectID(), "Hoodies", []string{"warm"}, 5)
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{q1, q2}, ids)
	})

	mt.Run("pull related reports modified count", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 3},
			bson.E{Key: "nModified", Value: 3},
		))

		n, err := repo.PullRelated(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("delete by id", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: productDoc(id, "Red Hoodie", "Hoodies")},
		})

		p, err := repo.DeleteByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, "Red Hoodie", p.Name)
	})

	mt.Run("delete by id not found", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.DeleteByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create many fills defaults", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		products := []*models.Product{
			{Name: "Sneaker", Category: "Shoes", ImageURL: "https://example.com/s.jpg"},
			{Name: "Hoodie", Category: "Hoodies", ImageURL: "https://example.com/h.jpg"},
		}
		n, err := repo.CreateMany(context.Background(), products)
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)
		for _, p := range products {
			assert.False(mt, p.ID.IsZero())
			assert.NotNil(mt, p.Tags)
			assert.NotNil(mt, p.RelatedProducts)
		}
	})

	mt.Run("backfill sums modified counts", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		for i := 0; i < 6; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 2},
				bson.E{Key: "nModified", Value: 2},
			))
		}

		n, err := repo.BackfillDefaults(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(12), n)
	})

	mt.Run("drop invalid indexes", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
				bson.D{{Key: "v", Value: 2}, {Key: "key", Value: bson.D{{Key: "_id", Value: 1}}}, {Key: "name", Value: "_id_"}},
				bson.D{{Key: "v", Value: 2}, {Key: "key", Value: bson.D{{Key: "category", Value: 1}, {Key: "tags", Value: 1}}}, {Key: "name", Value: "category_1_tags_1"}},
				bson.D{{Key: "v", Value: 2}, {Key: "key", Value: bson.D{{Key: "tags", Value: 1}, {Key: "colors", Value: 1}}}, {Key: "name", Value: "tags_1_colors_1"}},
			),
			mtest.CreateSuccessResponse(),
		)

		dropped, err := repo.DropInvalidIndexes(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []string{"tags_1_colors_1"}, dropped)
	})

	mt.Run("summaries skip the query for no ids", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)

		summaries, err := repo.Summaries(context.Background(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, summaries)
	})
}
