package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vardhan998997/visual-product-matcer/models"
)

const ProductsCollection = "products"

var summaryProjection = bson.M{
	"name":     1,
	"category": 1,
	"imageUrl": 1,
	"tags":     1,
	"colors":   1,
	"brand":    1,
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection(ProductsCollection)}
}

// containsFold matches s anywhere in the field, ignoring case. s is matched literally.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func anyContainsFold(values []string) []primitive.Regex {
	var out []primitive.Regex
	for _, v := range values {
		if v != "" {
			out = append(out, containsFold(v))
		}
	}
	return out
}

// BuildSearchFilter turns criteria into a products query.
func BuildSearchFilter(c SearchCriteria) bson.M {
	filter := bson.M{}
	if c.Category != "" {
		filter["category"] = containsFold(c.Category)
	}
	if c.Brand != "" {
		filter["brand"] = containsFold(c.Brand)
	}
	if colors := anyContainsFold(c.Colors); len(colors) > 0 {
		filter["colors"] = bson.M{"$in": colors}
	}
	if tags := anyContainsFold(c.Keywords); len(tags) > 0 {
		filter["tags"] = bson.M{"$in": tags}
	}
	if c.Text != "" {
		filter["$text"] = bson.M{"$search": c.Text}
	}
	return filter
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	withDefaults(product)

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) CreateMany(ctx context.Context, products []*models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		withDefaults(p)
		docs = append(docs, p)
	}
	res, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert products: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func withDefaults(p *models.Product) {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.RelatedProducts == nil {
		p.RelatedProducts = []primitive.ObjectID{}
	}
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

func (r *MongoProductRepository) List(ctx context.Context, category string, limit int) ([]*models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = containsFold(category)
	}
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *MongoProductRepository) All(ctx context.Context) ([]*models.Product, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (r *MongoProductRepository) Search(ctx context.Context, criteria SearchCriteria, limit int) ([]*models.Product, error) {
	sort := newestFirst
	if criteria.Text != "" {
		sort = bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
			{Key: "createdAt", Value: -1},
		}
	}
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, BuildSearchFilter(criteria), opts)
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) findSummaries(ctx context.Context, filter bson.M, limit int) ([]models.ProductSummary, error) {
	opts := options.Find().SetProjection(summaryProjection)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find product summaries: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []models.ProductSummary{}
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("decode product summaries: %w", err)
	}
	return summaries, nil
}

func (r *MongoProductRepository) Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.ProductSummary, error) {
	if len(ids) == 0 {
		return []models.ProductSummary{}, nil
	}
	return r.findSummaries(ctx, bson.M{"_id": bson.M{"$in": ids}}, 0)
}

func (r *MongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID, limit int) ([]models.ProductSummary, error) {
	if len(ids) == 0 {
		return []models.ProductSummary{}, nil
	}
	return r.findSummaries(ctx, bson.M{"_id": bson.M{"$in": ids}}, limit)
}

func (r *MongoProductRepository) FindSimilar(ctx context.Context, anchor *models.Product, exclude []primitive.ObjectID, limit int) ([]models.ProductSummary, error) {
	or := bson.A{bson.M{"category": anchor.Category}}
	if len(anchor.Tags) > 0 {
		or = append(or, bson.M{"tags": bson.M{"$in": anchor.Tags}})
	}
	if len(anchor.Colors) > 0 {
		or = append(or, bson.M{"colors": bson.M{"$in": anchor.Colors}})
	}
	excluded := append([]primitive.ObjectID{anchor.ID}, exclude...)
	filter := bson.M{
		"_id": bson.M{"$nin": excluded},
		"$or": or,
	}
	return r.findSummaries(ctx, filter, limit)
}

func (r *MongoProductRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

func (r *MongoProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoProductRepository) FindRelationCandidates(ctx context.Context, id primitive.ObjectID, category string, tags []string, limit int) ([]primitive.ObjectID, error) {
	or := bson.A{bson.M{"category": containsFold(category)}}
	if tagPatterns := anyContainsFold(tags); len(tagPatterns) > 0 {
		or = append(or, bson.M{"tags": bson.M{"$in": tagPatterns}})
	}
	filter := bson.M{
		"_id": bson.M{"$ne": id},
		"$or": or,
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find relation candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode relation candidates: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r *MongoProductRepository) SetRelated(ctx context.Context, id primitive.ObjectID, related []primitive.ObjectID) error {
	if related == nil {
		related = []primitive.ObjectID{}
	}
	update := bson.M{"$set": bson.M{"relatedProducts": related, "updatedAt": time.Now().UTC()}}
	if _, err := r.collection.UpdateByID(ctx, id, update); err != nil {
		return fmt.Errorf("set related products of %s: %w", id.Hex(), err)
	}
	return nil
}

func (r *MongoProductRepository) AddRelated(ctx context.Context, ids []primitive.ObjectID, related primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	update := bson.M{
		"$addToSet": bson.M{"relatedProducts": related},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	if _, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return fmt.Errorf("add back-links to %s: %w", related.Hex(), err)
	}
	return nil
}

func (r *MongoProductRepository) PullRelated(ctx context.Context, id primitive.ObjectID) (int64, error) {
	update := bson.M{
		"$pull": bson.M{"relatedProducts": id},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.collection.UpdateMany(ctx, bson.M{"relatedProducts": id}, update)
	if err != nil {
		return 0, fmt.Errorf("pull %s from related products: %w", id.Hex(), err)
	}
	return res.ModifiedCount, nil
}

// BackfillDefaults fills fields older documents were stored without.
func (r *MongoProductRepository) BackfillDefaults(ctx context.Context) (int64, error) {
	defaults := []struct {
		field string
		value interface{}
	}{
		{"description", ""},
		{"brand", ""},
		{"tags", bson.A{}},
		{"colors", bson.A{}},
		{"relatedProducts", bson.A{}},
		{"similarityScore", 0},
	}

	var modified int64
	for _, d := range defaults {
		filter := bson.M{"$or": bson.A{
			bson.M{d.field: bson.M{"$exists": false}},
			bson.M{d.field: nil},
		}}
		res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{d.field: d.value}})
		if err != nil {
			return modified, fmt.Errorf("backfill %s: %w", d.field, err)
		}
		modified += res.ModifiedCount
	}
	return modified, nil
}

func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
	})
	if err != nil {
		return fmt.Errorf("ensure product indexes: %w", err)
	}
	return nil
}

// DropInvalidIndexes drops compound indexes over both tags and colors. MongoDB rejects
// inserts into such an index when both arrays are non-empty.
func (r *MongoProductRepository) DropInvalidIndexes(ctx context.Context) ([]string, error) {
	specs, err := r.collection.Indexes().ListSpecifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list product indexes: %w", err)
	}

	var dropped []string
	for _, spec := range specs {
		if spec.KeysDocument.Lookup("tags").Type == 0 || spec.KeysDocument.Lookup("colors").Type == 0 {
			continue
		}
		if _, err := r.collection.Indexes().DropOne(ctx, spec.Name); err != nil {
			return dropped, fmt.Errorf("drop index %s: %w", spec.Name, err)
		}
		dropped = append(dropped, spec.Name)
	}
	return dropped, nil
}
