package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vardhan998997/visual-product-matcer/models"
	"github.com/vardhan998997/visual-product-matcer/repository"
	"github.com/vardhan998997/visual-product-matcer/storage"
)

// fakeRepo keeps products in memory with the matching rules of the Mongo repository.
type fakeRepo struct {
	mu       sync.Mutex
	products []*models.Product
	seq      int

	searchErr     error
	setRelatedErr error
	pullErr       error

	lastCriteria repository.SearchCriteria
	lastLimit    int
}

var _ repository.ProductRepo = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo { return &fakeRepo{} }

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func (r *fakeRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = primitive.NewObjectID()
	p.CreatedAt = baseTime.Add(time.Duration(r.seq) * time.Second)
	p.UpdatedAt = p.CreatedAt
	if p.RelatedProducts == nil {
		p.RelatedProducts = []primitive.ObjectID{}
	}
	r.products = append(r.products, p)
	return nil
}

func (r *fakeRepo) CreateMany(ctx context.Context, products []*models.Product) (int, error) {
	for _, p := range products {
		if err := r.Create(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}

func (r *fakeRepo) get(id primitive.ObjectID) *models.Product {
	for _, p := range r.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.get(id); p != nil {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

// newest returns products newest first.
func (r *fakeRepo) newest() []*models.Product {
	out := append([]*models.Product(nil), r.products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *fakeRepo) List(_ context.Context, category string, limit int) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Product
	for _, p := range r.newest() {
		if category != "" && !containsFold(p.Category, category) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) All(_ context.Context) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newest(), nil
}

func (r *fakeRepo) Search(_ context.Context, criteria repository.SearchCriteria, limit int) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCriteria = criteria
	r.lastLimit = limit
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	var out []*models.Product
	for _, p := range r.newest() {
		if criteria.Category != "" && !containsFold(p.Category, criteria.Category) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) Summaries(_ context.Context, ids []primitive.ObjectID) ([]models.ProductSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProductSummary
	for _, id := range ids {
		if p := r.get(id); p != nil {
			out = append(out, p.Summary())
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.products))
	r.products = nil
	return n, nil
}

func (r *fakeRepo) FindRelationCandidates(_ context.Context, id primitive.ObjectID, category string, tags []string, limit int) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []primitive.ObjectID
	for _, p := range r.newest() {
		if p.ID == id {
			continue
		}
		match := category != "" && containsFold(p.Category, category)
		for _, tag := range tags {
			for _, pt := range p.Tags {
				if tag != "" && containsFold(pt, tag) {
					match = true
				}
			}
		}
		if match {
			out = append(out, p.ID)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) SetRelated(_ context.Context, id primitive.ObjectID, related []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setRelatedErr != nil {
		return r.setRelatedErr
	}
	p := r.get(id)
	if p == nil {
		return repository.ErrNotFound
	}
	p.RelatedProducts = append([]primitive.ObjectID{}, related...)
	return nil
}

func (r *fakeRepo) AddRelated(_ context.Context, ids []primitive.ObjectID, related primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		p := r.get(id)
		if p == nil || hasID(p.RelatedProducts, related) {
			continue
		}
		p.RelatedProducts = append(p.RelatedProducts, related)
	}
	return nil
}

func (r *fakeRepo) PullRelated(_ context.Context, id primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pullErr != nil {
		return 0, r.pullErr
	}
	var modified int64
	for _, p := range r.products {
		kept := p.RelatedProducts[:0]
		for _, rel := range p.RelatedProducts {
			if rel != id {
				kept = append(kept, rel)
			}
		}
		if len(kept) != len(p.RelatedProducts) {
			modified++
		}
		p.RelatedProducts = kept
	}
	return modified, nil
}

func (r *fakeRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID, limit int) ([]models.ProductSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProductSummary
	for _, p := range r.products {
		if hasID(ids, p.ID) {
			out = append(out, p.Summary())
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) FindSimilar(_ context.Context, anchor *models.Product, exclude []primitive.ObjectID, limit int) ([]models.ProductSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProductSummary
	for _, p := range r.newest() {
		if hasID(exclude, p.ID) {
			continue
		}
		if p.Category == anchor.Category || overlaps(p.Tags, anchor.Tags) || overlaps(p.Colors, anchor.Colors) {
			out = append(out, p.Summary())
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) BackfillDefaults(context.Context) (int64, error)     { return 0, nil }
func (r *fakeRepo) EnsureIndexes(context.Context) error                 { return nil }
func (r *fakeRepo) DropInvalidIndexes(context.Context) ([]string, error) { return nil, nil }

func hasID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

type fakeImageStore struct {
	mu        sync.Mutex
	uploads   int
	deleted   []string
	uploadErr error
	deleteErr error
}

func (s *fakeImageStore) Upload(_ context.Context, u storage.Upload) (*storage.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.uploads++
	id := fmt.Sprintf("products/img%d", s.uploads)
	return &storage.Asset{
		URL: "https://res.cloudinary.com/demo/image/upload/v1/" + id + ".jpg",
		ID:  id,
	}, nil
}

func (s *fakeImageStore) Delete(_ context.Context, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, imageURL)
	return nil
}

type publishedEvent struct {
	topic     string
	eventType string
	message   []byte
}

type fakeSNS struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, topicArn, eventType string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{topic: topicArn, eventType: eventType, message: message})
	return nil
}

func newTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:0",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
	})
}
