package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"online_store/internal/domain"
)

var errBoom = errors.New("boom")

// ---- in-memory store with all-or-nothing transactions ----

type memStore struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	reviews  map[int64]domain.Review
	nextID   int64

	failOn  string // Tx method that returns errBoom
	txCount int
	commits int

	// called after the rows are read, before they are returned
	afterListRead    func()
	afterProductRead func()
}

func newMemStore(products ...domain.Product) *memStore {
	m := &memStore{products: map[int64]domain.Product{}, reviews: map[int64]domain.Review{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	// one writer at a time stands in for the product row lock
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memTx{
		products: make(map[int64]domain.Product, len(m.products)),
		reviews:  make(map[int64]domain.Review, len(m.reviews)),
		nextID:   m.nextID,
		failOn:   m.failOn,
	}
	for k, v := range m.products {
		tx.products[k] = v
	}
	for k, v := range m.reviews {
		tx.reviews[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.products, m.reviews, m.nextID = tx.products, tx.reviews, tx.nextID
	m.commits++
	return nil
}

func (m *memStore) product(id int64) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

func (m *memStore) addReview(r domain.Review) domain.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.reviews[r.ID] = r
	return r
}

func (m *memStore) ListActiveReviews(ctx context.Context) ([]domain.Review, error) {
	return m.activeReviews(func(domain.Review) bool { return true }), nil
}

func (m *memStore) ListActiveReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	out := m.activeReviews(func(r domain.Review) bool { return r.ProductID == productID })
	if m.afterListRead != nil {
		m.afterListRead()
	}
	return out, nil
}

func (m *memStore) activeReviews(keep func(domain.Review) bool) []domain.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Review{}
	for _, r := range m.reviews {
		if r.IsActive && keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListCategories(ctx context.Context) ([]domain.Category, error) { return nil, nil }
func (m *memStore) ListProducts(ctx context.Context, q domain.ProductsQuery) ([]domain.Product, error) {
	return nil, nil
}
func (m *memStore) ListProductIDs(ctx context.Context) ([]int64, error) { return nil, nil }

func (m *memStore) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	m.mu.Lock()
	p, ok := m.products[id]
	m.mu.Unlock()
	if !ok {
		return domain.Product{}, domain.NotFound("product", id)
	}
	if m.afterProductRead != nil {
		m.afterProductRead()
	}
	return p, nil
}

type memTx struct {
	products map[int64]domain.Product
	reviews  map[int64]domain.Review
	nextID   int64
	failOn   string
}

func (t *memTx) fail(method string) error {
	if t.failOn == method {
		return errBoom
	}
	return nil
}

func (t *memTx) LockProduct(ctx context.Context, id int64) (domain.Product, error) {
	if err := t.fail("LockProduct"); err != nil {
		return domain.Product{}, err
	}
	p, ok := t.products[id]
	if !ok {
		return domain.Product{}, domain.NotFound("product", id)
	}
	return p, nil
}

func (t *memTx) ActiveGradeStats(ctx context.Context, productID int64) (domain.GradeStats, error) {
	if err := t.fail("ActiveGradeStats"); err != nil {
		return domain.GradeStats{}, err
	}
	var s domain.GradeStats
	for _, r := range t.reviews {
		if r.ProductID == productID && r.IsActive {
			s.Count++
			s.Sum += int64(r.Grade)
		}
	}
	return s, nil
}

func (t *memTx) SetProductRating(ctx context.Context, productID int64, rating decimal.Decimal) error {
	if err := t.fail("SetProductRating"); err != nil {
		return err
	}
	p := t.products[productID]
	p.Rating = rating
	t.products[productID] = p
	return nil
}

func (t *memTx) LockReview(ctx context.Context, id int64) (domain.Review, error) {
	r, ok := t.reviews[id]
	if !ok {
		return domain.Review{}, domain.NotFound("review", id)
	}
	return r, nil
}

func (t *memTx) InsertReview(ctx context.Context, r *domain.Review) error {
	if err := t.fail("InsertReview"); err != nil {
		return err
	}
	t.nextID++
	r.ID = t.nextID
	t.reviews[r.ID] = *r
	return nil
}

func (t *memTx) DeactivateReview(ctx context.Context, id int64) error {
	if err := t.fail("DeactivateReview"); err != nil {
		return err
	}
	r := t.reviews[id]
	r.IsActive = false
	t.reviews[id] = r
	return nil
}

// ---- cache that round-trips through JSON like the redis adapter ----

type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	var n int64
	if b, ok := c.store[key]; ok {
		if err := json.Unmarshal(b, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.store[key], _ = json.Marshal(n)
	return n, nil
}

func (c *fakeCache) gen(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	_ = json.Unmarshal(c.store[key], &n)
	return n
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

func ptr[T any](v T) *T { return &v }

func activeProduct(id int64) domain.Product {
	return domain.Product{ID: id, Name: "Product", Price: decimal.RequireFromString("9.99"), Stock: 10, IsActive: true, CategoryID: 1}
}
