package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/answerdex/internal/db"
	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
)

// store is the consumer interface for the product catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config holds catalog key layout and index parameters.
type Config struct {
	KeyPrefix       string
	VectorDim       int
	VectorAlgorithm string // "flat" (exact) or "hnsw" (approximate)
}

// Repo stores products as hashes under a single FT index.
type Repo struct {
	store store
	cfg   Config
	hnsw  HNSWConfig
}

// New creates a catalog repository.
func New(s store, cfg Config) *Repo {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "answerdex:"
	}
	if cfg.VectorAlgorithm == "" {
		cfg.VectorAlgorithm = "flat"
	}
	return &Repo{store: s, cfg: cfg, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the catalog FT index if it does not exist yet.
// A concurrent create by another instance is not an error.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}

	def, err := r.buildIndex()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.indexName(), err)
	}
	return nil
}

// DropIndex removes the catalog FT index. Missing index is not an error,
// so reseeding works against a clean store.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index %s: %w", r.indexName(), err)
	}
	return nil
}

// Upsert creates or replaces a product document.
// The product must carry a vector matching the index dimension.
func (r *Repo) Upsert(ctx context.Context, p product.Product) error {
	if err := r.checkVector(&p); err != nil {
		return err
	}
	key := r.docKey(p.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(&p)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// UpsertBatch writes a batch of products in one round trip.
func (r *Repo) UpsertBatch(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(products))
	for i := range products {
		p := &products[i]
		if err := r.checkVector(p); err != nil {
			return err
		}
		items = append(items, db.HashSetItem{
			Key:    r.docKey(p.ID()),
			Fields: buildHashFields(p),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset multi %d products: %w", len(items), err)
	}
	return nil
}

// GetByID returns one product by its document ID.
func (r *Repo) GetByID(ctx context.Context, id string) (product.Product, error) {
	key := r.docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return product.Product{}, fmt.Errorf("hgetall %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	if len(m) == 0 {
		return product.Product{}, domain.ErrNotFound
	}
	return parseHashFields(id, m)
}

// GetByIDs returns products for the given IDs, preserving input order.
// Missing IDs are skipped rather than failing the whole lookup.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi %d products: %w: %w", len(keys), domain.ErrStoreUnavailable, err)
	}

	products := make([]product.Product, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		p, err := parseHashFields(ids[i], m)
		if err != nil {
			return nil, fmt.Errorf("parse product %s: %w", keys[i], err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Count returns the number of indexed products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", r.indexName(), err)
	}
	return n, nil
}

func (r *Repo) checkVector(p *product.Product) error {
	if len(p.Vector()) != r.cfg.VectorDim {
		return fmt.Errorf("product %s: vector has %d dims, index expects %d: %w",
			p.ID(), len(p.Vector()), r.cfg.VectorDim, domain.ErrVectorDimMismatch)
	}
	return nil
}

// Redis key patterns: answerdex:doc:{id}, answerdex:doc:idx, answerdex:doc:

func (r *Repo) docKey(id string) string {
	return fmt.Sprintf("%sdoc:%s", r.cfg.KeyPrefix, id)
}

func (r *Repo) indexName() string {
	return fmt.Sprintf("%sdoc:idx", r.cfg.KeyPrefix)
}

func (r *Repo) docPrefix() string {
	return fmt.Sprintf("%sdoc:", r.cfg.KeyPrefix)
}
