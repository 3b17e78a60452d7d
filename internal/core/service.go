// Package core implements the inventory domain: product CRUD, the bulk
// import pipeline, exports and the import audit trail.
package core

import (
	"context"
	"encoding/json"

	"inventario/internal/config"
	"inventario/internal/logging"
)

// ProductRepo is the persistence surface the service needs for products.
// *ProductStore implements it; tests substitute fakes.
type ProductRepo interface {
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, batch []ProductInput) error
	AllForExport(ctx context.Context) ([]Product, error)
}

// ImportLogRepo is the persistence surface for the import audit trail.
type ImportLogRepo interface {
	Create(ctx context.Context, filename string) (*ImportLog, error)
	Finish(ctx context.Context, id int64, fin ImportLogFinish) error
	List(ctx context.Context, skip, limit int) ([]ImportLog, int64, error)
	Get(ctx context.Context, id int64) (*ImportLog, error)
}

// Cache is the optional read cache for single product lookups. All methods
// are best-effort; the service treats errors as misses.
type Cache interface {
	Get(ctx context.Context, id int64) ([]byte, bool)
	Set(ctx context.Context, id int64, payload []byte) error
	Invalidate(ctx context.Context, id int64) error
}

// Service wires the domain operations together.
type Service struct {
	products ProductRepo
	logs     ImportLogRepo
	cache    Cache // nil when no cache is configured

	batchSize         int
	maxResponseErrors int
	defaultLimit      int
	maxLimit          int
}

// NewService builds a Service over pgx-backed stores.
func NewService(db DBTX, cache Cache, cfg *config.Config) *Service {
	return &Service{
		products:          NewProductStore(db),
		logs:              NewImportLogStore(db),
		cache:             cache,
		batchSize:         cfg.Import.BatchSize,
		maxResponseErrors: cfg.Import.MaxResponseErrors,
		defaultLimit:      cfg.Page.DefaultLimit,
		maxLimit:          cfg.Page.MaxLimit,
	}
}

// PageBounds resolves skip/limit against the configured bounds. Handlers
// use it to echo the effective pagination back to the client.
func (s *Service) PageBounds(skip, limit int) (int, int) {
	return s.clampPage(skip, limit)
}

// clampPage resolves skip/limit against the configured bounds.
func (s *Service) clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return skip, limit
}

// ListProducts returns a filtered page of products and the total match
// count.
func (s *Service) ListProducts(ctx context.Context, f ProductFilter) ([]Product, int64, error) {
	f.Skip, f.Limit = s.clampPage(f.Skip, f.Limit)
	return s.products.List(ctx, f)
}

// GetProduct returns a product by id, served from the cache when possible.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, id); ok {
			var p Product
			if err := json.Unmarshal(payload, &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, id, payload); err != nil {
				logging.FromContext(ctx).Warn("cache set failed", "product_id", id, "error", err)
			}
		}
	}
	return p, nil
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := ValidateInput(&in); err != nil {
		return nil, err
	}
	return s.products.Create(ctx, in)
}

// UpdateProduct merges a partial update into the stored product,
// re-validates and persists it.
func (s *Service) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (*Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(p, &u); err != nil {
		return nil, err
	}

	updated, err := s.products.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// DeleteProduct removes a product by id.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("cache invalidate failed", "product_id", id, "error", err)
	}
}

// ImportLogs returns a page of import runs, most recently started first.
func (s *Service) ImportLogs(ctx context.Context, skip, limit int) ([]ImportLog, int64, error) {
	skip, limit = s.clampPage(skip, limit)
	return s.logs.List(ctx, skip, limit)
}
