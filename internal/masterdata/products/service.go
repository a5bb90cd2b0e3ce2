package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gudang-app/gudang/internal/masterdata/shared"
	"github.com/gudang-app/gudang/internal/platform/cache"
)

// Service is the catalog store used by catalog management and by import confirmation.
type Service struct {
	repo     Repository
	cache    *cache.Versioned
	validate *validator.Validate
}

// NewService builds Service. cache may be nil.
func NewService(repo Repository, c *cache.Versioned) *Service {
	return &Service{repo: repo, cache: c, validate: validator.New()}
}

// List returns the whole catalog in insertion order.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	key, err := s.cache.BuildKey(ctx, "products")
	if err != nil {
		return s.repo.List(ctx)
	}
	var products []Product
	err = s.cache.FetchJSON(ctx, key, &products, func(ctx context.Context) (any, error) {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []Product{}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Upsert creates or replaces a single product, minting an id when missing.
func (s *Service) Upsert(ctx context.Context, product Product) (Product, error) {
	normalized, err := s.normalize(product)
	if err != nil {
		return Product{}, err
	}
	if err := s.repo.UpsertBatch(ctx, []Product{normalized}); err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	return normalized, nil
}

// UpsertAll writes every product atomically. Ids already assigned are kept as-is.
func (s *Service) UpsertAll(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	batch := make([]Product, 0, len(products))
	for _, p := range products {
		normalized, err := s.normalize(p)
		if err != nil {
			return err
		}
		batch = append(batch, normalized)
	}
	if err := s.repo.UpsertBatch(ctx, batch); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return shared.ErrInvalidID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	// a stale cache only delays visibility until the TTL expires
	_ = s.cache.Bump(ctx)
}

func (s *Service) normalize(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	if p.Color == "" {
		p.Color = DefaultColor
	}
	var err error
	if p.Price, err = NormalizeDecimal(p.Price); err != nil {
		return Product{}, fmt.Errorf("%w: price: %v", shared.ErrValidation, err)
	}
	if p.CostPrice, err = NormalizeDecimal(p.CostPrice); err != nil {
		return Product{}, fmt.Errorf("%w: cost price: %v", shared.ErrValidation, err)
	}
	if err := s.validate.Struct(p); err != nil {
		return Product{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return p, nil
}

// NormalizeDecimal canonicalises a decimal string; blank input becomes "0".
func NormalizeDecimal(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0", nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}
