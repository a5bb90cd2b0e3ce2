package units

import (
	"context"

	"github.com/gudang-app/gudang/internal/platform/cache"
)

type Service struct {
	repo  Repository
	cache *cache.Versioned
}

func NewService(repo Repository, c *cache.Versioned) *Service {
	return &Service{repo: repo, cache: c}
}

// List returns all units, served from cache when available.
func (s *Service) List(ctx context.Context) ([]Unit, error) {
	key, err := s.cache.BuildKey(ctx, "units")
	if err != nil {
		return s.repo.List(ctx)
	}
	var units []Unit
	err = s.cache.FetchJSON(ctx, key, &units, func(ctx context.Context) (any, error) {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []Unit{}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}
