package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

// Cache is the slice of the redis client the lookup service uses.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	InventoryCacheKey(filterHash string) string
	InventoryCachePattern(category string) string
}

// Service answers availability lookups with a short-lived read-through cache.
// Stale counts are acceptable; the sale transaction is the authority.
type Service interface {
	ListAvailable(ctx context.Context, filter Filter) ([]DenominationStock, error)
	InvalidateCategory(ctx context.Context, category enums.VoucherCategory) error
}

type service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	enabled  bool
	logg     *logger.Logger
}

// NewService wires the inventory lookup service. Cache may be nil (lookups go
// straight to the database).
func NewService(repo Repository, cache Cache, cacheTTL time.Duration, cacheEnabled bool, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		enabled:  cacheEnabled && cache != nil,
		logg:     logg,
	}, nil
}

func (s *service) ListAvailable(ctx context.Context, filter Filter) ([]DenominationStock, error) {
	if !filter.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid voucher category %q", filter.Category))
	}

	key := ""
	if s.enabled {
		key = s.cache.InventoryCacheKey(filterKey(filter))
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var rows []DenominationStock
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				return rows, nil
			}
		} else if !errors.Is(err, redislib.Nil) && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("inventory cache read failed: %v", err))
		}
	}

	rows, err := s.repo.ListAvailable(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing available inventory")
	}
	if rows == nil {
		rows = []DenominationStock{}
	}

	if s.enabled && key != "" {
		if payload, err := json.Marshal(rows); err == nil {
			if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("inventory cache write failed: %v", err))
			}
		}
	}

	return rows, nil
}

func (s *service) InvalidateCategory(ctx context.Context, category enums.VoucherCategory) error {
	if !s.enabled {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, s.cache.InventoryCachePattern(category.String()))
}

// filterKey builds the cache key fragment, category first so invalidation can
// match the whole category with one pattern. The optional fields keep their
// position even when empty so distinct filters never share a key.
func filterKey(filter Filter) string {
	return fmt.Sprintf("%s:np=%s:sub=%s",
		filter.Category.String(),
		strings.ToLower(filter.NetworkProvider),
		strings.ToLower(filter.SubCategory),
	)
}
