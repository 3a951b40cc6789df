package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/logging"
)

const cacheKey = "banks:directory"

// Lister fetches the supported-banks directory from the gateway.
type Lister interface {
	ListBanks(ctx context.Context) ([]gateway.Bank, error)
}

// Service serves the bank directory with a Redis cache in front of the
// persisted copy. The gateway is only hit on an explicit refresh or when
// both the cache and the database are empty.
type Service struct {
	repo     Repository
	cache    *redis.Client
	lister   Lister
	logger   *slog.Logger
	cacheTTL time.Duration
}

func NewService(repo Repository, cache *redis.Client, lister Lister, logger *slog.Logger, cacheTTL time.Duration) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, cache: cache, lister: lister, logger: logger, cacheTTL: cacheTTL}
}

// List returns the active directory, cache first.
func (s *Service) List(ctx context.Context) ([]Bank, error) {
	if banks, ok := s.fromCache(ctx); ok {
		return banks, nil
	}

	banks, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(banks) == 0 {
		if banks, err = s.Refresh(ctx); err != nil {
			return nil, err
		}
		return banks, nil
	}

	s.toCache(ctx, banks)
	return banks, nil
}

// Refresh pulls the directory from the gateway, persists it, and rewrites
// the cache.
func (s *Service) Refresh(ctx context.Context) ([]Bank, error) {
	listed, err := s.lister.ListBanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh bank directory: %w", err)
	}

	banks := make([]Bank, 0, len(listed))
	for _, b := range listed {
		banks = append(banks, Bank{Code: b.Code, Name: b.Name, Slug: b.Slug})
	}
	if err := s.repo.Upsert(ctx, banks); err != nil {
		return nil, err
	}
	s.toCache(ctx, banks)
	s.logger.Info("bank directory refreshed", slog.Int("count", len(banks)))
	return banks, nil
}

// Validate checks a bank code against the active directory.
func (s *Service) Validate(ctx context.Context, code string) error {
	ok, err := s.repo.Exists(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}
	return nil
}

func (s *Service) fromCache(ctx context.Context) ([]Bank, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("bank cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	var banks []Bank
	if err := json.Unmarshal(raw, &banks); err != nil {
		return nil, false
	}
	return banks, true
}

func (s *Service) toCache(ctx context.Context, banks []Bank) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(banks)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("bank cache write failed", slog.String("error", err.Error()))
	}
}
