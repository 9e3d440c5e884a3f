package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"misicuan-admin/internal/metrics"
	"misicuan-admin/internal/mission"
)

// CacheKey is where the catalog snapshot lives in Redis.
const CacheKey = "catalog:packages"

// ErrPackageNotFound is returned by Get for an unknown id.
var ErrPackageNotFound = errors.New("package not found")

// Store is the package source of truth.
type Store interface {
	ListPackages(ctx context.Context) ([]mission.Package, error)
}

// Cache is an optional shared second level. *cache.Redis satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Repository keeps the package catalog in memory. It loads lazily on first use
// and only changes on Refresh or Invalidate.
type Repository struct {
	store      Store
	cache      Cache
	ttl        time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	strategies []Strategy
	group      singleflight.Group

	mu       sync.RWMutex
	packages []mission.Package
	byID     map[string]mission.Package
	loaded   bool
}

// New builds a catalog over store. cache may be nil.
func New(store Store, cache Cache, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Repository {
	return &Repository{
		store:      store,
		cache:      cache,
		ttl:        ttl,
		logger:     logger.With("component", "catalog"),
		metrics:    m,
		strategies: DefaultStrategies,
	}
}

// WithStrategies replaces the resolution strategies.
func (r *Repository) WithStrategies(strategies ...Strategy) *Repository {
	r.strategies = strategies
	return r
}

// List returns the catalog in display order.
func (r *Repository) List(ctx context.Context) ([]mission.Package, error) {
	pkgs, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]mission.Package, len(pkgs))
	copy(out, pkgs)
	return out, nil
}

// Get returns one package by id.
func (r *Repository) Get(ctx context.Context, id string) (mission.Package, error) {
	if _, err := r.snapshot(ctx); err != nil {
		return mission.Package{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return mission.Package{}, fmt.Errorf("get package %s: %w", id, ErrPackageNotFound)
	}
	return p, nil
}

// Resolve finds the package an order's package name refers to.
func (r *Repository) Resolve(ctx context.Context, packageName string) (Match, bool, error) {
	pkgs, err := r.snapshot(ctx)
	if err != nil {
		return Match{}, false, err
	}
	m, ok := ResolveIn(pkgs, packageName, r.strategies)
	return m, ok, nil
}

// Search ranks packages against a free-text query.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]mission.Package, error) {
	pkgs, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return filterByQuery(pkgs, query, limit), nil
}

// Refresh reloads from the store and writes the result through to the cache.
// Concurrent callers share one load.
func (r *Repository) Refresh(ctx context.Context) ([]mission.Package, error) {
	v, err, _ := r.group.Do("refresh", func() (any, error) {
		return r.loadFromStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]mission.Package), nil
}

// Invalidate drops the in-memory and shared copies; the next read reloads.
func (r *Repository) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	r.packages = nil
	r.byID = nil
	r.loaded = false
	r.mu.Unlock()

	if r.cache == nil {
		return nil
	}
	if err := r.cache.Delete(ctx, CacheKey); err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	return nil
}

func (r *Repository) snapshot(ctx context.Context) ([]mission.Package, error) {
	r.mu.RLock()
	if r.loaded {
		pkgs := r.packages
		r.mu.RUnlock()
		return pkgs, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do("load", func() (any, error) {
		r.mu.RLock()
		if r.loaded {
			pkgs := r.packages
			r.mu.RUnlock()
			return pkgs, nil
		}
		r.mu.RUnlock()

		if pkgs, ok := r.loadFromCache(ctx); ok {
			return pkgs, nil
		}
		return r.loadFromStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]mission.Package), nil
}

func (r *Repository) loadFromCache(ctx context.Context) ([]mission.Package, bool) {
	if r.cache == nil {
		return nil, false
	}
	var pkgs []mission.Package
	found, err := r.cache.GetJSON(ctx, CacheKey, &pkgs)
	if err != nil {
		r.logger.Warn("catalog cache read failed", "error", err)
		r.metrics.Error("catalog")
		return nil, false
	}
	if !found {
		return nil, false
	}
	r.set(pkgs)
	r.countRefresh("redis")
	r.logger.Debug("catalog loaded", "source", "redis", "packages", len(pkgs))
	return pkgs, true
}

func (r *Repository) loadFromStore(ctx context.Context) ([]mission.Package, error) {
	pkgs, err := r.store.ListPackages(ctx)
	if err != nil {
		r.metrics.Error("catalog")
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	r.set(pkgs)
	r.countRefresh("db")
	r.logger.Info("catalog loaded", "source", "db", "packages", len(pkgs))

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, CacheKey, pkgs, r.ttl); err != nil {
			r.logger.Warn("catalog cache write failed", "error", err)
			r.metrics.Error("catalog")
		}
	}
	return pkgs, nil
}

func (r *Repository) set(pkgs []mission.Package) {
	byID := make(map[string]mission.Package, len(pkgs))
	for _, p := range pkgs {
		byID[p.ID] = p
	}
	r.mu.Lock()
	r.packages = pkgs
	r.byID = byID
	r.loaded = true
	r.mu.Unlock()
}

func (r *Repository) countRefresh(source string) {
	if r.metrics == nil {
		return
	}
	r.metrics.CatalogRefreshes.WithLabelValues(source).Inc()
}
