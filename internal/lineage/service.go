package lineage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/metalens/internal/cache"
	"github.com/leapstack-labs/metalens/internal/metastore"
)

// ErrNoLineage signals that resolution succeeded but no process in
// either direction references the entity. Callers still receive the
// valid one-node graph alongside this error so they can render the
// isolated asset with a "no recorded lineage" notice.
var ErrNoLineage = errors.New("no recorded lineage for entity")

// ErrEntityNotFound re-exports the resolver sentinel so callers only
// need this package.
var ErrEntityNotFound = metastore.ErrEntityNotFound

// Resolver locates an entity by name or GUID.
type Resolver interface {
	Resolve(ctx context.Context, nameOrID string) (*metastore.EntityRef, error)
}

// Fetcher retrieves an entity's processes in both directions.
type Fetcher interface {
	FetchBoth(ctx context.Context, entityID string) (upstream, downstream []metastore.ProcessRecord)
}

// Options tune one lineage request.
type Options struct {
	// Refresh bypasses the cache and overwrites it with the fresh
	// build.
	Refresh bool
}

// Service runs the resolve → fetch → build pipeline with a bounded
// expiring cache in front.
//
// Concurrent requests for the same entity are not coalesced: both run
// the full pipeline and both write the cache, last completion winning.
type Service struct {
	resolver Resolver
	fetcher  Fetcher
	graphs   *cache.Expiring[*Graph]
	logger   *slog.Logger
}

// NewService wires the pipeline. ttl and maxEntries size the graph
// cache; non-positive values use the cache package defaults (5 minutes,
// 20 entries).
func NewService(resolver Resolver, fetcher Fetcher, ttl time.Duration, maxEntries int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver: resolver,
		fetcher:  fetcher,
		graphs:   cache.New[*Graph](ttl, maxEntries),
		logger:   logger,
	}
}

// Lineage resolves nameOrID and returns its laid-out graph.
//
// Errors: ErrEntityNotFound when no collection matches; ErrNoLineage
// wrapped alongside a valid isolated-asset graph; executor failures
// from resolution propagate wrapped.
func (s *Service) Lineage(ctx context.Context, nameOrID string, opts Options) (*Graph, error) {
	entity, err := s.resolver.Resolve(ctx, nameOrID)
	if err != nil {
		return nil, err
	}

	key := cacheKey(entity.ID)
	if !opts.Refresh {
		if g, ok := s.graphs.Get(key); ok {
			s.logger.Debug("lineage cache hit", "entity", entity.ID)
			if g.Metadata.TotalProcesses == 0 {
				return g, fmt.Errorf("entity %s: %w", entity.Name, ErrNoLineage)
			}
			return g, nil
		}
	}

	upstream, downstream := s.fetcher.FetchBoth(ctx, entity.ID)
	g := Build(entity, upstream, downstream)
	s.graphs.Put(key, g)

	s.logger.Debug("lineage built",
		"entity", entity.ID,
		"upstream", g.Metadata.UpstreamCount,
		"downstream", g.Metadata.DownstreamCount,
		"processes", g.Metadata.TotalProcesses)

	if g.Metadata.TotalProcesses == 0 {
		return g, fmt.Errorf("entity %s: %w", entity.Name, ErrNoLineage)
	}
	return g, nil
}

// Invalidate drops the cached graph for an entity id, if any.
func (s *Service) Invalidate(entityID string) {
	s.graphs.Delete(cacheKey(entityID))
}

// cacheKey case-normalizes an entity id.
func cacheKey(entityID string) string {
	return strings.ToLower(entityID)
}
