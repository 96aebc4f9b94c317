package lineage

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metalens/internal/metastore"
	"github.com/leapstack-labs/metalens/internal/testutil"
)

type stubResolver struct {
	ref   *metastore.EntityRef
	err   error
	calls atomic.Int64
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*metastore.EntityRef, error) {
	s.calls.Add(1)
	return s.ref, s.err
}

type stubFetcher struct {
	upstream   []metastore.ProcessRecord
	downstream []metastore.ProcessRecord
	calls      atomic.Int64
}

func (s *stubFetcher) FetchBoth(_ context.Context, _ string) ([]metastore.ProcessRecord, []metastore.ProcessRecord) {
	s.calls.Add(1)
	return s.upstream, s.downstream
}

func TestService_BuildsAndCaches(t *testing.T) {
	resolver := &stubResolver{ref: testEntity()}
	fetcher := &stubFetcher{
		upstream: []metastore.ProcessRecord{proc("p1", "A → F", nil)},
	}
	svc := NewService(resolver, fetcher, time.Minute, 20, testutil.DiscardLogger())

	g1, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.NoError(t, err)
	require.NotNil(t, g1)

	g2, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.NoError(t, err)
	assert.Same(t, g1, g2, "second request should come from cache")
	assert.Equal(t, int64(1), fetcher.calls.Load(), "fetch runs once")
	assert.Equal(t, int64(2), resolver.calls.Load(), "resolution is not cached")
}

func TestService_RefreshBypassesCache(t *testing.T) {
	resolver := &stubResolver{ref: testEntity()}
	fetcher := &stubFetcher{
		upstream: []metastore.ProcessRecord{proc("p1", "A → F", nil)},
	}
	svc := NewService(resolver, fetcher, time.Minute, 20, testutil.DiscardLogger())

	g1, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.NoError(t, err)
	g2, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{Refresh: true})
	require.NoError(t, err)

	assert.NotSame(t, g1, g2)
	assert.Equal(t, int64(2), fetcher.calls.Load())
}

func TestService_NoLineage(t *testing.T) {
	resolver := &stubResolver{ref: testEntity()}
	svc := NewService(resolver, &stubFetcher{}, time.Minute, 20, testutil.DiscardLogger())

	g, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.ErrorIs(t, err, ErrNoLineage)
	require.NotNil(t, g, "isolated asset still gets a valid graph")
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)

	// The cached isolated graph keeps reporting no lineage.
	g2, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.ErrorIs(t, err, ErrNoLineage)
	assert.Same(t, g, g2)
}

func TestService_EntityNotFound(t *testing.T) {
	resolver := &stubResolver{err: metastore.ErrEntityNotFound}
	svc := NewService(resolver, &stubFetcher{}, time.Minute, 20, testutil.DiscardLogger())

	g, err := svc.Lineage(context.Background(), "NOPE", Options{})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestService_CacheKeyCaseNormalized(t *testing.T) {
	refUpper := &metastore.EntityRef{ID: "GUID-X", Name: "T", TypeName: "Table"}
	resolver := &stubResolver{ref: refUpper}
	fetcher := &stubFetcher{
		upstream: []metastore.ProcessRecord{proc("p1", "A → T", nil)},
	}
	svc := NewService(resolver, fetcher, time.Minute, 20, testutil.DiscardLogger())

	_, err := svc.Lineage(context.Background(), "T", Options{})
	require.NoError(t, err)

	// Same entity resolving with different id casing hits the cache.
	resolver.ref = &metastore.EntityRef{ID: "guid-x", Name: "T", TypeName: "Table"}
	_, err = svc.Lineage(context.Background(), "T", Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestService_Invalidate(t *testing.T) {
	resolver := &stubResolver{ref: testEntity()}
	fetcher := &stubFetcher{
		upstream: []metastore.ProcessRecord{proc("p1", "A → F", nil)},
	}
	svc := NewService(resolver, fetcher, time.Minute, 20, testutil.DiscardLogger())

	_, err := svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.NoError(t, err)

	svc.Invalidate("guid-focal")
	_, err = svc.Lineage(context.Background(), "FACT_ORDERS", Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetcher.calls.Load())
}
