package metastore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metalens/internal/executor"
	"github.com/leapstack-labs/metalens/internal/testutil"
)

// fakeExec is an Executor keyed by SQL substring. Unmatched queries
// return an empty result.
type fakeExec struct {
	mu       sync.Mutex
	results  map[string]*executor.Result
	failures map[string]error
	queries  []string
}

func newFakeExec() *fakeExec {
	return &fakeExec{
		results:  make(map[string]*executor.Result),
		failures: make(map[string]error),
	}
}

func (f *fakeExec) on(substr string, result *executor.Result) { f.results[substr] = result }
func (f *fakeExec) failOn(substr string, err error)           { f.failures[substr] = err }

func (f *fakeExec) Execute(_ context.Context, sqlStr string) (*executor.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, sqlStr)
	f.mu.Unlock()

	for substr, err := range f.failures {
		if strings.Contains(sqlStr, substr) {
			return nil, err
		}
	}
	for substr, result := range f.results {
		if strings.Contains(sqlStr, substr) {
			return result, nil
		}
	}
	return &executor.Result{Columns: []string{"GUID", "NAME", "QUALIFIEDNAME", "TYPENAME"}}, nil
}

func (f *fakeExec) Close() error { return nil }

func entityRow(guid, name, qualified, typeName string) *executor.Result {
	return &executor.Result{
		Columns: []string{"GUID", "NAME", "QUALIFIEDNAME", "TYPENAME"},
		Rows:    [][]any{{guid, name, qualified, typeName}},
	}
}

func TestResolver_FindsEntityByName(t *testing.T) {
	exec := newFakeExec()
	exec.on("TABLE_ENTITY", entityRow("guid-1", "ORDERS", "DB/SALES/ORDERS", "Table"))

	r := NewResolver(exec, "MDLH", "PUBLIC", nil, testutil.DiscardLogger())
	ref, err := r.Resolve(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, "guid-1", ref.ID)
	assert.Equal(t, "ORDERS", ref.Name)
	assert.Equal(t, "TABLE_ENTITY", ref.Collection)
	assert.Equal(t, "Table", ref.TypeName)
}

func TestResolver_ProbesAllCollections(t *testing.T) {
	exec := newFakeExec()
	r := NewResolver(exec, "MDLH", "PUBLIC", nil, testutil.DiscardLogger())

	_, err := r.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.Len(t, exec.queries, len(DefaultCollections), "every collection should be probed")
}

func TestResolver_ScanOrderTieBreak(t *testing.T) {
	// Same name in two collections: the earlier one in the configured
	// scan order must win, regardless of probe completion order.
	exec := newFakeExec()
	exec.on("COLUMN_ENTITY", entityRow("col-guid", "REVENUE", "", "Column"))
	exec.on("VIEW_ENTITY", entityRow("view-guid", "REVENUE", "", "View"))

	r := NewResolver(exec, "MDLH", "PUBLIC", nil, testutil.DiscardLogger())
	for i := 0; i < 20; i++ {
		ref, err := r.Resolve(context.Background(), "REVENUE")
		require.NoError(t, err)
		assert.Equal(t, "col-guid", ref.ID)
	}
}

func TestResolver_ProbeErrorIsNoMatch(t *testing.T) {
	exec := newFakeExec()
	exec.failOn("TABLE_ENTITY", errors.New("table does not exist"))
	exec.on("VIEW_ENTITY", entityRow("view-guid", "DAILY_SALES", "", "View"))

	r := NewResolver(exec, "MDLH", "PUBLIC", nil, testutil.DiscardLogger())
	ref, err := r.Resolve(context.Background(), "DAILY_SALES")
	require.NoError(t, err, "one failing probe should not abort resolution")
	assert.Equal(t, "view-guid", ref.ID)
}

func TestResolver_AllProbesFail(t *testing.T) {
	exec := newFakeExec()
	for _, c := range DefaultCollections {
		exec.failOn(c, errors.New("warehouse unreachable"))
	}

	r := NewResolver(exec, "MDLH", "PUBLIC", nil, testutil.DiscardLogger())
	_, err := r.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestResolver_EmptyInput(t *testing.T) {
	r := NewResolver(newFakeExec(), "MDLH", "PUBLIC", nil, testutil.DiscardLogger())
	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestResolver_CustomCollections(t *testing.T) {
	exec := newFakeExec()
	exec.on("GLOSSARY_ENTITY", entityRow("g-1", "CHURN", "", "Term"))

	r := NewResolver(exec, "MDLH", "PUBLIC", []string{"GLOSSARY_ENTITY"}, testutil.DiscardLogger())
	ref, err := r.Resolve(context.Background(), "CHURN")
	require.NoError(t, err)
	assert.Equal(t, "GLOSSARY_ENTITY", ref.Collection)
	assert.Len(t, exec.queries, 1)
}

func TestResolveSQL(t *testing.T) {
	got := resolveSQL("MDLH", "PUBLIC", "TABLE_ENTITY", "o'rders")
	assert.Contains(t, got, "MDLH.PUBLIC.TABLE_ENTITY")
	assert.Contains(t, got, `UPPER("NAME") = UPPER('o''rders')`)
	assert.Contains(t, got, `"GUID" = 'o''rders'`)
	assert.Contains(t, got, "LIMIT 1")
}
