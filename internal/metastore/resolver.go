package metastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/metalens/internal/executor"
)

// ErrEntityNotFound is returned when no configured collection holds a
// matching entity.
var ErrEntityNotFound = errors.New("entity not found in any collection")

// DefaultCollections lists the entity tables probed when config doesn't
// override them. Order matters: it is the tie-break when the same name
// exists in more than one collection.
var DefaultCollections = []string{
	"TABLE_ENTITY",
	"COLUMN_ENTITY",
	"VIEW_ENTITY",
	"SCHEMA_ENTITY",
	"DATABASE_ENTITY",
	"DASHBOARD_ENTITY",
	"REPORT_ENTITY",
}

// Resolver locates a canonical entity record by name or GUID across a
// fixed list of entity collections.
type Resolver struct {
	exec        executor.Executor
	database    string
	schema      string
	collections []string
	logger      *slog.Logger
}

// NewResolver builds a Resolver. Empty collections falls back to
// DefaultCollections; nil logger to slog.Default().
func NewResolver(exec executor.Executor, database, schema string, collections []string, logger *slog.Logger) *Resolver {
	if len(collections) == 0 {
		collections = DefaultCollections
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		exec:        exec,
		database:    database,
		schema:      schema,
		collections: collections,
		logger:      logger,
	}
}

// Collections returns the configured probe list in scan order.
func (r *Resolver) Collections() []string {
	out := make([]string, len(r.collections))
	copy(out, r.collections)
	return out
}

// Resolve probes every collection concurrently for a case-insensitive
// NAME match or exact GUID match, waits for all probes, and returns the
// first hit in scan order. A probe error (missing table, permission
// denied, timeout) counts as no match for that collection only.
//
// Name collisions across collections are settled by scan order, which
// keeps resolution deterministic regardless of which probe finishes
// first.
func (r *Resolver) Resolve(ctx context.Context, nameOrID string) (*EntityRef, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return nil, fmt.Errorf("empty entity name: %w", ErrEntityNotFound)
	}

	hits := make([]*EntityRef, len(r.collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, collection := range r.collections {
		g.Go(func() error {
			ref, err := r.probe(gctx, collection, nameOrID)
			if err != nil {
				// Probing a collection that doesn't exist behaves
				// like no match; the other probes keep running.
				r.logger.Debug("collection probe failed",
					"collection", collection, "error", err)
				return nil
			}
			hits[i] = ref
			return nil
		})
	}
	// Probe goroutines never return errors.
	_ = g.Wait()

	for _, ref := range hits {
		if ref != nil {
			return ref, nil
		}
	}
	return nil, fmt.Errorf("resolving %q: %w", nameOrID, ErrEntityNotFound)
}

// probe queries one collection. Returns (nil, nil) on a clean miss.
func (r *Resolver) probe(ctx context.Context, collection, nameOrID string) (*EntityRef, error) {
	result, err := r.exec.Execute(ctx, resolveSQL(r.database, r.schema, collection, nameOrID))
	if err != nil {
		return nil, err
	}
	if result.RowCount() == 0 {
		return nil, nil
	}

	row := result.Rows[0]
	ref := &EntityRef{Collection: collection}
	if i := columnIndex(result.Columns, "GUID"); i >= 0 {
		ref.ID = asString(row[i])
	}
	if i := columnIndex(result.Columns, "NAME"); i >= 0 {
		ref.Name = asString(row[i])
	}
	if i := columnIndex(result.Columns, "QUALIFIEDNAME"); i >= 0 {
		ref.QualifiedName = asString(row[i])
	}
	if i := columnIndex(result.Columns, "TYPENAME"); i >= 0 {
		ref.TypeName = asString(row[i])
	}
	if ref.ID == "" {
		return nil, fmt.Errorf("collection %s returned a row without a GUID", collection)
	}
	return ref, nil
}
