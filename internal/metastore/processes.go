package metastore

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/metalens/internal/executor"
)

// DefaultPageSize caps how many processes one direction returns.
// No pagination follows; lineage for extreme fan-in entities is
// deliberately truncated to the most popular ten.
const DefaultPageSize = 10

// ProcessFetcher retrieves process records referencing an entity.
type ProcessFetcher struct {
	exec     executor.Executor
	database string
	schema   string
	pageSize int
	logger   *slog.Logger
}

// NewProcessFetcher builds a ProcessFetcher. Non-positive pageSize
// falls back to DefaultPageSize; nil logger to slog.Default().
func NewProcessFetcher(exec executor.Executor, database, schema string, pageSize int, logger *slog.Logger) *ProcessFetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessFetcher{
		exec:     exec,
		database: database,
		schema:   schema,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Fetch returns processes linked to entityID in the given direction,
// ordered by popularity descending with nulls last, capped at the page
// size. A fetch error degrades to an empty list so a broken direction
// never takes down the whole graph; the miss is only observable as
// missing edges.
func (f *ProcessFetcher) Fetch(ctx context.Context, entityID string, direction Direction) []ProcessRecord {
	if !direction.Valid() {
		f.logger.Warn("invalid fetch direction", "direction", direction)
		return nil
	}

	result, err := f.exec.Execute(ctx, processSQL(f.database, f.schema, direction, entityID, f.pageSize))
	if err != nil {
		f.logger.Warn("process fetch failed, treating as empty",
			"entity", entityID, "direction", direction, "error", err)
		return nil
	}
	return decodeProcesses(result)
}

// FetchBoth fetches both directions concurrently and returns
// (upstream, downstream). Each direction degrades independently.
func (f *ProcessFetcher) FetchBoth(ctx context.Context, entityID string) ([]ProcessRecord, []ProcessRecord) {
	var upstream, downstream []ProcessRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		upstream = f.Fetch(gctx, entityID, Upstream)
		return nil
	})
	g.Go(func() error {
		downstream = f.Fetch(gctx, entityID, Downstream)
		return nil
	})
	_ = g.Wait()
	return upstream, downstream
}

// decodeProcesses maps a tabular result onto ProcessRecords.
func decodeProcesses(result *executor.Result) []ProcessRecord {
	idIdx := columnIndex(result.Columns, "GUID")
	nameIdx := columnIndex(result.Columns, "NAME")
	typeIdx := columnIndex(result.Columns, "TYPENAME")
	inIdx := columnIndex(result.Columns, "INPUTS")
	outIdx := columnIndex(result.Columns, "OUTPUTS")
	popIdx := columnIndex(result.Columns, "POPULARITYSCORE")

	records := make([]ProcessRecord, 0, result.RowCount())
	for _, row := range result.Rows {
		rec := ProcessRecord{}
		if idIdx >= 0 {
			rec.ID = asString(row[idIdx])
		}
		if nameIdx >= 0 {
			rec.Name = asString(row[nameIdx])
		}
		if typeIdx >= 0 {
			rec.TypeName = asString(row[typeIdx])
		}
		if inIdx >= 0 {
			rec.Inputs = DecodeIDList(row[inIdx])
		}
		if outIdx >= 0 {
			rec.Outputs = DecodeIDList(row[outIdx])
		}
		if popIdx >= 0 {
			rec.Popularity = decodeScore(row[popIdx])
		}
		records = append(records, rec)
	}
	return records
}
