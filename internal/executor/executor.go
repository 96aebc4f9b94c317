// Package executor provides the read-only tabular query capability the
// lineage engine is built on.
//
// The engine assumes nothing about the warehouse beyond "run this SQL,
// get back columns and rows". Concrete drivers (DuckDB for local MDLH
// extracts, Postgres for warehouse mirrors) register themselves and are
// selected by config.
package executor

import (
	"context"
	"fmt"
)

// Result is the tabular outcome of one query.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of rows in the result.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ColumnIndex returns the position of the named column (case-sensitive),
// or -1 if absent.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Executor runs read-only SQL and returns a tabular result.
// Implementations must honor ctx cancellation; the engine has no
// timeout of its own.
type Executor interface {
	Execute(ctx context.Context, sqlStr string) (*Result, error)
	Close() error
}

// Failure wraps an error from the underlying executor so callers can
// distinguish "the warehouse said no" from engine-level conditions.
type Failure struct {
	SQL string
	Err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("executor failure: %v", f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
