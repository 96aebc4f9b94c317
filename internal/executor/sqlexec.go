package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SQLExecutor implements Executor on top of database/sql. Any driver
// works as long as it can run plain SELECT statements; tests use
// sqlmock, production uses duckdb or pgx.
type SQLExecutor struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// NewSQLExecutor wraps an open *sql.DB. A nil logger defaults to
// slog.Default().
func NewSQLExecutor(db *sql.DB, logger *slog.Logger) *SQLExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLExecutor{DB: db, Logger: logger}
}

// Execute runs sqlStr and materializes the full result. Every value is
// scanned into any; []byte values are converted to string so callers
// see text, not driver internals.
func (e *SQLExecutor) Execute(ctx context.Context, sqlStr string) (*Result, error) {
	if e.DB == nil {
		return nil, &Failure{SQL: sqlStr, Err: fmt.Errorf("database connection not established")}
	}

	reqID := uuid.NewString()
	start := time.Now()
	e.Logger.Debug("executing query", "request_id", reqID, "sql", sqlStr)

	rows, err := e.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, &Failure{SQL: sqlStr, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &Failure{SQL: sqlStr, Err: err}
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &Failure{SQL: sqlStr, Err: err}
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &Failure{SQL: sqlStr, Err: err}
	}

	e.Logger.Debug("query complete",
		"request_id", reqID,
		"rows", len(result.Rows),
		"duration", time.Since(start))
	return result, nil
}

// Close closes the underlying connection.
func (e *SQLExecutor) Close() error {
	if e.DB != nil {
		return e.DB.Close()
	}
	return nil
}
