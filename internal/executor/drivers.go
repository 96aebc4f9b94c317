package executor

import (
	"fmt"
	"net/url"

	// The blank imports register database/sql drivers.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
)

func init() {
	Register("duckdb", duckdbDSN)
	Register("postgres", postgresDSN)
}

func duckdbDSN(cfg Config) (string, string, error) {
	// Empty path means an in-memory database, same as ":memory:".
	return "duckdb", cfg.Database, nil
}

func postgresDSN(cfg Config) (string, string, error) {
	if cfg.Host == "" {
		return "", "", fmt.Errorf("postgres target requires a host")
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	q := u.Query()
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return "pgx", u.String(), nil
}
