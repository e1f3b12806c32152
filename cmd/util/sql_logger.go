package util

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgschema/pgextract/internal/logger"
)

// Execer is what a replay runs statements on: *sql.DB, *sql.Conn or *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ExecLogged runs query on db. With debug logging on, the labelled query and
// the time the server took are logged.
func ExecLogged(ctx context.Context, db Execer, query, label string) (sql.Result, error) {
	if !logger.IsDebug() {
		return db.ExecContext(ctx, query)
	}

	log := logger.Get().With("label", label)
	log.Debug("Executing SQL", "bytes", len(query), "sql", query)
	start := time.Now()
	result, err := db.ExecContext(ctx, query)
	if err != nil {
		log.Debug("SQL execution failed", "elapsed", time.Since(start), "error", err)
		return nil, err
	}
	log.Debug("SQL execution succeeded", "elapsed", time.Since(start))
	return result, nil
}
