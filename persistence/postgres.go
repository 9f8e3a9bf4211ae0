package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// NewPostgresPool creates a new pgx connection pool
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// InitPostgresSchema executes the embedded schema statements
func InitPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements(schemaSQL) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %q: %w", stmt, err)
		}
	}
	return nil
}

// schemaStatements splits on semicolons and drops comment-only chunks
func schemaStatements(sql string) []string {
	var out []string
	for stmt := range strings.SplitSeq(sql, ";") {
		var lines []string
		for line := range strings.SplitSeq(stmt, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return out
}
