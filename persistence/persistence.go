package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paologalligit/films-feed/entities"
)

// Persistence records the outcome of each run
// Implementations: FilePersistence, PostgresPersistence
type Persistence interface {
	WriteRun(ctx context.Context, entry entities.RunLogEntry) error
}

// FilePersistence implements Persistence by appending JSON lines to a file
type FilePersistence struct {
	FilePath string
	mu       sync.Mutex
}

func NewFilePersistence(filePath string) *FilePersistence {
	return &FilePersistence{FilePath: filePath}
}

func (f *FilePersistence) WriteRun(ctx context.Context, entry entities.RunLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.OpenFile(f.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening run log: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("error writing run log entry: %w", err)
	}
	return nil
}

// PostgresPersistence implements Persistence by writing to the feed_run table
type PostgresPersistence struct {
	Pool *pgxpool.Pool
}

func NewPostgresPersistence(pool *pgxpool.Pool) *PostgresPersistence {
	return &PostgresPersistence{Pool: pool}
}

func (p *PostgresPersistence) WriteRun(ctx context.Context, entry entities.RunLogEntry) error {
	_, err := p.Pool.Exec(ctx, `
		INSERT INTO feed_run (run_id, checksum, films, sessions, kept, ignored, changed, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.RunId,
		entry.Checksum,
		entry.Films,
		entry.Sessions,
		entry.Kept,
		entry.Ignored,
		entry.Changed,
		entry.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting run log entry: %w", err)
	}
	return nil
}
