// Package migrations embeds the schema and applies it in file order.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// Direction selects up or down scripts.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Names lists migration versions found for dir, ordered for execution.
func Names(dir Direction) ([]string, error) {
	entries, err := fs.Glob(files, "*."+string(dir)+".sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	if dir == Down {
		sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	}
	return entries, nil
}

func version(name string) string {
	v, _, _ := strings.Cut(name, "_")
	return v
}

// Apply runs pending scripts in dir and records them in schema_migrations.
// It returns the names it executed.
func Apply(ctx context.Context, pool *pgxpool.Pool, dir Direction) ([]string, error) {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, fmt.Errorf("migrations: bootstrap: %w", err)
	}
	names, err := Names(dir)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range names {
		ran, err := applyOne(ctx, pool, dir, name)
		if err != nil {
			return done, fmt.Errorf("migrations: %s: %w", name, err)
		}
		if ran {
			done = append(done, name)
		}
	}
	return done, nil
}

func applyOne(ctx context.Context, pool *pgxpool.Pool, dir Direction, name string) (bool, error) {
	body, err := files.ReadFile(name)
	if err != nil {
		return false, err
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var applied bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
		version(name)).Scan(&applied); err != nil {
		return false, err
	}
	if (dir == Up) == applied {
		return false, nil
	}
	if _, err := tx.Exec(ctx, string(body)); err != nil {
		return false, err
	}
	if dir == Up {
		_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version(name))
	} else {
		_, err = tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version(name))
	}
	if err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
