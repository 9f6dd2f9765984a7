package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// SchemaVersion is the latest schema version.
const SchemaVersion = 3

// partitionSince is the schema version that created each partition's table.
var partitionSince = map[domain.Partition]int{
	domain.PartitionPDFs:   1,
	domain.PartitionImages: 3,
}

// migrations[i] upgrades the schema from version i to i+1. Steps only ever add
// tables or indexes so existing blobs survive an upgrade.
var migrations = [][]string{
	// v1: the pdfs partition.
	{
		`CREATE TABLE IF NOT EXISTS pdfs (
			id          TEXT PRIMARY KEY,
			book_id     TEXT NOT NULL,
			file_name   TEXT NOT NULL DEFAULT '',
			file_type   TEXT NOT NULL DEFAULT '',
			file_size   INTEGER NOT NULL DEFAULT 0,
			data        BLOB NOT NULL,
			uploaded_at TEXT NOT NULL
		)`,
	},
	// v2: lookups of a book's PDF by owner.
	{
		`CREATE INDEX IF NOT EXISTS idx_pdfs_book_id ON pdfs(book_id)`,
	},
	// v3: the images partition (covers and the avatar).
	{
		`CREATE TABLE IF NOT EXISTS images (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL DEFAULT '',
			file_name   TEXT NOT NULL DEFAULT '',
			file_type   TEXT NOT NULL DEFAULT '',
			file_size   INTEGER NOT NULL DEFAULT 0,
			data        BLOB NOT NULL,
			uploaded_at TEXT NOT NULL
		)`,
	},
}

// migrate brings db up to target, one transaction per version step.
// It returns the version found and the version reached.
func migrate(ctx context.Context, db *sql.DB, target int) (int, int, error) {
	if target > len(migrations) {
		return 0, 0, fmt.Errorf("unknown schema version %d", target)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return 0, 0, fmt.Errorf("create meta table: %w", err)
	}

	from, err := currentVersion(ctx, db)
	if err != nil {
		return 0, 0, err
	}

	for v := from; v < target; v++ {
		if err := applyStep(ctx, db, v+1, migrations[v]); err != nil {
			return from, v, err
		}
	}

	return from, max(from, target), nil
}

func applyStep(ctx context.Context, db *sql.DB, version int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", version, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(version),
	); err != nil {
		return fmt.Errorf("record schema version %d: %w", version, err)
	}

	return tx.Commit()
}

// currentVersion reads meta.schema_version; a database without a meta table is version 0.
func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var tables int
	if err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'meta'`,
	).Scan(&tables); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if tables == 0 {
		return 0, nil
	}

	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", value, err)
	}
	return v, nil
}
