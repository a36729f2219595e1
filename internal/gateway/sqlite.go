package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/surveyline/spotd/internal/spot"
)

// SQLiteGateway persists the spot document in an embedded SQLite database.
//
// The database runs in embedded mode with WAL for concurrent reads. Saves
// replace the whole document inside one transaction, so readers never
// observe a partially written sequence. Store order is kept in an explicit
// position column.
type SQLiteGateway struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) a spot database at the given path.
//
// The caller MUST call Close() when done to ensure proper cleanup.
func OpenSQLite(path string) (*SQLiteGateway, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	g := &SQLiteGateway{conn: conn, path: path}

	if _, err := g.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := g.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := g.initSchema(); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

// Close closes the database connection, checkpointing the WAL first.
func (g *SQLiteGateway) Close() error {
	if g.conn == nil {
		return nil
	}
	if _, err := g.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := g.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	g.conn = nil
	return nil
}

// Path returns the database file path.
func (g *SQLiteGateway) Path() string { return g.path }

// initSchema creates the spots table if needed. Idempotent.
func (g *SQLiteGateway) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS spots (
		object_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		rel_alt REAL NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',

		-- Store order: the document is an ordered sequence
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_spots_kind ON spots(kind);
	CREATE INDEX IF NOT EXISTS idx_spots_position ON spots(position);
	`
	if _, err := g.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load reads the full spot document in position order.
func (g *SQLiteGateway) Load(ctx context.Context) ([]spot.Spot, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT object_id, name, lat, lon, rel_alt, note, kind
		 FROM spots ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spots: %w", err)
	}
	defer rows.Close()

	var spots []spot.Spot
	for rows.Next() {
		var s spot.Spot
		var kind string
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon, &s.RelAlt, &s.Note, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		s.Kind = spot.Kind(kind)
		spots = append(spots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read spots: %w", err)
	}
	return spots, nil
}

// Save replaces the whole document in one transaction.
func (g *SQLiteGateway) Save(ctx context.Context, spots []spot.Spot) error {
	tx, err := g.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM spots`); err != nil {
		return fmt.Errorf("failed to clear spots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO spots (object_id, name, lat, lon, rel_alt, note, kind, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range spots {
		if _, err := stmt.ExecContext(ctx,
			s.ID, s.Name, s.Lat, s.Lon, s.RelAlt, s.Note, string(s.Kind), i); err != nil {
			return fmt.Errorf("failed to insert spot %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Count returns the number of stored spots.
func (g *SQLiteGateway) Count(ctx context.Context) (int, error) {
	var n int
	if err := g.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM spots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count spots: %w", err)
	}
	return n, nil
}
