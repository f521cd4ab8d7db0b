package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/topicnet/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache stores topic embeddings in a SQLite database file.
type EmbeddingCache struct {
	db   *sql.DB
	path string
}

// NewEmbeddingCache opens or creates the cache database at path.
func NewEmbeddingCache(path string) (*EmbeddingCache, error) {
	if path == "" {
		return nil, errors.New("embedding cache: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	c := &EmbeddingCache{db: db, path: path}
	if err := c.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return c, nil
}

// Get returns the vector stored under key.
func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var (
		dims int
		blob []byte
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT dimensions, vector FROM embeddings WHERE key = ?`, key).Scan(&dims, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading embedding: %w", err)
	}

	vector := decodeVector(blob)
	if len(vector) != dims {
		// Truncated row; treat as a miss so it is rewritten.
		return nil, false, nil
	}
	return vector, true, nil
}

// Put stores vector under key, replacing any previous row.
func (c *EmbeddingCache) Put(ctx context.Context, key string, vector []float32) error {
	if len(vector) == 0 {
		return errors.New("embedding cache: refusing to store an empty vector")
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO embeddings (key, dimensions, vector)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			created_at = CURRENT_TIMESTAMP
	`, key, len(vector), encodeVector(vector))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// Clear removes every cached vector.
func (c *EmbeddingCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

// Path returns the database file the cache was opened on.
func (c *EmbeddingCache) Path() string {
	return c.path
}

// Close closes the database.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

type migration struct {
	version int
	name    string
}

// pendingMigrations lists NNN_name.up.sql files above current, oldest first.
func pendingMigrations(fsys fs.FS, current int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []migration
	for _, name := range names {
		var v int
		if _, err := fmt.Sscanf(name, "%d_", &v); err != nil || v <= current {
			continue
		}
		out = append(out, migration{version: v, name: name})
	}
	return out, nil
}

// migrate brings the schema up to the newest file in fsys. Each file runs in
// its own transaction together with its schema_migrations row.
func (c *EmbeddingCache) migrate(fsys fs.FS) error {
	const bootstrap = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := c.db.Exec(bootstrap); err != nil {
		return fmt.Errorf("schema_migrations: %w", err)
	}

	var current int
	if err := c.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, current)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, m := range pending {
		if err := c.apply(fsys, m); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}

func (c *EmbeddingCache) apply(fsys fs.FS, m migration) error {
	script, err := fs.ReadFile(fsys, m.name)
	if err != nil {
		return err
	}
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.Exec(string(script)); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}

// encodeVector stores each float32 as four little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v
}
