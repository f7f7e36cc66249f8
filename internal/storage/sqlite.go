package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/etalase/internal/models"
)

var _ Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		price REAL NOT NULL DEFAULT 0,
		image TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);

	CREATE TABLE IF NOT EXISTS imports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		items INTEGER NOT NULL,
		imported_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceItems deletes every stored item and inserts items in order, in one transaction.
func (s *SQLiteStorage) ReplaceItems(ctx context.Context, source string, items []*models.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (id, position, name, description, category, tags, price, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags for item %s: %w", it.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID.String(), i, it.Name, it.Description, it.Category, string(tagsJSON), it.Price, it.Image,
		); err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, items, imported_at) VALUES (?, ?, ?)`,
		source, len(items), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		it       models.Item
		id       string
		tagsJSON string
	)
	if err := row.Scan(&id, &it.Name, &it.Description, &it.Category, &tagsJSON, &it.Price, &it.Image); err != nil {
		return nil, err
	}
	it.ID = models.ItemID(id)
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &it.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for item %s: %w", id, err)
		}
	}
	return &it, nil
}

// GetItem returns an item by ID.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, category, tags, price, image
		 FROM items WHERE id = ?`, id,
	)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// ListItems returns items in catalog order with offset and limit.
func (s *SQLiteStorage) ListItems(ctx context.Context, offset, limit int) ([]*models.Item, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, category, tags, price, image
		 FROM items ORDER BY position LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItems returns the total number of items.
func (s *SQLiteStorage) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	return count, err
}

// LastImport returns the most recent ReplaceItems record.
func (s *SQLiteStorage) LastImport(ctx context.Context) (*ImportRecord, error) {
	var rec ImportRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT source, items, imported_at FROM imports ORDER BY id DESC LIMIT 1`,
	).Scan(&rec.Source, &rec.Items, &rec.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no import recorded: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
