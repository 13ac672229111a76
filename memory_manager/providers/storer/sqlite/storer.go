package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/w-h-a/assistant/memory_manager/providers/storer"
	_ "modernc.org/sqlite"
)

const filename = "vectors.db"

const schema = `
	CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		content    TEXT NOT NULL,
		metadata   TEXT NOT NULL,
		embedding  TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
`

// sqliteStorer persists vectors to a directory and ranks them in process.
type sqliteStorer struct {
	options storer.Options
	conn    *sql.DB
}

func (s *sqliteStorer) Options() storer.Options {
	return s.options
}

func (s *sqliteStorer) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *sqliteStorer) CreateCollection(ctx context.Context) error {
	_, err := s.conn.ExecContext(
		ctx,
		`INSERT INTO collections (name, created_at) VALUES (?, ?)`,
		s.options.Collection,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStorer) Upsert(ctx context.Context, rec storer.Record) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	vecJSON, err := json.Marshal(rec.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO records (collection, id, content, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`

	_, err = s.conn.ExecContext(
		ctx,
		query,
		s.options.Collection,
		rec.Id,
		rec.Content,
		string(metaJSON),
		string(vecJSON),
		createdAt.Format(time.RFC3339Nano),
	)

	return err
}

func (s *sqliteStorer) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, content, metadata, embedding, created_at FROM records WHERE collection = ?`)

	args := []any{s.options.Collection}

	for key, value := range filter {
		if !storer.ValidFilterKey(key) {
			return nil, fmt.Errorf("invalid filter key %q", key)
		}
		sb.WriteString(` AND json_extract(metadata, ?) = ?`)
		args = append(args, "$."+key, value)
	}

	sb.WriteString(` ORDER BY rowid`)

	rows, err := s.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []storer.Record

	for rows.Next() {
		var rec storer.Record
		var metaJSON, vecJSON, createdAt string

		if err := rows.Scan(&rec.Id, &rec.Content, &metaJSON, &vecJSON, &createdAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
			rec.Metadata = map[string]string{}
		}

		if err := json.Unmarshal([]byte(vecJSON), &rec.Embedding); err != nil {
			slog.WarnContext(ctx, "skipping record with unreadable embedding", "id", rec.Id, "error", err)
			continue
		}

		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		candidates = append(candidates, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return storer.Nearest(candidates, vector, limit), nil
}

func (s *sqliteStorer) Ids(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id FROM records WHERE collection = ? ORDER BY rowid`, s.options.Collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	if len(options.Location) == 0 {
		options.Location = "./chroma_db"
	}

	if err := os.MkdirAll(options.Location, 0o755); err != nil {
		detail := "failed to create sqlite storer directory"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	conn, err := sql.Open("sqlite", filepath.Join(options.Location, filename))
	if err != nil {
		detail := "failed to open sqlite storer"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		detail := "failed to migrate sqlite storer"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	return &sqliteStorer{
		options: options,
		conn:    conn,
	}
}
