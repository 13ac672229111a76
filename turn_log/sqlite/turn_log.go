package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	turnlog "github.com/w-h-a/assistant/turn_log"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS chat (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		role      TEXT NOT NULL,
		parts     TEXT NOT NULL
	)
`

type sqliteTurnLog struct {
	options turnlog.Options
	conn    *sql.DB
}

func (l *sqliteTurnLog) Append(ctx context.Context, role string, text string) (turnlog.Turn, error) {
	now := time.Now().UTC()

	res, err := l.conn.ExecContext(
		ctx,
		`INSERT INTO chat (timestamp, role, parts) VALUES (?, ?, ?)`,
		now.Format(time.RFC3339Nano),
		role,
		text,
	)
	if err != nil {
		return turnlog.Turn{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return turnlog.Turn{}, err
	}

	return turnlog.Turn{Id: id, Timestamp: now, Role: role, Text: text}, nil
}

func (l *sqliteTurnLog) Tail(ctx context.Context, n int) ([]turnlog.Turn, error) {
	if n < 1 {
		return []turnlog.Turn{}, nil
	}

	query := `
		SELECT id, timestamp, role, parts FROM (
			SELECT id, timestamp, role, parts FROM chat ORDER BY id DESC LIMIT ?
		) ORDER BY id
	`

	return l.query(ctx, query, n)
}

func (l *sqliteTurnLog) List(ctx context.Context) ([]turnlog.Turn, error) {
	return l.query(ctx, `SELECT id, timestamp, role, parts FROM chat ORDER BY id`)
}

func (l *sqliteTurnLog) query(ctx context.Context, query string, args ...any) ([]turnlog.Turn, error) {
	rows, err := l.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []turnlog.Turn{}

	for rows.Next() {
		var t turnlog.Turn
		var ts string

		if err := rows.Scan(&t.Id, &ts, &t.Role, &t.Text); err != nil {
			return nil, err
		}

		t.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)

		turns = append(turns, t)
	}

	return turns, rows.Err()
}

func NewTurnLog(opts ...turnlog.Option) turnlog.TurnLog {
	options := turnlog.NewOptions(opts...)

	if dir := filepath.Dir(options.Location); len(dir) > 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			detail := "failed to create turn log directory"
			slog.ErrorContext(context.Background(), detail, "error", err)
			panic(detail)
		}
	}

	conn, err := sql.Open("sqlite", options.Location)
	if err != nil {
		detail := "failed to open sqlite turn log"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		detail := "failed to migrate sqlite turn log"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	return &sqliteTurnLog{
		options: options,
		conn:    conn,
	}
}
