// Package history keeps a local log of every dispatched order and the result
// it produced.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sipeed/alfred/pkg/dispatch"
	"github.com/sipeed/alfred/pkg/order"
	"github.com/sipeed/alfred/pkg/redaction"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT    NOT NULL,
	domain      TEXT    NOT NULL,
	command     TEXT    NOT NULL,
	args        TEXT    NOT NULL,
	ok          INTEGER NOT NULL,
	error       TEXT    NOT NULL DEFAULT '',
	returncode  INTEGER,
	duration_ms INTEGER,
	result      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dispatches_created ON dispatches(created_at);
`

// Entry is one recorded dispatch.
type Entry struct {
	ID         int64
	CreatedAt  time.Time
	Order      order.Order
	OK         bool
	Error      string
	ReturnCode *int
	DurationMs *int64
	Result     dispatch.Result
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends o and its result. It satisfies dispatch.Recorder.
func (s *Store) Record(ctx context.Context, o order.Order, res dispatch.Result) error {
	args, err := json.Marshal(o.Args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	body, err := json.Marshal(redaction.RedactFields(res))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	meta, _ := res[dispatch.MetaKey].(map[string]any)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatches (created_at, domain, command, args, ok, error, returncode, duration_ms, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano),
		o.Domain,
		o.Command,
		string(args),
		res.OK(),
		redaction.Redact(res.ErrorMessage()),
		intOrNil(meta["returncode"]),
		intOrNil(meta["duration_ms"]),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, domain, command, args, ok, error, returncode, duration_ms, result
		 FROM dispatches ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			createdAt  string
			args, body string
			code, dur  sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Order.Domain, &e.Order.Command, &args,
			&e.OK, &e.Error, &code, &dur, &body); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if err := json.Unmarshal([]byte(args), &e.Order.Args); err != nil {
			return nil, fmt.Errorf("decode args of entry %d: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(body), &e.Result); err != nil {
			return nil, fmt.Errorf("decode result of entry %d: %w", e.ID, err)
		}
		if code.Valid {
			c := int(code.Int64)
			e.ReturnCode = &c
		}
		if dur.Valid {
			d := dur.Int64
			e.DurationMs = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func intOrNil(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return nil
	}
}
