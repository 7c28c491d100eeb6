package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS actions (
	seq      INTEGER PRIMARY KEY,
	kind     TEXT NOT NULL,
	origin   TEXT NOT NULL,
	at       TIMESTAMP NOT NULL,
	payload  BLOB,
	checksum INTEGER NOT NULL
);`

// SQLite is a Journal backed by an embedded SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens a journal using a sqlite: DSN.
// Examples:
//   - sqlite:file:./keel.sqlite?_pragma=busy_timeout(5000)
//   - sqlite:file:log?mode=memory&cache=shared
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("dsn is empty")
	}
	lower := strings.ToLower(dsn)
	if !strings.HasPrefix(lower, "sqlite:") {
		return nil, fmt.Errorf("unsupported dsn format: %s", dsn)
	}
	// ncruces/go-sqlite3 registers driver name "sqlite3" and accepts
	// file:... or :memory: DSNs.
	db, err := sql.Open("sqlite3", strings.TrimPrefix(dsn, "sqlite:"))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Append(ctx context.Context, rec Record) error {
	// INSERT OR IGNORE keeps appends idempotent per sequence number.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO actions (seq, kind, origin, at, payload, checksum) VALUES (?, ?, ?, ?, ?, ?)`,
		int64(rec.Seq), rec.Kind, rec.Origin, rec.At.UTC(), rec.Payload, int64(rec.Checksum))
	if err != nil {
		return fmt.Errorf("append seq %d: %w", rec.Seq, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, afterSeq uint64, limit int) ([]Record, error) {
	q := `SELECT seq, kind, origin, at, payload, checksum FROM actions WHERE seq > ? ORDER BY seq ASC`
	args := []any{int64(afterSeq)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			seq, sum int64
			rec      Record
			at       time.Time
		)
		if err := rows.Scan(&seq, &rec.Kind, &rec.Origin, &at, &rec.Payload, &sum); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.At = at.UTC()
		rec.Checksum = uint64(sum)
		if err := Verify(rec); err != nil {
			return nil, fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) LastSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM actions`).Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

func (s *SQLite) Close() error { return s.db.Close() }
