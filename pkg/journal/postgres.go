package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS actions (
	seq      BIGINT PRIMARY KEY,
	kind     TEXT NOT NULL,
	origin   TEXT NOT NULL,
	at       TIMESTAMPTZ NOT NULL,
	payload  BYTEA,
	checksum BIGINT NOT NULL
);`

// Postgres is a Journal backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a journal using a postgres:// DSN and creates the
// schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("dsn is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Append(ctx context.Context, rec Record) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO actions (seq, kind, origin, at, payload, checksum) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (seq) DO NOTHING`,
		int64(rec.Seq), rec.Kind, rec.Origin, rec.At.UTC(), rec.Payload, int64(rec.Checksum))
	if err != nil {
		return fmt.Errorf("append seq %d: %w", rec.Seq, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, afterSeq uint64, limit int) ([]Record, error) {
	q := `SELECT seq, kind, origin, at, payload, checksum FROM actions WHERE seq > $1 ORDER BY seq ASC`
	args := []any{int64(afterSeq)}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			seq, sum int64
			rec      Record
		)
		if err := rows.Scan(&seq, &rec.Kind, &rec.Origin, &rec.At, &rec.Payload, &sum); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.At = rec.At.UTC()
		rec.Checksum = uint64(sum)
		if err := Verify(rec); err != nil {
			return nil, fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) LastSeq(ctx context.Context) (uint64, error) {
	var seq *int64
	if err := p.pool.QueryRow(ctx, `SELECT MAX(seq) FROM actions`).Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	if seq == nil {
		return 0, nil
	}
	return uint64(*seq), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
