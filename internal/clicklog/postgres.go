package clicklog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a PostgreSQL-backed Store over the click_log table.
type PG struct {
	pool pgxQuerier
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed store.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// NewPGWithQuerier constructs a PostgreSQL-backed store over any querier;
// used by tests with pgxmock.
func NewPGWithQuerier(q pgxQuerier) *PG {
	return &PG{pool: q}
}

// Record appends one click observation.
func (s *PG) Record(ctx context.Context, ipHash string, at time.Time) error {
	const q = `INSERT INTO click_log (ip_hash, clicked_at) VALUES ($1, $2)`
	_, err := s.pool.Exec(ctx, q, ipHash, at)
	return err
}

// CountSince counts observations for ipHash after since.
func (s *PG) CountSince(ctx context.Context, ipHash string, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM click_log WHERE ip_hash=$1 AND clicked_at > $2`
	var n int
	if err := s.pool.QueryRow(ctx, q, ipHash, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Prune deletes observations older than before.
func (s *PG) Prune(ctx context.Context, before time.Time) error {
	const q = `DELETE FROM click_log WHERE clicked_at < $1`
	_, err := s.pool.Exec(ctx, q, before)
	return err
}
