// Package sequencerepo backs order numbering with a PostgreSQL sequence. nextval is
// never rolled back, so a number drawn by a save that later fails is simply skipped.
package sequencerepo

import (
	"context"
	"fmt"
	"strings"

	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// DefaultName is the sequence the service creates on migrate.
const DefaultName = "order_number_seq"

var _ ports.OrderNumberSequence = (*PgxSequence)(nil)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxSequence draws values from a named PostgreSQL sequence.
type PgxSequence struct {
	db   querier
	name string
}

func NewPgxSequence(db querier, name string) (*PgxSequence, error) {
	if db == nil {
		return nil, errs.NewValueIsRequiredError("db")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errs.NewValueIsRequiredError("name")
	}
	return &PgxSequence{db: db, name: name}, nil
}

// Ensure creates the sequence if it does not exist yet.
func (s *PgxSequence) Ensure(ctx context.Context, start int64) error {
	if start < 1 {
		return errs.NewValueIsOutOfRangeError("start", start, 1, "unbounded")
	}
	sql := fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH %d", pq.QuoteIdentifier(s.name), start)
	if _, err := s.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create sequence %s: %w", s.name, err)
	}
	return nil
}

func (s *PgxSequence) Next(ctx context.Context) (int64, error) {
	var next int64
	if err := s.db.QueryRow(ctx, "SELECT nextval($1::text::regclass)", pq.QuoteIdentifier(s.name)).Scan(&next); err != nil {
		return 0, fmt.Errorf("next value of %s: %w", s.name, err)
	}
	return next, nil
}
