// Package repository persists extracted payout facts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateFact indicates an equivalent fact (same owner, amount, pay
// date) already exists. It is an outcome the service reports, not a server
// error.
var ErrDuplicateFact = errors.New("equivalent dividend already exists")

// Fact is the persisted payout record extracted from one statement.
type Fact struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"-"`
	ISIN        string    `json:"isin"`
	IssuerName  string    `json:"issuerName"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	PayDate     time.Time `json:"payDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MonthlyTotal is one month's aggregated payout for the dashboard.
type MonthlyTotal struct {
	Month      string `json:"month"` // YYYY-MM
	TotalCents int64  `json:"totalCents"`
}

// DividendRepository is the store contract the upload service depends on.
// Insert reports a uniqueness conflict as ErrDuplicateFact so a race
// between concurrent uploads of the same statement resolves the same way
// as a pre-check hit.
type DividendRepository interface {
	Insert(ctx context.Context, fact *Fact) error
	Exists(ctx context.Context, ownerID uuid.UUID, amountCents int64, payDate time.Time) (bool, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Fact, error)
	MonthlySummary(ctx context.Context, ownerID uuid.UUID) ([]MonthlyTotal, error)
}

// DB is the subset of pgxpool.Pool the repository uses. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
