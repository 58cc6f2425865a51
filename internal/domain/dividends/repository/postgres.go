package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresDividendRepository stores facts in the dividends table.
type PostgresDividendRepository struct {
	db     DB
	logger *slog.Logger
}

// NewPostgresDividendRepository creates a Postgres-backed repository
func NewPostgresDividendRepository(db DB, logger *slog.Logger) *PostgresDividendRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDividendRepository{db: db, logger: logger}
}

// Insert persists a fact. The unique constraint on (user_id, amount_cents,
// pay_date) is the serialization point for concurrent uploads of the same
// statement; its violation is mapped to ErrDuplicateFact.
func (r *PostgresDividendRepository) Insert(ctx context.Context, fact *Fact) error {
	query := `
		INSERT INTO dividends (user_id, isin, issuer_name, amount_cents, currency, pay_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		fact.OwnerID,
		fact.ISIN,
		fact.IssuerName,
		fact.AmountCents,
		fact.Currency,
		fact.PayDate,
	).Scan(&fact.ID, &fact.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateFact
		}
		r.logger.Error("failed to insert dividend", slog.Any("error", err))
		return err
	}

	return nil
}

// Exists checks for an equivalent fact before insert. ISIN and issuer name
// are not part of the identity key.
func (r *PostgresDividendRepository) Exists(ctx context.Context, ownerID uuid.UUID, amountCents int64, payDate time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM dividends
			WHERE user_id = $1 AND amount_cents = $2 AND pay_date = $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, ownerID, amountCents, payDate).Scan(&exists); err != nil {
		r.logger.Error("duplicate pre-check failed", slog.Any("error", err))
		return false, err
	}
	return exists, nil
}

// ListByOwner returns the owner's facts, newest pay date first.
func (r *PostgresDividendRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Fact, error) {
	query := `
		SELECT id, user_id, isin, issuer_name, amount_cents, currency, pay_date, created_at
		FROM dividends
		WHERE user_id = $1
		ORDER BY pay_date DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(
			&f.ID, &f.OwnerID, &f.ISIN, &f.IssuerName,
			&f.AmountCents, &f.Currency, &f.PayDate, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// MonthlySummary aggregates payouts per calendar month for the dashboard.
func (r *PostgresDividendRepository) MonthlySummary(ctx context.Context, ownerID uuid.UUID) ([]MonthlyTotal, error) {
	query := `
		SELECT to_char(pay_date, 'YYYY-MM') AS month, COALESCE(SUM(amount_cents), 0)
		FROM dividends
		WHERE user_id = $1
		GROUP BY 1
		ORDER BY 1
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []MonthlyTotal
	for rows.Next() {
		var t MonthlyTotal
		if err := rows.Scan(&t.Month, &t.TotalCents); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
