// Package service orchestrates statement uploads: text recovery, field
// extraction, duplicate guarding, and persistence.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/diviflow/internal/domain/dividends/extract"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/repository"
	"github.com/FACorreiaa/diviflow/pkg/money"
	"github.com/FACorreiaa/diviflow/pkg/pdftext"
)

// Outcome distinguishes a created fact from a recognized duplicate. A
// duplicate is not an error: the caller renders it as an informational
// state.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "skipped"
)

// UploadResult is the terminal state of one processed statement.
type UploadResult struct {
	Outcome Outcome
	Fact    *repository.Fact
	Message string

	// Guessed lists fields whose values were substituted rather than read
	// from the document, so callers can flag low-confidence results.
	Guessed []extract.Field
}

// DividendService processes statement uploads for authenticated owners.
type DividendService struct {
	repo            repository.DividendRepository
	recoverer       pdftext.Recoverer
	engine          *extract.Engine
	recoveryTimeout time.Duration
	logger          *slog.Logger
}

// NewDividendService creates the upload service
func NewDividendService(
	repo repository.DividendRepository,
	recoverer pdftext.Recoverer,
	engine *extract.Engine,
	recoveryTimeout time.Duration,
	logger *slog.Logger,
) *DividendService {
	if recoveryTimeout <= 0 {
		recoveryTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DividendService{
		repo:            repo,
		recoverer:       recoverer,
		engine:          engine,
		recoveryTimeout: recoveryTimeout,
		logger:          logger,
	}
}

// ProcessUpload runs one statement through the pipeline. Each upload is an
// independent unit of work; the only serialization point is the store's
// uniqueness constraint on (owner, amount, pay date).
func (s *DividendService) ProcessUpload(ctx context.Context, ownerID uuid.UUID, fileName string, document []byte) (*UploadResult, error) {
	rctx, cancel := context.WithTimeout(ctx, s.recoveryTimeout)
	defer cancel()

	text, err := s.recoverer.Recover(rctx, document)
	if err != nil {
		s.logger.Warn("text recovery failed",
			slog.String("file", fileName),
			slog.Any("error", err))
		return nil, err
	}

	doc := extract.NewDocument(text)
	extraction, err := s.engine.Extract(doc)
	if err != nil {
		s.logger.Warn("extraction failed",
			slog.String("file", fileName),
			slog.String("text_excerpt", excerpt(text, 200)),
			slog.Any("error", err))
		return nil, err
	}

	payDate, err := time.Parse("2006-01-02", extraction.PayDate)
	if err != nil {
		return nil, fmt.Errorf("invalid normalized pay date %q: %w", extraction.PayDate, err)
	}

	amount := money.NewFromDecimal(extraction.Amount, money.EUR)
	fact := &repository.Fact{
		OwnerID:     ownerID,
		ISIN:        extraction.ISIN,
		IssuerName:  extraction.IssuerName,
		AmountCents: amount.Amount(),
		Currency:    money.EUR,
		PayDate:     payDate,
	}

	exists, err := s.repo.Exists(ctx, ownerID, fact.AmountCents, fact.PayDate)
	if err != nil {
		return nil, fmt.Errorf("duplicate pre-check: %w", err)
	}
	if exists {
		return s.duplicateResult(fact, extraction), nil
	}

	if err := s.repo.Insert(ctx, fact); err != nil {
		if err == repository.ErrDuplicateFact {
			// Lost the race against a concurrent upload of the same
			// statement; same outcome as the pre-check hit.
			return s.duplicateResult(fact, extraction), nil
		}
		return nil, fmt.Errorf("insert dividend: %w", err)
	}

	s.logger.Info("dividend stored",
		slog.String("isin", fact.ISIN),
		slog.String("pay_date", extraction.PayDate),
		slog.Int64("amount_cents", fact.AmountCents))

	return &UploadResult{
		Outcome: OutcomeCreated,
		Fact:    fact,
		Message: fmt.Sprintf("Saved %s EUR from %s, pay date %s.", amount.String(), fact.IssuerName, extraction.PayDate),
		Guessed: guessedFields(extraction),
	}, nil
}

// ListDividends returns the owner's stored facts, newest first.
func (s *DividendService) ListDividends(ctx context.Context, ownerID uuid.UUID) ([]repository.Fact, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// MonthlySummary returns per-month payout totals for the owner.
func (s *DividendService) MonthlySummary(ctx context.Context, ownerID uuid.UUID) ([]repository.MonthlyTotal, error) {
	return s.repo.MonthlySummary(ctx, ownerID)
}

func (s *DividendService) duplicateResult(fact *repository.Fact, extraction *extract.Extraction) *UploadResult {
	amount := money.New(fact.AmountCents, fact.Currency)
	return &UploadResult{
		Outcome: OutcomeDuplicate,
		Fact:    fact,
		Message: fmt.Sprintf("This dividend (%s EUR, pay date %s) already exists.", amount.String(), extraction.PayDate),
		Guessed: guessedFields(extraction),
	}
}

func guessedFields(extraction *extract.Extraction) []extract.Field {
	var guessed []extract.Field
	for field, cand := range extraction.Provenance {
		if cand.Confidence == extract.ConfidenceGuessed {
			guessed = append(guessed, field)
		}
	}
	return guessed
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
