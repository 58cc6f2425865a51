package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/diviflow/internal/domain/dividends/extract"
	"github.com/FACorreiaa/diviflow/internal/domain/dividends/repository"
	"github.com/FACorreiaa/diviflow/pkg/pdftext"
)

type stubRecoverer struct {
	text string
	err  error
}

func (s *stubRecoverer) Recover(_ context.Context, _ []byte) (string, error) {
	return s.text, s.err
}

type fakeRepo struct {
	facts      []repository.Fact
	insertErr  error
	existsErr  error
	inserted   int
	existCalls int
}

func (f *fakeRepo) Insert(_ context.Context, fact *repository.Fact) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.facts {
		if existing.OwnerID == fact.OwnerID &&
			existing.AmountCents == fact.AmountCents &&
			existing.PayDate.Equal(fact.PayDate) {
			return repository.ErrDuplicateFact
		}
	}
	fact.ID = uuid.New()
	fact.CreatedAt = time.Now()
	f.facts = append(f.facts, *fact)
	f.inserted++
	return nil
}

func (f *fakeRepo) Exists(_ context.Context, ownerID uuid.UUID, amountCents int64, payDate time.Time) (bool, error) {
	f.existCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, existing := range f.facts {
		if existing.OwnerID == ownerID &&
			existing.AmountCents == amountCents &&
			existing.PayDate.Equal(payDate) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]repository.Fact, error) {
	var out []repository.Fact
	for _, fact := range f.facts {
		if fact.OwnerID == ownerID {
			out = append(out, fact)
		}
	}
	return out, nil
}

func (f *fakeRepo) MonthlySummary(_ context.Context, _ uuid.UUID) ([]repository.MonthlyTotal, error) {
	return nil, nil
}

const statementText = `Dividendenabrechnung
BASF SE
ISIN DE000BASF111
Valuta 01.03.2024
Nettobetrag 45,67 EUR
`

func newTestService(repo repository.DividendRepository, rec pdftext.Recoverer) *DividendService {
	opts := extract.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	engine := extract.NewEngine(nil, opts, nil)
	return NewDividendService(repo, rec, engine, time.Second, nil)
}

func TestProcessUpload_CreatesFact(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubRecoverer{text: statementText})
	ownerID := uuid.New()

	result, err := svc.ProcessUpload(context.Background(), ownerID, "basf.pdf", []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.Equal(t, int64(4567), result.Fact.AmountCents)
	assert.Equal(t, "DE000BASF111", result.Fact.ISIN)
	assert.Equal(t, "BASF SE", result.Fact.IssuerName)
	assert.Equal(t, "2024-03-01", result.Fact.PayDate.Format("2006-01-02"))
	assert.Empty(t, result.Guessed)
	assert.Equal(t, 1, repo.inserted)
}

func TestProcessUpload_SecondUploadIsDuplicate(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubRecoverer{text: statementText})
	ownerID := uuid.New()

	first, err := svc.ProcessUpload(context.Background(), ownerID, "basf.pdf", []byte("pdf"))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, first.Outcome)

	second, err := svc.ProcessUpload(context.Background(), ownerID, "basf.pdf", []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Contains(t, second.Message, "already exists")
	assert.Equal(t, 1, repo.inserted)
}

func TestProcessUpload_SameStatementDifferentOwners(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubRecoverer{text: statementText})

	first, err := svc.ProcessUpload(context.Background(), uuid.New(), "basf.pdf", []byte("pdf"))
	require.NoError(t, err)
	second, err := svc.ProcessUpload(context.Background(), uuid.New(), "basf.pdf", []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, first.Outcome)
	assert.Equal(t, OutcomeCreated, second.Outcome)
	assert.Equal(t, 2, repo.inserted)
}

func TestProcessUpload_InsertRaceReportsDuplicate(t *testing.T) {
	// Exists misses but Insert hits the unique constraint, as happens when
	// two uploads of the same statement land concurrently.
	repo := &fakeRepo{insertErr: repository.ErrDuplicateFact}
	svc := newTestService(repo, &stubRecoverer{text: statementText})

	result, err := svc.ProcessUpload(context.Background(), uuid.New(), "basf.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
}

func TestProcessUpload_UnreadableDocument(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubRecoverer{err: pdftext.ErrUnreadable})

	_, err := svc.ProcessUpload(context.Background(), uuid.New(), "junk.pdf", []byte("not a pdf"))
	require.ErrorIs(t, err, pdftext.ErrUnreadable)
	assert.Zero(t, repo.inserted)
}

func TestProcessUpload_AmountMissing(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &stubRecoverer{text: "Depotauszug ohne Zahlen\n"})

	_, err := svc.ProcessUpload(context.Background(), uuid.New(), "depot.pdf", []byte("pdf"))
	require.ErrorIs(t, err, extract.ErrAmountNotFound)
	assert.Zero(t, repo.inserted)
}

func TestProcessUpload_MissingDateIsGuessed(t *testing.T) {
	repo := &fakeRepo{}
	text := "BASF SE\nISIN DE000BASF111\nNettobetrag 45,67 EUR\n"
	svc := newTestService(repo, &stubRecoverer{text: text})

	result, err := svc.ProcessUpload(context.Background(), uuid.New(), "basf.pdf", []byte("pdf"))
	require.NoError(t, err)

	assert.Equal(t, "2025-06-15", result.Fact.PayDate.Format("2006-01-02"))
	assert.Contains(t, result.Guessed, extract.FieldPayDate)
}

func TestListDividends_PassesThrough(t *testing.T) {
	ownerID := uuid.New()
	repo := &fakeRepo{facts: []repository.Fact{
		{OwnerID: ownerID, AmountCents: 100, PayDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{OwnerID: uuid.New(), AmountCents: 200, PayDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(repo, &stubRecoverer{})

	facts, err := svc.ListDividends(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}
