package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/llm"
	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/service"
	"github.com/vinybarreto/extrato/internal/testutil"
)

const revolutStatement = "Tipo,Produto,Data de início,Data de Conclusão,Descrição,Montante,Comissão,Moeda,Estado,Saldo\n" +
	"Pagamento com cartão,Atual,2025-09-01 05:00:00,2025-09-01 06:10:18,Pagamento - Continente,-12.50,0,EUR,CONCLUÍDA,100.00\n" +
	"Pagamento com cartão,Atual,2025-09-02 05:00:00,2025-09-02 06:10:18,Pagamento - Farmácia Central,-8.20,0,EUR,CONCLUÍDA,91.80\n" +
	"Depósito,Atual,2025-09-03 05:00:00,2025-09-03 06:10:18,From John Smith,250.00,0,EUR,CONCLUÍDA,341.80\n"

type stubCategorizer struct {
	suggestions map[int]llm.Suggestion
	err         error
	calls       int
}

func (s *stubCategorizer) Categorize(_ context.Context, _ []llm.IndexedTransaction, _ []model.Category) (map[int]llm.Suggestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.suggestions, nil
}

// failingStorage fails to save any transaction whose description contains
// the marker, leaving everything else intact.
type failingStorage struct {
	service.Storage
	marker string
}

func (f *failingStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if strings.Contains(txn.Description, f.marker) {
		return errors.New("disk full")
	}
	return f.Storage.SaveTransaction(ctx, txn)
}

func TestPreviewRequiresUser(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	importer := New(tdb.Storage, nil)

	_, err := importer.Preview(context.Background(), "", "acc-1", "file.csv", revolutStatement)
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	assert.Equal(t, StateUpload, importer.State())
}

func TestPreviewUnknownFormatStaysInUpload(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	importer := New(tdb.Storage, nil)
	ctx := context.Background()

	_, err := importer.Preview(ctx, "user-1", "acc-1", "notas.txt", "just some notes\nnothing bank-like")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownFormat)

	var userErr *common.UserError
	assert.True(t, errors.As(err, &userErr), "format failures carry a user-facing message")
	assert.Equal(t, StateUpload, importer.State())

	// The session is still usable with a recognizable file.
	records, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, StatePreview, importer.State())
}

func TestPreviewParsesAndDetects(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	importer := New(tdb.Storage, nil)

	records, err := importer.Preview(context.Background(), "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.FormatRevolut, importer.Detection().Format)
	assert.Equal(t, 1.0, importer.Detection().Confidence)
	assert.Equal(t, "Pagamento - Continente", records[0].Txn.Description)
	assert.Equal(t, "user-1", records[0].Txn.UserID)
	assert.Equal(t, "acc-1", records[0].Txn.AccountID)
	assert.Equal(t, model.TypeIncome, records[2].Txn.Type)
	for _, r := range records {
		assert.False(t, r.Duplicate.IsDuplicate)
		assert.Empty(t, r.CategoryID)
	}
}

func TestPreviewFlagsDuplicates(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()

	tdb.SeedTransaction(ctx, model.Transaction{
		ID:          "existing-1",
		UserID:      "user-1",
		AccountID:   "acc-1",
		Date:        "2025-09-01",
		Description: "Pagamento - Continente",
		Currency:    "EUR",
		Type:        model.TypeExpense,
		Amount:      12.50,
	})

	importer := New(tdb.Storage, nil)
	records, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	assert.True(t, records[0].Duplicate.IsDuplicate)
	assert.Equal(t, "existing-1", records[0].Duplicate.ExistingID)
	assert.GreaterOrEqual(t, records[0].Duplicate.MatchScore, 0.95)
	assert.False(t, records[1].Duplicate.IsDuplicate)
}

func TestPreviewAppliesLearnedPatterns(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	food := tdb.CategoryByName(ctx, "user-1", "Alimentação")

	require.NoError(t, tdb.Storage.UpsertLearnedPattern(ctx, &model.LearnedPattern{
		UserID:     "user-1",
		Merchant:   "continente",
		CategoryID: food.ID,
	}))

	importer := New(tdb.Storage, nil)
	records, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	assert.Equal(t, food.ID, records[0].CategoryID)
	assert.Equal(t, SourceLearned, records[0].SuggestionSource)
	assert.Equal(t, 1.0, records[0].SuggestionConfidence)
	assert.Empty(t, records[1].CategoryID)
}

func TestPreviewAISuggestions(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	health := tdb.CategoryByName(ctx, "user-1", "Saúde")

	cat := &stubCategorizer{suggestions: map[int]llm.Suggestion{
		1: {CategoryID: health.ID, Confidence: 0.8},
	}}
	importer := New(tdb.Storage, cat)

	records, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	assert.Equal(t, health.ID, records[1].CategoryID)
	assert.Equal(t, SourceAI, records[1].SuggestionSource)
	assert.InDelta(t, 0.8, records[1].SuggestionConfidence, 0.001)
	assert.Empty(t, records[0].CategoryID)
}

func TestPreviewAIFailureDegrades(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	cat := &stubCategorizer{err: errors.New("api down")}
	importer := New(tdb.Storage, cat)

	records, err := importer.Preview(context.Background(), "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err, "AI failures never block an import")
	assert.Equal(t, 1, cat.calls)
	for _, r := range records {
		assert.Empty(t, r.CategoryID)
	}
}

func TestSetCategoryLearnsAndReportsSimilar(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	food := tdb.CategoryByName(ctx, "user-1", "Alimentação")

	// A committed, still uncategorized purchase at the same merchant.
	sibling := tdb.SeedTransaction(ctx, model.Transaction{
		UserID:      "user-1",
		AccountID:   "acc-1",
		Date:        "2025-08-15",
		Description: "Pagamento - Continente Amadora",
		Merchant:    "Continente",
		Currency:    "EUR",
		Type:        model.TypeExpense,
		Amount:      30.00,
	})

	importer := New(tdb.Storage, nil)
	_, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	similar, err := importer.SetCategory(ctx, 0, food.ID)
	require.NoError(t, err)
	assert.Contains(t, similar, sibling.ID)

	record := importer.Records()[0]
	assert.Equal(t, food.ID, record.CategoryID)
	assert.Empty(t, record.SuggestionSource, "manual choices are not suggestions")

	patterns, err := tdb.Storage.GetLearnedPatterns(ctx, "user-1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
	assert.Equal(t, "continente", patterns[0].Merchant)
	assert.Equal(t, food.ID, patterns[0].CategoryID)

	updated, err := importer.ApplyToSimilar(ctx, similar, food.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}

func TestSetCategoryRejectsUnknownCategory(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()

	importer := New(tdb.Storage, nil)
	_, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	_, err = importer.SetCategory(ctx, 0, "no-such-category")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestToggleDuplicate(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()

	tdb.SeedTransaction(ctx, model.Transaction{
		UserID:      "user-1",
		AccountID:   "acc-1",
		Date:        "2025-09-01",
		Description: "Pagamento - Continente",
		Currency:    "EUR",
		Type:        model.TypeExpense,
		Amount:      12.50,
	})

	importer := New(tdb.Storage, nil)
	records, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)
	require.True(t, records[0].Skipped())

	require.NoError(t, importer.ToggleDuplicate(0))
	assert.False(t, importer.Records()[0].Skipped())
	require.NoError(t, importer.ToggleDuplicate(0))
	assert.True(t, importer.Records()[0].Skipped())

	assert.Error(t, importer.ToggleDuplicate(1), "only duplicate-flagged records can be toggled")
}

func TestCommitImportsAndSkipsDuplicates(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()

	tdb.SeedTransaction(ctx, model.Transaction{
		UserID:      "user-1",
		AccountID:   "acc-1",
		Date:        "2025-09-01",
		Description: "Pagamento - Continente",
		Currency:    "EUR",
		Type:        model.TypeExpense,
		Amount:      12.50,
	})

	importer := New(tdb.Storage, nil)
	_, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	var progress [][2]int
	importer.OnProgress = func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}

	result, err := importer.Commit(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, model.BatchCompleted, result.Batch.Status)
	assert.Equal(t, 3, result.Batch.TotalCount)
	assert.Equal(t, 2, result.Batch.ImportedCount)
	assert.Equal(t, 1, result.Batch.DuplicateCount)
	assert.Zero(t, result.Batch.ErrorCount)
	assert.Equal(t, StateComplete, importer.State())

	require.Len(t, progress, 3)
	assert.Equal(t, [2]int{3, 3}, progress[2])

	batches, err := tdb.Storage.ListImportBatches(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].ImportedCount)
}

func TestCommitRecordFailureDoesNotAbortBatch(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()

	store := &failingStorage{Storage: tdb.Storage, marker: "Farmácia"}
	importer := New(store, nil)
	_, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	result, err := importer.Commit(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Batch.ImportedCount)
	assert.Equal(t, 1, result.Batch.ErrorCount)
	assert.Equal(t, model.BatchCompleted, result.Batch.Status,
		"partial failures still finish the batch")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "Farmácia")
}

func TestCommitAppliesCategoriesAndImportAnyway(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	food := tdb.CategoryByName(ctx, "user-1", "Alimentação")

	tdb.SeedTransaction(ctx, model.Transaction{
		UserID:      "user-1",
		AccountID:   "acc-1",
		Date:        "2025-09-01",
		Description: "Pagamento - Continente",
		Currency:    "EUR",
		Type:        model.TypeExpense,
		Amount:      12.50,
	})

	importer := New(tdb.Storage, nil)
	_, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)

	_, err = importer.SetCategory(ctx, 1, food.ID)
	require.NoError(t, err)
	require.NoError(t, importer.ToggleDuplicate(0))

	result, err := importer.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Batch.ImportedCount)
	assert.Zero(t, result.Batch.DuplicateCount)

	saved, err := tdb.Storage.GetTransactionByID(ctx, "user-1", importer.Records()[1].Txn.ID)
	require.NoError(t, err)
	assert.Equal(t, food.ID, saved.CategoryID)
}

func TestStateGuards(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	importer := New(tdb.Storage, nil)

	_, err := importer.Commit(ctx)
	assert.Error(t, err, "nothing to commit before preview")
	_, err = importer.SetCategory(ctx, 0, "cat")
	assert.Error(t, err)
	assert.Error(t, importer.ToggleDuplicate(0))

	_, err = importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)
	_, err = importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	assert.Error(t, err, "a staged session must be committed or reset first")

	_, err = importer.Commit(ctx)
	require.NoError(t, err)
	_, err = importer.Commit(ctx)
	assert.Error(t, err, "a session commits once")

	importer.Reset()
	assert.Equal(t, StateUpload, importer.State())
	assert.Empty(t, importer.Records())

	records, err := importer.Preview(ctx, "user-1", "acc-1", "extrato.csv", revolutStatement)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
