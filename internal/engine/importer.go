package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/dedup"
	"github.com/vinybarreto/extrato/internal/learn"
	"github.com/vinybarreto/extrato/internal/llm"
	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/parser"
	"github.com/vinybarreto/extrato/internal/service"
)

// State is the current phase of an import session.
type State string

// Import session states. Transitions only move forward; Reset returns to
// StateUpload from anywhere.
const (
	StateUpload    State = "upload"
	StatePreview   State = "preview"
	StateImporting State = "importing"
	StateComplete  State = "complete"
)

// SuggestionSource records where a record's proposed category came from.
type SuggestionSource string

// Suggestion sources.
const (
	SourceLearned SuggestionSource = "learned"
	SourceAI      SuggestionSource = "ai"
)

// Record is one parsed transaction staged for review.
type Record struct {
	Txn                  model.Transaction
	Duplicate            model.DuplicateCheck
	CategoryID           string
	SuggestionSource     SuggestionSource
	SuggestionConfidence float64
	// ImportAnyway overrides a duplicate flag so the record is committed
	// regardless.
	ImportAnyway bool
}

// Skipped reports whether the record will be left out of the commit.
func (r *Record) Skipped() bool {
	return r.Duplicate.IsDuplicate && !r.ImportAnyway
}

// ImportResult is the outcome of a committed session.
type ImportResult struct {
	Batch  model.ImportBatch
	Errors []error
}

// Importer drives one file through the import state machine. It is not safe
// for concurrent use; each session owns its own Importer.
type Importer struct {
	storage     service.Storage
	detector    *dedup.Detector
	learner     *learn.Learner
	categorizer Categorizer

	// OnProgress, when set, is called after each record is processed
	// during Commit.
	OnProgress func(done, total int)

	state     State
	userID    string
	accountID string
	fileName  string
	detection model.DetectionResult
	records   []Record
}

// New creates an import session. categorizer may be nil, in which case
// records without a learned match stay uncategorized.
func New(storage service.Storage, categorizer Categorizer) *Importer {
	return &Importer{
		storage:     storage,
		detector:    dedup.NewDetector(storage),
		learner:     learn.NewLearner(storage),
		categorizer: categorizer,
		state:       StateUpload,
	}
}

// State returns the session's current phase.
func (im *Importer) State() State {
	return im.state
}

// Reset discards all staged state and returns to the upload phase.
func (im *Importer) Reset() {
	im.state = StateUpload
	im.userID = ""
	im.accountID = ""
	im.fileName = ""
	im.detection = model.DetectionResult{}
	im.records = nil
}

// Records returns the staged records for review. The slice is owned by the
// importer; mutate through SetCategory and ToggleDuplicate.
func (im *Importer) Records() []Record {
	return im.records
}

// Detection returns the format decision made during preview.
func (im *Importer) Detection() model.DetectionResult {
	return im.detection
}

// Preview ingests file content: authenticates, detects the format, parses,
// flags duplicates, and attaches category suggestions. On detection,
// validation, or parse failure the session stays in the upload phase so the
// user can retry with another file.
func (im *Importer) Preview(ctx context.Context, userID, accountID, fileName, content string) ([]Record, error) {
	if im.state != StateUpload {
		return nil, fmt.Errorf("preview not allowed in state %s", im.state)
	}
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	detection := parser.Detect(content, fileName)
	if detection.Format == model.FormatUnknown {
		return nil, common.NewUserError(
			"Não foi possível reconhecer o formato do ficheiro. Formatos suportados: Revolut CSV, Wise CSV, Nubank OFX.",
			common.ErrUnknownFormat)
	}

	p, err := parser.ForFormat(detection.Format)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(content); err != nil {
		return nil, err
	}

	txns, err := p.Parse(content)
	if err != nil {
		return nil, err
	}

	for i := range txns {
		txns[i].UserID = userID
		txns[i].AccountID = accountID
	}

	checks, err := im.detector.CheckBatch(ctx, userID, accountID, txns)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(txns))
	for i, txn := range txns {
		records[i] = Record{Txn: txn, Duplicate: checks[i]}
	}

	if err := im.suggestLearned(ctx, userID, records); err != nil {
		return nil, err
	}
	im.suggestAI(ctx, userID, records)

	im.state = StatePreview
	im.userID = userID
	im.accountID = accountID
	im.fileName = fileName
	im.detection = detection
	im.records = records

	slog.Info("preview ready",
		"format", detection.Format,
		"confidence", detection.Confidence,
		"records", len(records))
	return records, nil
}

// suggestLearned applies learned patterns to records that are not flagged
// as duplicates and have no category yet.
func (im *Importer) suggestLearned(ctx context.Context, userID string, records []Record) error {
	patterns, err := im.storage.GetLearnedPatterns(ctx, userID, learn.MinSuggestConfidence)
	if err != nil {
		return fmt.Errorf("loading learned patterns: %w", err)
	}
	if len(patterns) == 0 {
		return nil
	}

	for i := range records {
		if records[i].Skipped() || records[i].CategoryID != "" {
			continue
		}
		if p, ok := learn.FindLearnedCategory(patterns, records[i].Txn); ok {
			records[i].CategoryID = p.CategoryID
			records[i].SuggestionSource = SourceLearned
			records[i].SuggestionConfidence = p.Confidence
		}
	}
	return nil
}

// suggestAI asks the categorizer about records still uncategorized. A
// failure or an oversized batch degrades to no suggestions; the import
// keeps going.
func (im *Importer) suggestAI(ctx context.Context, userID string, records []Record) {
	if im.categorizer == nil {
		return
	}

	var pending []llm.IndexedTransaction
	for i := range records {
		if records[i].Skipped() || records[i].CategoryID != "" {
			continue
		}
		pending = append(pending, llm.IndexedTransaction{Index: i, Txn: records[i].Txn})
	}
	if len(pending) == 0 {
		return
	}
	if len(pending) > llm.MaxBatchSize {
		slog.Info("skipping AI categorization, batch too large",
			"pending", len(pending), "limit", llm.MaxBatchSize)
		return
	}

	categories, err := im.storage.GetCategories(ctx, userID)
	if err != nil {
		slog.Warn("loading categories for AI categorization failed", "error", err)
		return
	}

	suggestions, err := im.categorizer.Categorize(ctx, pending, categories)
	if err != nil {
		slog.Warn("AI categorization failed, continuing without suggestions", "error", err)
		return
	}

	for index, s := range suggestions {
		if index < 0 || index >= len(records) {
			continue
		}
		records[index].CategoryID = s.CategoryID
		records[index].SuggestionSource = SourceAI
		records[index].SuggestionConfidence = s.Confidence
	}
}

// SetCategory records a manual category choice for one staged record. The
// correction is learned as a full-confidence pattern; the returned IDs are
// committed transactions the same pattern would also re-categorize.
func (im *Importer) SetCategory(ctx context.Context, index int, categoryID string) ([]string, error) {
	if im.state != StatePreview {
		return nil, fmt.Errorf("category edits not allowed in state %s", im.state)
	}
	if index < 0 || index >= len(im.records) {
		return nil, fmt.Errorf("record index %d out of range", index)
	}

	if _, err := im.storage.GetCategoryByID(ctx, im.userID, categoryID); err != nil {
		return nil, fmt.Errorf("resolving category: %w", err)
	}

	record := &im.records[index]
	record.CategoryID = categoryID
	record.SuggestionSource = ""
	record.SuggestionConfidence = 0

	similar, err := im.learner.Learn(ctx, im.userID, record.Txn, categoryID)
	if err != nil {
		return nil, err
	}
	return similar, nil
}

// ApplyToSimilar re-categorizes the given committed transactions, typically
// the IDs reported by SetCategory after the user confirms.
func (im *Importer) ApplyToSimilar(ctx context.Context, ids []string, categoryID string) (int64, error) {
	return im.storage.UpdateCategoryByIDs(ctx, im.userID, ids, categoryID)
}

// ToggleDuplicate flips whether a duplicate-flagged record is imported
// anyway.
func (im *Importer) ToggleDuplicate(index int) error {
	if im.state != StatePreview {
		return fmt.Errorf("duplicate toggles not allowed in state %s", im.state)
	}
	if index < 0 || index >= len(im.records) {
		return fmt.Errorf("record index %d out of range", index)
	}
	record := &im.records[index]
	if !record.Duplicate.IsDuplicate {
		return fmt.Errorf("record %d is not flagged as a duplicate", index)
	}
	record.ImportAnyway = !record.ImportAnyway
	return nil
}

func (im *Importer) reportProgress(done int) {
	if im.OnProgress != nil {
		im.OnProgress(done, len(im.records))
	}
}

// Commit saves the staged records one by one. A failing record is counted
// and reported but never aborts the rest; the batch always finishes as
// completed, with the counts telling the real story.
func (im *Importer) Commit(ctx context.Context) (*ImportResult, error) {
	if im.state != StatePreview {
		return nil, fmt.Errorf("commit not allowed in state %s", im.state)
	}
	im.state = StateImporting

	batch := model.ImportBatch{
		UserID:       im.userID,
		SourceFormat: im.detection.Format,
		FileName:     im.fileName,
		FileKind:     im.detection.Kind,
		TotalCount:   len(im.records),
	}
	if err := im.storage.CreateImportBatch(ctx, &batch); err != nil {
		im.state = StatePreview
		return nil, fmt.Errorf("creating import batch: %w", err)
	}

	var errs []error
	for i := range im.records {
		record := &im.records[i]
		if record.Skipped() {
			batch.DuplicateCount++
			im.reportProgress(i + 1)
			continue
		}

		txn := record.Txn
		txn.CategoryID = record.CategoryID
		if err := im.storage.SaveTransaction(ctx, &txn); err != nil {
			batch.ErrorCount++
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i, txn.Description, err))
			slog.Warn("record failed to import", "index", i, "error", err)
			im.reportProgress(i + 1)
			continue
		}
		record.Txn.ID = txn.ID
		batch.ImportedCount++
		im.reportProgress(i + 1)
	}

	if err := im.storage.FinalizeImportBatch(ctx, &batch); err != nil {
		errs = append(errs, fmt.Errorf("finalizing import batch: %w", err))
		slog.Warn("finalizing import batch failed", "batch_id", batch.ID, "error", err)
	}

	im.state = StateComplete
	slog.Info("import committed",
		"batch_id", batch.ID,
		"imported", batch.ImportedCount,
		"duplicates", batch.DuplicateCount,
		"errors", batch.ErrorCount)

	return &ImportResult{Batch: batch, Errors: errs}, nil
}
