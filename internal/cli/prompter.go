package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vinybarreto/extrato/internal/engine"
	"github.com/vinybarreto/extrato/internal/model"
	"github.com/vinybarreto/extrato/internal/service"
)

const descriptionWidth = 44

// Prompter walks the user through an import preview: editing categories,
// toggling duplicates, and finally committing or aborting.
type Prompter struct {
	writer   io.Writer
	reader   *NonBlockingReader
	importer *engine.Importer
	storage  service.Storage
	userID   string
}

// NewPrompter creates a prompter over the given import session.
func NewPrompter(importer *engine.Importer, storage service.Storage, userID string, reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		writer:   writer,
		reader:   NewNonBlockingReader(reader),
		importer: importer,
		storage:  storage,
		userID:   userID,
	}
}

// Review runs the interactive loop. It returns the commit result, or
// (nil, nil) when the user aborts.
func (p *Prompter) Review(ctx context.Context) (*engine.ImportResult, error) {
	categories, err := p.storage.GetCategories(ctx, p.userID)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	names := categoryNames(categories)

	for {
		p.printRecords(names)

		fmt.Fprintln(p.writer, FormatPrompt("[n] editar categoria  [d n] duplicado  [i] importar  [x] cancelar"))
		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return nil, err
		}

		switch {
		case line == "x":
			p.importer.Reset()
			fmt.Fprintln(p.writer, FormatWarning("Importação cancelada"))
			return nil, nil

		case line == "i":
			return p.importer.Commit(ctx)

		case strings.HasPrefix(line, "d "):
			index, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "d ")))
			if convErr != nil {
				fmt.Fprintln(p.writer, FormatError("Número inválido"))
				continue
			}
			if toggleErr := p.importer.ToggleDuplicate(index); toggleErr != nil {
				fmt.Fprintln(p.writer, FormatError(toggleErr.Error()))
			}

		default:
			index, convErr := strconv.Atoi(line)
			if convErr != nil {
				fmt.Fprintln(p.writer, FormatError("Comando desconhecido"))
				continue
			}
			updated, editErr := p.editCategory(ctx, index, categories)
			if editErr != nil {
				fmt.Fprintln(p.writer, FormatError(editErr.Error()))
				continue
			}
			if updated != nil {
				categories = updated
				names = categoryNames(categories)
			}
		}
	}
}

// editCategory prompts for a category choice for one record. It returns a
// refreshed category list when the user created a new one.
func (p *Prompter) editCategory(ctx context.Context, index int, categories []model.Category) ([]model.Category, error) {
	records := p.importer.Records()
	if index < 0 || index >= len(records) {
		return nil, fmt.Errorf("registo %d fora do intervalo", index)
	}

	fmt.Fprintln(p.writer, BoldStyle.Render("Categorias:"))
	for i, cat := range categories {
		fmt.Fprintf(p.writer, "  [%d] %s (%s)\n", i+1, cat.Name, cat.Type)
	}
	fmt.Fprintln(p.writer, "  [0] Nova categoria")

	fmt.Fprintln(p.writer, FormatPrompt("Escolha"))
	choice, err := p.reader.ReadLine(ctx)
	if err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(choice)
	if err != nil || n < 0 || n > len(categories) {
		return nil, fmt.Errorf("escolha inválida")
	}

	var refreshed []model.Category
	var category model.Category
	if n == 0 {
		created, createErr := p.createCategory(ctx)
		if createErr != nil {
			return nil, createErr
		}
		category = *created
		refreshed = append(categories, category)
	} else {
		category = categories[n-1]
	}

	similar, err := p.importer.SetCategory(ctx, index, category.ID)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(p.writer, FormatSuccess(fmt.Sprintf("Categoria definida: %s", category.Name)))

	if len(similar) > 0 {
		fmt.Fprintln(p.writer, FormatPrompt(fmt.Sprintf("Aplicar a %d transações semelhantes? (s/n)", len(similar))))
		answer, readErr := p.reader.ReadLine(ctx)
		if readErr != nil {
			return refreshed, readErr
		}
		if strings.EqualFold(answer, "s") {
			updated, applyErr := p.importer.ApplyToSimilar(ctx, similar, category.ID)
			if applyErr != nil {
				return refreshed, applyErr
			}
			fmt.Fprintln(p.writer, FormatSuccess(fmt.Sprintf("%d transações atualizadas", updated)))
		}
	}
	return refreshed, nil
}

func (p *Prompter) createCategory(ctx context.Context) (*model.Category, error) {
	fmt.Fprintln(p.writer, FormatPrompt("Nome da categoria"))
	name, err := p.reader.ReadLine(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(p.writer, FormatPrompt("Tipo (receita/despesa)"))
	kind, err := p.reader.ReadLine(ctx)
	if err != nil {
		return nil, err
	}

	categoryType := model.CategoryTypeExpense
	if strings.EqualFold(kind, "receita") || strings.EqualFold(kind, "income") {
		categoryType = model.CategoryTypeIncome
	}
	return p.storage.CreateCategory(ctx, p.userID, name, categoryType)
}

func (p *Prompter) printRecords(names map[string]string) {
	records := p.importer.Records()
	detection := p.importer.Detection()

	fmt.Fprintln(p.writer, FormatTitle(fmt.Sprintf("%s (%d registos, confiança %.0f%%)",
		detection.Format.DisplayName(), len(records), detection.Confidence*100)))

	for i, record := range records {
		line := fmt.Sprintf("[%2d] %s  %8.2f %s  %-8s  %s",
			i, record.Txn.Date, record.Txn.Amount, record.Txn.Currency,
			record.Txn.Type, truncate(record.Txn.Description, descriptionWidth))

		switch {
		case record.Skipped():
			line += "  " + WarningStyle.Render(DuplicateIcon+" duplicado")
		case record.Duplicate.IsDuplicate:
			line += "  " + InfoStyle.Render(DuplicateIcon+" importar mesmo assim")
		}

		if record.CategoryID != "" {
			name := names[record.CategoryID]
			if name == "" {
				name = record.CategoryID
			}
			marker := ""
			if record.SuggestionSource == engine.SourceAI {
				marker = RobotIcon + " "
			}
			line += "  " + SuccessStyle.Render(marker+name)
		} else if !record.Skipped() {
			line += "  " + SubtleStyle.Render("sem categoria")
		}

		fmt.Fprintln(p.writer, line)
	}
	fmt.Fprintln(p.writer)
}

func categoryNames(categories []model.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
