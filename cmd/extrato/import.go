package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vinybarreto/extrato/internal/cli"
	"github.com/vinybarreto/extrato/internal/engine"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank statement export",
		Long: `Detect the statement format, parse it, flag duplicates against your
history, suggest categories, and let you review before anything is saved.

Supported sources: Revolut CSV, Wise CSV, Nubank OFX, and generic OFX/QFX.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("account", "", "account identifier the statement belongs to")
	cmd.Flags().Bool("yes", false, "skip the interactive review and import immediately")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	filePath := args[0]
	account, _ := cmd.Flags().GetString("account")
	autoCommit, _ := cmd.Flags().GetBool("yes")

	content, err := os.ReadFile(filePath) // #nosec G304 -- user-supplied statement path
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	userID, err := requireUser()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	categorizer, err := newCategorizer()
	if err != nil {
		return err
	}
	var cat engine.Categorizer
	if categorizer != nil {
		cat = categorizer
		defer categorizer.Close()
	}

	importer := engine.New(store, cat)

	records, err := importer.Preview(ctx, userID, account, filepath.Base(filePath), string(content))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println(cli.FormatWarning("O ficheiro não contém transações a importar"))
		return nil
	}

	var bar *progressbar.ProgressBar
	importer.OnProgress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("A importar"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}

	var result *engine.ImportResult
	if autoCommit {
		result, err = importer.Commit(ctx)
	} else {
		prompter := cli.NewPrompter(importer, store, userID, os.Stdin, os.Stdout)
		result, err = prompter.Review(ctx)
	}
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	fmt.Println(cli.RenderBox("Importação concluída", fmt.Sprintf(
		"%d importadas, %d duplicadas, %d erros",
		result.Batch.ImportedCount, result.Batch.DuplicateCount, result.Batch.ErrorCount)))
	for _, importErr := range result.Errors {
		fmt.Println(cli.FormatError(importErr.Error()))
	}
	return nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent imports",
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "maximum number of imports to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	userID, err := requireUser()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	batches, err := store.ListImportBatches(ctx, userID, limit)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println(cli.FormatInfo("Ainda não há importações"))
		return nil
	}

	fmt.Println(cli.FormatTitle("Importações recentes"))
	for _, b := range batches {
		fmt.Printf("%s  %-8s  %-30s  %d registos (%d importados, %d duplicados, %d erros)\n",
			b.CreatedAt.Format("2006-01-02 15:04"),
			b.SourceFormat.DisplayName(),
			b.FileName,
			b.TotalCount, b.ImportedCount, b.DuplicateCount, b.ErrorCount)
	}
	return nil
}
