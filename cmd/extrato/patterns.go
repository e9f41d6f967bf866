package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinybarreto/extrato/internal/cli"
	"github.com/vinybarreto/extrato/internal/learn"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage learned categorization patterns",
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsApplyCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			patterns, err := store.GetLearnedPatterns(ctx, userID, 0)
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				fmt.Println(cli.FormatInfo("Ainda não há padrões aprendidos"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Padrões aprendidos"))
			for _, p := range patterns {
				key := p.Merchant
				if key == "" {
					key = fmt.Sprintf("descrição contém %q", p.DescriptionPattern)
				}
				fmt.Printf("%-40s  confiança %.2f  aplicado %d vezes\n",
					key, p.Confidence, p.TimesApplied)
			}
			return nil
		},
	}
}

func patternsApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Re-categorize uncategorized transactions using learned patterns",
		Long: fmt.Sprintf(`Apply every learned pattern with confidence %.1f or higher to your
uncategorized transactions.`, learn.MinSweepConfidence),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := learn.NewLearner(store).Sweep(ctx, userID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"%d padrões aplicados, %d transações atualizadas, %d erros",
				result.PatternsApplied, result.RowsUpdated, result.Errors)))
			return nil
		},
	}
}
