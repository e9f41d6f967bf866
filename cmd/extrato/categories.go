package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinybarreto/extrato/internal/cli"
	"github.com/vinybarreto/extrato/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available categories",
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

			categories, err := store.GetCategories(ctx, userID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Categorias"))
			for _, cat := range categories {
				scope := "global"
				if cat.UserID != "" {
					scope = "pessoal"
				}
				fmt.Printf("%-20s  %-8s  %s\n", cat.Name, cat.Type, scope)
			}
			return nil
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a personal category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, _ := cmd.Flags().GetString("type")

			categoryType := model.CategoryType(kind)
			if categoryType != model.CategoryTypeIncome && categoryType != model.CategoryTypeExpense {
				return fmt.Errorf("invalid category type %q (income or expense)", kind)
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

			cat, err := store.CreateCategory(ctx, userID, args[0], categoryType)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Categoria criada: %s (%s)", cat.Name, cat.Type)))
			return nil
		},
	}

	cmd.Flags().String("type", "expense", "category type (income, expense)")

	return cmd
}
