package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/container"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/report"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every expense to an .xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctr, err := container.NewContainer(cfg.ToContainerConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to create container: %w", err)
		}
		if err := ctr.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start container: %w", err)
		}
		defer ctr.Close()

		rows, err := ctr.Services().Expense.FindAllGlobal(cmd.Context())
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}

		values := make([]entity.ExpenseWithOwner, 0, len(rows))
		for _, r := range rows {
			values = append(values, *r)
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		if err := report.WriteExpenses(f, values); err != nil {
			f.Close()
			return fmt.Errorf("write export: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", exportOut, err)
		}

		logger.Info("Expenses exported", zap.String("file", exportOut), zap.Int("rows", len(values)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "expenses.xlsx", "output file")
	rootCmd.AddCommand(exportCmd)
}
