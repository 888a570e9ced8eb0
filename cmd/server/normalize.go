package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/expense-desk/internal/domain/receipt"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize-date <value>",
	Short: "Print a receipt date normalized to YYYY-MM-DD",
	Long: `Normalize a date string as read from a receipt. Values that match no
known layout are printed unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), receipt.Normalize(args[0]))
		return err
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
