package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type expenseRow struct {
	description string
	amount      decimal.Decimal
	line        int
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Record expenses from a CSV file",
		Long: `Create one transaction per row of a CSV file with the columns
amount,description. A header row is detected and skipped. Each row is
classified as it is recorded.`,
		Example: `  tally import expenses.csv --user alice`,
		Args:    cobra.ExactArgs(1),
		RunE:    runImport,
	}

	cmd.Flags().String("user", "", "username that owns the imported transactions")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("user")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	rows, err := readExpenseRows(f)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No rows to import"))
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ledger, store, err := initLedger(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := lookupUser(ctx, store, username)
	if err != nil {
		return err
	}

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(rows), "Importing expenses...")
	imported, failed := 0, 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import interrupted after %d rows: %w", imported, err)
		}

		_, err := ledger.CreateTransaction(ctx, user.ID, row.amount, row.description)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, context.Canceled):
			return fmt.Errorf("import interrupted after %d rows: %w", imported, err)
		default:
			failed++
			slog.Warn("Skipping row", "line", row.line, "error", err)
		}

		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	summary := fmt.Sprintf("Imported %d of %d rows for %s", imported, len(rows), user.Username)
	if failed > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(summary))
		return fmt.Errorf("%d rows could not be imported", failed)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(summary))
	return nil
}

// readExpenseRows parses amount,description records. A first row whose
// amount column is not a number is treated as a header.
func readExpenseRows(r io.Reader) ([]expenseRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []expenseRow
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected amount,description", line)
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(record[0]))
		if err != nil {
			if first {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid amount %q", line, record[0])
		}

		description := strings.TrimSpace(strings.Join(record[1:], ","))
		if description == "" {
			return nil, fmt.Errorf("line %d: description is empty", line)
		}

		rows = append(rows, expenseRow{line: line, amount: amount, description: description})
	}
	return rows, nil
}
