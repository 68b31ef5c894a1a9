package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/report"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show monthly spending for a user",
		Args:  cobra.NoArgs,
		RunE:  runReport,
	}

	cmd.Flags().String("user", "", "username to report on")
	cmd.Flags().String("chart", "", "also write a PNG bar chart to this path")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	username, _ := cmd.Flags().GetString("user")
	chartPath, _ := cmd.Flags().GetString("chart")

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

	months, err := ledger.MonthlySpending(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderMonthlyReport(user.Username, months))

	if chartPath == "" {
		return nil
	}

	png, err := report.MonthlyBarChart(months)
	if err != nil {
		return err
	}
	if err := os.WriteFile(chartPath, png, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Chart written to "+chartPath))
	return nil
}
