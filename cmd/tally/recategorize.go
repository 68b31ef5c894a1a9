package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/spf13/cobra"
)

func recategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recategorize <transaction-id> <category>",
		Short: "Correct the category of a recorded transaction",
		Long: `Replace the category of one of a user's transactions. The new category
must be one of the configured categories or "Other".`,
		Args: cobra.ExactArgs(2),
		RunE: runRecategorize,
	}

	cmd.Flags().String("user", "", "username that owns the transaction")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRecategorize(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("user")

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

	txn, err := ledger.Recategorize(ctx, user.ID, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s %q is now %s", txn.ID, txn.Description, txn.Category)))
	return nil
}
