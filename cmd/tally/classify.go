package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <description>",
		Short: "Classify a single expense description",
		Long: `Ask the configured language model to categorize one description and
print the resulting label. Nothing is stored.`,
		Example: `  tally classify "Netflix monthly subscription"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			classifier, err := newClassifier(cfg, nil)
			if err != nil {
				return err
			}

			category, err := classifier.Classify(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("classification failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), category)
			return nil
		},
	}
}
