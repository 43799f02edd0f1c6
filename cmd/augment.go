package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/augment"
)

var (
	augmentSource string
	augmentTarget string
	augmentRows   int
)

// augmentCmd builds a large workbook from a sample for load tests.
var augmentCmd = &cobra.Command{
	Use:   "augment",
	Short: "Expand a loan workbook to a given number of rows",
	Long: `The augment command copies the header of the source workbook and repeats its
data rows in order until the target holds --rows data rows.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		startTime := time.Now()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		n, err := augment.Expand(augmentSource, augmentTarget, augmentRows, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote %d rows to %s\n", n, augmentTarget)
		fmt.Fprintf(out, "Time elapsed:  %s\n", time.Since(startTime))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(augmentCmd)

	augmentCmd.Flags().StringVar(&augmentSource, "source", "loans.xlsx", "Sample workbook")
	augmentCmd.Flags().StringVar(&augmentTarget, "target", "expanded_loans.xlsx", "Workbook to create")
	augmentCmd.Flags().IntVar(&augmentRows, "rows", augment.DefaultRows, "Number of data rows to write")
}
