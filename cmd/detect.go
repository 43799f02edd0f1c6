// =============================================================================
// Loan Anomaly Detector - Detect Command
// =============================================================================
//
// This file defines the 'detect' command, which runs the detection pipeline
// over one portfolio file.
//
// COMMAND USAGE:
//   loan-anomaly-detector detect [flags]
//
// FLAGS (environment variable in brackets):
//   --file-path         [FILE_PATH]         : Portfolio file (.xlsx, .xlsm, .csv)
//   --output-path       [OUTPUT_PATH]       : Report path, supports {uuid} {timestamp} {date} {input}
//   --xirr-sensitivity  [XIRR_SENSITIVITY]  : Tolerated rate gap (default 0.07)
//   --dry-run           [DRY_RUN]           : Log report rows instead of writing the file
//   --max-concurrency   [MAX_CONCURRENCY]   : Validation workers (default 4)
//   --report-encoding   [REPORT_ENCODING]   : utf-8, utf-8-bom or windows-1252
//   --summary-file      [SUMMARY_FILE]      : Optional run summary (.yaml or text)
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/config"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/detector"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// detectFlags holds the values of the detect flags. A value is applied only
// when its flag was set on the command line.
type detectFlags struct {
	filePath        string
	outputPath      string
	xirrSensitivity float64
	dryRun          bool
	maxConcurrency  int
	reportEncoding  string
	summaryFile     string
}

var detectOpts detectFlags

// =============================================================================
// DETECT COMMAND DEFINITION
// =============================================================================

// detectCmd represents the 'detect' command.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Validate a loan portfolio and write the anomaly report",
	Long: `The detect command reads the portfolio file, validates every loan and writes
one report row per anomaly. Loans without anomalies get a single CLEAN row.

Rows without a borrower id or loan id are skipped. Malformed cells never stop
the run; they are reported as INVALID_DATE, INVALID_NUMBER or
NON_COMPLETE_PAYMENTS anomalies.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect(cmd, &detectOpts)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(detectCmd)
	registerDetectFlags(detectCmd, &detectOpts)
}

// registerDetectFlags adds the detect flags to c.
func registerDetectFlags(c *cobra.Command, f *detectFlags) {
	flags := c.Flags()
	flags.StringVar(&f.filePath, "file-path", "", "Portfolio file to analyze (env FILE_PATH)")
	flags.StringVar(&f.outputPath, "output-path", "", "Report path (env OUTPUT_PATH)")
	flags.Float64Var(&f.xirrSensitivity, "xirr-sensitivity", validation.DefaultXIRRSensitivity, "Tolerated gap between stated rate and XIRR (env XIRR_SENSITIVITY)")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Log report rows instead of writing the report (env DRY_RUN)")
	flags.IntVar(&f.maxConcurrency, "max-concurrency", 4, "Number of validation workers (env MAX_CONCURRENCY)")
	flags.StringVar(&f.reportEncoding, "report-encoding", "", "Report encoding: utf-8, utf-8-bom, windows-1252 (env REPORT_ENCODING)")
	flags.StringVar(&f.summaryFile, "summary-file", "", "Write a run summary to this file (env SUMMARY_FILE)")
}

// apply copies every explicitly set flag into cfg.
func (f *detectFlags) apply(c *cobra.Command, cfg *config.MainConfig) {
	flags := c.Flags()
	if flags.Changed("file-path") {
		cfg.Input.FilePath = f.filePath
	}
	if flags.Changed("output-path") {
		cfg.Output.OutputPath = f.outputPath
	}
	if flags.Changed("xirr-sensitivity") {
		cfg.Validation.XIRRSensitivity = f.xirrSensitivity
	}
	if flags.Changed("dry-run") {
		cfg.Output.DryRun = f.dryRun
	}
	if flags.Changed("max-concurrency") {
		cfg.Processing.MaxConcurrency = f.maxConcurrency
	}
	if flags.Changed("report-encoding") {
		cfg.Output.Encoding = f.reportEncoding
	}
	if flags.Changed("summary-file") {
		cfg.Output.SummaryFile = f.summaryFile
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runDetect(cmd *cobra.Command, f *detectFlags) error {
	startTime := time.Now()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	result, err := detector.New(cfg, logger).Run()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.OutputFile != "" {
		fmt.Fprintf(out, "Report:        %s\n", result.OutputFile)
	}
	fmt.Fprintf(out, "Loans:         %d\n", result.Summary.Loans)
	fmt.Fprintf(out, "Clean loans:   %d\n", result.Summary.CleanLoans)
	fmt.Fprintf(out, "Issues:        %d\n", result.Summary.Issues)
	fmt.Fprintf(out, "Time elapsed:  %s\n", time.Since(startTime))
	fmt.Fprintln(out, "Process finished.")

	return nil
}
