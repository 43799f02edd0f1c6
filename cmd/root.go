// =============================================================================
// Loan Anomaly Detector - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (loan-anomaly-detector)
//   ├── detectCmd  (loan-anomaly-detector detect)
//   ├── augmentCmd (loan-anomaly-detector augment)
//   └── versionCmd (loan-anomaly-detector version)
//
// CONFIGURATION PRECEDENCE (lowest first):
//   1. Built-in defaults
//   2. YAML file given with --config
//   3. Environment variables, including a .env file in the working directory
//   4. Command-line flags that were set explicitly
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/config"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the optional YAML configuration file.
var cfgFile string

// logFormat overrides logging.format when set.
var logFormat string

// logLevel overrides logging.level when set.
var logLevel string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loan-anomaly-detector",
	Short: "Loan Anomaly Detector - Find data anomalies in loan portfolio sheets",
	Long: `Loan Anomaly Detector reads a loan portfolio spreadsheet (XLSX workbook or
CSV export), checks every loan against a set of data-quality rules and writes
the anomalies it finds to a CSV report.

Key Features:
  - Range and sign checks on borrower, loan, repayment, company and collateral fields
  - Payment history analysis (late payments, malformed schedules)
  - Stated interest rate compared with the XIRR of the actual cash flows
  - Concurrent validation that keeps the sheet order in the report

Example Usage:
  loan-anomaly-detector detect --file-path loans.xlsx
  loan-anomaly-detector detect --config config.yaml --dry-run
  loan-anomaly-detector augment --source loans.xlsx --target big.xlsx --rows 100000`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to an optional YAML configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text or json (env LOGGING_FORMAT)",
	)

	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"",
		"Log level: debug, info, warn, error (env LOGGING_LEVEL)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig builds the configuration from defaults, the YAML file, the
// environment (after loading .env) and the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if verbose {
		cfg.Logging.Level = logrus.DebugLevel.String()
	}

	return cfg, nil
}

// newLogger builds the run logger. Logs go to the command's error stream.
func newLogger(cmd *cobra.Command, cfg *config.MainConfig) (*logrus.Logger, error) {
	return logging.New(cfg.Logging.Format, cfg.Logging.Level, cmd.ErrOrStderr())
}
