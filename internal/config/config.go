// =============================================================================
// Loan Anomaly Detector - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings are layered, each
// layer overriding the previous one:
//
//   1. Built-in defaults (Default)
//   2. Optional YAML file (--config)
//   3. Environment variables, including a .env file in the working directory
//   4. Command-line flags that were set explicitly (applied by the cmd package)
//
// ENVIRONMENT VARIABLES:
//   FILE_PATH         input workbook or CSV export
//   OUTPUT_PATH       report path (placeholders allowed)
//   XIRR_SENSITIVITY  tolerated interest rate deviation
//   DRY_RUN           log report rows instead of writing them
//   MAX_CONCURRENCY   validation workers
//   REPORT_ENCODING   report character encoding
//   SUMMARY_FILE      optional YAML run summary path
//   LOGGING_FORMAT    text or json
//   LOGGING_LEVEL     logrus level name
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingInput is returned when no input file is configured.
var ErrMissingInput = errors.New("no input file configured")

// Supported encodings.
var (
	InputEncodings  = []string{"utf-8", "windows-1252", "iso-8859-1"}
	ReportEncodings = []string{"utf-8", "utf-8-bom", "windows-1252"}
	LogFormats      = []string{"text", "json"}
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	Input      InputSettings      `yaml:"input"`
	Output     OutputSettings     `yaml:"output"`
	Validation ValidationSettings `yaml:"validation"`
	Processing ProcessingSettings `yaml:"processing"`
	Logging    LoggingSettings    `yaml:"logging"`
}

// InputSettings describe the portfolio file.
type InputSettings struct {
	// FilePath is the .xlsx workbook or .csv export to analyze.
	FilePath string `yaml:"file_path"`

	// SheetName selects the workbook sheet. Empty means the active sheet.
	SheetName string `yaml:"sheet_name"`

	// HeaderRow is the 1-based row holding the column labels.
	// Default: 1
	HeaderRow int `yaml:"header_row"`

	// HeaderAliases maps extra column spellings to canonical labels,
	// e.g. "loan nr": "loan id".
	HeaderAliases map[string]string `yaml:"header_aliases"`

	// CSVSettings apply to .csv inputs only.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// CSVSettings contains settings for reading CSV exports.
type CSVSettings struct {
	// Delimiter is the field separator. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the file.
	// Valid values: "utf-8", "windows-1252", "iso-8859-1"
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`
}

// OutputSettings describe the anomaly report.
type OutputSettings struct {
	// OutputPath is the report file. Placeholders:
	//   {uuid}      - a random UUID
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - current date (YYYYMMDD)
	//   {input}     - input file name without extension
	// Default: "anomalies_{timestamp}.csv"
	OutputPath string `yaml:"output_path"`

	// Encoding is the report character encoding.
	// Valid values: "utf-8", "utf-8-bom", "windows-1252"
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// DryRun logs report rows instead of writing the file.
	DryRun bool `yaml:"dry_run"`

	// SummaryFile is an optional path for a YAML run summary.
	SummaryFile string `yaml:"summary_file"`
}

// ValidationSettings tune the rules.
type ValidationSettings struct {
	// XIRRSensitivity is the tolerated absolute gap between the stated
	// interest rate and the computed XIRR.
	// Default: 0.07
	XIRRSensitivity float64 `yaml:"xirr_sensitivity"`
}

// ProcessingSettings tune the pipeline.
type ProcessingSettings struct {
	// MaxConcurrency is the number of validation workers.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`
}

// LoggingSettings configure logrus.
type LoggingSettings struct {
	// Format is "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`

	// Level is a logrus level name.
	// Default: "info"
	Level string `yaml:"level"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Default returns the built-in configuration.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the YAML configuration file. Keys missing from the
// file keep their default values.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(config)

	return config, nil
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment. An empty configPath skips the file.
func Load(configPath string) (*MainConfig, error) {
	config := Default()
	if configPath != "" {
		loaded, err := LoadMainConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables. lookup is usually
// os.LookupEnv.
func (c *MainConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.setString("FILE_PATH", &c.Input.FilePath)
	env.setString("OUTPUT_PATH", &c.Output.OutputPath)
	env.setFloat("XIRR_SENSITIVITY", &c.Validation.XIRRSensitivity)
	env.setBool("DRY_RUN", &c.Output.DryRun)
	env.setInt("MAX_CONCURRENCY", &c.Processing.MaxConcurrency)
	env.setString("REPORT_ENCODING", &c.Output.Encoding)
	env.setString("SUMMARY_FILE", &c.Output.SummaryFile)
	env.setString("LOGGING_FORMAT", &c.Logging.Format)
	env.setString("LOGGING_LEVEL", &c.Logging.Level)

	return errors.Join(env.errs...)
}

// applyMainConfigDefaults fills settings left empty.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Input.HeaderRow == 0 {
		config.Input.HeaderRow = 1
	}
	if config.Input.CSVSettings.Delimiter == "" {
		config.Input.CSVSettings.Delimiter = ","
	}
	if config.Input.CSVSettings.Encoding == "" {
		config.Input.CSVSettings.Encoding = "utf-8"
	}
	if config.Output.OutputPath == "" {
		config.Output.OutputPath = "anomalies_{timestamp}.csv"
	}
	if config.Output.Encoding == "" {
		config.Output.Encoding = "utf-8"
	}
	if config.Validation.XIRRSensitivity == 0 {
		config.Validation.XIRRSensitivity = 0.07
	}
	if config.Processing.MaxConcurrency == 0 {
		config.Processing.MaxConcurrency = 4
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the final configuration.
func (c *MainConfig) Validate() error {
	if strings.TrimSpace(c.Input.FilePath) == "" {
		return ErrMissingInput
	}

	var errs []error
	if c.Input.HeaderRow < 1 {
		errs = append(errs, fmt.Errorf("input.header_row must be at least 1, got %d", c.Input.HeaderRow))
	}
	if !oneOf(c.Input.CSVSettings.Encoding, InputEncodings) {
		errs = append(errs, fmt.Errorf("input.csv_settings.encoding must be one of %v, got %q", InputEncodings, c.Input.CSVSettings.Encoding))
	}
	if !c.Output.DryRun && strings.TrimSpace(c.Output.OutputPath) == "" {
		errs = append(errs, errors.New("output.output_path is required unless dry_run is set"))
	}
	if !oneOf(c.Output.Encoding, ReportEncodings) {
		errs = append(errs, fmt.Errorf("output.encoding must be one of %v, got %q", ReportEncodings, c.Output.Encoding))
	}
	if c.Validation.XIRRSensitivity < 0 {
		errs = append(errs, fmt.Errorf("validation.xirr_sensitivity must not be negative, got %g", c.Validation.XIRRSensitivity))
	}
	if c.Processing.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("processing.max_concurrency must be at least 1, got %d", c.Processing.MaxConcurrency))
	}
	if !oneOf(c.Logging.Format, LogFormats) {
		errs = append(errs, fmt.Errorf("logging.format must be one of %v, got %q", LogFormats, c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// envReader applies environment overrides and collects parse errors.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) value(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.value(key); ok {
		*dst = v
	}
}

func (e *envReader) setFloat(key string, dst *float64) {
	if v, ok := e.value(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) setInt(key string, dst *int) {
	if v, ok := e.value(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if v, ok := e.value(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
