// =============================================================================
// Loan Anomaly Detector - Detection Pipeline
// =============================================================================
//
// This module runs one detection over a portfolio file, from ingestion to
// the anomaly report.
//
// DETECTION PIPELINE:
//   1. Pick the parser from the input extension (.xlsx/.xlsm or .csv)
//   2. Parse the sheet into loan records
//   3. Validate every record with a bounded worker pool
//   4. Write the CSV report (or log it in dry-run mode)
//   5. Write the optional run summary
//
// CONCURRENCY:
//   Records are validated by Processing.MaxConcurrency workers. Results are
//   stored by input index so the report keeps the order of the sheet.
//
// =============================================================================

package detector

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/config"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/csvparser"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/csvwriter"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/validation"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/xlsxparser"
	"github.com/ginjaninja78/loan-anomaly-detector/pkg/utils"
)

// ErrUnsupportedInput is returned for input files that are neither a
// workbook nor a CSV export.
var ErrUnsupportedInput = errors.New("unsupported input file type")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one detection run.
type Result struct {
	// RunID identifies the run in logs and the summary file.
	RunID string

	// InputFile is the analyzed portfolio file.
	InputFile string

	// OutputFile is the report path. Empty in dry-run mode.
	OutputFile string

	// Issues holds one entry per record, in input order.
	Issues []validation.LoanIssues

	// Summary counts the report contents.
	Summary csvwriter.Summary

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RecordsParsed is the number of loan records read from the input.
	RecordsParsed int

	// ParseTime is the time spent reading the input.
	ParseTime time.Duration

	// ValidationTime is the time spent in the validation engine.
	ValidationTime time.Duration

	// ProcessingTime is the wall time of the whole run.
	ProcessingTime time.Duration
}

// =============================================================================
// DETECTOR STRUCTURE
// =============================================================================

// Detector runs the detection pipeline for one configuration.
type Detector struct {
	cfg *config.MainConfig
	log logrus.FieldLogger
}

// New creates a Detector. A nil logger uses the logrus standard logger.
func New(cfg *config.MainConfig, log logrus.FieldLogger) *Detector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Detector{cfg: cfg, log: log}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the configured input file.
func (d *Detector) Run() (Result, error) {
	startTime := time.Now()
	result := Result{
		RunID:     uuid.New().String(),
		InputFile: d.cfg.Input.FilePath,
	}
	log := d.log.WithFields(logrus.Fields{"run_id": result.RunID, "file": result.InputFile})

	// =========================================================================
	// STEP 1: PARSE INPUT
	// =========================================================================

	log.Info("Processing portfolio")

	records, err := d.Load(result.InputFile)
	if err != nil {
		return result, err
	}
	result.Stats.RecordsParsed = len(records)
	result.Stats.ParseTime = time.Since(startTime)

	// =========================================================================
	// STEP 2: VALIDATE RECORDS
	// =========================================================================

	validateStart := time.Now()
	result.Issues = ValidateAll(records, d.cfg.Validation.XIRRSensitivity, d.cfg.Processing.MaxConcurrency)
	result.Stats.ValidationTime = time.Since(validateStart)

	log.WithFields(logrus.Fields{
		"records":  len(records),
		"workers":  d.cfg.Processing.MaxConcurrency,
		"duration": result.Stats.ValidationTime,
	}).Debug("Validation complete")

	// =========================================================================
	// STEP 3: WRITE REPORT
	// =========================================================================

	if !d.cfg.Output.DryRun {
		result.OutputFile = utils.GenerateOutputFileName(d.cfg.Output.OutputPath, map[string]string{
			"input": utils.InputStem(result.InputFile),
		})
	}

	result.Summary, err = csvwriter.Write(result.Issues, result.OutputFile, csvwriter.Options{
		DryRun:   d.cfg.Output.DryRun,
		Encoding: d.cfg.Output.Encoding,
		Logger:   log,
	})
	if err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}

	result.Stats.ProcessingTime = time.Since(startTime)

	// =========================================================================
	// STEP 4: WRITE RUN SUMMARY
	// =========================================================================

	if path := d.cfg.Output.SummaryFile; path != "" {
		if err := utils.WriteSummary(result.RunSummary(startTime, d.cfg.Output.DryRun), path); err != nil {
			return result, err
		}
		log.WithField("summary", path).Debug("Wrote run summary")
	}

	log.WithFields(logrus.Fields{
		"report":      result.OutputFile,
		"loans":       result.Summary.Loans,
		"clean_loans": result.Summary.CleanLoans,
		"issues":      result.Summary.Issues,
		"duration":    result.Stats.ProcessingTime,
	}).Info("Detection complete")

	return result, nil
}

// Load parses the input file with the parser matching its extension.
func (d *Detector) Load(path string) ([]loan.Record, error) {
	in := d.cfg.Input

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err := xlsxparser.ParseWithOptions(path, xlsxparser.Options{
			SheetName:     in.SheetName,
			HeaderRow:     in.HeaderRow,
			HeaderAliases: in.HeaderAliases,
			Logger:        d.log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to parse workbook: %w", err)
		}
		return records, nil
	case ".csv":
		records, err := csvparser.Parse(path, in, d.log)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
	}
}

// RunSummary converts the result into the run summary file content.
func (r Result) RunSummary(start time.Time, dryRun bool) utils.RunSummary {
	summary := utils.RunSummary{
		RunID:      r.RunID,
		StartTime:  start,
		EndTime:    start.Add(r.Stats.ProcessingTime),
		InputFile:  r.InputFile,
		OutputFile: r.OutputFile,
		DryRun:     dryRun,
		Records:    r.Stats.RecordsParsed,
		CleanLoans: r.Summary.CleanLoans,
		Issues:     r.Summary.Issues,
		BySeverity: make(map[string]int, len(r.Summary.BySeverity)),
		ByCode:     r.Summary.ByCode,
	}
	for sev, n := range r.Summary.BySeverity {
		summary.BySeverity[string(sev)] = n
	}
	return summary
}

// =============================================================================
// WORKER POOL
// =============================================================================

type indexed struct {
	index  int
	issues validation.LoanIssues
}

// ValidateAll validates records with up to workers goroutines and returns
// the results in input order. Workers below 1 validate sequentially.
func ValidateAll(records []loan.Record, sensitivity float64, workers int) []validation.LoanIssues {
	out := make([]validation.LoanIssues, len(records))
	if workers <= 1 || len(records) <= 1 {
		for i, rec := range records {
			out[i] = validation.Validate(rec, sensitivity)
		}
		return out
	}
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan int)
	results := make(chan indexed, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- indexed{index: i, issues: validation.Validate(records[i], sensitivity)}
			}
		}()
	}

	go func() {
		for i := range records {
			jobs <- i
		}
		close(jobs)
	}()

	// Close the results channel when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		out[r.index] = r.issues
	}
	return out
}
