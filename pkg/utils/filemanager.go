// =============================================================================
// Loan Anomaly Detector - File Utilities
// =============================================================================
//
// This module provides the file handling around a detection run:
//   - Report file naming
//   - Directory management
//   - Run summary files
//
// SUMMARY FORMATS:
//   - .yaml / .yml : machine readable, one key per statistic
//   - anything else: plain-text block for operators
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of a report path.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {input}     - Input file name (without extension)
//   - params: A map of extra placeholder values.
//
// RETURNS:
//   - The generated path, always ending in .csv.
//
// EXAMPLE:
//   format: "reports/{input}_{date}.csv"
//   params: {"input": "portfolio"}
//   output: "reports/portfolio_20240115.csv"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".csv") {
		result += ".csv"
	}

	return result
}

// InputStem returns the file name of path without directory or extension.
func InputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a detection run.
type RunSummary struct {
	RunID      string         `yaml:"run_id"`
	StartTime  time.Time      `yaml:"start_time"`
	EndTime    time.Time      `yaml:"end_time"`
	InputFile  string         `yaml:"input_file"`
	OutputFile string         `yaml:"output_file,omitempty"`
	DryRun     bool           `yaml:"dry_run"`
	Records    int            `yaml:"records"`
	CleanLoans int            `yaml:"clean_loans"`
	Issues     int            `yaml:"issues"`
	BySeverity map[string]int `yaml:"by_severity,omitempty"`
	ByCode     map[string]int `yaml:"by_code,omitempty"`
}

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// WriteSummary writes a run summary to path. The format follows the
// extension of path.
func WriteSummary(summary RunSummary, path string) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write summary file: %w", err)
		}
		return nil
	default:
		return writeSummaryText(summary, path)
	}
}

// ReadSummary loads a YAML run summary.
func ReadSummary(path string) (RunSummary, error) {
	var summary RunSummary
	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read summary file: %w", err)
	}
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("failed to parse summary file: %w", err)
	}
	return summary, nil
}

func writeSummaryText(summary RunSummary, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	output := summary.OutputFile
	if summary.DryRun {
		output = "(dry run)"
	}

	fmt.Fprintf(writer, "Loan Anomaly Detector - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Input:          %s\n"+
		"  Report:         %s\n\n"+
		"Statistics:\n"+
		"  Records:        %d\n"+
		"  Clean Loans:    %d\n"+
		"  Issues:         %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.Duration().String(),
		summary.InputFile,
		output,
		summary.Records,
		summary.CleanLoans,
		summary.Issues)

	writeCounts(writer, "Issues by Severity:", summary.BySeverity)
	writeCounts(writer, "Issues by Code:", summary.ByCode)

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary file: %w", err)
	}
	return nil
}

func writeCounts(w *bufio.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.WriteString(title + "\n")
	w.WriteString("--------------------------------------------------------------------------------\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %d\n", k+":", counts[k])
	}
	w.WriteString("\n")
}
