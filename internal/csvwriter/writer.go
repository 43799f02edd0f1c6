// =============================================================================
// Loan Anomaly Detector - CSV Report Writer
// =============================================================================
//
// This module serializes validation results into a flat CSV report.
//
// REPORT STRUCTURE:
//   loan_id,severity,code,field,message,value
//   37216892,ERROR,NEGATIVE_VALUE,borrower_income,Value must not be negative,-100
//   37216893,CLEAN,,,,
//
//   - one row per issue, in the order the validation engine produced them
//   - one CLEAN row, with every other column empty, for a loan without issues
//   - loans appear in input order
//
// DRY RUN:
//   With DryRun set nothing is written; every row is logged instead.
//
// =============================================================================

package csvwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/validation"
	"github.com/ginjaninja78/loan-anomaly-detector/pkg/utils"
)

// Header is the report header row.
var Header = []string{"loan_id", "severity", "code", "field", "message", "value"}

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options control the report output.
type Options struct {
	// DryRun logs the rows instead of writing the file.
	DryRun bool

	// Encoding is the character encoding of the file.
	// Valid values: "utf-8", "utf-8-bom", "windows-1252"
	// Default: "utf-8"
	Encoding string

	// Logger receives dry-run rows.
	// Default: logrus.StandardLogger()
	Logger logrus.FieldLogger
}

// DefaultOptions returns the default write options.
func DefaultOptions() Options {
	return Options{
		Encoding: "utf-8",
		Logger:   logrus.StandardLogger(),
	}
}

// =============================================================================
// MAIN WRITE FUNCTIONS
// =============================================================================

// Write writes the report for results to path and returns its summary.
func Write(results []validation.LoanIssues, path string, opts Options) (Summary, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	summary := Summarize(results)

	if opts.DryRun {
		logRows(results, opts.Logger)
		return summary, nil
	}

	if err := utils.EnsureParentDir(path); err != nil {
		return summary, err
	}

	file, err := os.Create(path)
	if err != nil {
		return summary, fmt.Errorf("failed to create report: %w", err)
	}

	if err := Encode(file, results, opts.Encoding); err != nil {
		file.Close()
		return summary, err
	}
	if err := file.Close(); err != nil {
		return summary, fmt.Errorf("failed to close report: %w", err)
	}

	return summary, nil
}

// Generate returns the encoded report.
func Generate(results []validation.LoanIssues, encodingName string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, results, encodingName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the report to w in the named encoding. Characters the
// encoding cannot represent are replaced.
func Encode(w io.Writer, results []validation.LoanIssues, encodingName string) error {
	enc, err := encoder(encodingName)
	if err != nil {
		return err
	}

	tw := transform.NewWriter(w, enc)
	cw := csv.NewWriter(tw)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	if err := cw.WriteAll(Rows(results)); err != nil {
		return fmt.Errorf("failed to write report rows: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// =============================================================================
// ROW BUILDING
// =============================================================================

// Rows flattens results into report rows, without the header.
func Rows(results []validation.LoanIssues) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		id := strconv.FormatInt(r.LoanID, 10)
		if r.Clean() {
			rows = append(rows, []string{id, string(validation.SeverityClean), "", "", "", ""})
			continue
		}
		for _, issue := range r.Issues {
			rows = append(rows, []string{
				id,
				string(issue.Severity),
				issue.Code,
				issue.Field,
				issue.Message,
				FormatValue(issue.Value),
			})
		}
	}
	return rows
}

// FormatValue renders an issue value for the report. Nil is empty.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func logRows(results []validation.LoanIssues, log logrus.FieldLogger) {
	for _, row := range Rows(results) {
		log.WithFields(logrus.Fields{
			"loan_id":  row[0],
			"severity": row[1],
			"code":     row[2],
			"field":    row[3],
			"message":  row[4],
			"value":    row[5],
		}).Info("Dry run: report row")
	}
}

// encoder returns the encoder for a report encoding name.
func encoder(name string) (*encoding.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return encoding.Nop.NewEncoder(), nil
	case "utf-8-bom", "utf8-bom":
		return unicode.UTF8BOM.NewEncoder(), nil
	case "windows-1252", "cp1252":
		return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), nil
	default:
		return nil, fmt.Errorf("unsupported report encoding %q", name)
	}
}
