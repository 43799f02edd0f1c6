// =============================================================================
// Loan Anomaly Detector - Main Entry Point
// =============================================================================
//
// USAGE:
//   loan-anomaly-detector detect    - Validate a portfolio file and write the report
//   loan-anomaly-detector augment   - Expand a workbook for load tests
//   loan-anomaly-detector version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : ingestion, validation, reporting and the detection pipeline
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/loan-anomaly-detector/cmd"
)

func main() {
	cmd.Execute()
}
