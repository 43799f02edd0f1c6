package detector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/config"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/validation"
	"github.com/ginjaninja78/loan-anomaly-detector/pkg/utils"
)

var sheet = [][]string{
	{"Borrower ID", "Loan ID", "Borrower income", "Loan amount", "Disbursal date", "Interest rate", "Days late", "Payments"},
	{"17", "37216892", "2500", "10000", "2023-01-15", "0.07", "0", "[]"},
	{"18", "37216893", "-100", "10000", "2023-01-15", "0.07", "0", "[]"},
	{"19", "37216894", "1800", "0", "2023-02-30", "0.07", "-3", ""},
	{"", "", "", "", "", "", "", ""},
	{"20", "", "1800", "500", "2023-03-01", "0.07", "0", "[]"},
}

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	for _, row := range sheet {
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	path := filepath.Join(dir, "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeXLSX(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range sheet {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &cells))
	}

	path := filepath.Join(dir, "portfolio.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func testConfig(input string) *config.MainConfig {
	cfg := config.Default()
	cfg.Input.FilePath = input
	cfg.Output.OutputPath = filepath.Join(filepath.Dir(input), "reports", "{input}_anomalies.csv")
	return cfg
}

func TestRunWritesReport(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(writeCSV(t, dir))
	cfg.Output.SummaryFile = filepath.Join(dir, "summary.yaml")

	logger, _ := test.NewNullLogger()
	result, err := New(cfg, logger).Run()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "reports", "portfolio_anomalies.csv"), result.OutputFile)
	assert.Equal(t, 3, result.Stats.RecordsParsed)
	assert.Equal(t, 3, result.Summary.Loans)
	assert.Equal(t, 1, result.Summary.CleanLoans)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "loan_id,severity,code,field,message,value", lines[0])
	assert.Equal(t, "37216892,CLEAN,,,,", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "37216893,ERROR,NEGATIVE_VALUE,borrower_income,"))

	summary, err := utils.ReadSummary(cfg.Output.SummaryFile)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, summary.RunID)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, result.Summary.Issues, summary.Issues)
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(writeCSV(t, dir))
	cfg.Output.DryRun = true

	logger, hook := test.NewNullLogger()
	result, err := New(cfg, logger).Run()
	require.NoError(t, err)

	assert.Empty(t, result.OutputFile)
	assert.NoDirExists(t, filepath.Join(dir, "reports"))

	var rows int
	for _, e := range hook.AllEntries() {
		if e.Message == "Dry run: report row" {
			rows++
		}
	}
	assert.Equal(t, result.Summary.Rows(), rows)
}

func TestCSVAndXLSXAgree(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	fromCSV, err := New(testConfig(writeCSV(t, dir)), logger).Load(filepath.Join(dir, "portfolio.csv"))
	require.NoError(t, err)
	fromXLSX, err := New(testConfig(writeXLSX(t, dir)), logger).Load(filepath.Join(dir, "portfolio.xlsx"))
	require.NoError(t, err)

	require.Len(t, fromXLSX, len(fromCSV))
	assert.Equal(t,
		ValidateAll(fromCSV, validation.DefaultXIRRSensitivity, 1),
		ValidateAll(fromXLSX, validation.DefaultXIRRSensitivity, 1))

	for i := range fromCSV {
		assert.Equal(t, fromCSV[i].SourceRow, fromXLSX[i].SourceRow)
	}
}

func TestLoadUnsupportedInput(t *testing.T) {
	d := New(testConfig("portfolio.json"), nil)
	_, err := d.Load("portfolio.json")
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = d.Run()
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestValidateAllKeepsOrder(t *testing.T) {
	records := make([]loan.Record, 0, 200)
	for i := 1; i <= 200; i++ {
		income := "1000"
		if i%3 == 0 {
			income = "-1"
		}
		rec, ok := loan.FromRow(map[string]any{
			"borrower id":     "1",
			"loan id":         fmt.Sprint(i),
			"borrower income": income,
		}, i+1)
		require.True(t, ok)
		records = append(records, rec)
	}

	sequential := ValidateAll(records, validation.DefaultXIRRSensitivity, 1)
	for _, workers := range []int{2, 4, 16, 500} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			parallel := ValidateAll(records, validation.DefaultXIRRSensitivity, workers)
			assert.Equal(t, sequential, parallel)
		})
	}

	for i, r := range sequential {
		assert.Equal(t, int64(i+1), r.LoanID)
		assert.Equal(t, (i+1)%3 == 0, !r.Clean())
	}

	assert.Empty(t, ValidateAll(nil, validation.DefaultXIRRSensitivity, 4))
}
