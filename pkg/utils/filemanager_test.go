package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("reports/{input}_{date}", map[string]string{"input": "portfolio"})

	assert.True(t, strings.HasPrefix(name, "reports/portfolio_"+time.Now().Format("2006")))
	assert.True(t, strings.HasSuffix(name, ".csv"))

	kept := GenerateOutputFileName("out/{uuid}.CSV", nil)
	assert.True(t, strings.HasSuffix(kept, ".CSV"))
	assert.NotContains(t, kept, "{uuid}")
}

func TestInputStem(t *testing.T) {
	assert.Equal(t, "portfolio", InputStem("/data/in/portfolio.xlsx"))
	assert.Equal(t, "loans.2024", InputStem("loans.2024.csv"))
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "report.csv")
	require.NoError(t, EnsureParentDir(path))
	assert.DirExists(t, filepath.Dir(path))
	assert.NoFileExists(t, path)

	assert.NoError(t, EnsureParentDir("report.csv"))
}

func sampleSummary() RunSummary {
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return RunSummary{
		RunID:      "run-1",
		StartTime:  start,
		EndTime:    start.Add(2 * time.Second),
		InputFile:  "portfolio.xlsx",
		OutputFile: "anomalies.csv",
		Records:    3,
		CleanLoans: 1,
		Issues:     4,
		BySeverity: map[string]int{"ERROR": 3, "WARN": 1},
		ByCode:     map[string]int{"NEGATIVE_VALUE": 3, "DEFAULT": 1},
	}
}

func TestWriteSummaryYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.yaml")
	want := sampleSummary()
	require.NoError(t, WriteSummary(want, path))

	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, want.StartTime.Equal(got.StartTime))
	assert.Equal(t, want.Issues, got.Issues)
	assert.Equal(t, want.ByCode, got.ByCode)
	assert.Equal(t, 2*time.Second, got.Duration())
}

func TestWriteSummaryText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "summary.txt")
	summary := sampleSummary()
	summary.DryRun = true
	require.NoError(t, WriteSummary(summary, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Run ID:         run-1")
	assert.Contains(t, text, "Report:         (dry run)")
	assert.Contains(t, text, "Duration:       2s")
	assert.Less(t, strings.Index(text, "DEFAULT:"), strings.Index(text, "NEGATIVE_VALUE:"))
}

func TestReadSummaryErrors(t *testing.T) {
	_, err := ReadSummary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
