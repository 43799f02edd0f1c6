package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1, cfg.Input.HeaderRow)
	assert.Equal(t, ",", cfg.Input.CSVSettings.Delimiter)
	assert.Equal(t, "utf-8", cfg.Input.CSVSettings.Encoding)
	assert.Equal(t, "anomalies_{timestamp}.csv", cfg.Output.OutputPath)
	assert.Equal(t, 0.07, cfg.Validation.XIRRSensitivity)
	assert.Equal(t, 4, cfg.Processing.MaxConcurrency)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMainConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
input:
  file_path: loans.xlsx
  header_aliases:
    loan nr: loan id
output:
  output_path: out/{input}_{date}.csv
  encoding: windows-1252
validation:
  xirr_sensitivity: 0.02
logging:
  format: json
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "loans.xlsx", cfg.Input.FilePath)
	assert.Equal(t, map[string]string{"loan nr": "loan id"}, cfg.Input.HeaderAliases)
	assert.Equal(t, "out/{input}_{date}.csv", cfg.Output.OutputPath)
	assert.Equal(t, "windows-1252", cfg.Output.Encoding)
	assert.Equal(t, 0.02, cfg.Validation.XIRRSensitivity)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, 4, cfg.Processing.MaxConcurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMainConfigErrors(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadMainConfig(writeFile(t, "bad.yaml", "input: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "input:\n  file_path: from-file.xlsx\nvalidation:\n  xirr_sensitivity: 0.02\n")
	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	err = cfg.ApplyEnv(envMap(map[string]string{
		"FILE_PATH":        "from-env.xlsx",
		"XIRR_SENSITIVITY": "0.1",
		"DRY_RUN":          "true",
		"MAX_CONCURRENCY":  "8",
		"LOGGING_LEVEL":    "debug",
		"OUTPUT_PATH":      "  ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-env.xlsx", cfg.Input.FilePath)
	assert.Equal(t, 0.1, cfg.Validation.XIRRSensitivity)
	assert.True(t, cfg.Output.DryRun)
	assert.Equal(t, 8, cfg.Processing.MaxConcurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "anomalies_{timestamp}.csv", cfg.Output.OutputPath)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"XIRR_SENSITIVITY": "seven percent",
		"DRY_RUN":          "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XIRR_SENSITIVITY")
	assert.Contains(t, err.Error(), "DRY_RUN")
	assert.Equal(t, 0.07, cfg.Validation.XIRRSensitivity)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingInput)

	cfg.Input.FilePath = "loans.xlsx"
	require.NoError(t, cfg.Validate())

	cases := []struct {
		name   string
		mutate func(*MainConfig)
	}{
		{"negative sensitivity", func(c *MainConfig) { c.Validation.XIRRSensitivity = -1 }},
		{"no workers", func(c *MainConfig) { c.Processing.MaxConcurrency = -2 }},
		{"unknown report encoding", func(c *MainConfig) { c.Output.Encoding = "ebcdic" }},
		{"unknown input encoding", func(c *MainConfig) { c.Input.CSVSettings.Encoding = "utf-16" }},
		{"unknown log format", func(c *MainConfig) { c.Logging.Format = "xml" }},
		{"no output path", func(c *MainConfig) { c.Output.OutputPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			c.Input.FilePath = "loans.xlsx"
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	dry := Default()
	dry.Input.FilePath = "loans.xlsx"
	dry.Output.OutputPath = ""
	dry.Output.DryRun = true
	assert.NoError(t, dry.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "LOAN_DETECTOR_TEST_VAR=from-dotenv\n")
	t.Setenv("LOAN_DETECTOR_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("LOAN_DETECTOR_TEST_VAR"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("LOAN_DETECTOR_TEST_VAR"))
}
