package csvparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/config"
)

func writeCSV(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loans.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func settings() config.InputSettings {
	return config.Default().Input
}

func TestParseUTF8WithBOM(t *testing.T) {
	content := "\ufeffBorrower ID,Loan ID,Loan amount,Disbursal date,Payments\n" +
		"17,37216892,\"1 250,50\",31.05.2023,\"[{'Payment date': '20/09/2023', 'Repayment date': '31/05/2023'}]\"\n" +
		",,,,\n" +
		",5,100,,\n" +
		"18,37216893,10000,2023-01-15\n"

	logger, _ := test.NewNullLogger()
	records, err := Parse(writeCSV(t, []byte(content)), settings(), logger)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, int64(37216892), first.ID())
	amount, ok := first.Loan.LoanAmount.Get()
	require.True(t, ok)
	assert.Equal(t, 1250.5, amount)

	entries, ok := first.Repayment.Payments.Get()
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "20/09/2023", entries[0].PaymentDate)

	second := records[1]
	assert.Equal(t, 5, second.SourceRow)
	// The short row still has a payments column, so the empty cell is Invalid.
	assert.True(t, second.Repayment.Payments.IsInvalid())
}

func TestParseWindows1252Semicolon(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Borrower ID;Loan ID;City\n1;2;Montréal café\n")
	require.NoError(t, err)

	s := settings()
	s.CSVSettings.Delimiter = "semicolon"
	s.CSVSettings.Encoding = "windows-1252"

	records, err := Parse(writeCSV(t, []byte(encoded)), s, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Company)

	city, ok := records[0].Company.City.Get()
	require.True(t, ok)
	assert.Equal(t, "Montréal café", city)
}

func TestParseHeaderRowAndAliases(t *testing.T) {
	content := "Portfolio export\nClient,Loan Nr\n9,99\n"

	s := settings()
	s.HeaderRow = 2
	s.HeaderAliases = map[string]string{"Client": "Borrower ID", "Loan Nr": "Loan ID"}

	records, err := Parse(writeCSV(t, []byte(content)), s, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(99), records[0].ID())
	assert.Equal(t, 3, records[0].SourceRow)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.csv"), settings(), nil)
	assert.Error(t, err)

	_, err = Parse(writeCSV(t, nil), settings(), nil)
	assert.Error(t, err)

	s := settings()
	s.CSVSettings.Encoding = "utf-16"
	_, err = Parse(writeCSV(t, []byte("Loan ID\n1\n")), s, nil)
	assert.Error(t, err)
}

func TestStreamingParserHeaders(t *testing.T) {
	p, err := NewStreamingParser(writeCSV(t, []byte(" Loan ID , Colateral Description\n")), settings())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"loan id", "collateral description"}, p.Headers())
	assert.False(t, p.Next())
	assert.NoError(t, p.Err())
}
