// =============================================================================
// Loan Anomaly Detector - CSV Loan Sheet Parser
// =============================================================================
//
// This module reads a CSV export of the loan portfolio sheet. The layout is
// the same as the workbook: one header row with the column labels, then one
// loan per row. Records built here are identical to the ones the XLSX parser
// produces for the same sheet.
//
// ENCODING:
//   Spreadsheet tools export CSV in different encodings. The file is decoded
//   to UTF-8 while it is read:
//   - utf-8         : a leading byte order mark is removed
//   - windows-1252  : Excel "CSV" on Western-European Windows
//   - iso-8859-1    : Latin-1
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/loan-anomaly-detector/internal/config"
	"github.com/ginjaninja78/loan-anomaly-detector/internal/loan"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV loan sheet and returns its records in file order.
//
// Rows without a borrower id or loan id are dropped. Malformed cells never
// fail the parse; they become Invalid values on the record.
func Parse(filePath string, settings config.InputSettings, log logrus.FieldLogger) ([]loan.Record, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("file", filePath)

	parser, err := NewStreamingParser(filePath, settings)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	var (
		records []loan.Record
		dropped int
	)
	for parser.Next() {
		rec, ok := loan.FromRow(parser.Row(), parser.RowNumber())
		if !ok {
			dropped++
			log.WithField("row", parser.RowNumber()).Debug("Dropping row without borrower or loan id")
			continue
		}
		records = append(records, rec)
	}
	if err := parser.Err(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"records": len(records),
		"dropped": dropped,
	}).Info("CSV parsed")

	return records, nil
}

// configureReader configures the CSV reader based on settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow a variable number of fields per row; short rows are padded.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// decoder returns the decoder for a configured encoding name.
func decoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported input encoding %q", name)
	}
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads a CSV loan sheet row by row.
type StreamingParser struct {
	file       *os.File
	reader     *csv.Reader
	headers    []string
	currentRow map[string]any
	rowNumber  int
	err        error
	settings   config.InputSettings
}

// NewStreamingParser opens the file and reads up to and including the
// header row.
func NewStreamingParser(filePath string, settings config.InputSettings) (*StreamingParser, error) {
	dec, err := decoder(settings.CSVSettings.Encoding)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader := csv.NewReader(transform.NewReader(bufio.NewReader(file), dec))
	configureReader(reader, settings.CSVSettings)

	parser := &StreamingParser{
		file:     file,
		reader:   reader,
		settings: settings,
	}

	if err := parser.readHeaders(); err != nil {
		file.Close()
		return nil, err
	}

	return parser, nil
}

// readHeaders skips to the header row and resolves its labels.
func (p *StreamingParser) readHeaders() error {
	headerRow := p.settings.HeaderRow
	if headerRow < 1 {
		headerRow = 1
	}

	for p.rowNumber < headerRow {
		row, err := p.reader.Read()
		if err == io.EOF {
			return fmt.Errorf("unexpected end of file while reading headers")
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", p.rowNumber+1, err)
		}
		p.rowNumber++

		if p.rowNumber == headerRow {
			p.headers = loan.ResolveHeaders(row, p.settings.HeaderAliases)
		}
	}
	return nil
}

// Next advances to the next non-empty row.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	for {
		row, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}

		p.rowNumber++

		if loan.IsBlankRow(row) {
			continue
		}

		p.currentRow = loan.RowMap(p.headers, row)
		return true
	}
}

// Row returns the current row as a label -> cell map.
func (p *StreamingParser) Row() map[string]any {
	return p.currentRow
}

// Headers returns the resolved header labels.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// RowNumber returns the 1-based record number of the current row.
func (p *StreamingParser) RowNumber() int {
	return p.rowNumber
}

// Err returns the first read error.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file.
func (p *StreamingParser) Close() error {
	return p.file.Close()
}
