// Package parsers reads the accounting ledger CSV export.
//
// The export comes out of the accounting system with French column headers,
// a separator that is sometimes ";" and sometimes ",", and an encoding that
// is UTF-8 on good days and Latin-1 or Windows-1252 on bad ones. The parser
// absorbs all of that: it sniffs the separator from the first line, walks an
// encoding fallback chain, and normalizes amounts and dates into the
// internal representation.
//
// Unparseable amounts fail the whole run; invalid dates are recorded as row
// warnings and the date is left unset.
package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"golang-lettrage-service/internal/models"
	"golang-lettrage-service/pkg/errors"
	"golang-lettrage-service/pkg/logger"
)

// ColumnMapping names the CSV columns the parser reads. Defaults match the
// accounting export; overriding individual names accommodates re-labelled
// exports without touching the parser.
type ColumnMapping struct {
	CompanyCode   string
	InvoiceNumber string
	TierCode      string
	TierName      string
	Label         string
	DocumentType  string
	InvoiceDate   string
	DueDate       string
	Amount        string
	Currency      string
	AccountCode   string
	EntryNumber   string
}

// DefaultColumnMapping returns the column names of the standard export
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		CompanyCode:   "Code Société",
		InvoiceNumber: "No facture",
		TierCode:      "Code Tiers",
		TierName:      "Raison sociale",
		Label:         "Libellé écriture",
		DocumentType:  "Type de pièce",
		InvoiceDate:   "Date facture",
		DueDate:       "Date d'échéance",
		Amount:        "Montant Signé",
		Currency:      "Devise comptabilisation",
		AccountCode:   "Code du compte général",
		EntryNumber:   "Numéro d'écriture",
	}
}

// required returns the mapped column names in a stable order
func (m ColumnMapping) required() []string {
	return []string{
		m.CompanyCode, m.InvoiceNumber, m.TierCode, m.TierName,
		m.Label, m.DocumentType, m.InvoiceDate, m.DueDate,
		m.Amount, m.Currency, m.AccountCode, m.EntryNumber,
	}
}

// LedgerParserConfig holds configuration for the ledger parser
type LedgerParserConfig struct {
	Columns ColumnMapping

	// Separator overrides detection when non-zero
	Separator rune
}

// DefaultLedgerParserConfig returns a configuration for the standard export
func DefaultLedgerParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		Columns: DefaultColumnMapping(),
	}
}

// Validate checks that every column has a name
func (c *LedgerParserConfig) Validate() error {
	for _, name := range c.Columns.required() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("column mapping contains an empty column name")
		}
	}
	return nil
}

// ParseStats describes one completed parse
type ParseStats struct {
	TotalRows   int
	LinesParsed int
	Separator   rune
	Encoding    string
	Warnings    []string
}

// HasWarnings returns true if any row produced a warning
func (ps *ParseStats) HasWarnings() bool {
	return len(ps.Warnings) > 0
}

// String returns a human-readable summary of the parse
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d of %d rows (separator %q, encoding %s), %d warnings",
		ps.LinesParsed, ps.TotalRows, ps.Separator, ps.Encoding, len(ps.Warnings))
}

// LedgerParser reads ledger CSV exports into LedgerLine values
type LedgerParser struct {
	config *LedgerParserConfig
	logger logger.Logger
}

// NewLedgerParser creates a LedgerParser with the given configuration
func NewLedgerParser(config *LedgerParserConfig) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"ledger_parser_config",
			config.Columns,
			err,
		)
	}

	log := logger.GetGlobalLogger().WithComponent("ledger_parser")

	return &LedgerParser{
		config: config,
		logger: log,
	}, nil
}

// ParseFile reads and parses a ledger export from disk
func (lp *LedgerParser) ParseFile(filePath string) ([]*models.LedgerLine, *ParseStats, error) {
	lp.logger.WithField("file_path", filePath).Info("Parsing ledger export")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		lp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to read ledger file")

		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	return lp.ParseBytes(raw, filePath)
}

// ParseReader reads the full input and parses it. The name is only used in
// error messages.
func (lp *LedgerParser) ParseReader(r io.Reader, name string) ([]*models.LedgerLine, *ParseStats, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	return lp.ParseBytes(raw, name)
}

// ParseBytes parses a ledger export already held in memory
func (lp *LedgerParser) ParseBytes(raw []byte, name string) ([]*models.LedgerLine, *ParseStats, error) {
	text, encodingName, err := decodeExport(raw)
	if err != nil {
		return nil, nil, errors.ParseError(
			errors.CodeEncodingError, name, 0, "", "", err,
		)
	}

	sep := lp.config.Separator
	if sep == 0 {
		sep = DetectSeparator(firstLine(text))
	}

	lp.logger.WithFields(logger.Fields{
		"file":      name,
		"separator": string(sep),
		"encoding":  encodingName,
	}).Debug("Decoded ledger export")

	stats := &ParseStats{Separator: sep, Encoding: encodingName}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, stats, errors.ParseError(
				errors.CodeInvalidFormat, name, 1, "headers", "",
				fmt.Errorf("file is empty"),
			)
		}
		return nil, stats, errors.ParseError(
			errors.CodeInvalidFormat, name, 1, "headers", "", err,
		)
	}

	headerMap, missing := lp.mapHeaders(headers)
	if len(missing) > 0 {
		lp.logger.WithFields(logger.Fields{
			"file":            name,
			"missing_columns": missing,
		}).Error("Required columns are missing")

		return nil, stats, errors.ParseError(
			errors.CodeMissingColumn, name, 1, strings.Join(missing, ", "), "", nil,
		)
	}

	var lines []*models.LedgerLine
	lineNumber := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			return nil, stats, errors.ParseError(
				errors.CodeInvalidFormat, name, lineNumber, "record", "", err,
			)
		}

		if isEmptyRecord(record) {
			continue
		}
		stats.TotalRows++

		line, err := lp.buildLine(record, headerMap, len(lines), lineNumber, name, stats)
		if err != nil {
			return nil, stats, err
		}

		lines = append(lines, line)
		stats.LinesParsed++
	}

	lp.logger.WithFields(logger.Fields{
		"file":     name,
		"lines":    stats.LinesParsed,
		"warnings": len(stats.Warnings),
	}).Info("Ledger export parsed")

	return lines, stats, nil
}

// mapHeaders resolves every configured column to its index and reports the
// missing ones
func (lp *LedgerParser) mapHeaders(headers []string) (map[string]int, []string) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}

	headerMap := make(map[string]int)
	var missing []string
	for _, name := range lp.config.Columns.required() {
		if i, ok := index[name]; ok {
			headerMap[name] = i
		} else {
			missing = append(missing, name)
		}
	}
	return headerMap, missing
}

// buildLine converts one CSV record into a LedgerLine. The line id is the
// zero-based position among parsed rows, not the file line number.
func (lp *LedgerParser) buildLine(record []string, headerMap map[string]int, id, lineNumber int, name string, stats *ParseStats) (*models.LedgerLine, error) {
	cols := lp.config.Columns
	field := func(column string) string {
		i := headerMap[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	amountRaw := field(cols.Amount)
	amountCents, err := models.ParseAmountCents(amountRaw)
	if err != nil {
		lp.logger.WithError(err).WithFields(logger.Fields{
			"file": name,
			"line": lineNumber,
		}).Error("Unparseable amount")

		return nil, errors.ParseError(
			errors.CodeInvalidData, name, lineNumber, cols.Amount, amountRaw, err,
		)
	}

	invoiceDate := lp.parseDateField(field(cols.InvoiceDate), cols.InvoiceDate, lineNumber, stats)
	dueDate := lp.parseDateField(field(cols.DueDate), cols.DueDate, lineNumber, stats)

	return &models.LedgerLine{
		LineID:        id,
		CompanyCode:   field(cols.CompanyCode),
		InvoiceNumber: field(cols.InvoiceNumber),
		TierCode:      field(cols.TierCode),
		TierName:      field(cols.TierName),
		Label:         field(cols.Label),
		DocumentType:  field(cols.DocumentType),
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		AmountCents:   amountCents,
		Currency:      field(cols.Currency),
		AccountCode:   field(cols.AccountCode),
		EntryNumber:   field(cols.EntryNumber),
	}, nil
}

// parseDateField parses a day-first date, downgrading failures to warnings
func (lp *LedgerParser) parseDateField(value, column string, lineNumber int, stats *ParseStats) *time.Time {
	parsed, err := models.ParseDate(value)
	if err != nil {
		stats.Warnings = append(stats.Warnings,
			fmt.Sprintf("line %d: invalid date %q in column %s", lineNumber, value, column))
		lp.logger.WithFields(logger.Fields{
			"line":   lineNumber,
			"column": column,
			"value":  value,
		}).Warn("Invalid date, keeping the line without it")
		return nil
	}
	return parsed
}

// DetectSeparator picks the CSV separator from a sample line. The export
// uses ";" more often than not, so ties go to ";".
func DetectSeparator(sample string) rune {
	if strings.Count(sample, ";") >= strings.Count(sample, ",") {
		return ';'
	}
	return ','
}

// decodeExport turns raw export bytes into UTF-8 text. The chain mirrors
// what the accounting system actually emits: UTF-8 first, then Latin-1,
// then Windows-1252.
func decodeExport(raw []byte) (string, string, error) {
	raw = stripBOM(raw)
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}

	fallbacks := []struct {
		name    string
		charmap *charmap.Charmap
	}{
		{"latin-1", charmap.ISO8859_1},
		{"windows-1252", charmap.Windows1252},
	}

	var lastErr error
	for _, fb := range fallbacks {
		decoded, err := fb.charmap.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return string(decoded), fb.name, nil
	}

	return "", "", fmt.Errorf("undecodable input: %w", lastErr)
}

// firstLine returns the text up to the first line break
func firstLine(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return text[:i]
	}
	return text
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// stray BOMs show up in exports saved from spreadsheet tools
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(raw []byte) []byte {
	return bytes.TrimPrefix(raw, utf8BOM)
}
