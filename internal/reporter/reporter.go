// Package reporter renders lettrage results for people and machines.
//
// Supported output formats:
//   - Console: human-readable summary for terminal display
//   - JSON: one structured document for programmatic consumption
//   - CSV: the three result tables for spreadsheet review
//
// All monetary values are rendered in major units from the authoritative
// cent amounts; the reporter never does arithmetic on money beyond that
// conversion.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang-lettrage-service/internal/engine"
	"golang-lettrage-service/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// CSV file names written by WriteCSVFiles
const (
	LettragesFileName      = "lettrages.csv"
	LetteredLinesFileName  = "lignes_lettrees.csv"
	RemainingLinesFileName = "lignes_restantes.csv"
)

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console options
	MaxListedLettrages int `json:"max_listed_lettrages"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration. The CSV
// delimiter defaults to ";" to match the accounting export convention.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		MaxListedLettrages: 20,
		CSVDelimiter:       ';',
		CSVHeaders:         true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxListedLettrages < 1 {
		return fmt.Errorf("max listed lettrages must be at least 1, got %d", c.MaxListedLettrages)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter must be set")
	}
	return nil
}

// ReportGenerator renders engine results in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the result to the writer in the configured format.
// For CSV output only the lettrage summary table is written; use
// WriteCSVFiles to get all three tables.
func (rg *ReportGenerator) GenerateReport(result *engine.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.writeLettragesCSV(result.Lettrages, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// WriteCSVFiles writes the three result tables into the output directory
func (rg *ReportGenerator) WriteCSVFiles(result *engine.Result, dir string) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{LettragesFileName, func(w io.Writer) error { return rg.writeLettragesCSV(result.Lettrages, w) }},
		{LetteredLinesFileName, func(w io.Writer) error { return rg.writeLetteredLinesCSV(result.LetteredLines, w) }},
		{RemainingLinesFileName, func(w io.Writer) error { return rg.writeRemainingLinesCSV(result.RemainingLines, w) }},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := f.write(file); err != nil {
			file.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	}

	return nil
}

// Console output

func (rg *ReportGenerator) generateConsoleReport(result *engine.Result, writer io.Writer) error {
	m := result.Metrics

	fmt.Fprintf(writer, "LETTRAGE\n")
	fmt.Fprintf(writer, "Tiers analysés:      %d\n", m.TiersConsidered)
	fmt.Fprintf(writer, "Candidats générés:   %d\n", m.CandidatesGenerated)
	fmt.Fprintf(writer, "Lettrages retenus:   %d\n", m.LettragesRetained)
	fmt.Fprintf(writer, "Durée:               %.3fs\n\n", m.ElapsedSeconds)

	if len(result.Lettrages) > 0 {
		fmt.Fprintf(writer, "%-10s %-10s %8s %12s %8s %8s\n",
			"ID", "Tiers", "Lignes", "Somme", "Ecart", "Score")

		for i, l := range result.Lettrages {
			if i >= rg.config.MaxListedLettrages {
				fmt.Fprintf(writer, "... et %d de plus\n", len(result.Lettrages)-rg.config.MaxListedLettrages)
				break
			}
			fmt.Fprintf(writer, "%-10s %-10s %8d %12s %8s %8d\n",
				l.ID,
				l.TierCode,
				l.LineCount,
				formatCents(l.SumCents),
				formatCents(l.GapCents),
				l.DateScore)
		}
		fmt.Fprintf(writer, "\n")
	}

	fmt.Fprintf(writer, "Lignes lettrées:   %d\n", len(result.LetteredLines))
	fmt.Fprintf(writer, "Lignes restantes:  %d\n", len(result.RemainingLines))

	return nil
}

// JSON output

// lettrageView mirrors engine.Lettrage with money rendered as two-decimal
// strings alongside the raw cent amounts.
type lettrageView struct {
	ID             string `json:"id_lettrage"`
	TierCode       string `json:"code_tiers"`
	TierName       string `json:"raison_sociale"`
	LineCount      int    `json:"nb_lignes"`
	PaymentCount   int    `json:"nb_rc"`
	Sum            string `json:"somme"`
	SumCents       int64  `json:"somme_cents"`
	Gap            string `json:"ecart"`
	GapCents       int64  `json:"ecart_cents"`
	DateScore      int    `json:"score_proximite_date"`
	DueDateMin     string `json:"date_echeance_min,omitempty"`
	DueDateMax     string `json:"date_echeance_max,omitempty"`
	InvoiceSummary string `json:"no_facture"`
	EntrySummary   string `json:"numero_ecriture"`
	LineIDs        []int  `json:"ids_lignes"`
}

type lineView struct {
	LettrageID    string `json:"id_lettrage,omitempty"`
	LineID        int    `json:"id_ligne"`
	CompanyCode   string `json:"code_societe"`
	InvoiceNumber string `json:"no_facture"`
	TierCode      string `json:"code_tiers"`
	TierName      string `json:"raison_sociale"`
	Label         string `json:"libelle_ecriture"`
	DocumentType  string `json:"type_piece"`
	InvoiceDate   string `json:"date_facture,omitempty"`
	DueDate       string `json:"date_echeance,omitempty"`
	Amount        string `json:"montant"`
	AmountCents   int64  `json:"montant_cents"`
	Currency      string `json:"devise"`
	AccountCode   string `json:"code_compte"`
	EntryNumber   string `json:"numero_ecriture"`
}

type jsonReport struct {
	Lettrages      []lettrageView `json:"lettrages"`
	LetteredLines  []lineView     `json:"lignes_lettrees"`
	RemainingLines []lineView     `json:"lignes_restantes"`
	Metrics        engine.Metrics `json:"metrics"`
}

func (rg *ReportGenerator) generateJSONReport(result *engine.Result, writer io.Writer) error {
	report := jsonReport{
		Lettrages:      make([]lettrageView, 0, len(result.Lettrages)),
		LetteredLines:  make([]lineView, 0, len(result.LetteredLines)),
		RemainingLines: make([]lineView, 0, len(result.RemainingLines)),
		Metrics:        result.Metrics,
	}

	for _, l := range result.Lettrages {
		report.Lettrages = append(report.Lettrages, lettrageView{
			ID:             l.ID,
			TierCode:       l.TierCode,
			TierName:       l.TierName,
			LineCount:      l.LineCount,
			PaymentCount:   l.PaymentCount,
			Sum:            formatCents(l.SumCents),
			SumCents:       l.SumCents,
			Gap:            formatCents(l.GapCents),
			GapCents:       l.GapCents,
			DateScore:      l.DateScore,
			DueDateMin:     formatDate(l.DueDateMin),
			DueDateMax:     formatDate(l.DueDateMax),
			InvoiceSummary: l.InvoiceSummary,
			EntrySummary:   l.EntrySummary,
			LineIDs:        l.LineIDs,
		})
	}

	for _, line := range result.LetteredLines {
		report.LetteredLines = append(report.LetteredLines, makeLineView(line.LedgerLine, line.LettrageID))
	}
	for _, line := range result.RemainingLines {
		report.RemainingLines = append(report.RemainingLines, makeLineView(line, ""))
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func makeLineView(line *models.LedgerLine, lettrageID string) lineView {
	return lineView{
		LettrageID:    lettrageID,
		LineID:        line.LineID,
		CompanyCode:   line.CompanyCode,
		InvoiceNumber: line.InvoiceNumber,
		TierCode:      line.TierCode,
		TierName:      line.TierName,
		Label:         line.Label,
		DocumentType:  line.DocumentType,
		InvoiceDate:   formatDate(line.InvoiceDate),
		DueDate:       formatDate(line.DueDate),
		Amount:        formatCents(line.AmountCents),
		AmountCents:   line.AmountCents,
		Currency:      line.Currency,
		AccountCode:   line.AccountCode,
		EntryNumber:   line.EntryNumber,
	}
}

// CSV output

func (rg *ReportGenerator) writeLettragesCSV(lettrages []*engine.Lettrage, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"id_lettrage", "code_tiers", "raison_sociale", "nb_lignes", "nb_rc",
			"somme", "ecart", "score_proximite_date",
			"date_echeance_min", "date_echeance_max",
			"no_facture", "numero_ecriture", "ids_lignes",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, l := range lettrages {
		record := []string{
			l.ID,
			l.TierCode,
			l.TierName,
			strconv.Itoa(l.LineCount),
			strconv.Itoa(l.PaymentCount),
			formatCents(l.SumCents),
			formatCents(l.GapCents),
			strconv.Itoa(l.DateScore),
			formatDate(l.DueDateMin),
			formatDate(l.DueDateMax),
			l.InvoiceSummary,
			l.EntrySummary,
			joinIDs(l.LineIDs),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write lettrage record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) writeLetteredLinesCSV(lines []*engine.LetteredLine, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := append([]string{"id_lettrage"}, lineHeaders()...)
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, line := range lines {
		record := append([]string{line.LettrageID}, lineRecord(line.LedgerLine)...)
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write lettered line record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) writeRemainingLinesCSV(lines []*models.LedgerLine, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(lineHeaders()); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, line := range lines {
		if err := csvWriter.Write(lineRecord(line)); err != nil {
			return fmt.Errorf("failed to write remaining line record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func lineHeaders() []string {
	return []string{
		"id_ligne", "code_societe", "no_facture", "code_tiers", "raison_sociale",
		"libelle_ecriture", "type_piece", "date_facture", "date_echeance",
		"montant", "devise", "code_compte", "numero_ecriture",
	}
}

func lineRecord(line *models.LedgerLine) []string {
	return []string{
		strconv.Itoa(line.LineID),
		line.CompanyCode,
		line.InvoiceNumber,
		line.TierCode,
		line.TierName,
		line.Label,
		line.DocumentType,
		formatDate(line.InvoiceDate),
		formatDate(line.DueDate),
		formatCents(line.AmountCents),
		line.Currency,
		line.AccountCode,
		line.EntryNumber,
	}
}

// Formatting helpers

func formatCents(cents int64) string {
	return models.CentsToUnits(cents).StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}
