package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang-lettrage-service/internal/engine"
	"golang-lettrage-service/internal/models"
)

func testResult() *engine.Result {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	invoice := &models.LedgerLine{
		LineID:        0,
		CompanyCode:   "SOC1",
		InvoiceNumber: "F001",
		TierCode:      "T001",
		TierName:      "Client Un",
		DocumentType:  "FV",
		DueDate:       &due,
		AmountCents:   10000,
		Currency:      "EUR",
		AccountCode:   "41100000",
		EntryNumber:   "E001",
	}
	payment := &models.LedgerLine{
		LineID:       1,
		CompanyCode:  "SOC1",
		TierCode:     "T001",
		TierName:     "Client Un",
		DocumentType: "RC",
		DueDate:      &due,
		AmountCents:  -10000,
		Currency:     "EUR",
		AccountCode:  "41100000",
		EntryNumber:  "E002",
	}
	remaining := &models.LedgerLine{
		LineID:        2,
		CompanyCode:   "SOC1",
		InvoiceNumber: "F002",
		TierCode:      "T002",
		TierName:      "Client Deux",
		DocumentType:  "FV",
		AmountCents:   5000,
		Currency:      "EUR",
		AccountCode:   "41100000",
		EntryNumber:   "E003",
	}

	return &engine.Result{
		Lettrages: []*engine.Lettrage{{
			ID:             "LET-0001",
			TierCode:       "T001",
			TierName:       "Client Un",
			LineCount:      2,
			PaymentCount:   1,
			SumCents:       0,
			GapCents:       0,
			DateScore:      0,
			DueDateMin:     &due,
			DueDateMax:     &due,
			InvoiceSummary: "F001",
			EntrySummary:   "E001, E002",
			LineIDs:        []int{0, 1},
		}},
		LetteredLines: []*engine.LetteredLine{
			{LettrageID: "LET-0001", LedgerLine: invoice},
			{LettrageID: "LET-0001", LedgerLine: payment},
		},
		RemainingLines: []*models.LedgerLine{remaining},
		Metrics: engine.Metrics{
			TiersConsidered:     2,
			CandidatesGenerated: 1,
			LettragesRetained:   1,
			ElapsedSeconds:      0.012,
		},
	}
}

func newTestGenerator(t *testing.T, config *ReportConfig) *ReportGenerator {
	t.Helper()
	rg, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("Failed to create report generator: %v", err)
	}
	return rg
}

func TestReportConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ReportConfig)
		wantErr bool
	}{
		{"default is valid", func(c *ReportConfig) {}, false},
		{"invalid format", func(c *ReportConfig) { c.Format = "xml" }, true},
		{"zero listed lettrages", func(c *ReportConfig) { c.MaxListedLettrages = 0 }, true},
		{"zero delimiter", func(c *ReportConfig) { c.CSVDelimiter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReportConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestConsoleReport(t *testing.T) {
	rg := newTestGenerator(t, nil)

	var buf bytes.Buffer
	if err := rg.GenerateReport(testResult(), &buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Tiers analysés:      2",
		"Lettrages retenus:   1",
		"LET-0001",
		"Lignes restantes:  1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected console output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestConsoleReportTruncatesLongList(t *testing.T) {
	config := DefaultReportConfig()
	config.MaxListedLettrages = 1
	rg := newTestGenerator(t, config)

	result := testResult()
	extra := *result.Lettrages[0]
	extra.ID = "LET-0002"
	result.Lettrages = append(result.Lettrages, &extra)

	var buf bytes.Buffer
	if err := rg.GenerateReport(result, &buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "et 1 de plus") {
		t.Errorf("Expected truncation marker, got:\n%s", output)
	}
	if strings.Contains(output, "LET-0002") {
		t.Errorf("Expected second lettrage to be truncated, got:\n%s", output)
	}
}

func TestJSONReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	rg := newTestGenerator(t, config)

	var buf bytes.Buffer
	if err := rg.GenerateReport(testResult(), &buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var report struct {
		Lettrages []struct {
			ID      string `json:"id_lettrage"`
			Sum     string `json:"somme"`
			LineIDs []int  `json:"ids_lignes"`
			DueMin  string `json:"date_echeance_min"`
		} `json:"lettrages"`
		LetteredLines []struct {
			LettrageID string `json:"id_lettrage"`
			Amount     string `json:"montant"`
		} `json:"lignes_lettrees"`
		RemainingLines []struct {
			Amount string `json:"montant"`
		} `json:"lignes_restantes"`
		Metrics struct {
			TiersTotal int `json:"tiers_total"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}

	if len(report.Lettrages) != 1 || report.Lettrages[0].ID != "LET-0001" {
		t.Fatalf("Unexpected lettrages: %+v", report.Lettrages)
	}
	if report.Lettrages[0].Sum != "0.00" {
		t.Errorf("Expected two-decimal sum, got %q", report.Lettrages[0].Sum)
	}
	if report.Lettrages[0].DueMin != "2024-01-31" {
		t.Errorf("Unexpected due date min: %q", report.Lettrages[0].DueMin)
	}
	if len(report.LetteredLines) != 2 || report.LetteredLines[0].Amount != "100.00" {
		t.Errorf("Unexpected lettered lines: %+v", report.LetteredLines)
	}
	if len(report.RemainingLines) != 1 || report.RemainingLines[0].Amount != "50.00" {
		t.Errorf("Unexpected remaining lines: %+v", report.RemainingLines)
	}
	if report.Metrics.TiersTotal != 2 {
		t.Errorf("Unexpected metrics: %+v", report.Metrics)
	}
}

func TestCSVReportSingleWriter(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	rg := newTestGenerator(t, config)

	var buf bytes.Buffer
	if err := rg.GenerateReport(testResult(), &buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV output: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected header plus 1 record, got %d rows", len(records))
	}
	if records[0][0] != "id_lettrage" {
		t.Errorf("Unexpected header row: %v", records[0])
	}
	if records[1][0] != "LET-0001" || records[1][5] != "0.00" {
		t.Errorf("Unexpected lettrage record: %v", records[1])
	}
	if records[1][12] != "0|1" {
		t.Errorf("Unexpected line ids field: %q", records[1][12])
	}
}

func TestWriteCSVFiles(t *testing.T) {
	rg := newTestGenerator(t, nil)
	dir := t.TempDir()

	if err := rg.WriteCSVFiles(testResult(), dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		file     string
		wantRows int
	}{
		{LettragesFileName, 2},
		{LetteredLinesFileName, 3},
		{RemainingLinesFileName, 2},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			raw, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("Missing output file: %v", err)
			}

			reader := csv.NewReader(bytes.NewReader(raw))
			reader.Comma = ';'
			records, err := reader.ReadAll()
			if err != nil {
				t.Fatalf("Invalid CSV in %s: %v", tt.file, err)
			}
			if len(records) != tt.wantRows {
				t.Errorf("Expected %d rows in %s, got %d", tt.wantRows, tt.file, len(records))
			}
		})
	}
}

func TestGenerateReportNilResult(t *testing.T) {
	rg := newTestGenerator(t, nil)

	if err := rg.GenerateReport(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("Expected an error for nil result")
	}
}
