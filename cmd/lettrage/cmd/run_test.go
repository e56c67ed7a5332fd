package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

const testExportContent = "Code Société;No facture;Code Tiers;Raison sociale;" +
	"Libellé écriture;Type de pièce;Date facture;Date d'échéance;" +
	"Montant Signé;Devise comptabilisation;Code du compte général;Numéro d'écriture\n" +
	"SOC1;F001;T001;Client Un;Facture;FV;01/01/2024;31/01/2024;100,00;EUR;41100000;E001\n" +
	"SOC1;;T001;Client Un;Règlement;RC;;15/02/2024;-100,00;EUR;41100000;E002\n"

func writeTestExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(testExportContent), 0644); err != nil {
		t.Fatalf("failed to create test export: %v", err)
	}
	return path
}

func setRunFlags(input string) {
	viper.Set("input", input)
	viper.Set("today", "2024-03-01")
	viper.Set("tolerance", "0.05")
	viper.Set("account-code", "41100000")
	viper.Set("max-group-lines", 6)
	viper.Set("max-lines-per-tier", 200)
	viper.Set("multi-payment", true)
	viper.Set("max-payments-per-group", 2)
	viper.Set("max-candidates-per-payment", 500)
	viper.Set("workers", 1)
	viper.Set("output-format", "console")
	viper.Set("output", "")
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", "/non/existent/file.csv", true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRunFlags(t *testing.T) {
	export := writeTestExport(t)

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name:       "valid flags",
			setupFlags: func() { setRunFlags(export) },
		},
		{
			name: "missing input",
			setupFlags: func() {
				setRunFlags("")
			},
			expectError:   true,
			errorContains: "input is required",
		},
		{
			name: "non-existent input",
			setupFlags: func() {
				setRunFlags("/non/existent/export.csv")
			},
			expectError:   true,
			errorContains: "does not exist",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				setRunFlags(export)
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "invalid today date",
			setupFlags: func() {
				setRunFlags(export)
				viper.Set("today", "01/03/2024")
			},
			expectError:   true,
			errorContains: "invalid today date",
		},
		{
			name: "missing output directory",
			setupFlags: func() {
				setRunFlags(export)
				viper.Set("output-format", "json")
				viper.Set("output", "/non/existent/dir/out.json")
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupFlags()
			err := validateRunFlags(runCmd, nil)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain %q, got %q", tt.errorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunLettrageJSONOutput(t *testing.T) {
	export := writeTestExport(t)
	outFile := filepath.Join(t.TempDir(), "resultat.json")

	setRunFlags(export)
	viper.Set("output-format", "json")
	viper.Set("output", outFile)

	if err := validateRunFlags(runCmd, nil); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := runLettrage(runCmd, nil); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	raw, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("missing output file: %v", err)
	}

	var report struct {
		Lettrages []struct {
			ID string `json:"id_lettrage"`
		} `json:"lettrages"`
		Metrics struct {
			Retained int `json:"lettrages_retenus"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	if len(report.Lettrages) != 1 || report.Lettrages[0].ID != "LET-0001" {
		t.Fatalf("expected exactly LET-0001, got %+v", report.Lettrages)
	}
	if report.Metrics.Retained != 1 {
		t.Errorf("expected 1 retained lettrage, got %d", report.Metrics.Retained)
	}
}

func TestRunLettrageCSVDirectory(t *testing.T) {
	export := writeTestExport(t)
	outDir := filepath.Join(t.TempDir(), "resultats")

	setRunFlags(export)
	viper.Set("output-format", "csv")
	viper.Set("output", outDir)

	if err := validateRunFlags(runCmd, nil); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := runLettrage(runCmd, nil); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	for _, file := range []string{"lettrages.csv", "lignes_lettrees.csv", "lignes_restantes.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, file)); err != nil {
			t.Errorf("missing output file %s: %v", file, err)
		}
	}
}

func TestRunLettrageInvalidAmountFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := strings.Replace(testExportContent, "100,00;EUR", "n/a;EUR", 1)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test export: %v", err)
	}

	setRunFlags(path)

	if err := validateRunFlags(runCmd, nil); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := runLettrage(runCmd, nil); err == nil {
		t.Fatal("expected an error for an unparseable amount")
	}
}
