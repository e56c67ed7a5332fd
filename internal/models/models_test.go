package models

import (
	"testing"
	"time"
)

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		wantErr  bool
	}{
		{"plain dotted decimal", "10.50", 1050, false},
		{"french comma decimal", "10,50", 1050, false},
		{"french thousands with spaces", "1 234,56", 123456, false},
		{"non-breaking space separator", "1 234,56", 123456, false},
		{"dot thousands comma decimal", "1.234,56", 123456, false},
		{"negative amount", "-100.00", -10000, false},
		{"negative french", "-1 000,25", -100025, false},
		{"integer", "42", 4200, false},
		{"empty is zero", "", 0, false},
		{"whitespace only is zero", "   ", 0, false},
		{"garbage", "abc", 0, true},
		{"mixed garbage", "12x34", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for input %q: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseAmountCents(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *time.Time
		wantErr  bool
	}{
		{"day first slashes", "15/01/2024", timePtr(2024, 1, 15), false},
		{"day first dashes", "15-01-2024", timePtr(2024, 1, 15), false},
		{"iso", "2024-01-15", timePtr(2024, 1, 15), false},
		{"empty is nil", "", nil, false},
		{"invalid", "not a date", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for input %q: %v", tt.input, err)
			}
			if tt.expected == nil {
				if got != nil {
					t.Errorf("Expected nil date for %q, got %v", tt.input, got)
				}
				return
			}
			if got == nil || !got.Equal(*tt.expected) {
				t.Errorf("ParseDate(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCentsToUnits(t *testing.T) {
	if got := CentsToUnits(123456).StringFixed(2); got != "1234.56" {
		t.Errorf("Expected 1234.56, got %s", got)
	}
	if got := CentsToUnits(-5).StringFixed(2); got != "-0.05" {
		t.Errorf("Expected -0.05, got %s", got)
	}
}

func TestLedgerLineIsPayment(t *testing.T) {
	payment := &LedgerLine{DocumentType: DocumentTypePayment}
	if !payment.IsPayment() {
		t.Error("Expected RC line to be a payment")
	}

	invoice := &LedgerLine{DocumentType: "FV"}
	if invoice.IsPayment() {
		t.Error("Expected FV line not to be a payment")
	}
}

func TestLedgerLineValidate(t *testing.T) {
	valid := &LedgerLine{
		TierCode:     "T1",
		DocumentType: "FV",
		AccountCode:  "41100000",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid line, got error: %v", err)
	}

	missingTier := &LedgerLine{DocumentType: "FV", AccountCode: "41100000"}
	if err := missingTier.Validate(); err == nil {
		t.Error("Expected error for missing tier code")
	}

	missingType := &LedgerLine{TierCode: "T1", AccountCode: "41100000"}
	if err := missingType.Validate(); err == nil {
		t.Error("Expected error for missing document type")
	}

	missingAccount := &LedgerLine{TierCode: "T1", DocumentType: "FV"}
	if err := missingAccount.Validate(); err == nil {
		t.Error("Expected error for missing account code")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("Expected 2 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != 2 {
		t.Errorf("Expected symmetric distance 2, got %d", got)
	}
	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("Expected 0 days, got %d", got)
	}
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
