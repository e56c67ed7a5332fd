package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentTypePayment marks incoming-payment lines ("règlement client").
// Every other document type is an invoice, credit note or adjustment the
// payment may settle.
const DocumentTypePayment = "RC"

// LedgerLine represents one imported accounting entry. Lines are read-only
// for the whole run; LineID is assigned sequentially at ingestion and is the
// only handle the engine uses to reference a line.
type LedgerLine struct {
	LineID        int        `json:"id_ligne"`
	CompanyCode   string     `json:"code_societe"`
	InvoiceNumber string     `json:"no_facture"`
	TierCode      string     `json:"code_tiers"`
	TierName      string     `json:"raison_sociale"`
	Label         string     `json:"libelle_ecriture"`
	DocumentType  string     `json:"type_piece"`
	InvoiceDate   *time.Time `json:"date_facture,omitempty"`
	DueDate       *time.Time `json:"date_echeance,omitempty"`
	AmountCents   int64      `json:"montant_cents"`
	Currency      string     `json:"devise"`
	AccountCode   string     `json:"code_compte_general"`
	EntryNumber   string     `json:"numero_ecriture"`
}

// IsPayment returns true for incoming-payment ("RC") lines
func (l *LedgerLine) IsPayment() bool {
	return l.DocumentType == DocumentTypePayment
}

// Validate performs basic validation on the LedgerLine
func (l *LedgerLine) Validate() error {
	if strings.TrimSpace(l.TierCode) == "" {
		return fmt.Errorf("tier code cannot be empty")
	}

	if strings.TrimSpace(l.DocumentType) == "" {
		return fmt.Errorf("document type cannot be empty")
	}

	if strings.TrimSpace(l.AccountCode) == "" {
		return fmt.Errorf("account code cannot be empty")
	}

	return nil
}

// String returns a string representation of the LedgerLine
func (l *LedgerLine) String() string {
	due := "-"
	if l.DueDate != nil {
		due = l.DueDate.Format("2006-01-02")
	}
	return fmt.Sprintf("LedgerLine{ID: %d, Tier: %s, Type: %s, Amount: %s, Due: %s}",
		l.LineID, l.TierCode, l.DocumentType, CentsToUnits(l.AmountCents).StringFixed(2), due)
}

// AmountUnits returns the signed amount in major currency units
func (l *LedgerLine) AmountUnits() decimal.Decimal {
	return CentsToUnits(l.AmountCents)
}

// ParseAmountCents converts an exported amount string to signed integer
// cents. Accounting exports mix plain dotted decimals ("10.50") with French
// formatting ("1 234,56", non-breaking spaces included). When a comma is
// present it is the decimal separator and any dot is a thousands separator.
// An empty value is zero; anything else unparseable is a hard error because
// a silently skipped amount would corrupt every downstream sum.
func ParseAmountCents(value string) (int64, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 0, nil
	}

	cleaned := strings.ReplaceAll(raw, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount '%s': %w", value, err)
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("amount '%s' out of range", value)
	}

	return cents.IntPart(), nil
}

// CentsToUnits converts integer cents to a two-decimal major-unit amount
func CentsToUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// dateFormats lists the layouts found in accounting exports, day-first
// formats before ISO ones.
var dateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a date string from the export. An empty value yields nil
// (date unknown); a non-empty value that matches no known layout is an
// error the caller reports as a row warning.
func ParseDate(value string) (*time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil, nil
	}

	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return &t, nil
		} else {
			lastErr = err
		}
	}

	return nil, fmt.Errorf("unable to parse date '%s': %w", raw, lastErr)
}

// DaysBetween returns the absolute whole-day distance between two dates
func DaysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
