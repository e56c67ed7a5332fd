package config

import (
	"github.com/shopspring/decimal"

	"golang-lettrage-service/internal/engine"
	"golang-lettrage-service/internal/parsers"
	"golang-lettrage-service/internal/reporter"
	"golang-lettrage-service/pkg/errors"
)

// EngineOptions carries the engine settings collected from flags, env
// variables and the optional config file.
type EngineOptions struct {
	Tolerance               string
	AccountCode             string
	MaxGroupLines           int
	MaxLinesPerTier         int
	AllowMultiPayment       bool
	MaxPaymentsPerGroup     int
	MaxCandidatesPerPayment int
	Workers                 int
}

// CreateEngineConfig builds an engine configuration from CLI options. The
// tolerance is parsed as a decimal so "0.05" means exactly five cents.
func CreateEngineConfig(opts EngineOptions) (*engine.Config, error) {
	tolerance, err := decimal.NewFromString(opts.Tolerance)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"tolerance",
			opts.Tolerance,
			err,
		)
	}

	config := engine.DefaultConfig()
	config.Tolerance = tolerance
	config.AccountCode = opts.AccountCode
	config.MaxGroupLines = opts.MaxGroupLines
	config.MaxLinesPerTier = opts.MaxLinesPerTier
	config.AllowMultiPayment = opts.AllowMultiPayment
	config.MaxPaymentsPerGroup = opts.MaxPaymentsPerGroup
	config.MaxCandidatesPerPayment = opts.MaxCandidatesPerPayment
	config.Workers = opts.Workers

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CreateParserConfig creates the ledger parser configuration. The standard
// export column names are the defaults; a config file can rename individual
// columns.
func CreateParserConfig(columnOverrides map[string]string) *parsers.LedgerParserConfig {
	config := parsers.DefaultLedgerParserConfig()

	for key, name := range columnOverrides {
		if name == "" {
			continue
		}
		switch key {
		case "company_code":
			config.Columns.CompanyCode = name
		case "invoice_number":
			config.Columns.InvoiceNumber = name
		case "tier_code":
			config.Columns.TierCode = name
		case "tier_name":
			config.Columns.TierName = name
		case "label":
			config.Columns.Label = name
		case "document_type":
			config.Columns.DocumentType = name
		case "invoice_date":
			config.Columns.InvoiceDate = name
		case "due_date":
			config.Columns.DueDate = name
		case "amount":
			config.Columns.Amount = name
		case "currency":
			config.Columns.Currency = name
		case "account_code":
			config.Columns.AccountCode = name
		case "entry_number":
			config.Columns.EntryNumber = name
		}
	}

	return config
}

// CreateReportConfig creates a report configuration for the output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
	}

	return config
}
