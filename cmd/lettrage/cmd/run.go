package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-lettrage-service/cmd/lettrage/config"
	"golang-lettrage-service/internal/engine"
	"golang-lettrage-service/internal/parsers"
	"golang-lettrage-service/internal/reporter"
)

// Flags for the run command
var (
	inputFile               string
	todayFlag               string
	tolerance               string
	accountCode             string
	maxGroupLines           int
	maxLinesPerTier         int
	multiPayment            bool
	maxPaymentsPerGroup     int
	maxCandidatesPerPayment int
	workers                 int
	outputFormat            string
	outputPath              string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run lettrage on a ledger export",
	Long: `Run reads an accounting ledger export (CSV), matches payment lines
against the invoice lines they settle within the configured tolerance, and
writes the resulting lettrages.

Examples:
  # Basic run with defaults
  lettrage run --input export.csv

  # Fix the reference date and widen the tolerance
  lettrage run --input export.csv --today 2024-02-01 --tolerance 0.10

  # JSON output to a file
  lettrage run --input export.csv --output-format json --output resultat.json

  # All three result tables as CSV files
  lettrage run --input export.csv --output-format csv --output ./resultats

  # Larger groups, parallel tiers
  lettrage run --input export.csv --max-group-lines 8 --workers 4`,

	PreRunE: validateRunFlags,
	RunE:    runLettrage,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to the ledger export CSV file (required)")
	runCmd.Flags().StringVar(&todayFlag, "today", "", "reference date for due date filtering (YYYY-MM-DD, default: current date)")

	runCmd.Flags().StringVarP(&tolerance, "tolerance", "t", "0.05", "monetary tolerance in account currency units")
	runCmd.Flags().StringVar(&accountCode, "account-code", engine.DefaultAccountCode, "general account code to process")
	runCmd.Flags().IntVar(&maxGroupLines, "max-group-lines", 6, "maximum invoice lines combined per lettrage")
	runCmd.Flags().IntVar(&maxLinesPerTier, "max-lines-per-tier", 200, "maximum lines kept per tier before matching")
	runCmd.Flags().BoolVar(&multiPayment, "multi-payment", true, "allow pairing two payments in one lettrage")
	runCmd.Flags().IntVar(&maxPaymentsPerGroup, "max-payments-per-group", 2, "maximum payment lines per lettrage")
	runCmd.Flags().IntVar(&maxCandidatesPerPayment, "max-candidates-per-payment", 500, "maximum candidate groups explored per payment anchor")
	runCmd.Flags().IntVarP(&workers, "workers", "w", 1, "number of tiers processed in parallel")

	runCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file, or output directory for csv format (default: stdout)")

	runCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", runCmd.Flags().Lookup("input"))
	viper.BindPFlag("today", runCmd.Flags().Lookup("today"))
	viper.BindPFlag("tolerance", runCmd.Flags().Lookup("tolerance"))
	viper.BindPFlag("account-code", runCmd.Flags().Lookup("account-code"))
	viper.BindPFlag("max-group-lines", runCmd.Flags().Lookup("max-group-lines"))
	viper.BindPFlag("max-lines-per-tier", runCmd.Flags().Lookup("max-lines-per-tier"))
	viper.BindPFlag("multi-payment", runCmd.Flags().Lookup("multi-payment"))
	viper.BindPFlag("max-payments-per-group", runCmd.Flags().Lookup("max-payments-per-group"))
	viper.BindPFlag("max-candidates-per-payment", runCmd.Flags().Lookup("max-candidates-per-payment"))
	viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))
	viper.BindPFlag("output-format", runCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
}

func validateRunFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config file and env overrides apply
	inputFile = viper.GetString("input")
	todayFlag = viper.GetString("today")
	tolerance = viper.GetString("tolerance")
	accountCode = viper.GetString("account-code")
	maxGroupLines = viper.GetInt("max-group-lines")
	maxLinesPerTier = viper.GetInt("max-lines-per-tier")
	multiPayment = viper.GetBool("multi-payment")
	maxPaymentsPerGroup = viper.GetInt("max-payments-per-group")
	maxCandidatesPerPayment = viper.GetInt("max-candidates-per-payment")
	workers = viper.GetInt("workers")
	outputFormat = viper.GetString("output-format")
	outputPath = viper.GetString("output")

	if inputFile == "" {
		return fmt.Errorf("input is required")
	}
	if err := validateFileExists(inputFile, "ledger export file"); err != nil {
		return err
	}

	if todayFlag != "" {
		if _, err := time.Parse("2006-01-02", todayFlag); err != nil {
			return fmt.Errorf("invalid today date format. Use YYYY-MM-DD: %w", err)
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// For file output the parent directory must already exist; the csv
	// format creates its own output directory later.
	if outputPath != "" && outputFormat != "csv" {
		dir := filepath.Dir(outputPath)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runLettrage(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting lettrage...\n")
		fmt.Fprintf(os.Stderr, "Input file: %s\n", inputFile)
		fmt.Fprintf(os.Stderr, "Tolerance: %s\n", tolerance)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputPath != "" {
			fmt.Fprintf(os.Stderr, "Output: %s\n", outputPath)
		}
	}

	engineConfig, err := config.CreateEngineConfig(config.EngineOptions{
		Tolerance:               tolerance,
		AccountCode:             accountCode,
		MaxGroupLines:           maxGroupLines,
		MaxLinesPerTier:         maxLinesPerTier,
		AllowMultiPayment:       multiPayment,
		MaxPaymentsPerGroup:     maxPaymentsPerGroup,
		MaxCandidatesPerPayment: maxCandidatesPerPayment,
		Workers:                 workers,
	})
	if err != nil {
		return err
	}

	parser, err := parsers.NewLedgerParser(config.CreateParserConfig(viper.GetStringMapString("columns")))
	if err != nil {
		return err
	}

	lines, stats, err := parser.ParseFile(inputFile)
	if err != nil {
		return err
	}

	for _, warning := range stats.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "%s\n", stats)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if todayFlag != "" {
		today, _ = time.Parse("2006-01-02", todayFlag)
	}

	eng, err := engine.New(engineConfig)
	if err != nil {
		return err
	}

	result := eng.Run(lines, today)

	reportGenerator, err := reporter.NewReportGenerator(config.CreateReportConfig(outputFormat))
	if err != nil {
		return err
	}

	if outputFormat == "csv" && outputPath != "" {
		if err := reportGenerator.WriteCSVFiles(result, outputPath); err != nil {
			return err
		}
	} else {
		output := os.Stdout
		if outputPath != "" {
			output, err = os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer output.Close()
		}

		if err := reportGenerator.GenerateReport(result, output); err != nil {
			return err
		}
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nLettrage completed.\n")
		fmt.Fprintf(os.Stderr, "Considered %d tiers, generated %d candidates.\n",
			result.Metrics.TiersConsidered, result.Metrics.CandidatesGenerated)
		fmt.Fprintf(os.Stderr, "Retained %d lettrages covering %d lines, %d lines remaining.\n",
			result.Metrics.LettragesRetained, len(result.LetteredLines), len(result.RemainingLines))
		fmt.Fprintf(os.Stderr, "Processing time: %.3fs\n", result.Metrics.ElapsedSeconds)
	}

	return nil
}
