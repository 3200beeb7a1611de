package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Mutombwa/bard-reco-sub003/cmd/reconciler/config"
	"github.com/Mutombwa/bard-reco-sub003/internal/reconciler"
	"github.com/Mutombwa/bard-reco-sub003/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	ledgerFile    string
	statementFile string
	bankPreset    string
	outputFormat  string
	outputFile    string

	dateTolerance          int
	amountTolerance        float64
	amountTolerancePercent float64
	fuzzyThreshold         int
	enableFuzzy            bool
	enableSplit            bool
	maxSplitComponents     int
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a ledger export against a bank statement",
	Long: `Reconcile compares internal ledger entries with bank statement rows
to identify exact matches, fuzzy matches on payee names, split settlements,
and unmatched entries.

This command requires:
- A ledger CSV file
- A bank statement CSV file

Examples:
  # Basic reconciliation
  reconciler reconcile --ledger-file ledger.csv --statement-file statement.csv

  # Select a bank statement layout preset
  reconciler reconcile -l ledger.csv -s capitec.csv --bank capitec

  # Custom output format and tolerances
  reconciler reconcile -l ledger.csv -s stmt.csv \
    --output-format json --output-file report.json \
    --date-tolerance 2 --amount-tolerance 0.05

  # Tighten the fuzzy name threshold
  reconciler reconcile -l ledger.csv -s stmt.csv --fuzzy-threshold 92

  # Disable split settlement detection for faster processing
  reconciler reconcile -l ledger.csv -s stmt.csv --split=false`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to ledger CSV file (required)")
	reconcileCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to bank statement CSV file (required)")

	// Input layout flags
	reconcileCmd.Flags().StringVarP(&bankPreset, "bank", "b", "", "bank statement layout preset: standard, fnb, capitec, nedbank, absa (default: auto-detect from headers)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 1, "date matching tolerance in days")
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0.0, "absolute amount tolerance")
	reconcileCmd.Flags().Float64Var(&amountTolerancePercent, "amount-tolerance-percent", 0.0, "amount tolerance percentage (0.0-100.0)")
	reconcileCmd.Flags().IntVar(&fuzzyThreshold, "fuzzy-threshold", 85, "minimum payee similarity score for fuzzy matches (0-100)")
	reconcileCmd.Flags().BoolVar(&enableFuzzy, "fuzzy", true, "enable fuzzy payee matching")
	reconcileCmd.Flags().BoolVar(&enableSplit, "split", true, "enable split settlement detection")
	reconcileCmd.Flags().IntVar(&maxSplitComponents, "max-split-components", 0, "maximum rows per split settlement (0 = default)")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("ledger-file")
	reconcileCmd.MarkFlagRequired("statement-file")

	// Bind flags to viper
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("statement-file", reconcileCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("bank", reconcileCmd.Flags().Lookup("bank"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("date-tolerance", reconcileCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("amount-tolerance-percent", reconcileCmd.Flags().Lookup("amount-tolerance-percent"))
	viper.BindPFlag("fuzzy-threshold", reconcileCmd.Flags().Lookup("fuzzy-threshold"))
	viper.BindPFlag("fuzzy", reconcileCmd.Flags().Lookup("fuzzy"))
	viper.BindPFlag("split", reconcileCmd.Flags().Lookup("split"))
	viper.BindPFlag("max-split-components", reconcileCmd.Flags().Lookup("max-split-components"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	ledgerFile = viper.GetString("ledger-file")
	statementFile = viper.GetString("statement-file")
	bankPreset = viper.GetString("bank")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	dateTolerance = viper.GetInt("date-tolerance")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	amountTolerancePercent = viper.GetFloat64("amount-tolerance-percent")
	fuzzyThreshold = viper.GetInt("fuzzy-threshold")
	enableFuzzy = viper.GetBool("fuzzy")
	enableSplit = viper.GetBool("split")
	maxSplitComponents = viper.GetInt("max-split-components")

	// Validate required flags
	if ledgerFile == "" {
		return fmt.Errorf("ledger-file is required")
	}
	if statementFile == "" {
		return fmt.Errorf("statement-file is required")
	}

	// Validate file existence
	if err := validateFileExists(ledgerFile, "ledger file"); err != nil {
		return err
	}
	if err := validateFileExists(statementFile, "statement file"); err != nil {
		return err
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate tolerances
	if dateTolerance < 0 {
		return fmt.Errorf("date tolerance cannot be negative")
	}
	if amountTolerance < 0.0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if amountTolerancePercent < 0.0 || amountTolerancePercent > 100.0 {
		return fmt.Errorf("amount tolerance percentage must be between 0.0 and 100.0")
	}
	if fuzzyThreshold < 0 || fuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be between 0 and 100")
	}
	if maxSplitComponents < 0 {
		return fmt.Errorf("max split components cannot be negative")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
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

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	// Ctrl-C interrupts the run; the engine returns partial results.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Ledger file: %s\n", ledgerFile)
		fmt.Fprintf(os.Stderr, "Statement file: %s\n", statementFile)
		if bankPreset != "" {
			fmt.Fprintf(os.Stderr, "Bank preset: %s\n", bankPreset)
		} else {
			fmt.Fprintf(os.Stderr, "Bank preset: auto-detect\n")
		}
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	serviceConfig, err := config.CreateServiceConfig(bankPreset, statementFile, config.MatchOptions{
		DateTolerance:          dateTolerance,
		AmountTolerance:        amountTolerance,
		AmountTolerancePercent: amountTolerancePercent,
		FuzzyThreshold:         fuzzyThreshold,
		EnableFuzzy:            enableFuzzy,
		EnableSplit:            enableSplit,
		MaxSplitComponents:     maxSplitComponents,
	})
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	report, err := service.ReconcileFiles(ctx, ledgerFile, statementFile)
	if err != nil {
		if report == nil {
			return err
		}
		// Interrupted run: report what was committed before stopping.
		fmt.Fprintf(os.Stderr, "Warning: reconciliation interrupted, reporting partial results: %v\n", err)
	}

	reportGenerator, err := reporter.NewReportGenerator(config.CreateReportConfig(outputFormat))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	if outputFile != "" {
		if err := reportGenerator.GenerateReportToFile(report, outputFile); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
	} else {
		if err := reportGenerator.GenerateReport(report, os.Stdout); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
	}

	if viper.GetBool("verbose") {
		summary := report.Result.Summary
		fmt.Fprintf(os.Stderr, "\nReconciliation completed.\n")
		fmt.Fprintf(os.Stderr, "Processed %d ledger entries and %d statement rows.\n",
			summary.TotalLedger, summary.TotalStatement)
		fmt.Fprintf(os.Stderr, "Found %d exact, %d fuzzy, %d split matches; %d/%d unmatched.\n",
			summary.ExactMatches, summary.FuzzyMatches, summary.SplitMatches,
			summary.UnmatchedLedger, summary.UnmatchedStatement)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", summary.ProcessingTime)
	}

	return nil
}
