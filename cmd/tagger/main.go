// Command tagger reconciles Amazon order history reports against a ledger
// transaction export and either prints the proposed updates (dry run) or
// commits them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmm/mint-amazon-tagger/internal/application/tagging"
	"github.com/mmm/mint-amazon-tagger/internal/currency"
	"github.com/mmm/mint-amazon-tagger/internal/domain/tagger"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/config"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/logging"
	"github.com/mmm/mint-amazon-tagger/internal/infrastructure/storage"
	"github.com/mmm/mint-amazon-tagger/internal/ledger"
	"github.com/mmm/mint-amazon-tagger/internal/progress"
	"github.com/mmm/mint-amazon-tagger/internal/records"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path")
		itemsCSV    = flag.String("items", "", "Items report CSV path (overrides config)")
		ordersCSV   = flag.String("orders", "", "Orders report CSV path (overrides config)")
		refundsCSV  = flag.String("refunds", "", "Refunds report CSV path (overrides config)")
		ledgerPath  = flag.String("ledger", "", "Ledger transaction export JSON path (overrides config)")
		dryRun      = flag.Bool("dry-run", true, "Preview changes without applying")
		itemize     = flag.Bool("itemize", true, "Propose one child entry per item")
		retag       = flag.Bool("retag", true, "Allow replacing previously tagged entries")
		days        = flag.Int("days", 3, "Date tolerance for matching, in days")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg := loadConfig(*configFile)
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "tagger")

	applyOverrides(cfg, *itemsCSV, *ordersCSV, *refundsCSV, *ledgerPath)

	if cfg.Ledger.ExportPath == "" {
		logger.Error("No ledger export configured; set -ledger or ledger.export_path")
		os.Exit(1)
	}

	ledgerSvc, err := ledger.NewFileService(cfg.Ledger.ExportPath, cfg.Ledger.OutputPath)
	if err != nil {
		logger.Error("Failed to open ledger export", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	runID, err := store.StartRun(*dryRun)
	if err != nil {
		logger.Warn("Failed to start run tracking", "error", err)
		// Tracking failure should not block the run.
	}

	opts := tagging.Options{
		ItemsPath:         cfg.Reports.ItemsPath,
		OrdersPath:        cfg.Reports.OrdersPath,
		RefundsPath:       cfg.Reports.RefundsPath,
		Itemize:           *itemize,
		Retag:             *retag,
		DateToleranceDays: *days,
		DryRun:            *dryRun,
	}
	deps := tagging.Deps{
		Ledger:  ledgerSvc,
		Logger:  logger,
		Skipped: store.IsSkipped,
		OnCritical: func(msg string) {
			logger.Error(msg)
		},
		Indeterminate: progress.CLIIndeterminate,
		Determinate:   progress.CLIDeterminate,
		Counter:       progress.CLICounter,
	}

	ctx := context.Background()
	result, err := tagging.CreateUpdates(ctx, opts, deps)
	if err != nil || result == nil || !result.Success {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("\nDry run; no modifications sent to the ledger.")
		tagging.PrintDryRun(os.Stdout, result)
	} else {
		statuses := tagging.ApplyUpdates(ctx, result, deps)
		failed := 0
		for _, s := range statuses {
			if s.Err != nil {
				failed++
			}
		}
		if err := ledgerSvc.Flush(); err != nil {
			logger.Error("Failed to write ledger output", "error", err)
		}
		fmt.Printf("\nApplied %d updates (%d failed).\n", len(statuses)-failed, failed)
	}

	printAmazonStats(result)
	printProcessingStats(result)

	if runID != "" {
		record := &storage.RunRecord{
			ID:              runID,
			DryRun:          *dryRun,
			Success:         result.Success,
			OrderCount:      len(result.Orders),
			ItemCount:       len(result.Items),
			RefundCount:     len(result.Refunds),
			UpdateCount:     len(result.Updates),
			UnmatchedGroups: len(result.UnmatchedGroups),
			UnmatchedTxns:   result.UnmatchedTxnCount,
			Stats:           result.Stats,
		}
		if err := store.CompleteRun(record); err != nil {
			logger.Warn("Failed to record run", "error", err)
		}
	}
}

func loadConfig(configFile string) *config.Config {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configFile, err)
			os.Exit(1)
		}
		return cfg
	}
	return config.LoadOrEnv()
}

func applyOverrides(cfg *config.Config, items, orders, refunds, ledgerPath string) {
	if items != "" {
		cfg.Reports.ItemsPath = items
	}
	if orders != "" {
		cfg.Reports.OrdersPath = orders
	}
	if refunds != "" {
		cfg.Reports.RefundsPath = refunds
	}
	if ledgerPath != "" {
		cfg.Ledger.ExportPath = ledgerPath
	}
}

// printAmazonStats summarizes the parsed order history.
func printAmazonStats(result *tagging.RunResult) {
	fmt.Println("\nAmazon Stats:")
	if len(result.Orders) == 0 || len(result.Items) == 0 {
		fmt.Println("\tThere were no Amazon orders/items!")
		return
	}

	unmatchedOrders := 0
	for _, o := range result.Orders {
		if !o.ItemsMatched {
			unmatchedOrders++
		}
	}
	unmatchedItems := 0
	for _, i := range result.Items {
		if !i.Matched {
			unmatchedItems++
		}
	}
	fmt.Printf("%d unmatched orders and %d unmatched items\n", unmatchedOrders, unmatchedItems)

	first, last, _ := records.DateRange(result.Orders)
	fmt.Printf("Orders ranging from %s to %s\n",
		first.Format("2006-01-02"), last.Format("2006-01-02"))

	var totalSpend currency.MicroUSD
	for _, o := range result.Orders {
		totalSpend += o.Total
	}
	fmt.Printf("%s total spend\n", totalSpend)

	if len(result.Refunds) > 0 {
		var totalRefunded currency.MicroUSD
		for _, r := range result.Refunds {
			totalRefunded += r.TransactAmount()
		}
		fmt.Printf("%d refunds totaling %s\n", len(result.Refunds), totalRefunded)
	}
}

// printProcessingStats prints the classification counters.
func printProcessingStats(result *tagging.RunResult) {
	fmt.Println("\nProcessing Stats:")
	for _, outcome := range []tagger.Outcome{
		tagger.AlreadyUpToDate, tagger.PersonalCategory, tagger.UserSkippedRetag,
		tagger.Retag, tagger.NewTag, tagger.NoRetag,
		tagger.AdjustItemizedTax, tagger.MiscCharge,
	} {
		fmt.Printf("\t%-20s %d\n", outcome, result.Stats[outcome])
	}
	fmt.Printf("\t%-20s %d\n", "unmatched_groups", len(result.UnmatchedGroups))
	fmt.Printf("\t%-20s %d\n", "unmatched_txns", result.UnmatchedTxnCount)
}
