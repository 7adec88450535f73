package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"sealedmarket-backend/lib/catalogue"
	"sealedmarket-backend/lib/extract"
	"sealedmarket-backend/lib/fetch"
	"sealedmarket-backend/lib/marketstore"
	marketdb "sealedmarket-backend/lib/marketstore/db"
	"sealedmarket-backend/lib/pipeline"
	"sealedmarket-backend/lib/serviceutil"
	"sealedmarket-backend/lib/sqliteutil"
)

// selector whose presence means the price guide finished rendering
const priceGuideSelector = ".price-points__upper__price, .price-points__lower"

var snapshotCsv *string
var snapshotDb *string
var snapshotLimit *int
var snapshotBrowser *bool
var snapshotHeadless *bool
var snapshotDiagnostics *string

func init() {
	snapshotCsv = snapshotCmd.Flags().String("csv", "products.csv", "Product list csv with name,url columns.")
	snapshotDb = snapshotCmd.Flags().String("db", "", "Database path, overrides the config.")
	snapshotLimit = snapshotCmd.Flags().Int("limit", 0, "Limit number of products to process (0 = all).")
	snapshotBrowser = snapshotCmd.Flags().Bool("browser", false, "Render client-side pages in a browser session.")
	snapshotHeadless = snapshotCmd.Flags().Bool("headless", false, "Run the browser headless.")
	snapshotDiagnostics = snapshotCmd.Flags().String("diagnostics", "", "Diagnostics dump directory, overrides the config.")
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [--csv <products.csv>] [--limit N] [--browser]",
	Short: "Visits each product page and records a market snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		dbPath := cfg.Database
		if *snapshotDb != "" {
			dbPath = *snapshotDb
		}

		items, err := catalogue.ReadList(*snapshotCsv)
		if err != nil {
			serviceutil.Fatal("failed to read product list", err)
		}
		if *snapshotLimit > 0 && len(items) > *snapshotLimit {
			items = items[:*snapshotLimit]
		}

		database, err := sqliteutil.OpenDB(marketdb.Schema, dbPath)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()
		store := marketstore.NewStore(database)

		fetcher, err := fetch.NewHTTPFetcher(fetch.HTTPOptions{
			UserAgent: cfg.UserAgent,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize http client", err)
		}

		var browser *fetch.Browser
		if *snapshotBrowser {
			browser, err = fetch.NewBrowser(cmd.Context(), fetch.BrowserOptions{
				Headless:     *snapshotHeadless,
				UserAgent:    cfg.UserAgent,
				WaitSelector: priceGuideSelector,
				WaitTimeout:  time.Second * 10,
			})
			if err != nil {
				serviceutil.Fatal("failed to start browser", err)
			}
			defer browser.Close()
		}

		diagDir := cfg.Diagnostics
		if *snapshotDiagnostics != "" {
			diagDir = *snapshotDiagnostics
		}
		diag, err := fetch.NewFilesystemOutput(diagDir)
		if err != nil {
			slog.Warn("failed to create diagnostics dir, dumps disabled", "err", err)
			diag = nil
		}

		runner := pipeline.Runner{
			Fetcher:     fetcher,
			Browser:     browser,
			Store:       store,
			Source:      cfg.Source,
			Politeness:  cfg.politeness(),
			Diagnostics: diag,
			Extract: extract.Options{
				SellersTakeFirst: cfg.SellersTakeFirst,
			},
		}

		t1 := time.Now()
		report := runner.Run(cmd.Context(), items)
		t2 := time.Now()

		slog.Info("snapshot run finished",
			"processed", report.Processed,
			"failed", report.Failures(),
			"seconds", t2.Sub(t1).Seconds(),
		)
	},
}
