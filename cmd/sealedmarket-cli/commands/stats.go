package commands

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sealedmarket-backend/lib/marketstore"
	marketdb "sealedmarket-backend/lib/marketstore/db"
	"sealedmarket-backend/lib/serviceutil"
	"sealedmarket-backend/lib/sqliteutil"
)

var statsDb *string

func init() {
	statsDb = statsCmd.Flags().String("db", "", "Database path, overrides the config.")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [--db <path/to/sealed_market.db>]",
	Short: "Prints the catalogue with each product's latest snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		dbPath := cfg.Database
		if *statsDb != "" {
			dbPath = *statsDb
		}

		database, err := sqliteutil.OpenDB(marketdb.Schema, dbPath)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()
		store := marketstore.NewStore(database)

		products, err := store.Products(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list products", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Last Seen", "Listings", "Lowest", "Market", "Median"})

		for _, p := range products {
			latest, err := store.LatestSnapshot(cmd.Context(), p.ID)
			if err == sql.ErrNoRows {
				t.AppendRow(table.Row{p.ID, p.Name, "-", "-", "-", "-", "-"})
				continue
			}
			if err != nil {
				serviceutil.Fatal("failed to read latest snapshot", err)
			}
			t.AppendRow(table.Row{
				p.ID,
				p.Name,
				latest.Timestamp,
				nullCell(latest.ListingCount.Int64, latest.ListingCount.Valid),
				nullCell(latest.LowestPrice.Float64, latest.LowestPrice.Valid),
				nullCell(latest.MarketPrice.Float64, latest.MarketPrice.Valid),
				nullCell(latest.MedianPrice.Float64, latest.MedianPrice.Valid),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()

		productCount, listingCount, err := store.Counts(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to count rows", err)
		}
		fmt.Printf("%d products, %d snapshots\n", productCount, listingCount)
	},
}

func nullCell(v any, valid bool) any {
	if !valid {
		return "-"
	}
	return v
}
