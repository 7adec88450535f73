package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sealedmarket-backend/lib/catalogue"
	"sealedmarket-backend/lib/serviceutil"
)

var dupesCsv *string
var dupesThreshold *float64

func init() {
	dupesCsv = dupesCmd.Flags().String("csv", "products.csv", "Product list csv to inspect.")
	dupesThreshold = dupesCmd.Flags().Float64("threshold", 0.93, "Jaro-Winkler similarity cutoff.")
	rootCmd.AddCommand(dupesCmd)
}

var dupesCmd = &cobra.Command{
	Use:   "dupes [--csv <products.csv>] [--threshold 0.93]",
	Short: "Reports near-duplicate product names in the catalogue.",
	Run: func(cmd *cobra.Command, args []string) {
		products, err := catalogue.ReadList(*dupesCsv)
		if err != nil {
			serviceutil.Fatal("failed to read product list", err)
		}

		pairs := catalogue.NearDuplicates(products, *dupesThreshold)
		if len(pairs) == 0 {
			fmt.Println("no near-duplicates found")
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Similarity", "Name A", "Name B"})
		for _, pair := range pairs {
			t.AppendRow(table.Row{
				fmt.Sprintf("%.3f", pair.Similarity),
				pair.A.Name,
				pair.B.Name,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
