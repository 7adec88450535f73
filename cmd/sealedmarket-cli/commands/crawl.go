package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"sealedmarket-backend/lib/catalogue"
	"sealedmarket-backend/lib/fetch"
	"sealedmarket-backend/lib/serviceutil"
)

const defaultMaxPages = 108

// selector whose presence means the search grid finished rendering
const productCardSelector = "a[data-testid^='product-card__image'], span.product-card__title"

var crawlPages *int
var crawlAll *bool
var crawlOut *string
var crawlResume *bool
var crawlStopOnEmpty *bool
var crawlHeadless *bool

func init() {
	crawlPages = crawlCmd.Flags().Int("pages", 1, "Number of search pages to fetch.")
	crawlAll = crawlCmd.Flags().Bool("all", false, "Crawl the whole catalogue.")
	crawlOut = crawlCmd.Flags().String("out", "products.csv", "Output csv for the product list.")
	crawlResume = crawlCmd.Flags().Bool("resume", false, "Preload already-seen urls from the output csv.")
	crawlStopOnEmpty = crawlCmd.Flags().Bool("stop-on-empty", false, "Stop at the first page without products.")
	crawlHeadless = crawlCmd.Flags().Bool("headless", false, "Run the browser headless.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--pages N | --all] [--out <products.csv>] [--resume]",
	Short: "Builds the sealed product list from paginated search results.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		pages := *crawlPages
		if *crawlAll {
			pages = defaultMaxPages
		}

		// the search grid is client-rendered, a plain fetch never sees
		// product cards
		browser, err := fetch.NewBrowser(cmd.Context(), fetch.BrowserOptions{
			Headless:     *crawlHeadless,
			UserAgent:    cfg.UserAgent,
			WaitSelector: productCardSelector,
			WaitTimeout:  time.Second * 60,
			PageTimeout:  time.Second * 60,
		})
		if err != nil {
			serviceutil.Fatal("failed to start browser", err)
		}
		defer browser.Close()

		crawler := catalogue.Crawler{
			Fetcher:     browser,
			SearchURL:   cfg.SearchURL,
			MaxPages:    pages,
			StopOnEmpty: *crawlStopOnEmpty,
			OutputPath:  *crawlOut,
			Resume:      *crawlResume,
			Politeness:  cfg.politeness(),
		}

		products, err := crawler.Run(cmd.Context())
		if err != nil {
			slog.Warn("crawl interrupted", "err", err)
		}
		slog.Info("crawl done", "products", len(products), "out", *crawlOut)
	},
}
