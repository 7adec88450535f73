package catalogue

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sealedmarket-backend/lib/fetch"
)

// PageToken is the placeholder the crawler substitutes the page number
// into inside SearchURL.
const PageToken = "{page}"

type Crawler struct {
	Fetcher fetch.Fetcher
	// search endpoint containing PageToken
	SearchURL string
	// pages to visit; crawling also ends early on the first page that
	// yields zero product links when StopOnEmpty is set
	MaxPages    int
	StopOnEmpty bool
	// csv the list is persisted to after every page, so long runs can
	// be resumed
	OutputPath string
	// preload already-seen urls from OutputPath before crawling
	Resume     bool
	Politeness fetch.Politeness
}

// Run paginates the search endpoint, accumulating link-deduplicated
// products. A page that fails to fetch is logged and skipped; progress
// up to that point stays saved.
func (c Crawler) Run(ctx context.Context) ([]Product, error) {
	var products []Product
	seen := map[string]bool{}

	if c.Resume && c.OutputPath != "" {
		existing, err := ReadList(c.OutputPath)
		if err == nil {
			for _, p := range existing {
				if p.URL == "" || seen[p.URL] {
					continue
				}
				seen[p.URL] = true
				products = append(products, p)
			}
			slog.Info("resumed existing catalogue", "count", len(products), "path", c.OutputPath)
		}
	}

	for page := 1; page <= c.MaxPages; page++ {
		if ctx.Err() != nil {
			break
		}

		url := strings.ReplaceAll(c.SearchURL, PageToken, strconv.Itoa(page))
		slog.Info("crawling search page", "page", page, "url", url)

		markup, err := c.Fetcher.Fetch(ctx, url)
		if err != nil {
			slog.Warn("failed to fetch search page", "page", page, "err", err)
			c.save(products)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			slog.Warn("failed to parse search page", "page", page, "err", err)
			continue
		}

		found := ParseSearchPage(doc)
		added := 0
		for _, p := range found {
			if p.URL == "" || seen[p.URL] {
				continue
			}
			seen[p.URL] = true
			products = append(products, p)
			added++
		}
		slog.Info("search page done", "page", page, "found", len(found), "new", added, "total", len(products))

		c.save(products)

		if len(found) == 0 {
			slog.Info("no products on page", "page", page)
			if c.StopOnEmpty {
				break
			}
		}

		c.Politeness.Sleep(ctx)
	}

	return products, ctx.Err()
}

func (c Crawler) save(products []Product) {
	if c.OutputPath == "" {
		return
	}
	err := WriteList(c.OutputPath, products)
	if err != nil {
		slog.Warn("failed to save catalogue progress", "path", c.OutputPath, "err", err)
	}
}
