package catalogue

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"sealedmarket-backend/lib/fetch"
)

const searchPage = `
<html><body>
<div class="search-result">
  <a data-testid="product-card__image--0" href="https://example.com/product/1/crown-zenith-etb">
    <span class="product-card__title">Crown Zenith Elite Trainer Box</span>
  </a>
</div>
<div class="search-result">
  <a data-testid="product-card__image--1" href="https://example.com/product/2/151-booster-bundle">
    <img src="x.png" alt="151 Booster Bundle">
  </a>
</div>
<div class="search-result">
  <a data-testid="product-card__image--2" href="https://example.com/product/1/crown-zenith-etb">
    <span class="product-card__title">Crown Zenith Elite Trainer Box</span>
  </a>
</div>
<a href="/not-a-product">ignore me</a>
</body></html>`

const anchorsOnlyPage = `
<html><body>
<a href="https://example.com/product/3/paldea-evolved-etb">Paldea Evolved ETB</a>
<a href="https://example.com/about">about</a>
</body></html>`

func parseDoc(t *testing.T, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestParseSearchPage(t *testing.T) {
	products := Dedupe(ParseSearchPage(parseDoc(t, searchPage)))
	require.Len(t, products, 2)
	require.Equal(t, "Crown Zenith Elite Trainer Box", products[0].Name)
	require.Equal(t, "https://example.com/product/1/crown-zenith-etb", products[0].URL)
	// name fell back to the image alt text
	require.Equal(t, "151 Booster Bundle", products[1].Name)
}

func TestParseSearchPageAnchorFallback(t *testing.T) {
	products := ParseSearchPage(parseDoc(t, anchorsOnlyPage))
	require.Len(t, products, 1)
	require.Equal(t, "Paldea Evolved ETB", products[0].Name)
	require.Equal(t, "https://example.com/product/3/paldea-evolved-etb", products[0].URL)
}

func TestCsvRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	in := []Product{
		{Name: "Crown Zenith ETB", URL: "https://example.com/product/1"},
		{Name: "151 Booster Bundle", URL: "https://example.com/product/2"},
	}
	require.NoError(t, WriteList(path, in))

	out, err := ReadList(path)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

type pagedFetcher struct {
	pages map[int]string
	calls []int
}

func (f *pagedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var page int
	_, err := fmt.Sscanf(url[strings.LastIndex(url, "=")+1:], "%d", &page)
	if err != nil {
		return "", err
	}
	f.calls = append(f.calls, page)
	markup, ok := f.pages[page]
	if !ok {
		return "<html><body></body></html>", nil
	}
	return markup, nil
}

func TestCrawlerStopsOnEmptyPage(t *testing.T) {
	fetcher := &pagedFetcher{pages: map[int]string{
		1: searchPage,
		2: anchorsOnlyPage,
	}}

	out := filepath.Join(t.TempDir(), "products.csv")
	crawler := Crawler{
		Fetcher:     fetcher,
		SearchURL:   "https://example.com/search?page=" + PageToken,
		MaxPages:    10,
		StopOnEmpty: true,
		OutputPath:  out,
		Politeness:  fetch.Politeness{},
	}

	products, err := crawler.Run(context.Background())
	require.NoError(t, err)
	// page 3 is empty, so the crawl ends there
	require.Equal(t, []int{1, 2, 3}, fetcher.calls)
	require.Len(t, products, 3)

	// progress landed on disk
	saved, err := ReadList(out)
	require.NoError(t, err)
	require.Equal(t, products, saved)
}

func TestCrawlerResume(t *testing.T) {
	out := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, WriteList(out, []Product{
		{Name: "Crown Zenith Elite Trainer Box", URL: "https://example.com/product/1/crown-zenith-etb"},
	}))

	fetcher := &pagedFetcher{pages: map[int]string{1: searchPage}}
	crawler := Crawler{
		Fetcher:    fetcher,
		SearchURL:  "https://example.com/search?page=" + PageToken,
		MaxPages:   1,
		OutputPath: out,
		Resume:     true,
	}

	products, err := crawler.Run(context.Background())
	require.NoError(t, err)
	// the preloaded url is not duplicated by the crawl
	require.Len(t, products, 2)
}

func TestNearDuplicates(t *testing.T) {
	products := []Product{
		{Name: "Crown Zenith Elite Trainer Box", URL: "https://example.com/product/1"},
		{Name: "Crown Zenith Elite Trainer Box ", URL: "https://example.com/product/9"},
		{Name: "Obsidian Flames Booster Box", URL: "https://example.com/product/2"},
	}

	pairs := NearDuplicates(products, 0.93)
	require.Len(t, pairs, 1)
	require.Equal(t, products[0].URL, pairs[0].A.URL)
	require.Equal(t, products[1].URL, pairs[0].B.URL)

	require.Empty(t, NearDuplicates(products[1:], 0.93))
}
