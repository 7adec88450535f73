package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sealedmarket-backend/lib/catalogue"
	"sealedmarket-backend/lib/extract"
	"sealedmarket-backend/lib/marketstore"
	"sealedmarket-backend/lib/marketstore/db"
	"sealedmarket-backend/lib/sqliteutil"
	"sealedmarket-backend/lib/telemetry"
)

const productPage = `
<html><head>
<script type="application/ld+json">
{"offers": {"price": "42.99"}, "description": "128 listings available."}
</script>
</head><body>
<span data-testid="lblProductDetailsSetName">Crown Zenith</span>
<div class="price-points__upper"><span class="price-points__upper__price">$55.00</span></div>
</body></html>`

type mapFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls map[string]int
}

func (f *mapFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

// failingRecorder delegates to a real store except for urls it is told
// to reject.
type failingRecorder struct {
	store  marketstore.Store
	failOn map[string]error
}

func (r failingRecorder) Record(
	ctx context.Context, name, url string,
	fields extract.Fields, source string, at time.Time,
) (int64, error) {
	if err, ok := r.failOn[url]; ok {
		return 0, err
	}
	return r.store.Record(ctx, name, url, fields, source, at)
}

func setupStore(t *testing.T) marketstore.Store {
	cleanup := telemetry.SetupForTesting(t, "test:pipeline")
	t.Cleanup(cleanup)

	sqlite, err := sqliteutil.OpenDB(db.Schema, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return marketstore.NewStore(sqlite)
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestRunIsolatesFailures(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	items := []catalogue.Product{
		{Name: "One", URL: "http://a/1"},
		{Name: "Two", URL: "http://a/2"},
		{Name: "Three", URL: "http://a/3"},
		{Name: "Four", URL: "http://a/4"},
		{Name: "Five", URL: "http://a/5"},
	}

	fetcher := &mapFetcher{
		pages: map[string]string{
			"http://a/1": productPage,
			"http://a/2": productPage,
			"http://a/4": productPage,
			"http://a/5": productPage,
		},
		errs: map[string]error{
			"http://a/3": errors.New("connection reset"),
		},
	}

	runner := Runner{
		Fetcher: fetcher,
		Store: failingRecorder{
			store:  store,
			failOn: map[string]error{"http://a/4": errors.New("disk full")},
		},
		Now: fixedNow,
	}

	report := runner.Run(ctx, items)

	require.Equal(t, 3, report.Processed)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 2, report.Failures())

	require.Len(t, report.Results, 5)
	require.Equal(t, StatusRecorded, report.Results[0].Status)
	require.Equal(t, StatusRecorded, report.Results[1].Status)
	require.Equal(t, StatusSkipped, report.Results[2].Status)
	require.Equal(t, StatusFailed, report.Results[3].Status)
	require.Equal(t, StatusRecorded, report.Results[4].Status)

	// earlier successes survive later failures
	products, err := store.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for _, p := range products {
		series, err := store.SnapshotSeries(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, series, 1)
		require.Equal(t, 42.99, series[0].LowestPrice.Float64)
		require.Equal(t, 55.00, series[0].MarketPrice.Float64)
	}
}

func TestRunRetriesFetch(t *testing.T) {
	store := setupStore(t)

	fetcher := &mapFetcher{
		errs: map[string]error{"http://a/1": errors.New("503")},
	}
	runner := Runner{
		Fetcher: fetcher,
		Store:   failingRecorder{store: store},
		Retries: 2,
		Now:     fixedNow,
	}

	report := runner.Run(context.Background(), []catalogue.Product{
		{Name: "One", URL: "http://a/1"},
	})

	require.Equal(t, 1, report.Skipped)
	// first attempt plus two retries, no browser configured
	require.Equal(t, 3, fetcher.calls["http://a/1"])
}

func TestRunSkipsMissingUrl(t *testing.T) {
	store := setupStore(t)

	runner := Runner{
		Fetcher: &mapFetcher{},
		Store:   failingRecorder{store: store},
		Now:     fixedNow,
	}
	report := runner.Run(context.Background(), []catalogue.Product{
		{Name: "Nameless"},
	})

	require.Equal(t, 0, report.Processed)
	require.Equal(t, 1, report.Skipped)
	require.NoError(t, report.Results[0].Err)
}

func TestRunRecordsEmptyExtraction(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// a page with no recognizable fields still yields a snapshot row,
	// with every column null
	fetcher := &mapFetcher{
		pages: map[string]string{"http://a/1": "<html><body><p>hi</p></body></html>"},
	}
	runner := Runner{
		Fetcher: fetcher,
		Store:   failingRecorder{store: store},
		Now:     fixedNow,
	}

	report := runner.Run(ctx, []catalogue.Product{{Name: "One", URL: "http://a/1"}})
	require.Equal(t, 1, report.Processed)

	products, err := store.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	latest, err := store.LatestSnapshot(ctx, products[0].ID)
	require.NoError(t, err)
	require.False(t, latest.LowestPrice.Valid)
	require.False(t, latest.MarketPrice.Valid)
	require.False(t, latest.ListingCount.Valid)
	require.Equal(t, fixedNow().Format(time.RFC3339), latest.Timestamp)
}

func TestStatusStrings(t *testing.T) {
	require.Equal(t, "recorded", StatusRecorded.String())
	require.Equal(t, "skipped", StatusSkipped.String())
	require.Equal(t, "failed", StatusFailed.String())
	require.Equal(t, "unknown", Status(42).String())
}
