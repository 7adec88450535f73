// Package pipeline drives the end-to-end snapshot run over a product
// list: fetch markup, extract fields, persist, politeness-pause,
// continue past individual failures.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sealedmarket-backend/lib/catalogue"
	"sealedmarket-backend/lib/extract"
	"sealedmarket-backend/lib/fetch"
)

var tracer = otel.Tracer("pipeline")

type Status int

const (
	StatusPending Status = iota
	StatusFetched
	StatusExtracted
	StatusRecorded
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFetched:
		return "fetched"
	case StatusExtracted:
		return "extracted"
	case StatusRecorded:
		return "recorded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Recorder is the slice of the persistence layer the pipeline needs.
type Recorder interface {
	Record(ctx context.Context, name, url string, fields extract.Fields, source string, at time.Time) (int64, error)
}

type ItemResult struct {
	Product catalogue.Product
	Status  Status
	Err     error
}

// Report accumulates per-item outcomes across a run. Processed counts
// recorded snapshots; Skipped is fetch budget exhaustion; Failed is a
// storage write that did not land.
type Report struct {
	Processed int
	Skipped   int
	Failed    int
	Results   []ItemResult
}

func (r Report) Failures() int {
	return r.Skipped + r.Failed
}

type Runner struct {
	Fetcher fetch.Fetcher
	// optional rendering session, used when a plain fetch fails or the
	// page looks client-rendered
	Browser *fetch.Browser
	Store   Recorder
	Source  string
	// additional fetch attempts per item after the first; the zero
	// value means one retry
	Retries     int
	Politeness  fetch.Politeness
	Diagnostics *fetch.FilesystemOutput
	Extract     extract.Options
	// overridable for tests
	Now func() time.Time
}

func (r Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r Runner) retries() int {
	if r.Retries <= 0 {
		return 1
	}
	return r.Retries
}

// Run walks the items sequentially. No single item's failure stops the
// run; every successfully recorded snapshot stays recorded regardless
// of what later items do.
func (r Runner) Run(ctx context.Context, items []catalogue.Product) Report {
	report := Report{}

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}

		result := r.processItem(ctx, item)
		report.Results = append(report.Results, result)
		switch result.Status {
		case StatusRecorded:
			report.Processed++
		case StatusSkipped:
			report.Skipped++
			slog.Warn("item skipped", "name", item.Name, "url", item.URL, "err", result.Err)
		case StatusFailed:
			report.Failed++
			slog.Warn("item failed", "name", item.Name, "url", item.URL, "err", result.Err)
		}

		if i < len(items)-1 {
			r.Politeness.Sleep(ctx)
		}
	}

	slog.Info("run complete", "processed", report.Processed, "failed", report.Failures())
	return report
}

func (r Runner) processItem(ctx context.Context, item catalogue.Product) ItemResult {
	ctx, span := tracer.Start(ctx, "processItem")
	defer span.End()
	span.SetAttributes(
		attribute.String("name", item.Name),
		attribute.String("url", item.URL),
	)

	result := ItemResult{Product: item, Status: StatusPending}

	if item.URL == "" {
		result.Status = StatusSkipped
		span.SetStatus(codes.Error, "no url")
		return result
	}

	markup, rendered, err := r.fetchWithBudget(ctx, item.URL)
	if err != nil {
		result.Status = StatusSkipped
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch budget exhausted")
		r.Diagnostics.Write("fetchfail", "txt", []byte(item.URL+"\n"+err.Error()))
		return result
	}
	result.Status = StatusFetched

	fields := extract.Parse(markup, r.Extract)
	if fields.NeedsRendering() && r.Browser != nil && !rendered {
		slog.Debug("page looks client-rendered, re-fetching in browser", "url", item.URL)
		renderedMarkup, err := r.browserFetch(ctx, item.URL)
		if err == nil {
			markup = renderedMarkup
			fields = extract.Parse(markup, r.Extract)
		} else {
			slog.Warn("rendered re-fetch failed", "url", item.URL, "err", err)
		}
	}
	result.Status = StatusExtracted

	_, err = r.Store.Record(ctx, item.Name, item.URL, fields, r.Source, r.now())
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record snapshot")
		r.Diagnostics.Write("dberror", "html", []byte(markup))
		return result
	}

	result.Status = StatusRecorded
	slog.Info("recorded snapshot",
		"name", item.Name,
		"listings", deref(fields.ListingCount),
		"lowest", deref(fields.LowestPrice),
		"market", deref(fields.MarketPrice),
		"median", deref(fields.ListedMedian),
	)
	return result
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// fetchWithBudget tries the primary fetcher, escalating a failed
// attempt to the browser session when one is configured. The second
// return reports whether the winning markup came out of the browser.
func (r Runner) fetchWithBudget(ctx context.Context, url string) (string, bool, error) {
	attempts := 1 + r.retries()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		markup, err := r.Fetcher.Fetch(ctx, url)
		if err == nil {
			return markup, false, nil
		}
		lastErr = err
		slog.Debug("fetch failed", "url", url, "attempt", attempt+1, "err", err)

		if r.Browser != nil {
			markup, err = r.browserFetch(ctx, url)
			if err == nil {
				return markup, true, nil
			}
			lastErr = err
		}
	}
	return "", false, lastErr
}

// browserFetch renders the url, replacing a session that appears broken
// and retrying once on the fresh one.
func (r Runner) browserFetch(ctx context.Context, url string) (string, error) {
	markup, err := r.Browser.Fetch(ctx, url)
	if err == nil {
		return markup, nil
	}

	if shot, shotErr := r.Browser.Screenshot(ctx); shotErr == nil {
		r.Diagnostics.Write("renderfail", "png", shot)
	}

	restartErr := r.Browser.Restart()
	if restartErr != nil {
		return "", restartErr
	}
	return r.Browser.Fetch(ctx, url)
}
