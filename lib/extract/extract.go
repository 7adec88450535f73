// Package extract turns one product page's markup into structured
// market fields. Every field is resolved through an ordered chain of
// strategies, first non-empty parseable value wins; a strategy that
// finds nothing is "field absent", never an error. Output for identical
// markup is identical.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sealedmarket-backend/lib/textutil"
)

// Fields is the transient result of running the extraction cascade over
// one page. Nil means the field was not found; absence of one field
// never blocks the others.
type Fields struct {
	ListingCount    *int64
	LowestPrice     *float64
	MarketPrice     *float64
	ListedMedian    *float64
	CurrentQuantity *int64
	CurrentSellers  *int64
	SetName         *string
}

// NeedsRendering reports the condition under which the caller should
// suspect a client-rendered page that a plain fetch did not materialize:
// listing count, market price and listed median all absent at once.
func (f Fields) NeedsRendering() bool {
	return f.ListingCount == nil && f.MarketPrice == nil && f.ListedMedian == nil
}

type Options struct {
	// "Current Sellers" rows carry either one or two value elements and
	// the live markup wants the second when two are present. That is a
	// guess at an inconsistent external page, so it can be flipped here
	// should the markup change.
	SellersTakeFirst bool
}

// Parse runs the cascade over raw markup. Unparseable markup behaves
// exactly like a page with none of the expected elements.
func Parse(markup string, opts Options) Fields {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Fields{}
	}
	return FromDocument(doc, opts)
}

type strategy[T any] func(doc *goquery.Document) *T

func firstOf[T any](doc *goquery.Document, chain []strategy[T]) *T {
	for _, s := range chain {
		if v := s(doc); v != nil {
			return v
		}
	}
	return nil
}

var lowestPriceChain = []strategy[float64]{
	lowestFromMetadata,
	lowestFromVisiblePrices,
}

var listingCountChain = []strategy[int64]{
	listingsFromMetadata,
	listingsFromSummaryMeta,
	listingsFromBodyText,
}

var marketPriceChain = []strategy[float64]{
	marketFromLabeledHeading,
	marketFromUpperPrice,
}

func FromDocument(doc *goquery.Document, opts Options) Fields {
	fields := Fields{
		LowestPrice:  firstOf(doc, lowestPriceChain),
		ListingCount: firstOf(doc, listingCountChain),
		MarketPrice:  firstOf(doc, marketPriceChain),
		SetName:      setName(doc),
	}
	scanPriceGuideRows(doc, opts, &fields)
	return fields
}

func setName(doc *goquery.Document) *string {
	name := strings.TrimSpace(doc.Find(`span[data-testid="lblProductDetailsSetName"]`).First().Text())
	if name == "" {
		return nil
	}
	return &name
}

// the selectors the marketplace renders visible prices under, checked
// when the structured metadata block has no offer price
const visiblePriceSelectors = "span.price-point__data, span.price, div.price, span[itemprop=price]"

func lowestFromVisiblePrices(doc *goquery.Document) *float64 {
	var lowest *float64
	doc.Find(visiblePriceSelectors).Each(func(_ int, sel *goquery.Selection) {
		v, ok := textutil.ParseLoosePrice(strings.TrimSpace(sel.Text()))
		if !ok {
			return
		}
		if lowest == nil || v < *lowest {
			lowest = &v
		}
	})
	return lowest
}

func listingsFromSummaryMeta(doc *goquery.Document) *int64 {
	content := doc.Find(`meta[property="og:description"]`).AttrOr("content", "")
	if n, ok := textutil.FindListingCount(content); ok {
		return &n
	}
	return nil
}

func listingsFromBodyText(doc *goquery.Document) *int64 {
	if n, ok := textutil.FindListingCount(doc.Text()); ok {
		return &n
	}
	return nil
}

func marketFromLabeledHeading(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find(".price-points__upper__header__title").EachWithBreak(func(_ int, title *goquery.Selection) bool {
		if !strings.Contains(title.Text(), "Market Price") {
			return true
		}
		value := title.Closest(".price-points__upper").Find(".price-points__upper__price").First()
		if value.Length() == 0 {
			value = title.Parent().NextAll().Find(".price-points__upper__price").First()
		}
		if v, ok := textutil.ParsePrice(strings.TrimSpace(value.Text())); ok {
			out = &v
			return false
		}
		return true
	})
	return out
}

func marketFromUpperPrice(doc *goquery.Document) *float64 {
	text := strings.TrimSpace(doc.Find(".price-points__upper__price").First().Text())
	if v, ok := textutil.ParsePrice(text); ok {
		return &v
	}
	return nil
}

// scanPriceGuideRows walks the table rows under the price guide's lower
// container once, filling listed median, current quantity and current
// sellers from labeled rows.
func scanPriceGuideRows(doc *goquery.Document, opts Options, fields *Fields) {
	doc.Find(".price-points__lower tr").Each(func(_ int, row *goquery.Selection) {
		label := row.Find("span.text").First()
		if label.Length() == 0 {
			return
		}
		labelText := label.Text()
		values := row.Find("span.price-points__lower__price")
		if values.Length() == 0 {
			return
		}

		if strings.Contains(labelText, "Listed Median") {
			if v, ok := textutil.ParsePrice(strings.TrimSpace(values.First().Text())); ok {
				fields.ListedMedian = &v
			}
		}
		if strings.Contains(labelText, "Current Quantity") {
			if v, ok := textutil.ParseCount(strings.TrimSpace(values.First().Text())); ok {
				fields.CurrentQuantity = &v
			}
		}
		if strings.Contains(labelText, "Current Sellers") {
			value := values.First()
			if !opts.SellersTakeFirst && values.Length() > 1 {
				value = values.Eq(1)
			}
			if v, ok := textutil.ParseCount(strings.TrimSpace(value.Text())); ok {
				fields.CurrentSellers = &v
			}
		}
	})
}
