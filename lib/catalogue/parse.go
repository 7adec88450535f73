// Package catalogue enumerates sealed products from the marketplace's
// paginated search results and keeps the resulting (name, url) list on
// disk as a resumable csv.
package catalogue

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sealedmarket-backend/lib/htmlutil"
)

type Product struct {
	Name string
	URL  string
}

// ParseSearchPage pulls (name, url) pairs out of one search result
// page. Product names are resolved through a fallback chain: title span
// inside the card, title span next to it, then the card image's alt
// text. Cards without any name still count, as "(unknown)".
func ParseSearchPage(doc *goquery.Document) []Product {
	var products []Product

	cards := doc.Find(`a[data-testid^='product-card__image']`)
	if cards.Length() == 0 {
		// broader sweep: any anchor that points at a product page
		doc.Find("a").Each(func(_ int, a *goquery.Selection) {
			href := a.AttrOr("href", "")
			if !strings.Contains(href, "/product/") {
				return
			}
			products = append(products, Product{
				Name: cardName(a),
				URL:  href,
			})
		})
		return products
	}

	cards.Each(func(_ int, card *goquery.Selection) {
		href := card.AttrOr("href", "")
		if href == "" || !strings.Contains(href, "/product/") {
			return
		}
		products = append(products, Product{
			Name: cardName(card),
			URL:  href,
		})
	})

	return products
}

func cardName(card *goquery.Selection) string {
	name := htmlutil.CleanText(card.Find("span.product-card__title").First().Text())
	if name == "" {
		// the title span is sometimes a sibling rather than a child
		name = htmlutil.CleanText(card.Parent().Find("span.product-card__title").First().Text())
	}
	if name == "" {
		name = htmlutil.CleanText(card.Find("img").First().AttrOr("alt", ""))
	}
	if name == "" {
		// bare product anchors carry the name as link text
		name = htmlutil.CleanText(card.Text())
	}
	if name == "" {
		name = "(unknown)"
	}
	return name
}

// Dedupe drops products whose url was already seen, preserving order.
func Dedupe(products []Product) []Product {
	seen := make(map[string]bool, len(products))
	var out []Product
	for _, p := range products {
		if p.URL == "" || seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		out = append(out, p)
	}
	return out
}
