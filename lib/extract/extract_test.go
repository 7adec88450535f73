package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const fullPage = `
<html>
<head>
<meta property="og:description" content="Shop Crown Zenith Elite Trainer Box. 99 listings from trusted sellers.">
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Crown Zenith Elite Trainer Box",
  "description": "Crown Zenith Elite Trainer Box. 128 listings starting at $42.99.",
  "offers": {"@type": "Offer", "price": "42.99", "priceCurrency": "USD"}
}
</script>
</head>
<body>
<span data-testid="lblProductDetailsSetName">Crown Zenith</span>
<div class="price-points__upper">
  <div class="price-points__upper__header">
    <span class="price-points__upper__header__title">Market Price</span>
  </div>
  <span class="price-points__upper__price">$55.00</span>
</div>
<div class="price-points__lower">
  <table><tbody>
    <tr><td><span class="text">Listed Median:</span></td><td><span class="price-points__lower__price">$49.99</span></td></tr>
    <tr><td><span class="text">Current Quantity:</span></td><td><span class="price-points__lower__price">1,234</span></td></tr>
    <tr><td><span class="text">Current Sellers:</span></td><td><span class="price-points__lower__price">7</span></td><td><span class="price-points__lower__price">12</span></td></tr>
  </tbody></table>
</div>
<span class="price-point__data">$44.99</span>
<span class="price-point__data">$47.50</span>
</body>
</html>`

const metadataOnlyPage = `
<html><head>
<script type="application/ld+json">
{"offers": [{"price": "42.99"}], "description": "128 listings available."}
</script>
</head><body><p>loading...</p></body></html>`

const visibleOnlyPage = `
<html><body>
<span class="price-point__data">$19.99</span>
<div class="price">$15.00</div>
<span class="price-point__data">$24.99</span>
</body></html>`

const emptyPage = `<html><body><p>nothing to see</p></body></html>`

func TestFullPage(t *testing.T) {
	fields := Parse(fullPage, Options{})

	require.NotNil(t, fields.LowestPrice)
	require.Equal(t, 42.99, *fields.LowestPrice)
	require.NotNil(t, fields.ListingCount)
	require.Equal(t, int64(128), *fields.ListingCount)
	require.NotNil(t, fields.MarketPrice)
	require.Equal(t, 55.00, *fields.MarketPrice)
	require.NotNil(t, fields.ListedMedian)
	require.Equal(t, 49.99, *fields.ListedMedian)
	require.NotNil(t, fields.CurrentQuantity)
	require.Equal(t, int64(1234), *fields.CurrentQuantity)
	require.NotNil(t, fields.CurrentSellers)
	require.Equal(t, int64(12), *fields.CurrentSellers)
	require.NotNil(t, fields.SetName)
	require.Equal(t, "Crown Zenith", *fields.SetName)
	require.False(t, fields.NeedsRendering())
}

func TestDeterminism(t *testing.T) {
	first := Parse(fullPage, Options{})
	for i := 0; i < 5; i++ {
		again := Parse(fullPage, Options{})
		require.Empty(t, cmp.Diff(first, again))
	}
}

func TestLowestPriceFallbackOrdering(t *testing.T) {
	// metadata price wins even without any visible price element
	fields := Parse(metadataOnlyPage, Options{})
	require.NotNil(t, fields.LowestPrice)
	require.Equal(t, 42.99, *fields.LowestPrice)

	// without metadata, the minimum across visible price elements wins
	fields = Parse(visibleOnlyPage, Options{})
	require.NotNil(t, fields.LowestPrice)
	require.Equal(t, 15.00, *fields.LowestPrice)
}

func TestListingCountFallbackChain(t *testing.T) {
	fields := Parse(metadataOnlyPage, Options{})
	require.NotNil(t, fields.ListingCount)
	require.Equal(t, int64(128), *fields.ListingCount)

	metaOnly := `<html><head>
		<meta property="og:description" content="Sealed product. 57 listings from $10.">
	</head><body></body></html>`
	fields = Parse(metaOnly, Options{})
	require.NotNil(t, fields.ListingCount)
	require.Equal(t, int64(57), *fields.ListingCount)

	bodyOnly := `<html><body><div>Currently 31 listings on the market.</div></body></html>`
	fields = Parse(bodyOnly, Options{})
	require.NotNil(t, fields.ListingCount)
	require.Equal(t, int64(31), *fields.ListingCount)
}

func TestNullSafety(t *testing.T) {
	for _, markup := range []string{emptyPage, "", "<<<not html>>>"} {
		fields := Parse(markup, Options{})
		require.Nil(t, fields.ListingCount)
		require.Nil(t, fields.LowestPrice)
		require.Nil(t, fields.MarketPrice)
		require.Nil(t, fields.ListedMedian)
		require.Nil(t, fields.CurrentQuantity)
		require.Nil(t, fields.CurrentSellers)
		require.Nil(t, fields.SetName)
		require.True(t, fields.NeedsRendering())
	}
}

func TestSellersTieBreak(t *testing.T) {
	fields := Parse(fullPage, Options{})
	require.Equal(t, int64(12), *fields.CurrentSellers)

	fields = Parse(fullPage, Options{SellersTakeFirst: true})
	require.Equal(t, int64(7), *fields.CurrentSellers)

	singleValue := `<html><body><div class="price-points__lower"><table><tbody>
		<tr><td><span class="text">Current Sellers:</span></td><td><span class="price-points__lower__price">9</span></td></tr>
	</tbody></table></div></body></html>`
	fields = Parse(singleValue, Options{})
	require.NotNil(t, fields.CurrentSellers)
	require.Equal(t, int64(9), *fields.CurrentSellers)
}

func TestQuantityParsing(t *testing.T) {
	badQuantity := `<html><body><div class="price-points__lower"><table><tbody>
		<tr><td><span class="text">Current Quantity:</span></td><td><span class="price-points__lower__price">abc</span></td></tr>
	</tbody></table></div></body></html>`
	fields := Parse(badQuantity, Options{})
	require.Nil(t, fields.CurrentQuantity)
}

func TestMarketPriceDirectFallback(t *testing.T) {
	// no labeled heading, only the upper price element itself
	page := `<html><body><span class="price-points__upper__price">$12.50</span></body></html>`
	fields := Parse(page, Options{})
	require.NotNil(t, fields.MarketPrice)
	require.Equal(t, 12.50, *fields.MarketPrice)
}
