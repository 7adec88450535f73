package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sealedmarket-backend/lib/textutil"
)

// the structured metadata block is the page's ld+json script; some
// pages wrap the payload in javascript noise, so a brace-to-brace
// rescue is attempted before giving up on a block
var embeddedObjectRegex = regexp.MustCompile(`(?s)(\{.*\})`)

func eachMetadataBlock(doc *goquery.Document, fn func(payload map[string]any) (stop bool)) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var payload map[string]any
		err := json.Unmarshal([]byte(raw), &payload)
		if err != nil {
			m := embeddedObjectRegex.FindStringSubmatch(raw)
			if m == nil {
				return true
			}
			err = json.Unmarshal([]byte(m[1]), &payload)
			if err != nil {
				return true
			}
		}

		return !fn(payload)
	})
}

func lowestFromMetadata(doc *goquery.Document) *float64 {
	var out *float64
	eachMetadataBlock(doc, func(payload map[string]any) bool {
		offer, ok := payload["offers"]
		if !ok {
			return false
		}
		if list, isList := offer.([]any); isList {
			if len(list) == 0 {
				return false
			}
			offer = list[0]
		}
		obj, isObj := offer.(map[string]any)
		if !isObj {
			return false
		}

		price := obj["price"]
		if price == nil {
			return false
		}
		var text string
		switch v := price.(type) {
		case string:
			text = v
		case float64:
			out = &v
			return true
		default:
			return false
		}
		if v, ok := textutil.ParsePrice(text); ok {
			out = &v
			return true
		}
		return false
	})
	return out
}

func listingsFromMetadata(doc *goquery.Document) *int64 {
	var out *int64
	eachMetadataBlock(doc, func(payload map[string]any) bool {
		desc, _ := payload["description"].(string)
		if desc == "" {
			desc, _ = payload["name"].(string)
		}
		if desc == "" {
			return false
		}
		if n, ok := textutil.FindListingCount(desc); ok {
			out = &n
			return true
		}
		return false
	})
	return out
}
