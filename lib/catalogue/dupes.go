package catalogue

import (
	"strings"

	"github.com/antzucaro/matchr"
)

type DuplicatePair struct {
	A          Product
	B          Product
	Similarity float64
}

// NearDuplicates reports product pairs whose names are suspiciously
// similar under Jaro-Winkler but point at different links. These are
// usually reprints or markup glitches worth a manual look, never
// merged automatically.
func NearDuplicates(products []Product, threshold float64) []DuplicatePair {
	var pairs []DuplicatePair
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			a, b := products[i], products[j]
			if a.URL == b.URL {
				continue
			}
			left := strings.ToLower(a.Name)
			right := strings.ToLower(b.Name)
			if left == "(unknown)" || right == "(unknown)" {
				continue
			}
			similarity := matchr.JaroWinkler(left, right, false)
			if similarity >= threshold {
				pairs = append(pairs, DuplicatePair{A: a, B: b, Similarity: similarity})
			}
		}
	}
	return pairs
}
