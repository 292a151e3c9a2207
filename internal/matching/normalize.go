// Package matching pairs listings from two marketplaces that describe the
// same product, using normalised titles and an LCS similarity ratio.
package matching

import (
	"regexp"
	"strings"
)

// noiseWords are condition, shipping and region tokens sellers add to titles.
var noiseWords = []string{
	"new", "used", "refurbished", "genuine", "original", "official",
	"fast", "free", "shipping", "delivery", "uk", "gb", "europe",
	"warranty", "sealed", "boxed", "brand",
}

var (
	noisePattern = regexp.MustCompile(`\b(?:` + strings.Join(noiseWords, "|") + `)\b`)
	punctPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// Normalize canonicalises a listing title for comparison.
func Normalize(title string) string {
	if title == "" {
		return ""
	}
	s := strings.ToLower(title)
	s = noisePattern.ReplaceAllString(s, " ")
	s = punctPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
