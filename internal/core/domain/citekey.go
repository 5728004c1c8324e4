package domain

import (
	"regexp"
	"strconv"
)

var (
	// citeKeyPattern captures Author(s), four-digit year, and title:
	// e.g. "Vaswani2017Attention", "BrownMann2020Language".
	citeKeyPattern = regexp.MustCompile(`^([A-Za-z-]+)(\d{4})(.+)$`)

	// camelBoundary finds lower->upper transitions for re-spacing.
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
)

// CiteKeyInfo holds metadata parsed from a cite key.
type CiteKeyInfo struct {
	// Authors is the author segment with CamelCase names comma-separated.
	Authors string

	// Year is the four-digit publication year.
	Year int

	// Title is the title segment with CamelCase words re-spaced.
	Title string
}

// ParseCiteKey extracts author, year, and title metadata from a cite key of
// the form Author[Author...]YYYYTitle. Returns ok=false when the key does
// not match, in which case the zero CiteKeyInfo is returned.
func ParseCiteKey(citeKey string) (CiteKeyInfo, bool) {
	m := citeKeyPattern.FindStringSubmatch(citeKey)
	if m == nil {
		return CiteKeyInfo{}, false
	}

	year, err := strconv.Atoi(m[2])
	if err != nil {
		return CiteKeyInfo{}, false
	}

	return CiteKeyInfo{
		// "BrownMann" -> "Brown, Mann"
		Authors: camelBoundary.ReplaceAllString(m[1], "$1, $2"),
		Year:    year,
		// "LanguageModels" -> "Language Models"
		Title: camelBoundary.ReplaceAllString(m[3], "$1 $2"),
	}, true
}
