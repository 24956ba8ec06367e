package retriever

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Extract returns the visible text of the elements matching selector,
// falling back to <body> when nothing matches. Whitespace runs collapse to a
// single space.
func Extract(markup []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	sel := doc.Find(selector)
	if sel.Length() == 0 {
		sel = doc.Find("body")
	}

	return CollapseSpace(sel.Text()), nil
}

// CollapseSpace replaces runs of whitespace with one space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most limit runes. A limit of zero or less leaves s
// unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
