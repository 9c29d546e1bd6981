package search

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// CleanTitle strips inline markup such as <b> emphasis and decodes HTML
// entities. It must run once per title: decoded text is not escaped again.
func CleanTitle(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ParsePubDate parses a publish timestamp carrying its own UTC offset.
// The offset in the string is kept as is.
func ParsePubDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
