// Package dedup canonicalises article links and suppresses repeats within a run.
package dedup

import (
	"net/url"
	"strings"
)

// trackingParams are removed from links before comparison.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},
	"gclid":        {},
	"fbclid":       {},
	"msclkid":      {},
	"dclid":        {},
	"yclid":        {},
}

// Canonical forces the https scheme and strips tracking query parameters.
// Links that do not parse are returned trimmed but otherwise untouched.
// Canonical(Canonical(x)) == Canonical(x).
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	if strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https") {
		u.Scheme = "https"
	}

	u.RawQuery = stripTracking(u.RawQuery)
	u.ForceQuery = false

	return u.String()
}

// stripTracking drops tracking pairs from a raw query. Other pairs are kept
// byte for byte and in order, including ones url.ParseQuery would reject.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if _, ok := trackingParams[strings.ToLower(key)]; ok {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// Set tracks the canonical links accepted during one run.
type Set struct {
	seen map[string]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add canonicalises link and records it. fresh is false when the canonical
// form was already recorded.
func (s *Set) Add(link string) (canonical string, fresh bool) {
	canonical = Canonical(link)
	if _, ok := s.seen[canonical]; ok {
		return canonical, false
	}
	s.seen[canonical] = struct{}{}
	return canonical, true
}

// Len returns the number of distinct links recorded.
func (s *Set) Len() int {
	return len(s.seen)
}
