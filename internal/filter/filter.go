// Package filter implements the watermark and keyword checks applied to each
// search result.
package filter

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fresh reports whether an article published at published is newer than the
// watermark. A false result also means every later result on a newest-first
// feed is stale.
func Fresh(published, watermark time.Time) bool {
	return published.After(watermark)
}

var folder = cases.Fold()

// Normalize prepares text for keyword matching: compatibility normalisation,
// case folding, diacritic removal and whitespace collapsing.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = folder.String(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// Verdict is the outcome of matching a title against Rules.
type Verdict struct {
	IncludeFail bool
	ExcludeHit  bool
}

// Pass reports whether the title is accepted.
func (v Verdict) Pass() bool {
	return !v.IncludeFail && !v.ExcludeHit
}

// Rules holds normalised include and exclude terms.
type Rules struct {
	include []string
	exclude []string
}

// NewRules normalises the include and exclude keyword lists.
// Blank terms are dropped.
func NewRules(include, exclude []string) Rules {
	return Rules{include: normalizeAll(include), exclude: normalizeAll(exclude)}
}

// Check matches title against the rules. Include terms use OR logic and an
// empty include list always passes; any exclude hit rejects. Matching is
// plain substring containment.
func (r Rules) Check(title string) Verdict {
	text := Normalize(title)

	var v Verdict
	if len(r.include) > 0 {
		v.IncludeFail = !containsAny(text, r.include)
	}
	v.ExcludeHit = containsAny(text, r.exclude)
	return v
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
