// Package report aggregates per-page counters and renders the messages sent
// to the primary and admin channels.
package report

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"news_bot/internal/model"
)

// MaxMessageLen is the Telegram limit for a single text message.
const MaxMessageLen = 4096

const timeFormat = "2006-01-02 15:04"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape escapes text for the HTML parse mode. Only &, < and > need it.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Summarize totals the page reports.
func Summarize(reports []model.LoopReport) model.Summary {
	s := model.Summary{Pages: len(reports)}
	for _, r := range reports {
		s.Fetched += r.Fetched
		s.TimeFiltered += r.TimeFiltered
		s.Excluded += r.ExcludeHit
		s.IncludePass += r.IncludePass
		s.Duplicates += r.Duplicates
	}
	return s
}

// Notification renders the primary channel message for the candidates.
func Notification(articles []model.Article, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>News update</b> (%d)\n", len(articles))

	for i, a := range articles {
		var entry strings.Builder
		fmt.Fprintf(&entry, "\n%d. %s\n<a href=\"%s\">%s</a> · %s\n",
			i+1, Escape(a.Title), escapeAttr(a.Link), Escape(host(a.Link)), a.PublishedAt.In(loc).Format("15:04"))

		tail := fmt.Sprintf("\n… and %d more", len(articles)-i)
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(entry.String())+utf8.RuneCountInString(tail) > MaxMessageLen {
			b.WriteString(tail)
			break
		}
		b.WriteString(entry.String())
	}
	return b.String()
}

// Run describes one pipeline run for the admin digest.
type Run struct {
	Mode       string
	Status     model.Status
	Slot       time.Time
	Loc        *time.Location
	Watermark  time.Time
	Candidates int
	Threshold  int
	WouldSend  bool
	Reports    []model.LoopReport
	Oldest     time.Time
	Newest     time.Time
	StopReason string
	FetchErr   error
	Notes      []string
}

// Digest renders the admin report. It is produced for every run regardless
// of the send decision.
func Digest(r Run) string {
	sum := Summarize(r.Reports)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Run report</b> [%s]\n", Escape(r.Mode))
	fmt.Fprintf(&b, "Slot: %s\n", formatTime(r.Slot, r.Loc))
	fmt.Fprintf(&b, "Status: %s\n", statusLine(r))
	fmt.Fprintf(&b, "Watermark: %s\n", formatTime(r.Watermark, r.Loc))
	if r.Candidates > 0 {
		fmt.Fprintf(&b, "Window: %s ~ %s\n", formatTime(r.Oldest, r.Loc), formatTime(r.Newest, r.Loc))
	}
	fmt.Fprintf(&b, "Totals: fetched %d · fresh %d · excluded %d · include pass %d · duplicates %d\n",
		sum.Fetched, sum.TimeFiltered, sum.Excluded, sum.IncludePass, sum.Duplicates)
	if r.StopReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", Escape(r.StopReason))
	}
	if r.FetchErr != nil {
		fmt.Fprintf(&b, "Fetch error: %s\n", Escape(r.FetchErr.Error()))
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "Note: %s\n", Escape(n))
	}

	if len(r.Reports) > 0 {
		b.WriteString("\nPages:\n")
		for _, p := range r.Reports {
			fmt.Fprintf(&b, "#%d fetched %d · fresh %d · include fail %d · exclude %d · pass %d\n",
				p.CallNo, p.Fetched, p.TimeFiltered, p.IncludeFail, p.ExcludeHit, p.IncludePass)
		}
	}
	return truncate(b.String(), MaxMessageLen)
}

// Failure renders the admin message for a run that failed outright.
func Failure(name string, err error) string {
	return fmt.Sprintf("<b>Run failed</b> [%s]\n%s", Escape(name), Escape(err.Error()))
}

func statusLine(r Run) string {
	switch r.Status {
	case model.StatusSent:
		return fmt.Sprintf("SENT (%d)", r.Candidates)
	case model.StatusHold:
		if r.Candidates == 0 {
			return "HOLD (no candidates)"
		}
		return fmt.Sprintf("HOLD (%d &lt; %d)", r.Candidates, r.Threshold)
	case model.StatusPreview:
		gate := "would hold"
		if r.WouldSend {
			gate = "would send"
		}
		return fmt.Sprintf("PREVIEW (%d, %s)", r.Candidates, gate)
	case model.StatusSkipped:
		return "SKIPPED (slot already handled)"
	default:
		return strings.ToUpper(string(r.Status))
	}
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeFormat)
}

func host(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	return u.Host
}

func escapeAttr(s string) string {
	return strings.ReplaceAll(Escape(s), `"`, "&quot;")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
