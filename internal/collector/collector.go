// Package collector pages through search results newest first and keeps the
// articles that pass the watermark, keyword and duplicate checks.
package collector

import (
	"context"
	"log/slog"
	"time"

	"news_bot/internal/config"
	"news_bot/internal/dedup"
	"news_bot/internal/filter"
	"news_bot/internal/model"
	"news_bot/internal/search"
)

// Searcher fetches a single result page.
type Searcher interface {
	Page(ctx context.Context, q search.Query) ([]search.Item, error)
}

// StopReason explains why paging ended.
type StopReason string

// Reasons paging can end.
const (
	StopWatermark StopReason = "watermark"
	StopEmpty     StopReason = "empty_page"
	StopShortPage StopReason = "short_page"
	StopMaxLoops  StopReason = "max_loops"
	StopError     StopReason = "request_error"
)

// Result is the outcome of one collection pass.
type Result struct {
	Articles []model.Article
	Reports  []model.LoopReport
	// Newest and Oldest are the extreme publish instants among Articles.
	Newest time.Time
	Oldest time.Time
	Stop   StopReason
	// Err is the request error that aborted paging, if any. Articles
	// gathered before it are kept.
	Err error
}

// Collector runs the paging loop.
type Collector struct {
	searcher Searcher
	log      *slog.Logger
}

// New creates a Collector.
func New(searcher Searcher, log *slog.Logger) *Collector {
	return &Collector{searcher: searcher, log: log}
}

// Collect issues up to s.MaxLoops sequential page requests. Paging stops at
// the first result not newer than watermark, on an empty or short page, or
// when a request fails.
func (c *Collector) Collect(ctx context.Context, s config.Settings, watermark time.Time) Result {
	var res Result
	rules := filter.NewRules(s.IncludeKeywords, s.ExcludeKeywords)
	seen := dedup.NewSet()

	res.Stop = StopMaxLoops
	for page := 1; page <= s.MaxLoops; page++ {
		items, err := c.searcher.Page(ctx, search.Query{
			Keywords: s.SearchKeywords,
			Display:  s.DisplayPerCall,
			Start:    search.StartFor(page, s.DisplayPerCall),
		})
		if err != nil {
			c.log.Error("search request failed", "page", page, "error", err)
			res.Stop, res.Err = StopError, err
			break
		}
		if len(items) == 0 {
			res.Stop = StopEmpty
			break
		}

		report := model.LoopReport{CallNo: page, Fetched: len(items)}
		crossed := c.process(items, watermark, rules, seen, &report, &res)
		report.Finish()
		res.Reports = append(res.Reports, report)

		c.log.Debug("page processed",
			"page", page,
			"fetched", report.Fetched,
			"time_filtered", report.TimeFiltered,
			"include_pass", report.IncludePass,
			"exclude_hit", report.ExcludeHit,
		)

		if crossed {
			res.Stop = StopWatermark
			break
		}
		if len(items) < s.DisplayPerCall {
			res.Stop = StopShortPage
			break
		}
	}
	return res
}

// process filters one page into res and reports whether the watermark was
// crossed.
func (c *Collector) process(items []search.Item, watermark time.Time, rules filter.Rules, seen *dedup.Set, report *model.LoopReport, res *Result) bool {
	for _, it := range items {
		published, ok := search.ParsePubDate(it.PubDate)
		if !ok {
			report.Undated++
			continue
		}
		if !filter.Fresh(published, watermark) {
			return true
		}
		report.TimeFiltered++

		title := it.Title
		v := rules.Check(title)
		if v.IncludeFail {
			report.IncludeFail++
		}
		if v.ExcludeHit {
			report.ExcludeHit++
		}
		if !v.Pass() {
			continue
		}

		link, fresh := seen.Add(it.Link)
		if !fresh {
			report.Duplicates++
			continue
		}

		res.Articles = append(res.Articles, model.Article{Title: title, Link: link, PublishedAt: published})
		if res.Newest.IsZero() || published.After(res.Newest) {
			res.Newest = published
		}
		if res.Oldest.IsZero() || published.Before(res.Oldest) {
			res.Oldest = published
		}
	}
	return false
}
