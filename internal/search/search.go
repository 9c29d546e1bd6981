// Package search queries the keyword news search API one page at a time.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Item is a search result. Title is plain text; PubDate is still a string.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	PubDate string `json:"pubDate"`
}

// Query describes one page request.
type Query struct {
	Keywords []string
	Display  int
	// Start is the 1-based offset of the first result.
	Start int
}

// StartFor returns the 1-based offset of page (1-based) for the given page size.
func StartFor(page, display int) int {
	return (page-1)*display + 1
}

// Client talks to the search API.
type Client struct {
	client       HTTPClient
	endpoint     string
	clientID     string
	clientSecret string
}

// New creates a Client for endpoint. An endpoint path ending in ".xml" is
// read as an RSS document, anything else as JSON.
func New(client HTTPClient, endpoint, clientID, clientSecret string) *Client {
	return &Client{
		client:       client,
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Page fetches a single result page ordered newest first.
func (c *Client) Page(ctx context.Context, q Query) ([]Item, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	params := u.Query()
	params.Set("query", strings.Join(q.Keywords, " "))
	params.Set("display", strconv.Itoa(q.Display))
	params.Set("start", strconv.Itoa(q.Start))
	params.Set("sort", "date")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsBot/1.0")
	if c.clientID != "" {
		req.Header.Set("X-Naver-Client-Id", c.clientID)
		req.Header.Set("X-Naver-Client-Secret", c.clientSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if strings.HasSuffix(u.Path, ".xml") {
		return decodeRSS(body)
	}
	return decodeJSON(body)
}

// decodeJSON returns items with titles already stripped of markup and
// entities.
func decodeJSON(body []byte) ([]Item, error) {
	var payload struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	for i := range payload.Items {
		payload.Items[i].Title = CleanTitle(payload.Items[i].Title)
	}
	return payload.Items, nil
}

// decodeRSS keeps gofeed's decoded titles as they are and prefers the
// timestamps gofeed already parsed over the raw strings.
func decodeRSS(body []byte) ([]Item, error) {
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		pub := it.Published
		switch {
		case it.PublishedParsed != nil:
			pub = it.PublishedParsed.Format(time.RFC3339)
		case pub == "" && it.UpdatedParsed != nil:
			pub = it.UpdatedParsed.Format(time.RFC3339)
		}
		items = append(items, Item{
			Title:   strings.Join(strings.Fields(it.Title), " "),
			Link:    it.Link,
			PubDate: pub,
		})
	}
	return items, nil
}
