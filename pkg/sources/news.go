package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

// NewsItem is one headline as the feed proxy reports it. Title keeps the
// feed's raw "Headline - Publisher" form; the engine splits it for display.
type NewsItem struct {
	Title string
	Link  string
}

// FetchCountryNews pulls recent headlines mentioning a country by name,
// newest first, capped at limit.
func FetchCountryNews(ctx context.Context, name, lang, country string, limit int) ([]NewsItem, error) {
	q := fmt.Sprintf("%q (economy OR politics OR crisis)", name)
	feed := fmt.Sprintf("%s/search?q=%s&hl=%s&gl=%s", GoogleNewsRSSURL, url.QueryEscape(q), lang, country)
	return fetchFeed(ctx, feed, limit)
}

// FetchWorldHeadlines pulls the top world headlines for the ticker.
func FetchWorldHeadlines(ctx context.Context, lang, country string, limit int) ([]NewsItem, error) {
	feed := fmt.Sprintf("%s?hl=%s&gl=%s", GoogleNewsRSSURL, lang, country)
	return fetchFeed(ctx, feed, limit)
}

func fetchFeed(ctx context.Context, feedURL string, limit int) ([]NewsItem, error) {
	var payload struct {
		Status string `json:"status"`
		Items  []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"items"`
	}
	err := getJSON(ctx, RSSToJSONURL+url.QueryEscape(feedURL), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&payload)
	})
	if err != nil {
		return nil, err
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("feed proxy status %q", payload.Status)
	}

	items := make([]NewsItem, 0, limit)
	for _, it := range payload.Items {
		if len(items) == limit {
			break
		}
		items = append(items, NewsItem{Title: it.Title, Link: it.Link})
	}
	return items, nil
}
