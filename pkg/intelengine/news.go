package intelengine

import (
	"strings"

	"github.com/sudorandom/intel-globe/pkg/sources"
)

// buildNewsViews converts raw feed items into panel rows. Feed titles arrive
// as "Headline - Publisher"; the publisher after the last separator becomes
// the source line so multi-dash headlines keep their full text.
func buildNewsViews(items []sources.NewsItem) []NewsItemView {
	views := make([]NewsItemView, 0, len(items))
	for _, it := range items {
		title := it.Title
		source := "UNATTRIBUTED"
		if idx := strings.LastIndex(it.Title, " - "); idx > 0 {
			title = strings.TrimSpace(it.Title[:idx])
			source = strings.TrimSpace(it.Title[idx+len(" - "):])
		}
		views = append(views, NewsItemView{
			Title:  title,
			Source: source,
			Link:   it.Link,
		})
	}
	return views
}
