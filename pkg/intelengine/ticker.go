package intelengine

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/sudorandom/intel-globe/pkg/sources"
)

const tickerBannerPrefix = "/// GLOBAL ALERTS /// "
const tickerSeparator = " +++ "

// HeadlinesSource answers the global headline feed for the ticker.
type HeadlinesSource func(ctx context.Context, limit int) ([]sources.NewsItem, error)

// HeadlineScanner finds country mentions in headline text using a
// multi-pattern matcher built once over every country name.
type HeadlineScanner struct {
	matcher *ahocorasick.Matcher
	isoByID []string
}

// NewHeadlineScanner indexes the display names of features that carry a
// usable ISO code.
func NewHeadlineScanner(features []*CountryFeature) *HeadlineScanner {
	var patterns []string
	var isos []string
	for _, f := range features {
		if !f.HasISO() {
			continue
		}
		patterns = append(patterns, strings.ToLower(f.DisplayName()))
		isos = append(isos, f.ISO())
	}
	return &HeadlineScanner{
		matcher: ahocorasick.NewStringMatcher(patterns),
		isoByID: isos,
	}
}

// Scan returns the ISO codes of countries mentioned in text, each at most
// once, in pattern order.
func (s *HeadlineScanner) Scan(text string) []string {
	hits := s.matcher.Match([]byte(strings.ToLower(text)))
	seen := make(map[string]bool, len(hits))
	var isos []string
	for _, id := range hits {
		iso := s.isoByID[id]
		if !seen[iso] {
			seen[iso] = true
			isos = append(isos, iso)
		}
	}
	return isos
}

// Ticker owns the scrolling alert banner. It renders the global headline
// feed, tagging each headline with the countries it mentions; a focused
// country can temporarily override the banner.
type Ticker struct {
	fetch   HeadlinesSource
	scanner *HeadlineScanner
	limit   int

	mu       sync.Mutex
	banner   string
	override string
}

// SetScanner installs the country mention matcher. The scanner is built from
// the polygon dataset, which usually arrives after the ticker exists.
func (t *Ticker) SetScanner(scanner *HeadlineScanner) {
	t.mu.Lock()
	t.scanner = scanner
	t.mu.Unlock()
}

func NewTicker(fetch HeadlinesSource, scanner *HeadlineScanner, limit int) *Ticker {
	return &Ticker{
		fetch:   fetch,
		scanner: scanner,
		limit:   limit,
		banner:  tickerBannerPrefix + "AWAITING FEED",
	}
}

// LoadGlobal fetches the headline feed once and rebuilds the banner. A failed
// fetch keeps the previous banner.
func (t *Ticker) LoadGlobal(ctx context.Context) {
	items, err := t.fetch(ctx, t.limit)
	if err != nil {
		log.Printf("[ticker] headline feed unavailable: %v", err)
		return
	}
	t.mu.Lock()
	scanner := t.scanner
	t.mu.Unlock()

	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, tagHeadline(scanner, it.Title))
	}
	t.mu.Lock()
	t.banner = tickerBannerPrefix + strings.Join(parts, tickerSeparator)
	t.mu.Unlock()
}

func tagHeadline(scanner *HeadlineScanner, title string) string {
	if scanner == nil {
		return title
	}
	isos := scanner.Scan(title)
	if len(isos) == 0 {
		return title
	}
	return title + " [" + strings.Join(isos, "][") + "]"
}

// SetCountryHeadline overrides the banner while a country is in focus.
func (t *Ticker) SetCountryHeadline(text string) {
	t.mu.Lock()
	t.override = text
	t.mu.Unlock()
}

// ClearCountryHeadline reverts to the global banner.
func (t *Ticker) ClearCountryHeadline() {
	t.mu.Lock()
	t.override = ""
	t.mu.Unlock()
}

// Text returns what the ticker should display right now.
func (t *Ticker) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.override != "" {
		return t.override
	}
	return t.banner
}
