package intelengine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sudorandom/intel-globe/pkg/sources"
)

func testScanner() *HeadlineScanner {
	return NewHeadlineScanner([]*CountryFeature{
		{Admin: "Germany", Name: "Germany", ISOA2: "DE", ISOA3: "DEU"},
		{Admin: "France", Name: "France", ISOA2: "FR", ISOA3: "FRA"},
		{Admin: "Somaliland", Name: "Somaliland", ISOA2: "-99"},
	})
}

func TestHeadlineScannerFindsMentions(t *testing.T) {
	s := testScanner()

	isos := s.Scan("Germany and France sign accord; Germany hails deal")
	if len(isos) != 2 {
		t.Fatalf("Scan returned %v, want two distinct countries", isos)
	}
	if isos[0] != "DE" || isos[1] != "FR" {
		t.Errorf("Scan = %v, want [DE FR]", isos)
	}
}

func TestHeadlineScannerSkipsFeaturesWithoutISO(t *testing.T) {
	s := testScanner()
	if isos := s.Scan("Somaliland declares holiday"); len(isos) != 0 {
		t.Errorf("Scan matched a territory without an ISO code: %v", isos)
	}
}

func TestLoadGlobalBuildsTaggedBanner(t *testing.T) {
	fetch := func(ctx context.Context, limit int) ([]sources.NewsItem, error) {
		return []sources.NewsItem{
			{Title: "Germany raises rates"},
			{Title: "Storms batter coastline"},
		}, nil
	}
	tk := NewTicker(fetch, testScanner(), 10)
	tk.LoadGlobal(context.Background())

	text := tk.Text()
	if !strings.HasPrefix(text, tickerBannerPrefix) {
		t.Errorf("banner %q missing prefix", text)
	}
	if !strings.Contains(text, "Germany raises rates [DE]") {
		t.Errorf("banner %q missing tagged headline", text)
	}
	if !strings.Contains(text, tickerSeparator+"Storms batter coastline") {
		t.Errorf("banner %q missing separated untagged headline", text)
	}
}

func TestLoadGlobalFailureKeepsBanner(t *testing.T) {
	fetch := func(ctx context.Context, limit int) ([]sources.NewsItem, error) {
		return nil, errors.New("feed down")
	}
	tk := NewTicker(fetch, nil, 10)
	before := tk.Text()
	tk.LoadGlobal(context.Background())
	if got := tk.Text(); got != before {
		t.Errorf("banner changed to %q after a failed fetch", got)
	}
}

func TestCountryHeadlineOverride(t *testing.T) {
	tk := NewTicker(nil, nil, 10)
	global := tk.Text()

	tk.SetCountryHeadline("/// TRACKING: Germany")
	if got := tk.Text(); got != "/// TRACKING: Germany" {
		t.Errorf("Text = %q, want the override", got)
	}
	tk.ClearCountryHeadline()
	if got := tk.Text(); got != global {
		t.Errorf("Text = %q after clear, want the global banner back", got)
	}
}
