package intelengine

import (
	"testing"
)

func searchFeatures() []*CountryFeature {
	return []*CountryFeature{
		{Admin: "Germany", Name: "Germany", NameLong: "Federal Republic of Germany", ISOA2: "DE", ISOA3: "DEU"},
		{Admin: "France", Name: "France", NameLong: "French Republic", ISOA2: "FR", ISOA3: "FRA"},
		{Admin: "United Kingdom", Name: "United Kingdom", NameLong: "United Kingdom of Great Britain and Northern Ireland", ISOA2: "GB", ISOA3: "GBR"},
		{Admin: "United States of America", Name: "United States", NameLong: "United States of America", ISOA2: "US", ISOA3: "USA"},
		{Admin: "Denmark", Name: "Denmark", NameLong: "Kingdom of Denmark", ISOA2: "DK", ISOA3: "DNK"},
		{Admin: "Japan", Name: "Japan", NameLong: "Japan", ISOA2: "JP", ISOA3: "JPN"},
	}
}

func newTestIndex() *SearchIndex {
	ix := NewSearchIndex(DefaultConfig().Search)
	ix.SetFeatures(searchFeatures())
	return ix
}

func TestQueryExactNameRanksFirst(t *testing.T) {
	results := newTestIndex().Query("germany")
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Feature.Admin != "Germany" {
		t.Errorf("top result = %q, want Germany", results[0].Feature.Admin)
	}
}

func TestQueryToleratesTypo(t *testing.T) {
	results := newTestIndex().Query("grmany")
	found := false
	for _, r := range results {
		if r.Feature.Admin == "Germany" {
			found = true
		}
	}
	if !found {
		t.Errorf("one-edit typo did not surface Germany, got %d results", len(results))
	}
}

func TestQueryBelowMinimumLength(t *testing.T) {
	if results := newTestIndex().Query("g"); results != nil {
		t.Errorf("single-rune query returned %d results, want none", len(results))
	}
}

func TestQueryCapsResults(t *testing.T) {
	cfg := DefaultConfig().Search
	results := newTestIndex().Query("united")
	if len(results) > cfg.MaxResults {
		t.Errorf("got %d results, cap is %d", len(results), cfg.MaxResults)
	}
}

func TestQueryMatchesISOCodeExactly(t *testing.T) {
	results := newTestIndex().Query("jp")
	found := false
	for _, r := range results {
		if r.Feature.ISOA2 == "JP" {
			found = true
		}
	}
	if !found {
		t.Error("exact ISO code query did not surface Japan")
	}
}

func TestSearchBoxKeyboardClampsWithoutWraparound(t *testing.T) {
	var selected *CountryFeature
	box := NewSearchBox(newTestIndex(), func(f *CountryFeature) { selected = f })

	box.SetQuery("united")
	n := len(box.Results())
	if n < 2 {
		t.Fatalf("need at least 2 results, got %d", n)
	}
	if box.ActiveIndex() != -1 {
		t.Fatalf("initial active = %d, want -1", box.ActiveIndex())
	}

	box.MoveUp()
	if box.ActiveIndex() != -1 {
		t.Errorf("MoveUp from start moved to %d", box.ActiveIndex())
	}
	for i := 0; i < n+5; i++ {
		box.MoveDown()
	}
	if box.ActiveIndex() != n-1 {
		t.Errorf("active = %d after overshooting down, want %d", box.ActiveIndex(), n-1)
	}
	for i := 0; i < n+5; i++ {
		box.MoveUp()
	}
	if box.ActiveIndex() != 0 {
		t.Errorf("active = %d after overshooting up, want 0", box.ActiveIndex())
	}

	_ = selected
}

func TestSearchBoxEnterSelectsActiveOrTop(t *testing.T) {
	var selected *CountryFeature
	box := NewSearchBox(newTestIndex(), func(f *CountryFeature) { selected = f })

	box.SetQuery("united")
	top := box.Results()[0].Feature
	if !box.Enter() {
		t.Fatal("Enter with open results should select")
	}
	if selected != top {
		t.Errorf("Enter with no active row selected %v, want top result", selected)
	}
	if box.IsOpen() {
		t.Error("results should close after selection")
	}

	box.SetQuery("united")
	second := box.Results()[1].Feature
	box.MoveDown()
	box.MoveDown()
	box.Enter()
	if selected != second {
		t.Errorf("Enter selected %v, want the active row", selected)
	}
}

func TestSearchBoxEscapeClosesAndReportsFocus(t *testing.T) {
	box := NewSearchBox(newTestIndex(), nil)
	box.SetQuery("united")
	if !box.Escape() {
		t.Error("Escape on open results should report it was open")
	}
	if box.IsOpen() || box.Results() != nil {
		t.Error("results still open after Escape")
	}
	if box.Escape() {
		t.Error("second Escape should report already closed")
	}
}

func TestSearchBoxEnterWithNoResults(t *testing.T) {
	box := NewSearchBox(newTestIndex(), nil)
	box.SetQuery("zzzzzzz")
	if box.Enter() {
		t.Error("Enter with no results must not select")
	}
}
