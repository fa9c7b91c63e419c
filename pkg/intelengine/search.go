package intelengine

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Per-field weights for ranking. The administrative name dominates; the short
// ISO codes only nudge ties.
const (
	weightAdmin    = 0.50
	weightName     = 0.25
	weightNameLong = 0.15
	weightISOA2    = 0.05
	weightISOA3    = 0.05
)

type SearchResult struct {
	Feature *CountryFeature
	Score   float64
}

// SearchIndex ranks countries against a free-text query with typo tolerance.
// Queries shorter than the configured minimum return nothing.
type SearchIndex struct {
	cfg      SearchConfig
	features []*CountryFeature
}

func NewSearchIndex(cfg SearchConfig) *SearchIndex {
	return &SearchIndex{cfg: cfg}
}

func (s *SearchIndex) SetFeatures(features []*CountryFeature) {
	s.features = features
}

// Query returns the best matches, strongest first, capped at the configured
// maximum. A candidate qualifies when at least one field clears the
// similarity floor; ranking then follows the weighted sum across fields.
func (s *SearchIndex) Query(q string) []SearchResult {
	q = strings.TrimSpace(strings.ToLower(q))
	if len([]rune(q)) < s.cfg.MinQueryLength {
		return nil
	}

	var results []SearchResult
	for _, f := range s.features {
		admin := fieldSimilarity(q, f.Admin)
		name := fieldSimilarity(q, f.Name)
		long := fieldSimilarity(q, f.NameLong)
		a2 := codeSimilarity(q, f.ISOA2)
		a3 := codeSimilarity(q, f.ISOA3)

		best := admin
		for _, v := range []float64{name, long, a2, a3} {
			if v > best {
				best = v
			}
		}
		if best < s.cfg.MinScore {
			continue
		}
		score := weightAdmin*admin + weightName*name + weightNameLong*long +
			weightISOA2*a2 + weightISOA3*a3
		results = append(results, SearchResult{Feature: f, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Feature.Admin < results[j].Feature.Admin
	})
	if len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}
	return results
}

// fieldSimilarity scores query against one name field in [0, 1].
func fieldSimilarity(q, field string) float64 {
	field = strings.ToLower(field)
	if field == "" {
		return 0
	}
	if q == field {
		return 1
	}
	if strings.HasPrefix(field, q) {
		return 0.9
	}
	if strings.Contains(field, q) {
		return 0.8
	}

	dist := levenshtein.ComputeDistance(q, field)
	longer := len([]rune(field))
	if l := len([]rune(q)); l > longer {
		longer = l
	}
	sim := 1 - float64(dist)/float64(longer)

	// A scattered subsequence match ("untdkngdm") still deserves a look even
	// when the edit distance is poor.
	if fuzzy.MatchNormalizedFold(q, field) && sim < 0.7 {
		sim = 0.7
	}
	if sim < 0 {
		return 0
	}
	return sim
}

// codeSimilarity matches ISO codes exactly. Two-letter codes are too short
// for edit-distance scoring to mean anything.
func codeSimilarity(q, code string) float64 {
	if code == "" || code == isoSentinel {
		return 0
	}
	if strings.EqualFold(q, code) {
		return 1
	}
	return 0
}

// SearchBox is the search widget's state machine: a query, its result list
// and a keyboard-driven active row. It runs on the UI thread; no locking.
type SearchBox struct {
	index    *SearchIndex
	onSelect func(*CountryFeature)

	query   string
	results []SearchResult
	active  int
	open    bool
}

func NewSearchBox(index *SearchIndex, onSelect func(*CountryFeature)) *SearchBox {
	return &SearchBox{index: index, onSelect: onSelect, active: -1}
}

// SetQuery replaces the query and recomputes results. The active row resets;
// keyboard focus starts above the list.
func (b *SearchBox) SetQuery(q string) {
	b.query = q
	b.results = b.index.Query(q)
	b.active = -1
	b.open = len(b.results) > 0
}

// MoveDown advances the active row, stopping at the last result.
func (b *SearchBox) MoveDown() {
	if !b.open {
		return
	}
	if b.active < len(b.results)-1 {
		b.active++
	}
}

// MoveUp retreats the active row, stopping at the first result.
func (b *SearchBox) MoveUp() {
	if !b.open {
		return
	}
	if b.active > 0 {
		b.active--
	}
}

// Enter selects the active row, or the top result when none is active.
// It reports whether a selection happened.
func (b *SearchBox) Enter() bool {
	if !b.open || len(b.results) == 0 {
		return false
	}
	idx := b.active
	if idx < 0 {
		idx = 0
	}
	f := b.results[idx].Feature
	b.CloseResults()
	b.query = ""
	if b.onSelect != nil {
		b.onSelect(f)
	}
	return true
}

// Escape closes the result list and reports whether it was open, so the
// caller knows to drop input focus.
func (b *SearchBox) Escape() bool {
	wasOpen := b.open
	b.CloseResults()
	return wasOpen
}

// CloseResults hides the list without touching the query text.
func (b *SearchBox) CloseResults() {
	b.open = false
	b.results = nil
	b.active = -1
}

func (b *SearchBox) Query() string           { return b.query }
func (b *SearchBox) Results() []SearchResult { return b.results }
func (b *SearchBox) ActiveIndex() int        { return b.active }
func (b *SearchBox) IsOpen() bool            { return b.open }
