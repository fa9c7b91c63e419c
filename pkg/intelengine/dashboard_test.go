package intelengine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sudorandom/intel-globe/pkg/sources"
)

// panelRecorder captures every panel write for assertions.
type panelRecorder struct {
	mu sync.Mutex

	open      bool
	name      string
	facts     FactsView
	factsSet  chan struct{}
	news      []NewsItemView
	newsErr   string
	newsSet   chan struct{}
	conns     []ConnectionView
	connsMsg  string
	factsSets int
}

func newPanelRecorder() *panelRecorder {
	return &panelRecorder{
		factsSet: make(chan struct{}, 16),
		newsSet:  make(chan struct{}, 16),
	}
}

func (p *panelRecorder) ShowPanel(name string, lat, lng float64) {
	p.mu.Lock()
	p.open = true
	p.name = name
	p.mu.Unlock()
}

func (p *panelRecorder) ClosePanel() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

func (p *panelRecorder) SetFactsPending() {}

func (p *panelRecorder) SetFacts(v FactsView) {
	p.mu.Lock()
	p.facts = v
	p.factsSets++
	p.mu.Unlock()
	p.factsSet <- struct{}{}
}

func (p *panelRecorder) SetNewsPending() {}

func (p *panelRecorder) SetNews(items []NewsItemView) {
	p.mu.Lock()
	p.news = items
	p.newsErr = ""
	p.mu.Unlock()
	p.newsSet <- struct{}{}
}

func (p *panelRecorder) SetNewsError(msg string) {
	p.mu.Lock()
	p.newsErr = msg
	p.news = nil
	p.mu.Unlock()
	p.newsSet <- struct{}{}
}

func (p *panelRecorder) SetConnectionsPending() {}

func (p *panelRecorder) SetConnections(items []ConnectionView) {
	p.mu.Lock()
	p.conns = items
	p.connsMsg = ""
	p.mu.Unlock()
}

func (p *panelRecorder) SetConnectionsUnavailable(msg string) {
	p.mu.Lock()
	p.connsMsg = msg
	p.conns = nil
	p.mu.Unlock()
}

func (p *panelRecorder) currentFacts() FactsView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.facts
}

func emptyConnections() *Connections {
	return NewConnections(DefaultConfig().Connections, func(string) (LatLng, bool) {
		return LatLng{}, false
	}, NewRingCoordinator(nil), func([]Arc) {})
}

func noNews(ctx context.Context, name string, limit int) ([]sources.NewsItem, error) {
	return nil, nil
}

func fixedProfile(capital string) ProfileSource {
	return func(ctx context.Context, iso string) (*sources.CountryProfile, error) {
		return &sources.CountryProfile{Capital: capital, Population: 1000, Currency: "Credit"}, nil
	}
}

func fixedGDP(v float64) GDPSource {
	return func(ctx context.Context, iso string) (float64, error) { return v, nil }
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for panel write")
	}
}

func TestLookupSupersession(t *testing.T) {
	panel := newPanelRecorder()
	release := make(chan struct{})

	profiles := func(ctx context.Context, iso string) (*sources.CountryProfile, error) {
		if iso == "AA" {
			<-release
			return &sources.CountryProfile{Capital: "Old Capital"}, nil
		}
		return &sources.CountryProfile{Capital: "New Capital"}, nil
	}
	d := NewDashboard(panel, profiles, fixedGDP(0), noNews, emptyConnections(), 5)

	d.Lookup(&CountryFeature{Admin: "Alpha", ISOA2: "AA"})
	d.Lookup(&CountryFeature{Admin: "Beta", ISOA2: "BB"})
	waitSignal(t, panel.factsSet)

	if got := panel.currentFacts().Capital; got != "New Capital" {
		t.Fatalf("facts capital = %q, want the second lookup's data", got)
	}

	// Let the first lookup's fetch finish; its result must never land.
	close(release)
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if got := panel.currentFacts().Capital; got != "New Capital" {
			t.Fatalf("facts capital overwritten to %q by a superseded lookup", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFetchGroupsFailIndependently(t *testing.T) {
	panel := newPanelRecorder()
	badNews := func(ctx context.Context, name string, limit int) ([]sources.NewsItem, error) {
		return nil, context.DeadlineExceeded
	}
	d := NewDashboard(panel, fixedProfile("Lima"), fixedGDP(2.5e12), badNews, emptyConnections(), 5)

	d.Lookup(&CountryFeature{Admin: "Peru", ISOA2: "PE"})
	waitSignal(t, panel.factsSet)
	waitSignal(t, panel.newsSet)

	panel.mu.Lock()
	defer panel.mu.Unlock()
	if panel.newsErr == "" {
		t.Error("news section should carry its error message")
	}
	if panel.facts.Capital != "Lima" {
		t.Errorf("facts capital = %q; news failure must not touch the macro section", panel.facts.Capital)
	}
	if panel.facts.GDP != "$2.50T" {
		t.Errorf("facts GDP = %q, want $2.50T", panel.facts.GDP)
	}
}

func TestConnectionsMessagesAreDistinct(t *testing.T) {
	panel := newPanelRecorder()
	d := NewDashboard(panel, fixedProfile("X"), fixedGDP(0), noNews, emptyConnections(), 5)

	d.Lookup(&CountryFeature{Admin: "Somaliland", ISOA2: "-99"})
	panel.mu.Lock()
	noISOMsg := panel.connsMsg
	panel.mu.Unlock()

	d.Lookup(&CountryFeature{Admin: "Tuvalu", ISOA2: "TV"})
	panel.mu.Lock()
	noDataMsg := panel.connsMsg
	panel.mu.Unlock()

	if noISOMsg == "" || noDataMsg == "" {
		t.Fatalf("messages %q / %q; both failure modes must be user-visible", noISOMsg, noDataMsg)
	}
	if noISOMsg == noDataMsg {
		t.Errorf("missing-ISO and missing-dataset must read differently, both were %q", noISOMsg)
	}
}

// sequencedPanel logs every write in arrival order. ShowPanel dawdles so a
// racing lookup gets a window to interleave if the dashboard lets it.
type sequencedPanel struct {
	mu     sync.Mutex
	events []string
	delay  time.Duration
}

func (p *sequencedPanel) record(ev string) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *sequencedPanel) ShowPanel(name string, lat, lng float64) {
	p.record("show " + name)
	time.Sleep(p.delay)
}
func (p *sequencedPanel) ClosePanel()                        { p.record("close") }
func (p *sequencedPanel) SetFactsPending()                   { p.record("facts-pending") }
func (p *sequencedPanel) SetFacts(FactsView)                 { p.record("facts") }
func (p *sequencedPanel) SetNewsPending()                    { p.record("news-pending") }
func (p *sequencedPanel) SetNews([]NewsItemView)             { p.record("news") }
func (p *sequencedPanel) SetNewsError(string)                { p.record("news-error") }
func (p *sequencedPanel) SetConnectionsPending()             { p.record("conns-pending") }
func (p *sequencedPanel) SetConnections([]ConnectionView)    { p.record("conns") }
func (p *sequencedPanel) SetConnectionsUnavailable(string)   { p.record("conns-unavailable") }

func TestConcurrentLookupsDoNotInterleavePanelWrites(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	blockedProfile := func(ctx context.Context, iso string) (*sources.CountryProfile, error) {
		select {
		case <-hold:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}
	blockedNews := func(ctx context.Context, name string, limit int) ([]sources.NewsItem, error) {
		select {
		case <-hold:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}
	panel := &sequencedPanel{delay: 20 * time.Millisecond}
	d := NewDashboard(panel, blockedProfile, fixedGDP(0), blockedNews, emptyConnections(), 5)

	var wg sync.WaitGroup
	for _, c := range []struct{ name, iso string }{{"France", "FR"}, {"Germany", "DE"}} {
		wg.Add(1)
		go func(name, iso string) {
			defer wg.Done()
			d.Lookup(&CountryFeature{Admin: name, ISOA2: iso})
		}(c.name, c.iso)
	}
	wg.Wait()

	panel.mu.Lock()
	events := append([]string(nil), panel.events...)
	panel.mu.Unlock()
	if len(events) != 10 {
		t.Fatalf("recorded %d panel writes, want 10: %v", len(events), events)
	}
	// Each lookup writes a header plus four section writes; the two blocks
	// must stay contiguous, so writes 0 and 5 are the two headers.
	for _, i := range []int{0, 5} {
		if !strings.HasPrefix(events[i], "show ") {
			t.Fatalf("write %d = %q, want a panel header; a racing lookup interleaved: %v", i, events[i], events)
		}
	}
}

func TestOnNewsFiresWithRenderedItems(t *testing.T) {
	panel := newPanelRecorder()
	news := func(ctx context.Context, name string, limit int) ([]sources.NewsItem, error) {
		return []sources.NewsItem{{Title: "Summit concludes - Reuters"}}, nil
	}
	d := NewDashboard(panel, fixedProfile("X"), fixedGDP(0), news, emptyConnections(), 5)

	got := make(chan []NewsItemView, 1)
	d.OnNews = func(items []NewsItemView) { got <- items }

	d.Lookup(&CountryFeature{Admin: "Alpha", ISOA2: "AA"})
	waitSignal(t, panel.newsSet)

	select {
	case items := <-got:
		if len(items) != 1 || items[0].Title != "Summit concludes" {
			t.Errorf("OnNews items = %+v", items)
		}
	case <-time.After(time.Second):
		t.Fatal("OnNews never fired")
	}
}

func TestCloseCancelsLookup(t *testing.T) {
	panel := newPanelRecorder()
	started := make(chan struct{})
	release := make(chan struct{})
	profiles := func(ctx context.Context, iso string) (*sources.CountryProfile, error) {
		close(started)
		<-release
		return &sources.CountryProfile{Capital: "Ghost"}, nil
	}
	d := NewDashboard(panel, profiles, fixedGDP(0), noNews, emptyConnections(), 5)

	d.Lookup(&CountryFeature{Admin: "Gamma", ISOA2: "GG"})
	<-started
	d.Close()
	close(release)

	select {
	case <-panel.factsSet:
		t.Fatal("facts write landed after Close")
	case <-time.After(100 * time.Millisecond):
	}
	panel.mu.Lock()
	defer panel.mu.Unlock()
	if panel.open {
		t.Error("panel still open after Close")
	}
}
