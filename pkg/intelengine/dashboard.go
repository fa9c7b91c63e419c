package intelengine

import (
	"context"
	"log"
	"sync"

	"github.com/sudorandom/intel-globe/pkg/sources"
)

// Section messages. Each failure mode reads differently so an operator can
// tell a missing ISO code from a missing dataset from a dead feed.
const (
	msgNoISO       = "NO LINK DATA // UNRESOLVED TERRITORY"
	msgNoTradeData = "NO CONNECTION DATA ON FILE"
	msgNewsOffline = "NEWS FEED OFFLINE"
)

// Dashboard owns the intel panel lifecycle. At most one lookup is current;
// starting a new one supersedes the previous, and any of its still-inflight
// results are dropped before they can touch the panel.
//
// The macro group (demographics + GDP) and the news group run concurrently
// and fail independently. The connections sub-flow is synchronous: it reads a
// preloaded dataset and settles before Lookup returns.
type Dashboard struct {
	panel       PanelRenderer
	profiles    ProfileSource
	gdp         GDPSource
	news        NewsSource
	connections *Connections
	newsCount   int

	// OnNews, when set, receives the rendered news list of the current
	// lookup. Wired to the ticker's country override. Called under the
	// same supersession guard as the panel writes.
	OnNews func(items []NewsItemView)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewDashboard(panel PanelRenderer, profiles ProfileSource, gdp GDPSource, news NewsSource, conns *Connections, newsCount int) *Dashboard {
	return &Dashboard{
		panel:       panel,
		profiles:    profiles,
		gdp:         gdp,
		news:        news,
		connections: conns,
		newsCount:   newsCount,
	}
}

// Lookup opens the panel for a country and starts its fetch groups. Any
// previous lookup is cancelled first. The synchronous panel writes happen
// under the lock that assigned the generation, so two concurrent Lookups
// (each WebSocket client clicks on its own goroutine) cannot interleave
// their writes: whichever took the lock last owns the panel.
func (d *Dashboard) Lookup(f *CountryFeature) {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	name := f.DisplayName()
	d.panel.ShowPanel(name, f.LabelLat, f.LabelLng)
	d.panel.SetFactsPending()
	d.panel.SetNewsPending()
	d.panel.SetConnectionsPending()

	// Connections settle synchronously; they read local data only.
	if !f.HasISO() {
		d.panel.SetConnectionsUnavailable(msgNoISO)
	} else if views, ok := d.connections.Show(f); ok {
		d.panel.SetConnections(views)
	} else {
		d.panel.SetConnectionsUnavailable(msgNoTradeData)
	}
	d.mu.Unlock()

	go d.fetchMacro(ctx, gen, f)
	go d.fetchNews(ctx, gen, name)
}

// Close cancels the current lookup and closes the panel. Safe to call when
// nothing is open. The panel write stays under the lock for the same reason
// Lookup's do: a racing Lookup must either fully precede or fully follow it.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gen++
	d.panel.ClosePanel()
}

// deliver runs fn only if gen is still the current lookup. The panel write
// happens under the lock so a superseding Lookup on another goroutine cannot
// interleave between the check and the write.
func (d *Dashboard) deliver(gen uint64, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen == d.gen {
		fn()
	}
}

// fetchMacro never reports an error to the panel: every row has a fallback
// chain ending in a fixed placeholder, so partial data still renders.
func (d *Dashboard) fetchMacro(ctx context.Context, gen uint64, f *CountryFeature) {
	var prof *sources.CountryProfile
	var gdp float64
	if iso := f.ISO(); iso != "" {
		if p, err := d.profiles(ctx, iso); err != nil {
			if ctx.Err() == nil {
				log.Printf("[dashboard] profile fetch %s: %v", iso, err)
			}
		} else {
			prof = p
		}
		if v, err := d.gdp(ctx, iso); err != nil {
			if ctx.Err() == nil {
				log.Printf("[dashboard] gdp fetch %s: %v", iso, err)
			}
		} else {
			gdp = v
		}
	}
	if ctx.Err() != nil {
		return
	}
	view := buildFactsView(f, prof, gdp)
	d.deliver(gen, func() { d.panel.SetFacts(view) })
}

func (d *Dashboard) fetchNews(ctx context.Context, gen uint64, name string) {
	items, err := d.news(ctx, name, d.newsCount)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Printf("[dashboard] news fetch %q: %v", name, err)
		d.deliver(gen, func() { d.panel.SetNewsError(msgNewsOffline) })
		return
	}
	views := buildNewsViews(items)
	d.deliver(gen, func() {
		d.panel.SetNews(views)
		if d.OnNews != nil {
			d.OnNews(views)
		}
	})
}
