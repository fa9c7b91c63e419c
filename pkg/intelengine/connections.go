package intelengine

import (
	"log"
	"math"
	"sync"

	"github.com/sudorandom/intel-globe/pkg/sources"
)

// RingSourceConnections names this producer's entry in the ring coordinator.
const RingSourceConnections = "connections"

// CoordLookup resolves an ISO alpha-2 code to a map anchor.
type CoordLookup func(iso string) (LatLng, bool)

// Connections renders a country's bilateral trade links: one arc per partner
// plus one pulsing ring per arc endpoint. The dataset is loaded once at
// startup; showing a selection is pure local computation.
type Connections struct {
	cfg     ConnectionsConfig
	coords  CoordLookup
	rings   *RingCoordinator
	setArcs func([]Arc)

	mu      sync.Mutex
	dataset map[string][]sources.TradePartner
}

func NewConnections(cfg ConnectionsConfig, coords CoordLookup, rings *RingCoordinator, setArcs func([]Arc)) *Connections {
	return &Connections{
		cfg:     cfg,
		coords:  coords,
		rings:   rings,
		setArcs: setArcs,
	}
}

// LoadDataset reads the trade dataset from disk. Best-effort: on failure the
// dataset stays absent and every later Show degrades to "no data".
func (c *Connections) LoadDataset(path string) {
	dataset, err := sources.LoadTradePartners(path)
	if err != nil {
		log.Printf("[connections] trade dataset unavailable: %v", err)
		return
	}
	c.mu.Lock()
	c.dataset = dataset
	c.mu.Unlock()
	log.Printf("[connections] loaded trade data for %d countries", len(dataset))
}

// SetDataset replaces the dataset directly.
func (c *Connections) SetDataset(dataset map[string][]sources.TradePartner) {
	c.mu.Lock()
	c.dataset = dataset
	c.mu.Unlock()
}

// Show replaces the arc and ring layers with the selected country's partner
// links and returns the panel rows. A false return means no usable data; the
// previous selection's arcs and rings are cleared either way first.
func (c *Connections) Show(f *CountryFeature) ([]ConnectionView, bool) {
	c.mu.Lock()
	partners := c.dataset[f.ISO()]
	c.mu.Unlock()

	if len(partners) == 0 {
		c.Clear()
		return nil, false
	}

	origin, ok := c.coords(f.ISO())
	if !ok {
		origin = LatLng{Lat: f.LabelLat, Lng: f.LabelLng}
	}

	maxVol := 0.0
	for _, p := range partners {
		if p.Volume > maxVol {
			maxVol = p.Volume
		}
	}
	if maxVol == 0 {
		c.Clear()
		return nil, false
	}

	arcs := make([]Arc, 0, len(partners))
	rings := make([]Ring, 0, len(partners))
	views := make([]ConnectionView, 0, len(partners))
	for _, p := range partners {
		end, ok := c.coords(p.ISO)
		if !ok {
			continue
		}
		stroke := c.cfg.ArcStrokeMin + (p.Volume/maxVol)*(c.cfg.ArcStrokeMax-c.cfg.ArcStrokeMin)
		arcs = append(arcs, Arc{
			StartLat: origin.Lat, StartLng: origin.Lng,
			EndLat: end.Lat, EndLng: end.Lng,
			Color:       c.cfg.ArcColor,
			Stroke:      stroke,
			PartnerName: p.Name,
			Volume:      p.Volume,
		})
		rings = append(rings, Ring{
			Lat: end.Lat, Lng: end.Lng,
			MaxRadius: c.cfg.RingMaxRadius,
			Speed:     c.cfg.RingSpeed,
			Period:    c.cfg.RingPeriod,
			Color:     c.cfg.RingColor,
		})
		views = append(views, ConnectionView{
			Name:         p.Name,
			Volume:       p.Volume,
			PercentOfMax: int(math.Round(p.Volume / maxVol * 100)),
		})
	}
	if len(arcs) == 0 {
		c.Clear()
		return nil, false
	}

	c.setArcs(arcs)
	c.rings.Update(RingSourceConnections, rings)
	return views, true
}

// Clear removes this producer's arcs and rings. Other producers' rings are
// untouched.
func (c *Connections) Clear() {
	c.setArcs(nil)
	c.rings.Update(RingSourceConnections, nil)
}
