package intelengine

import (
	"context"
	"image/color"
	"log"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// RingSourceEvents names the seismic producer's entry in the ring coordinator.
const RingSourceEvents = "events"

// QuakeSource answers the current earthquake summary feed.
type QuakeSource func(ctx context.Context) (*geojson.FeatureCollection, error)

// Quake is one parsed seismic event.
type Quake struct {
	Lat, Lng  float64
	Magnitude float64
	Place     string
}

// SeismicMonitor polls the earthquake feed on a fixed interval and keeps the
// scene's point layer and its ring set current. A failed poll keeps the
// previous markers on screen.
type SeismicMonitor struct {
	cfg       EventsConfig
	fetch     QuakeSource
	rings     *RingCoordinator
	setPoints func([]PointMarker)
}

func NewSeismicMonitor(cfg EventsConfig, fetch QuakeSource, rings *RingCoordinator, setPoints func([]PointMarker)) *SeismicMonitor {
	return &SeismicMonitor{
		cfg:       cfg,
		fetch:     fetch,
		rings:     rings,
		setPoints: setPoints,
	}
}

// Start polls once immediately, then on every tick until ctx is cancelled.
func (m *SeismicMonitor) Start(ctx context.Context) {
	go func() {
		m.refresh(ctx)
		ticker := time.NewTicker(m.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	}()
}

func (m *SeismicMonitor) refresh(ctx context.Context) {
	fc, err := m.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[events] quake feed fetch failed: %v", err)
		}
		return
	}
	quakes := ParseQuakes(fc)
	log.Printf("[events] tracking %d seismic events", len(quakes))
	m.setPoints(m.buildMarkers(quakes))
	m.rings.Update(RingSourceEvents, m.buildRings(quakes))
}

// ParseQuakes extracts point events from the feed. Features without a point
// geometry or a magnitude are skipped.
func ParseQuakes(fc *geojson.FeatureCollection) []Quake {
	if fc == nil {
		return nil
	}
	quakes := make([]Quake, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil || f.Geometry.Type != geojson.GeometryPoint {
			continue
		}
		// Feed coordinates are [lng, lat, depth].
		if len(f.Geometry.Point) < 2 {
			continue
		}
		mag := propFloat(f.Properties, "mag")
		if mag <= 0 {
			continue
		}
		quakes = append(quakes, Quake{
			Lat:       f.Geometry.Point[1],
			Lng:       f.Geometry.Point[0],
			Magnitude: mag,
			Place:     propString(f.Properties, "place"),
		})
	}
	return quakes
}

// severityColor maps a magnitude to its three-tier display color.
func (m *SeismicMonitor) severityColor(mag float64) color.RGBA {
	switch {
	case mag >= m.cfg.MajorThreshold:
		return m.cfg.MajorColor
	case mag >= m.cfg.ModerateThreshold:
		return m.cfg.ModerateColor
	default:
		return m.cfg.MinorColor
	}
}

func (m *SeismicMonitor) buildMarkers(quakes []Quake) []PointMarker {
	markers := make([]PointMarker, 0, len(quakes))
	for _, q := range quakes {
		markers = append(markers, PointMarker{
			Lat:    q.Lat,
			Lng:    q.Lng,
			Radius: q.Magnitude * m.cfg.MagnitudeRadiusScale,
			Color:  m.severityColor(q.Magnitude),
			Label:  q.Place,
		})
	}
	return markers
}

// buildRings gates rings on the stricter threshold. Ring color only knows two
// tiers: major, and everything else that qualified.
func (m *SeismicMonitor) buildRings(quakes []Quake) []Ring {
	var rings []Ring
	for _, q := range quakes {
		if q.Magnitude < m.cfg.RingThreshold {
			continue
		}
		c := m.cfg.ModerateColor
		if q.Magnitude >= m.cfg.MajorThreshold {
			c = m.cfg.MajorColor
		}
		rings = append(rings, Ring{
			Lat: q.Lat, Lng: q.Lng,
			MaxRadius: m.cfg.RingMaxRadius,
			Speed:     m.cfg.RingSpeed,
			Period:    m.cfg.RingPeriod,
			Color:     c,
		})
	}
	return rings
}
