package intelengine

import (
	"math"
	"testing"

	geojson "github.com/paulmach/go.geojson"
)

func quakeCollection(quakes []Quake) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, q := range quakes {
		f := geojson.NewPointFeature([]float64{q.Lng, q.Lat, 10})
		f.Properties = map[string]interface{}{"mag": q.Magnitude, "place": q.Place}
		fc.AddFeature(f)
	}
	return fc
}

func TestParseQuakes(t *testing.T) {
	fc := quakeCollection([]Quake{
		{Lat: 35.6, Lng: 139.7, Magnitude: 6.1, Place: "near Tokyo"},
	})
	// A feature with no magnitude must be dropped.
	bad := geojson.NewPointFeature([]float64{0, 0})
	bad.Properties = map[string]interface{}{"place": "nowhere"}
	fc.AddFeature(bad)

	quakes := ParseQuakes(fc)
	if len(quakes) != 1 {
		t.Fatalf("parsed %d quakes, want 1", len(quakes))
	}
	q := quakes[0]
	if q.Lat != 35.6 || q.Lng != 139.7 || q.Magnitude != 6.1 || q.Place != "near Tokyo" {
		t.Errorf("quake = %+v", q)
	}
}

func TestSeverityTiers(t *testing.T) {
	cfg := DefaultConfig().Events
	m := NewSeismicMonitor(cfg, nil, NewRingCoordinator(nil), func([]PointMarker) {})

	tests := []struct {
		mag  float64
		want [4]uint8
	}{
		{4.5, [4]uint8{cfg.MinorColor.R, cfg.MinorColor.G, cfg.MinorColor.B, cfg.MinorColor.A}},
		{5.5, [4]uint8{cfg.ModerateColor.R, cfg.ModerateColor.G, cfg.ModerateColor.B, cfg.ModerateColor.A}},
		{6.9, [4]uint8{cfg.ModerateColor.R, cfg.ModerateColor.G, cfg.ModerateColor.B, cfg.ModerateColor.A}},
		{7.0, [4]uint8{cfg.MajorColor.R, cfg.MajorColor.G, cfg.MajorColor.B, cfg.MajorColor.A}},
	}
	for _, tt := range tests {
		c := m.severityColor(tt.mag)
		got := [4]uint8{c.R, c.G, c.B, c.A}
		if got != tt.want {
			t.Errorf("severityColor(%v) = %v, want %v", tt.mag, got, tt.want)
		}
	}
}

func TestMarkerRadiusScalesWithMagnitude(t *testing.T) {
	cfg := DefaultConfig().Events
	m := NewSeismicMonitor(cfg, nil, NewRingCoordinator(nil), func([]PointMarker) {})

	markers := m.buildMarkers([]Quake{{Magnitude: 7.2}, {Magnitude: 4.0}})
	if math.Abs(markers[0].Radius-7.2*cfg.MagnitudeRadiusScale) > 1e-9 {
		t.Errorf("radius = %v", markers[0].Radius)
	}
	if math.Abs(markers[1].Radius-4.0*cfg.MagnitudeRadiusScale) > 1e-9 {
		t.Errorf("radius = %v", markers[1].Radius)
	}
}

func TestRingGateAndTwoTierColor(t *testing.T) {
	cfg := DefaultConfig().Events
	m := NewSeismicMonitor(cfg, nil, NewRingCoordinator(nil), func([]PointMarker) {})

	rings := m.buildRings([]Quake{
		{Lat: 1, Magnitude: 4.9}, // below the gate, no ring
		{Lat: 2, Magnitude: 6.0}, // ringed, moderate color
		{Lat: 3, Magnitude: 7.2}, // ringed, major color
	})
	if len(rings) != 2 {
		t.Fatalf("got %d rings, want 2", len(rings))
	}
	if rings[0].Color != cfg.ModerateColor {
		t.Errorf("6.0 ring color = %v, want moderate", rings[0].Color)
	}
	if rings[1].Color != cfg.MajorColor {
		t.Errorf("7.2 ring color = %v, want major", rings[1].Color)
	}
}
