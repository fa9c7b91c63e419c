package intelengine

import (
	geojson "github.com/paulmach/go.geojson"
)

type LatLng struct {
	Lat, Lng float64
}

// CoordIndex maps ISO alpha-2 codes to an approximate country centroid.
// Built once when the polygon dataset arrives, immutable afterwards.
//
// The centroid is a plain vertex average of one outer ring, not an
// area-weighted centroid. Good enough to aim a camera, nothing more.
type CoordIndex struct {
	entries map[string]LatLng
}

// BuildCoordIndex derives centroids for every feature with a usable ISO code.
// Features with the "-99" sentinel, no code, or no usable vertices produce no
// entry.
func BuildCoordIndex(features []*CountryFeature) *CoordIndex {
	ix := &CoordIndex{entries: make(map[string]LatLng, len(features))}
	for _, f := range features {
		if !f.HasISO() {
			continue
		}
		c, ok := centroidOf(f.Geometry)
		if !ok {
			continue
		}
		ix.entries[f.ISOA2] = c
	}
	return ix
}

// Lookup returns the centroid for an ISO alpha-2 code. The second return
// distinguishes "not indexed" from a real value at 0,0.
func (ix *CoordIndex) Lookup(iso string) (LatLng, bool) {
	c, ok := ix.entries[iso]
	return c, ok
}

func (ix *CoordIndex) Len() int {
	return len(ix.entries)
}

// centroidOf averages the outer-ring vertices of a Polygon. For a
// MultiPolygon it averages only the constituent polygon with the most
// outer-ring vertices, a cheap proxy for the most significant landmass.
// The comparison is strictly-greater, so the first polygon wins ties; camera
// framing downstream depends on that exact tie-break.
func centroidOf(g *geojson.Geometry) (LatLng, bool) {
	if g == nil {
		return LatLng{}, false
	}
	switch {
	case g.IsPolygon():
		if len(g.Polygon) == 0 {
			return LatLng{}, false
		}
		return ringCentroid(g.Polygon[0])
	case g.IsMultiPolygon():
		var best [][]float64
		for _, poly := range g.MultiPolygon {
			if len(poly) == 0 {
				continue
			}
			if len(poly[0]) > len(best) {
				best = poly[0]
			}
		}
		return ringCentroid(best)
	}
	return LatLng{}, false
}

func ringCentroid(ring [][]float64) (LatLng, bool) {
	var sumLat, sumLng float64
	n := 0
	for _, pt := range ring {
		if len(pt) < 2 {
			continue
		}
		// GeoJSON positions are [lng, lat]
		sumLng += pt[0]
		sumLat += pt[1]
		n++
	}
	if n == 0 {
		return LatLng{}, false
	}
	return LatLng{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}, true
}
