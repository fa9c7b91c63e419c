package intelengine

import (
	"image/color"
	"time"
)

// PointMarker is one entry of the scene's point layer.
type PointMarker struct {
	Lat, Lng float64
	// Radius in degrees.
	Radius float64
	Color  color.RGBA
	Label  string
}

// Arc is one entry of the scene's arc layer.
type Arc struct {
	StartLat, StartLng float64
	EndLat, EndLng     float64
	Color              color.RGBA
	Stroke             float64
	PartnerName        string
	Volume             float64
}

// InteractionHandlers are the callbacks a scene driver emits. A nil feature
// on hover means the cursor left all polygons; a nil feature on click means
// the user clicked outside any polygon.
type InteractionHandlers struct {
	OnHover func(f *CountryFeature)
	OnClick func(f *CountryFeature, lat, lng float64)
}

// SceneDriver is the declarative surface of the rendering engine. The engine
// pushes per-layer data arrays and camera parameters; the driver decides how
// (and whether) to draw them. Implementations: the ebiten viewer and the
// WebSocket scene hub.
type SceneDriver interface {
	SetCountries(features []*CountryFeature)
	SetHovered(f *CountryFeature)
	SetPoints(points []PointMarker)
	SetArcs(arcs []Arc)
	SetRings(rings []Ring)
	PointOfView(view CameraView, transition time.Duration)
	SetAutoRotate(enabled bool)
	SetHandlers(h InteractionHandlers)
}

// FactsView is the macroeconomic section's view model. Every field is already
// display-ready; rows that no source could answer carry the fixed placeholder.
type FactsView struct {
	Capital    string
	Population string
	Currency   string
	GDP        string
}

type NewsItemView struct {
	Title  string
	Source string
	Link   string
}

type ConnectionView struct {
	Name         string
	Volume       float64
	PercentOfMax int
}

// PanelRenderer receives already-computed view models for the intel panel.
// The dashboard guarantees that writes for superseded lookups never reach it.
// Implementations must not call back into the dashboard.
type PanelRenderer interface {
	ShowPanel(countryName string, lat, lng float64)
	ClosePanel()

	SetFactsPending()
	SetFacts(v FactsView)

	SetNewsPending()
	SetNews(items []NewsItemView)
	SetNewsError(msg string)

	SetConnectionsPending()
	SetConnections(items []ConnectionView)
	SetConnectionsUnavailable(msg string)
}
