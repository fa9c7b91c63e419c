package intelengine

import (
	"context"
	"log"
	"sync"

	geojson "github.com/paulmach/go.geojson"
)

// PolygonSource answers the country polygon dataset.
type PolygonSource func(ctx context.Context) (*geojson.FeatureCollection, error)

// Globe is the scene controller. It owns the country features, the coordinate
// index and the ring coordinator, routes hover and click interaction, and
// drives camera focus and reset. Everything else reaches the scene through
// it.
type Globe struct {
	cfg    GlobeConfig
	anim   AnimationConfig
	driver SceneDriver
	loader *Loader
	rings  *RingCoordinator

	// OnFocus is invoked after the camera starts moving toward a selection,
	// normally wired to the dashboard lookup flow.
	OnFocus func(f *CountryFeature)

	mu         sync.Mutex
	features   []*CountryFeature
	coords     *CoordIndex
	ready      bool
	observers  []func([]*CountryFeature)
	resetHooks []func()
}

func NewGlobe(cfg GlobeConfig, anim AnimationConfig, driver SceneDriver, loader *Loader) *Globe {
	return &Globe{
		cfg:    cfg,
		anim:   anim,
		driver: driver,
		loader: loader,
		rings:  NewRingCoordinator(driver.SetRings),
	}
}

// Rings exposes the ring coordinator to producer components.
func (g *Globe) Rings() *RingCoordinator { return g.rings }

// Initialize performs one-time setup: interaction handlers, initial camera,
// then the polygon fetch. The loader is dismissed on success and on failure;
// a dead polygon source must not leave the overlay stuck.
func (g *Globe) Initialize(ctx context.Context, fetch PolygonSource) error {
	g.driver.SetHandlers(InteractionHandlers{
		OnHover: g.HandleHover,
		OnClick: g.HandleClick,
	})
	g.driver.PointOfView(g.cfg.InitialView, 0)
	g.driver.SetAutoRotate(true)

	fc, err := fetch(ctx)
	if err != nil {
		log.Printf("[globe] polygon dataset unavailable: %v", err)
		if g.loader != nil {
			g.loader.ShowError("MAP DATA UNAVAILABLE")
		}
		return err
	}

	features := ParseCountries(fc)
	coords := BuildCoordIndex(features)
	log.Printf("[globe] loaded %d countries, indexed %d centroids", len(features), coords.Len())
	g.driver.SetCountries(features)

	g.mu.Lock()
	g.features = features
	g.coords = coords
	g.ready = true
	observers := append([]func([]*CountryFeature){}, g.observers...)
	g.mu.Unlock()

	for _, fn := range observers {
		fn(features)
	}
	if g.loader != nil {
		g.loader.Dismiss()
	}
	return nil
}

// OnCountriesReady registers a callback for the loaded feature set. If the
// features are already loaded it fires immediately.
func (g *Globe) OnCountriesReady(fn func([]*CountryFeature)) {
	g.mu.Lock()
	ready := g.ready
	features := g.features
	if !ready {
		g.observers = append(g.observers, fn)
	}
	g.mu.Unlock()
	if ready {
		fn(features)
	}
}

// AddResetHook registers cleanup run by ResetView, such as closing the panel
// or clearing arcs.
func (g *Globe) AddResetHook(fn func()) {
	g.mu.Lock()
	g.resetHooks = append(g.resetHooks, fn)
	g.mu.Unlock()
}

// FocusCountry stops auto-rotation, flies the camera to the given point and
// hands the feature to the focus handler. Callable from a polygon click and
// from a search selection alike.
func (g *Globe) FocusCountry(f *CountryFeature, lat, lng float64) {
	g.driver.SetAutoRotate(false)
	g.driver.PointOfView(CameraView{Lat: lat, Lng: lng, Altitude: g.cfg.FocusAltitude}, g.anim.FocusDuration)
	if g.OnFocus != nil {
		g.OnFocus(f)
	}
}

// ResetView runs the registered cleanup hooks, re-enables auto-rotation and
// pulls the camera back to the initial altitude.
func (g *Globe) ResetView() {
	g.mu.Lock()
	hooks := append([]func(){}, g.resetHooks...)
	g.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	g.driver.SetAutoRotate(true)
	g.driver.PointOfView(g.cfg.InitialView, g.anim.ResetDuration)
}

// CountryCoords resolves an ISO alpha-2 code through the coordinate index.
func (g *Globe) CountryCoords(iso string) (LatLng, bool) {
	g.mu.Lock()
	coords := g.coords
	g.mu.Unlock()
	if coords == nil {
		return LatLng{}, false
	}
	return coords.Lookup(iso)
}

// Features returns the loaded country set, nil before initialization.
func (g *Globe) Features() []*CountryFeature {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.features
}

// HandleHover marks at most one polygon hovered. A nil feature clears it.
func (g *Globe) HandleHover(f *CountryFeature) {
	g.driver.SetHovered(f)
}

// HandleClick focuses the clicked country, or resets when the click landed
// outside every polygon.
func (g *Globe) HandleClick(f *CountryFeature, lat, lng float64) {
	if f == nil {
		g.ResetView()
		return
	}
	g.FocusCountry(f, lat, lng)
}
