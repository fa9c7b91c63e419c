package intelengine

import (
	"context"
	"errors"
	"testing"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// sceneRecorder captures every driver call so globe tests can assert on the
// scene state without a renderer.
type sceneRecorder struct {
	countries  []*CountryFeature
	hovered    *CountryFeature
	rings      []Ring
	views      []CameraView
	durations  []time.Duration
	autoRotate []bool
	handlers   InteractionHandlers
}

func (s *sceneRecorder) SetCountries(features []*CountryFeature) { s.countries = features }
func (s *sceneRecorder) SetHovered(f *CountryFeature)            { s.hovered = f }
func (s *sceneRecorder) SetPoints(points []PointMarker)          {}
func (s *sceneRecorder) SetArcs(arcs []Arc)                      {}
func (s *sceneRecorder) SetRings(rings []Ring)                   { s.rings = rings }

func (s *sceneRecorder) PointOfView(view CameraView, transition time.Duration) {
	s.views = append(s.views, view)
	s.durations = append(s.durations, transition)
}

func (s *sceneRecorder) SetAutoRotate(enabled bool)         { s.autoRotate = append(s.autoRotate, enabled) }
func (s *sceneRecorder) SetHandlers(h InteractionHandlers)  { s.handlers = h }

func polygonDataset() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(geojson.NewPolygonGeometry([][][]float64{square(10, 20, 2)}))
	f.Properties = map[string]interface{}{
		"ADMIN": "Testland", "NAME": "Testland", "NAME_LONG": "Republic of Testland",
		"ISO_A2": "TL", "ISO_A3": "TLD",
		"LABEL_X": 11.0, "LABEL_Y": 21.0,
	}
	fc.AddFeature(f)
	return fc
}

func newTestGlobe() (*Globe, *sceneRecorder, *Loader) {
	cfg := DefaultConfig()
	driver := &sceneRecorder{}
	loader := NewLoader(cfg.Loader, nil)
	return NewGlobe(cfg.Globe, cfg.Animations, driver, loader), driver, loader
}

func TestInitializeLoadsCountries(t *testing.T) {
	g, driver, loader := newTestGlobe()

	notified := 0
	g.OnCountriesReady(func(features []*CountryFeature) { notified = len(features) })

	fetch := func(ctx context.Context) (*geojson.FeatureCollection, error) {
		return polygonDataset(), nil
	}
	if err := g.Initialize(context.Background(), fetch); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if len(driver.countries) != 1 || driver.countries[0].Admin != "Testland" {
		t.Errorf("driver countries = %+v", driver.countries)
	}
	if notified != 1 {
		t.Errorf("observer saw %d features, want 1", notified)
	}
	if loader.Visible() {
		t.Error("loader still visible after a successful load")
	}
	if c, ok := g.CountryCoords("TL"); !ok || c.Lat < 20 || c.Lat > 22 {
		t.Errorf("CountryCoords(TL) = %+v, %v", c, ok)
	}

	// A late observer fires immediately once the features are ready.
	late := 0
	g.OnCountriesReady(func(features []*CountryFeature) { late = len(features) })
	if late != 1 {
		t.Errorf("late observer saw %d features, want immediate delivery", late)
	}
}

func TestInitializeFailureSurfacesOnLoader(t *testing.T) {
	g, driver, loader := newTestGlobe()

	fetch := func(ctx context.Context) (*geojson.FeatureCollection, error) {
		return nil, errors.New("fetch failed")
	}
	if err := g.Initialize(context.Background(), fetch); err == nil {
		t.Fatal("Initialize should propagate the fetch error")
	}
	if got := loader.Error(); got == "" {
		t.Error("loader should show an error message after a failed load")
	}
	if driver.countries != nil {
		t.Error("no countries should reach the driver on failure")
	}
}

func TestFocusCountryMovesCameraAndNotifies(t *testing.T) {
	g, driver, _ := newTestGlobe()

	var focused *CountryFeature
	g.OnFocus = func(f *CountryFeature) { focused = f }

	f := &CountryFeature{Admin: "Testland", ISOA2: "TL"}
	g.FocusCountry(f, 21, 11)

	if focused != f {
		t.Error("focus handler did not receive the feature")
	}
	if len(driver.autoRotate) == 0 || driver.autoRotate[len(driver.autoRotate)-1] {
		t.Error("auto-rotation still enabled during focus")
	}
	last := driver.views[len(driver.views)-1]
	if last.Lat != 21 || last.Lng != 11 {
		t.Errorf("camera flew to %+v, want the focus point", last)
	}
	if last.Altitude != g.cfg.FocusAltitude {
		t.Errorf("focus altitude = %v, want %v", last.Altitude, g.cfg.FocusAltitude)
	}
	if got := driver.durations[len(driver.durations)-1]; got != g.anim.FocusDuration {
		t.Errorf("focus transition = %v, want %v", got, g.anim.FocusDuration)
	}
}

func TestResetViewRunsHooksAndRestoresCamera(t *testing.T) {
	g, driver, _ := newTestGlobe()

	ran := 0
	g.AddResetHook(func() { ran++ })
	g.AddResetHook(func() { ran++ })

	g.ResetView()

	if ran != 2 {
		t.Errorf("ran %d reset hooks, want 2", ran)
	}
	if len(driver.autoRotate) == 0 || !driver.autoRotate[len(driver.autoRotate)-1] {
		t.Error("auto-rotation not re-enabled by reset")
	}
	last := driver.views[len(driver.views)-1]
	if last != g.cfg.InitialView {
		t.Errorf("camera reset to %+v, want the initial view", last)
	}
}

func TestHandleClickRoutesByFeature(t *testing.T) {
	g, driver, _ := newTestGlobe()

	var focused *CountryFeature
	g.OnFocus = func(f *CountryFeature) { focused = f }
	hooks := 0
	g.AddResetHook(func() { hooks++ })

	f := &CountryFeature{Admin: "Testland"}
	g.HandleClick(f, 21, 11)
	if focused != f {
		t.Error("click on a polygon must focus it")
	}

	g.HandleClick(nil, 0, 0)
	if hooks != 1 {
		t.Error("click outside every polygon must reset the view")
	}

	g.HandleHover(f)
	if driver.hovered != f {
		t.Error("hover did not reach the driver")
	}
	g.HandleHover(nil)
	if driver.hovered != nil {
		t.Error("nil hover did not clear the driver")
	}
}
