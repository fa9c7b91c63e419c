package intelengine

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// worldRasterScale supersamples the map raster so the focus zoom stays crisp.
const worldRasterScale = 2

// Viewer is the desktop scene driver: an ebiten game that rasterizes the
// world map once per view longitude and composites the live layers (rings,
// points, arcs, panel, widgets) every frame. It implements SceneDriver and
// PanelRenderer.
type Viewer struct {
	Width, Height int
	cfg           Config

	mu       sync.Mutex
	features []*CountryFeature
	hovered  *CountryFeature
	points   []PointMarker
	arcs     []Arc
	rings    []Ring
	ringsAt  time.Time
	handlers InteractionHandlers

	autoRotate bool
	camera     CameraView
	camFrom    CameraView
	camTo      CameraView
	camStart   time.Time
	camDur     time.Duration

	centerLng   float64
	worldImage  *ebiten.Image
	worldLng    float64
	worldDirty  bool
	rasterBusy  bool
	pendingCPU  *image.RGBA
	pendingLng  float64
	havePending bool

	hoverImage *ebiten.Image
	hoverFor   *CountryFeature

	pulseImage *ebiten.Image
	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource

	// Intel panel state, written by the dashboard through PanelRenderer.
	panelOpen            bool
	panelName            string
	panelLat, panelLng   float64
	facts                FactsView
	factsPending         bool
	news                 []NewsItemView
	newsPending          bool
	newsErr              string
	conns                []ConnectionView
	connsPending         bool
	connsMsg             string

	loader        *Loader
	ticker        *Ticker
	search        *SearchBox
	searchFocused bool
	clockText     string
	tickerOffset  float64

	nowPlayingSong   string
	nowPlayingArtist string
}

func NewViewer(cfg Config, width, height int) *Viewer {
	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))
	v := &Viewer{
		Width:      width,
		Height:     height,
		cfg:        cfg,
		camera:     cfg.Globe.InitialView,
		camTo:      cfg.Globe.InitialView,
		fontSource: s,
		monoSource: m,
		clockText:  ZuluTime(time.Now()),
	}
	v.initPulseTexture()
	return v
}

// AttachWidgets hands the viewer the engine widgets it draws and feeds input
// to. Called once during wiring, before the game loop starts.
func (v *Viewer) AttachWidgets(loader *Loader, ticker *Ticker, search *SearchBox) {
	v.loader = loader
	v.ticker = ticker
	v.search = search
}

// SetClockText is the clock sink; safe from any goroutine.
func (v *Viewer) SetClockText(s string) {
	v.mu.Lock()
	v.clockText = s
	v.mu.Unlock()
}

// SetNowPlaying is the soundtrack metadata sink.
func (v *Viewer) SetNowPlaying(song, artist string) {
	v.mu.Lock()
	v.nowPlayingSong = song
	v.nowPlayingArtist = artist
	v.mu.Unlock()
}

// SceneDriver implementation.

func (v *Viewer) SetCountries(features []*CountryFeature) {
	v.mu.Lock()
	v.features = features
	v.worldDirty = true
	v.mu.Unlock()
}

func (v *Viewer) SetHovered(f *CountryFeature) {
	v.mu.Lock()
	v.hovered = f
	v.mu.Unlock()
}

func (v *Viewer) SetPoints(points []PointMarker) {
	v.mu.Lock()
	v.points = append([]PointMarker(nil), points...)
	v.mu.Unlock()
}

func (v *Viewer) SetArcs(arcs []Arc) {
	v.mu.Lock()
	v.arcs = append([]Arc(nil), arcs...)
	v.mu.Unlock()
}

func (v *Viewer) SetRings(rings []Ring) {
	v.mu.Lock()
	v.rings = append([]Ring(nil), rings...)
	v.ringsAt = time.Now()
	v.mu.Unlock()
}

func (v *Viewer) PointOfView(view CameraView, transition time.Duration) {
	v.mu.Lock()
	v.camFrom = v.camera
	v.camTo = view
	v.camStart = time.Now()
	v.camDur = transition
	v.mu.Unlock()
}

func (v *Viewer) SetAutoRotate(enabled bool) {
	v.mu.Lock()
	v.autoRotate = enabled
	v.mu.Unlock()
}

func (v *Viewer) SetHandlers(h InteractionHandlers) {
	v.mu.Lock()
	v.handlers = h
	v.mu.Unlock()
}

// PanelRenderer implementation.

func (v *Viewer) ShowPanel(name string, lat, lng float64) {
	v.mu.Lock()
	v.panelOpen = true
	v.panelName = name
	v.panelLat, v.panelLng = lat, lng
	v.mu.Unlock()
}

func (v *Viewer) ClosePanel() {
	v.mu.Lock()
	v.panelOpen = false
	v.mu.Unlock()
}

func (v *Viewer) SetFactsPending() {
	v.mu.Lock()
	v.factsPending = true
	v.mu.Unlock()
}

func (v *Viewer) SetFacts(f FactsView) {
	v.mu.Lock()
	v.facts = f
	v.factsPending = false
	v.mu.Unlock()
}

func (v *Viewer) SetNewsPending() {
	v.mu.Lock()
	v.newsPending = true
	v.newsErr = ""
	v.news = nil
	v.mu.Unlock()
}

func (v *Viewer) SetNews(items []NewsItemView) {
	v.mu.Lock()
	v.news = items
	v.newsPending = false
	v.newsErr = ""
	v.mu.Unlock()
}

func (v *Viewer) SetNewsError(msg string) {
	v.mu.Lock()
	v.newsErr = msg
	v.newsPending = false
	v.news = nil
	v.mu.Unlock()
}

func (v *Viewer) SetConnectionsPending() {
	v.mu.Lock()
	v.connsPending = true
	v.connsMsg = ""
	v.conns = nil
	v.mu.Unlock()
}

func (v *Viewer) SetConnections(items []ConnectionView) {
	v.mu.Lock()
	v.conns = items
	v.connsPending = false
	v.connsMsg = ""
	v.mu.Unlock()
}

func (v *Viewer) SetConnectionsUnavailable(msg string) {
	v.mu.Lock()
	v.connsMsg = msg
	v.connsPending = false
	v.conns = nil
	v.mu.Unlock()
}

// ebiten.Game implementation.

func (v *Viewer) Layout(w, h int) (int, int) { return v.Width, v.Height }

func (v *Viewer) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	v.mu.Lock()
	if v.autoRotate {
		v.centerLng = normalizeLng(v.centerLng + v.cfg.Globe.AutoRotateSpeed*dt)
	}
	v.stepCameraLocked()
	v.adoptPendingRasterLocked()
	needRaster := v.needRasterLocked()
	v.mu.Unlock()

	if needRaster {
		v.startRaster()
	}
	if v.loader != nil {
		v.loader.Tick()
	}
	v.handleInput()
	v.tickerOffset += 1.5
	return nil
}

// stepCameraLocked eases the camera toward its target.
func (v *Viewer) stepCameraLocked() {
	if v.camDur <= 0 {
		v.camera = v.camTo
		return
	}
	p := float64(time.Since(v.camStart)) / float64(v.camDur)
	if p >= 1 {
		v.camera = v.camTo
		v.camDur = 0
		return
	}
	p = p * p * (3 - 2*p)
	v.camera = CameraView{
		Lat:      v.camFrom.Lat + (v.camTo.Lat-v.camFrom.Lat)*p,
		Lng:      v.camFrom.Lng + (v.camTo.Lng-v.camFrom.Lng)*p,
		Altitude: v.camFrom.Altitude + (v.camTo.Altitude-v.camFrom.Altitude)*p,
	}
}

func (v *Viewer) needRasterLocked() bool {
	if v.features == nil || v.rasterBusy {
		return false
	}
	if v.worldImage == nil || v.worldDirty {
		return true
	}
	return math.Abs(lngDelta(v.centerLng, v.worldLng)) > 2
}

func (v *Viewer) startRaster() {
	v.mu.Lock()
	if v.rasterBusy {
		v.mu.Unlock()
		return
	}
	v.rasterBusy = true
	v.worldDirty = false
	features := v.features
	center := v.centerLng
	v.mu.Unlock()

	go func() {
		img := v.renderWorld(features, center)
		v.mu.Lock()
		v.pendingCPU = img
		v.pendingLng = center
		v.havePending = true
		v.rasterBusy = false
		v.mu.Unlock()
	}()
}

// adoptPendingRasterLocked promotes the last CPU raster to a GPU image on the
// game goroutine, where ebiten image creation belongs.
func (v *Viewer) adoptPendingRasterLocked() {
	if !v.havePending {
		return
	}
	v.worldImage = ebiten.NewImageFromImage(v.pendingCPU)
	v.worldLng = v.pendingLng
	v.pendingCPU = nil
	v.havePending = false
	// The cached hover overlay was rastered against the old longitude.
	v.hoverImage = nil
	v.hoverFor = nil
}

// renderWorld rasterizes every country into a supersampled CPU image.
func (v *Viewer) renderWorld(features []*CountryFeature, centerLng float64) *image.RGBA {
	w, h := v.Width*worldRasterScale, v.Height*worldRasterScale
	pr := projector{w: float64(w), h: float64(h), centerLng: centerLng}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{v.cfg.Globe.BackgroundColor}, image.Point{}, draw.Src)

	land, outline := v.cfg.Globe.LandColor, v.cfg.Globe.OutlineColor
	for _, f := range features {
		forEachPolygon(f, func(poly [][][]float64) {
			fillPolygon(img, pr, poly, land)
			for _, ring := range poly {
				drawRingFast(img, pr, ring, outline)
			}
		})
	}
	return img
}

// renderHover rasterizes a single country in the hover color over a
// transparent background, matching the current world raster's longitude.
func (v *Viewer) renderHover(f *CountryFeature) *ebiten.Image {
	w, h := v.Width*worldRasterScale, v.Height*worldRasterScale
	pr := projector{w: float64(w), h: float64(h), centerLng: v.worldLng}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	forEachPolygon(f, func(poly [][][]float64) {
		fillPolygon(img, pr, poly, v.cfg.Globe.HoverColor)
	})
	return ebiten.NewImageFromImage(img)
}

func forEachPolygon(f *CountryFeature, fn func(poly [][][]float64)) {
	g := f.Geometry
	if g == nil {
		return
	}
	if g.IsPolygon() {
		fn(g.Polygon)
	} else if g.IsMultiPolygon() {
		for _, poly := range g.MultiPolygon {
			fn(poly)
		}
	}
}

// handleInput routes the mouse and keyboard for one tick.
func (v *Viewer) handleInput() {
	v.handleSearchInput()

	mx, my := ebiten.CursorPosition()
	lat, lng, onMap := v.screenToLatLng(float64(mx), float64(my))

	v.mu.Lock()
	handlers := v.handlers
	features := v.features
	v.mu.Unlock()

	var hit *CountryFeature
	if onMap {
		hit = pickCountry(features, lat, lng)
	}
	if handlers.OnHover != nil {
		handlers.OnHover(hit)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if v.inSearchBox(mx, my) {
			v.searchFocused = true
			return
		}
		v.searchFocused = false
		if handlers.OnClick != nil && onMap {
			handlers.OnClick(hit, lat, lng)
		}
	}
}

func (v *Viewer) handleSearchInput() {
	if v.search == nil {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if v.search.Escape() || v.searchFocused {
			v.searchFocused = false
		}
		return
	}
	if !v.searchFocused {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		v.search.MoveDown()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		v.search.MoveUp()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if v.search.Enter() {
			v.searchFocused = false
		}
		return
	}

	q := v.search.Query()
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(q) > 0 {
		runes := []rune(q)
		v.search.SetQuery(string(runes[:len(runes)-1]))
	}
	var chars []rune
	chars = ebiten.AppendInputChars(chars)
	if len(chars) > 0 {
		v.search.SetQuery(v.search.Query() + string(chars))
	}
}

// pickCountry returns the first feature containing the point.
func pickCountry(features []*CountryFeature, lat, lng float64) *CountryFeature {
	for _, f := range features {
		if featureContains(f, lat, lng) {
			return f
		}
	}
	return nil
}

func featureContains(f *CountryFeature, lat, lng float64) bool {
	found := false
	forEachPolygon(f, func(poly [][][]float64) {
		if found || len(poly) == 0 {
			return
		}
		if !ringContains(poly[0], lat, lng) {
			return
		}
		for _, hole := range poly[1:] {
			if ringContains(hole, lat, lng) {
				return
			}
		}
		found = true
	})
	return found
}

// ringContains ray-casts in lng/lat space.
func ringContains(ring [][]float64, lat, lng float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) && lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Camera transform between raster space and screen space.

func (v *Viewer) viewTransformLocked() (scale, offX, offY float64) {
	scale = v.cfg.Globe.InitialView.Altitude / v.camera.Altitude / worldRasterScale
	pr := projector{
		w:         float64(v.Width * worldRasterScale),
		h:         float64(v.Height * worldRasterScale),
		centerLng: v.worldLng,
	}
	cx, cy := pr.project(v.camera.Lat, v.camera.Lng)
	offX = float64(v.Width)/2 - cx*scale
	offY = float64(v.Height)/2 - cy*scale
	return scale, offX, offY
}

// mapToScreenLocked projects lat/lng straight to screen pixels.
func (v *Viewer) mapToScreenLocked(lat, lng float64) (float64, float64) {
	scale, offX, offY := v.viewTransformLocked()
	pr := projector{
		w:         float64(v.Width * worldRasterScale),
		h:         float64(v.Height * worldRasterScale),
		centerLng: v.worldLng,
	}
	x, y := pr.project(lat, lng)
	return x*scale + offX, y*scale + offY
}

// screenToLatLng inverts the view transform and the projection.
func (v *Viewer) screenToLatLng(sx, sy float64) (lat, lng float64, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.worldImage == nil {
		return 0, 0, false
	}
	scale, offX, offY := v.viewTransformLocked()
	pr := projector{
		w:         float64(v.Width * worldRasterScale),
		h:         float64(v.Height * worldRasterScale),
		centerLng: v.worldLng,
	}
	return pr.unproject((sx-offX)/scale, (sy-offY)/scale)
}

// projector is the Mollweide projection for one raster size and center
// longitude.
type projector struct {
	w, h      float64
	centerLng float64
}

func (p projector) radius() float64 {
	return p.w / (2 * math.Sqrt(8)) * 1.2
}

func (p projector) project(lat, lng float64) (x, y float64) {
	latRad := lat * math.Pi / 180
	lngRad := lngDelta(lng, p.centerLng) * math.Pi / 180
	theta := latRad
	for i := 0; i < 10; i++ {
		delta := (2*theta + math.Sin(2*theta) - math.Pi*math.Sin(latRad)) / (2 + 2*math.Cos(2*theta))
		theta -= delta
		if math.Abs(delta) < 1e-7 {
			break
		}
	}
	r := p.radius()
	x = (p.w / 2) + r*(2*math.Sqrt(2)/math.Pi)*lngRad*math.Cos(theta)
	y = (p.h / 2) - r*math.Sqrt(2)*math.Sin(theta)
	return x, y
}

func (p projector) unproject(x, y float64) (lat, lng float64, ok bool) {
	r := p.radius()
	sinTheta := (p.h/2 - y) / (r * math.Sqrt(2))
	if sinTheta < -1 || sinTheta > 1 {
		return 0, 0, false
	}
	theta := math.Asin(sinTheta)
	sinLat := (2*theta + math.Sin(2*theta)) / math.Pi
	if sinLat < -1 || sinLat > 1 {
		return 0, 0, false
	}
	lat = math.Asin(sinLat) * 180 / math.Pi
	cosTheta := math.Cos(theta)
	if cosTheta < 1e-9 {
		return 0, 0, false
	}
	lngRad := (x - p.w/2) / (r * (2 * math.Sqrt(2) / math.Pi) * cosTheta)
	lng = lngRad*180/math.Pi + p.centerLng
	if lng < -180 || lng > 180 {
		lng = normalizeLng(lng)
	}
	if lngRad < -math.Pi || lngRad > math.Pi {
		return 0, 0, false
	}
	return lat, lng, true
}

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

// lngDelta returns the shortest signed difference a-b in degrees.
func lngDelta(a, b float64) float64 {
	return normalizeLng(a - b)
}

// CPU polygon rasterization, scanline fill plus Bresenham outlines.

func fillPolygon(img *image.RGBA, pr projector, rings [][][]float64, c color.RGBA) {
	if len(rings) == 0 {
		return
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	type point struct{ x, y float64 }
	projectedRings := make([][]point, len(rings))
	minY, maxY := float64(h), 0.0
	for i, ring := range rings {
		projectedRings[i] = make([]point, len(ring))
		for j, p := range ring {
			x, y := pr.project(p[1], p[0])
			projectedRings[i][j] = point{x, y}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	for y := int(minY); y <= int(maxY); y++ {
		if y < 0 || y >= h {
			continue
		}
		var nodes []int
		fy := float64(y)
		for _, ring := range projectedRings {
			for i := 0; i < len(ring); i++ {
				j := (i + 1) % len(ring)
				if (ring[i].y < fy && ring[j].y >= fy) || (ring[j].y < fy && ring[i].y >= fy) {
					nodeX := ring[i].x + (fy-ring[i].y)/(ring[j].y-ring[i].y)*(ring[j].x-ring[i].x)
					nodes = append(nodes, int(nodeX))
				}
			}
		}
		sort.Ints(nodes)
		for i := 0; i < len(nodes)-1; i += 2 {
			xs, xe := nodes[i], nodes[i+1]
			if xs < 0 {
				xs = 0
			}
			if xe >= w {
				xe = w - 1
			}
			for x := xs; x < xe; x++ {
				off := y*img.Stride + x*4
				img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, c.A
			}
		}
	}
}

func drawRingFast(img *image.RGBA, pr projector, coords [][]float64, c color.RGBA) {
	for i := 0; i < len(coords)-1; i++ {
		x1, y1 := pr.project(coords[i][1], coords[i][0])
		x2, y2 := pr.project(coords[i+1][1], coords[i+1][0])
		drawLineFast(img, int(x1), int(y1), int(x2), int(y2), c)
	}
}

func drawLineFast(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dx, dy := math.Abs(float64(x2-x1)), math.Abs(float64(y2-y1))
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	for {
		if x1 >= 0 && x1 < w && y1 >= 0 && y1 < h {
			off := y1*img.Stride + x1*4
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, c.A
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (v *Viewer) initPulseTexture() {
	size := 128
	if v.Width > 2000 {
		size = 256
	}
	v.pulseImage = ebiten.NewImage(size, size)
	pixels := make([]byte, size*size*4)
	center, maxDist := float64(size)/2.0, float64(size)/2.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < maxDist {
				val, outer, inner := 0.0, 0.9, 0.8
				if v.Width > 2000 {
					outer, inner = 0.94, 0.88
				}
				if dist > maxDist*outer {
					val = math.Cos(((dist - maxDist*(outer+((1-outer)/2))) / (maxDist * ((1 - outer) / 2))) * (math.Pi / 2))
				} else if dist > maxDist*inner {
					val = math.Sin(((dist - maxDist*inner) / (maxDist * (outer - inner))) * (math.Pi / 2))
				}
				pixels[(y*size+x)*4+3] = uint8(val * 255)
				pixels[(y*size+x)*4+0], pixels[(y*size+x)*4+1], pixels[(y*size+x)*4+2] = 255, 255, 255
			}
		}
	}
	v.pulseImage.WritePixels(pixels)
}
