package intelengine

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	panelBG     = color.RGBA{0, 0, 0, 180}
	panelBorder = color.RGBA{36, 42, 53, 255}
	accentColor = color.RGBA{255, 140, 0, 255}
	dimWhite    = color.RGBA{255, 255, 255, 200}
)

func (v *Viewer) Draw(screen *ebiten.Image) {
	v.mu.Lock()
	screen.Fill(v.cfg.Globe.BackgroundColor)

	if v.worldImage != nil {
		scale, offX, offY := v.viewTransformLocked()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(offX, offY)
		screen.DrawImage(v.worldImage, op)

		v.drawHoverLocked(screen, op)
		v.drawArcsLocked(screen)
		v.drawRingsLocked(screen)
		v.drawPointsLocked(screen)
	}

	v.drawPanelLocked(screen)
	v.drawSearchLocked(screen)
	v.drawTickerLocked(screen)
	v.drawClockLocked(screen)
	v.drawNowPlayingLocked(screen)
	v.mu.Unlock()

	v.drawLoader(screen)
}

func (v *Viewer) drawHoverLocked(screen *ebiten.Image, worldOp *ebiten.DrawImageOptions) {
	if v.hovered == nil {
		v.hoverImage = nil
		v.hoverFor = nil
		return
	}
	if v.hoverFor != v.hovered {
		v.hoverImage = v.renderHover(v.hovered)
		v.hoverFor = v.hovered
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM = worldOp.GeoM
	screen.DrawImage(v.hoverImage, op)
}

// pxPerDegreeLocked approximates on-screen pixels per map degree at the
// current zoom, used to size rings and point markers.
func (v *Viewer) pxPerDegreeLocked() float64 {
	scale, _, _ := v.viewTransformLocked()
	return float64(v.Width*worldRasterScale) / 360 * scale
}

func (v *Viewer) drawArcsLocked(screen *ebiten.Image) {
	const segments = 24
	for _, a := range v.arcs {
		c := a.Color
		for i := 0; i < segments; i++ {
			t1 := float64(i) / segments
			t2 := float64(i+1) / segments
			lat1 := a.StartLat + (a.EndLat-a.StartLat)*t1
			lng1 := a.StartLng + lngDelta(a.EndLng, a.StartLng)*t1
			lat2 := a.StartLat + (a.EndLat-a.StartLat)*t2
			lng2 := a.StartLng + lngDelta(a.EndLng, a.StartLng)*t2
			// Lift the midsection so the arc reads as a flight path.
			lat1 += math.Sin(t1*math.Pi) * 6
			lat2 += math.Sin(t2*math.Pi) * 6
			x1, y1 := v.mapToScreenLocked(lat1, lng1)
			x2, y2 := v.mapToScreenLocked(lat2, lng2)
			if math.Abs(x2-x1) > float64(v.Width)/2 {
				continue // antimeridian wrap
			}
			vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), float32(a.Stroke*2), c, true)
		}
	}
}

func (v *Viewer) drawPointsLocked(screen *ebiten.Image) {
	pxPerDeg := v.pxPerDegreeLocked()
	for _, p := range v.points {
		x, y := v.mapToScreenLocked(p.Lat, p.Lng)
		r := p.Radius * pxPerDeg
		if r < 1.5 {
			r = 1.5
		}
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(r), p.Color, true)
	}
}

func (v *Viewer) drawRingsLocked(screen *ebiten.Image) {
	if v.pulseImage == nil || len(v.rings) == 0 {
		return
	}
	pxPerDeg := v.pxPerDegreeLocked()
	elapsed := time.Since(v.ringsAt).Seconds()
	imgW := v.pulseImage.Bounds().Dx()
	halfW := float64(imgW) / 2
	op := &ebiten.DrawImageOptions{}
	op.Blend = ebiten.BlendLighter

	for _, ring := range v.rings {
		if ring.Period <= 0 || ring.Speed <= 0 || ring.MaxRadius <= 0 {
			continue
		}
		x, y := v.mapToScreenLocked(ring.Lat, ring.Lng)
		period := ring.Period.Seconds()
		// Each period spawns a pulse; draw every pulse still inside MaxRadius.
		for age := math.Mod(elapsed, period); age*ring.Speed <= ring.MaxRadius; age += period {
			radiusDeg := age * ring.Speed
			alpha := 1 - radiusDeg/ring.MaxRadius
			if alpha <= 0 {
				continue
			}
			rpx := radiusDeg * pxPerDeg
			if rpx < 1 {
				rpx = 1
			}
			scale := rpx * 2 / float64(imgW)
			op.GeoM.Reset()
			op.GeoM.Translate(-halfW, -halfW)
			op.GeoM.Scale(scale, scale)
			op.GeoM.Translate(x, y)
			r, g, b := float64(ring.Color.R)/255, float64(ring.Color.G)/255, float64(ring.Color.B)/255
			a := alpha * float64(ring.Color.A) / 255
			op.ColorScale.Reset()
			op.ColorScale.Scale(float32(r*a), float32(g*a), float32(b*a), float32(a))
			screen.DrawImage(v.pulseImage, op)
		}
	}
}

// drawBox draws the standard framed overlay box with the accent strip and
// dim title, matching every other HUD element.
func (v *Viewer) drawBox(screen *ebiten.Image, x, y, w, h, fontSize float64, title string) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), panelBG, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, panelBorder, false)
	vector.DrawFilledRect(screen, float32(x), float32(y), 4, float32(fontSize+10), accentColor, false)

	titleFace := &text.GoTextFace{Source: v.fontSource, Size: fontSize * 0.8}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x+15, y+8)
	op.ColorScale.Scale(1, 1, 1, 0.5)
	text.Draw(screen, title, titleFace, op)
}

func (v *Viewer) drawTextLocked(screen *ebiten.Image, s string, face *text.GoTextFace, x, y float64, alpha float32) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(1, 1, 1, alpha)
	text.Draw(screen, s, face, op)
}

func (v *Viewer) drawPanelLocked(screen *ebiten.Image) {
	if !v.panelOpen || v.fontSource == nil {
		return
	}
	fontSize := 18.0
	if v.Width > 2000 {
		fontSize = 36.0
	}
	face := &text.GoTextFace{Source: v.fontSource, Size: fontSize}
	small := &text.GoTextFace{Source: v.fontSource, Size: fontSize * 0.8}
	mono := &text.GoTextFace{Source: v.monoSource, Size: fontSize * 0.8}

	boxW := float64(v.Width) * 0.26
	boxX := float64(v.Width) - boxW - 40
	boxY := 100.0
	boxH := float64(v.Height) - 240
	v.drawBox(screen, boxX, boxY, boxW, boxH, fontSize, "INTEL DOSSIER")

	x := boxX + 20
	y := boxY + fontSize*2.2

	// Header: country name and coordinate readout.
	headerOp := &text.DrawOptions{}
	headerOp.GeoM.Translate(x, y)
	headerOp.ColorScale.ScaleWithColor(accentColor)
	text.Draw(screen, v.panelName, face, headerOp)
	y += fontSize * 1.4
	coords := fmt.Sprintf("%.2f / %.2f", v.panelLat, v.panelLng)
	v.drawTextLocked(screen, coords, mono, x, y, 0.5)
	y += fontSize * 1.8

	// Macro section.
	v.drawTextLocked(screen, "MACRO INDICATORS", small, x, y, 0.5)
	y += fontSize * 1.3
	if v.factsPending {
		v.drawTextLocked(screen, "ACQUIRING...", mono, x, y, 0.4)
		y += fontSize * 1.3
	} else {
		rows := []struct{ label, val string }{
			{"CAPITAL", v.facts.Capital},
			{"POPULATION", v.facts.Population},
			{"CURRENCY", v.facts.Currency},
			{"GDP", v.facts.GDP},
		}
		for _, row := range rows {
			v.drawTextLocked(screen, row.label, small, x, y, 0.45)
			tw, _ := text.Measure(row.val, small, 0)
			v.drawTextLocked(screen, row.val, small, boxX+boxW-tw-20, y, 0.9)
			y += fontSize * 1.2
		}
	}
	y += fontSize * 0.8

	// Connections section with relative volume bars.
	v.drawTextLocked(screen, "TRADE LINKS", small, x, y, 0.5)
	y += fontSize * 1.3
	switch {
	case v.connsPending:
		v.drawTextLocked(screen, "ACQUIRING...", mono, x, y, 0.4)
		y += fontSize * 1.3
	case v.connsMsg != "":
		v.drawTextLocked(screen, v.connsMsg, mono, x, y, 0.5)
		y += fontSize * 1.3
	default:
		barMax := boxW - 40
		for _, cv := range v.conns {
			label := fmt.Sprintf("%s  $%.1fB", cv.Name, cv.Volume)
			v.drawTextLocked(screen, label, small, x, y, 0.85)
			y += fontSize * 1.05
			barW := barMax * float64(cv.PercentOfMax) / 100
			vector.DrawFilledRect(screen, float32(x), float32(y), float32(barW), 3, v.cfg.Connections.ArcColor, false)
			y += fontSize * 0.7
		}
	}
	y += fontSize * 0.8

	// News section.
	v.drawTextLocked(screen, "SIGNALS", small, x, y, 0.5)
	y += fontSize * 1.3
	switch {
	case v.newsPending:
		v.drawTextLocked(screen, "ACQUIRING...", mono, x, y, 0.4)
	case v.newsErr != "":
		v.drawTextLocked(screen, v.newsErr, mono, x, y, 0.5)
	default:
		for _, item := range v.news {
			if y > boxY+boxH-fontSize*2 {
				break
			}
			title := truncate(item.Title, 52)
			v.drawTextLocked(screen, title, small, x, y, 0.85)
			y += fontSize * 1.0
			v.drawTextLocked(screen, truncate(item.Source, 40), mono, x, y, 0.4)
			y += fontSize * 1.3
		}
	}
}

func (v *Viewer) drawSearchLocked(screen *ebiten.Image) {
	if v.search == nil || v.fontSource == nil {
		return
	}
	fontSize := 18.0
	if v.Width > 2000 {
		fontSize = 36.0
	}
	face := &text.GoTextFace{Source: v.fontSource, Size: fontSize}

	x, y, w, h := v.searchBounds()
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), panelBG, false)
	border := panelBorder
	if v.searchFocused {
		border = accentColor
	}
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, border, false)

	q := v.search.Query()
	if q == "" && !v.searchFocused {
		v.drawTextLocked(screen, "SEARCH TARGET...", face, x+12, y+h/2-fontSize/2, 0.35)
	} else {
		display := q
		if v.searchFocused && (time.Now().UnixMilli()/500)%2 == 0 {
			display += "_"
		}
		v.drawTextLocked(screen, display, face, x+12, y+h/2-fontSize/2, 0.9)
	}

	results := v.search.Results()
	if !v.search.IsOpen() || len(results) == 0 {
		return
	}
	rowH := fontSize * 1.6
	dropY := y + h + 4
	vector.DrawFilledRect(screen, float32(x), float32(dropY), float32(w), float32(rowH*float64(len(results))), panelBG, false)
	vector.StrokeRect(screen, float32(x), float32(dropY), float32(w), float32(rowH*float64(len(results))), 1, panelBorder, false)
	for i, res := range results {
		ry := dropY + float64(i)*rowH
		if i == v.search.ActiveIndex() {
			vector.DrawFilledRect(screen, float32(x), float32(ry), float32(w), float32(rowH), color.RGBA{255, 140, 0, 50}, false)
		}
		label := res.Feature.DisplayName()
		if iso := res.Feature.ISO(); iso != "" {
			label += "  [" + iso + "]"
		}
		v.drawTextLocked(screen, label, face, x+12, ry+rowH/2-fontSize/2, 0.85)
	}
}

func (v *Viewer) searchBounds() (x, y, w, h float64) {
	fontSize := 18.0
	if v.Width > 2000 {
		fontSize = 36.0
	}
	return 40, 40, float64(v.Width) * 0.2, fontSize * 2.2
}

func (v *Viewer) inSearchBox(mx, my int) bool {
	x, y, w, h := v.searchBounds()
	fx, fy := float64(mx), float64(my)
	return fx >= x && fx <= x+w && fy >= y && fy <= y+h
}

func (v *Viewer) drawTickerLocked(screen *ebiten.Image) {
	if v.ticker == nil || v.monoSource == nil {
		return
	}
	fontSize := 16.0
	if v.Width > 2000 {
		fontSize = 32.0
	}
	face := &text.GoTextFace{Source: v.monoSource, Size: fontSize}
	barH := fontSize * 2
	barY := float64(v.Height) - barH
	vector.DrawFilledRect(screen, 0, float32(barY), float32(v.Width), float32(barH), panelBG, false)
	vector.StrokeRect(screen, 0, float32(barY), float32(v.Width), 1, 1, panelBorder, false)

	msg := v.ticker.Text()
	tw, _ := text.Measure(msg, face, 0)
	loopW := tw + 120
	offset := math.Mod(v.tickerOffset, loopW)
	for _, baseX := range []float64{-offset, loopW - offset} {
		op := &text.DrawOptions{}
		op.GeoM.Translate(baseX, barY+barH/2-fontSize/2)
		op.ColorScale.ScaleWithColor(dimWhite)
		text.Draw(screen, msg, face, op)
	}
}

func (v *Viewer) drawClockLocked(screen *ebiten.Image) {
	if v.monoSource == nil {
		return
	}
	fontSize := 22.0
	if v.Width > 2000 {
		fontSize = 44.0
	}
	face := &text.GoTextFace{Source: v.monoSource, Size: fontSize}
	tw, _ := text.Measure(v.clockText, face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(v.Width)-tw-40, 40)
	op.ColorScale.ScaleWithColor(accentColor)
	text.Draw(screen, v.clockText, face, op)
}

func (v *Viewer) drawNowPlayingLocked(screen *ebiten.Image) {
	if v.nowPlayingSong == "" || v.fontSource == nil {
		return
	}
	fontSize := 16.0
	if v.Width > 2000 {
		fontSize = 32.0
	}
	face := &text.GoTextFace{Source: v.fontSource, Size: fontSize}
	boxW, boxH := 300.0, fontSize*4.2
	x := 40.0
	y := float64(v.Height) - boxH - fontSize*2.5 - 20
	v.drawBox(screen, x, y, boxW, boxH, fontSize, "NOW PLAYING")
	v.drawTextLocked(screen, truncate(v.nowPlayingSong, 28), face, x+15, y+fontSize*1.8, 0.8)
	if v.nowPlayingArtist != "" {
		small := &text.GoTextFace{Source: v.fontSource, Size: fontSize * 0.75}
		v.drawTextLocked(screen, truncate(v.nowPlayingArtist, 32), small, x+15, y+fontSize*3.0, 0.5)
	}
}

func (v *Viewer) drawLoader(screen *ebiten.Image) {
	if v.loader == nil || !v.loader.Visible() {
		return
	}
	vector.DrawFilledRect(screen, 0, 0, float32(v.Width), float32(v.Height), color.RGBA{5, 5, 5, 230}, false)
	if v.monoSource == nil {
		return
	}
	fontSize := 24.0
	if v.Width > 2000 {
		fontSize = 48.0
	}
	face := &text.GoTextFace{Source: v.monoSource, Size: fontSize}

	msg := "ESTABLISHING UPLINK"
	dots := int(time.Now().UnixMilli()/400) % 4
	for i := 0; i < dots; i++ {
		msg += "."
	}
	if errMsg := v.loader.Error(); errMsg != "" {
		msg = errMsg
	}
	tw, _ := text.Measure(msg, face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(v.Width)/2-tw/2, float64(v.Height)/2-fontSize/2)
	op.ColorScale.ScaleWithColor(accentColor)
	text.Draw(screen, msg, face, op)
}

// truncate limits s to max runes, never cutting a multi-byte character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
