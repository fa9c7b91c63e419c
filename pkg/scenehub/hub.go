// Package scenehub broadcasts the engine's scene and panel state to WebSocket
// clients. It implements the same driver contracts as the desktop viewer, so
// the engine cannot tell a browser audience from a local window.
package scenehub

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudorandom/intel-globe/pkg/intelengine"
	"github.com/sudorandom/intel-globe/pkg/sources"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The hub serves a public art project; any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is one broadcast frame. Type doubles as the replay topic: a joining
// client immediately receives the last message of every topic, so it can
// reconstruct the scene without waiting for the next update.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans scene updates out to every connected client and routes their
// interaction commands back into the engine.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]bool
	last     map[string][]byte
	order    []string
	byISO    map[string]*intelengine.CountryFeature
	handlers intelengine.InteractionHandlers
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		last:    make(map[string][]byte),
		byISO:   make(map[string]*intelengine.CountryFeature),
	}
}

func (h *Hub) broadcast(msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		log.Printf("[hub] encoding %s: %v", msgType, err)
		return
	}
	h.mu.Lock()
	if _, seen := h.last[msgType]; !seen {
		h.order = append(h.order, msgType)
	}
	h.last[msgType] = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop it rather than stall the scene.
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// ServeWS upgrades an HTTP request and joins the client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[hub] upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[c] = true
	replay := make([][]byte, 0, len(h.order))
	for _, topic := range h.order {
		replay = append(replay, h.last[topic])
	}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[hub] client joined (%d connected)", count)

	for _, payload := range replay {
		c.send <- payload
	}
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		if h.clients[c] {
			delete(h.clients, c)
			close(c.send)
		}
		count := len(h.clients)
		h.mu.Unlock()
		c.conn.Close()
		log.Printf("[hub] client left (%d connected)", count)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleCommand(payload)
	}
}

// handleCommand routes a client interaction into the engine, exactly as a
// local click would.
func (h *Hub) handleCommand(payload []byte) {
	var cmd struct {
		Type string `json:"type"`
		ISO  string `json:"iso"`
	}
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return
	}
	h.mu.Lock()
	handlers := h.handlers
	f := h.byISO[cmd.ISO]
	h.mu.Unlock()
	if handlers.OnClick == nil {
		return
	}
	switch cmd.Type {
	case "click":
		if f != nil {
			handlers.OnClick(f, f.LabelLat, f.LabelLng)
		}
	case "reset":
		handlers.OnClick(nil, 0, 0)
	}
}

// Wire views. Colors travel as CSS hex so browser clients can use them
// directly.

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

type countryWire struct {
	ISO      string  `json:"iso"`
	Name     string  `json:"name"`
	LabelLat float64 `json:"labelLat"`
	LabelLng float64 `json:"labelLng"`
}

type pointWire struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Label  string  `json:"label"`
}

type arcWire struct {
	StartLat float64 `json:"startLat"`
	StartLng float64 `json:"startLng"`
	EndLat   float64 `json:"endLat"`
	EndLng   float64 `json:"endLng"`
	Color    string  `json:"color"`
	Stroke   float64 `json:"stroke"`
	Partner  string  `json:"partner"`
	Volume   float64 `json:"volume"`
}

type ringWire struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	MaxRadius float64 `json:"maxRadius"`
	Speed     float64 `json:"speed"`
	PeriodMS  int64   `json:"periodMs"`
	Color     string  `json:"color"`
}

// SceneDriver implementation.

// SetCountries broadcasts a compact country list. Clients pull the polygon
// dataset themselves from its public URL; shipping raw geometry through the
// hub would dwarf every other topic combined.
func (h *Hub) SetCountries(features []*intelengine.CountryFeature) {
	wire := make([]countryWire, 0, len(features))
	h.mu.Lock()
	for _, f := range features {
		if iso := f.ISO(); iso != "" {
			h.byISO[iso] = f
		}
		wire = append(wire, countryWire{
			ISO:      f.ISO(),
			Name:     f.DisplayName(),
			LabelLat: f.LabelLat,
			LabelLng: f.LabelLng,
		})
	}
	h.mu.Unlock()
	h.broadcast("countries", map[string]interface{}{
		"polygonsUrl": sources.CountryPolygonsURL,
		"countries":   wire,
	})
}

// SetHovered is a no-op: hover is a per-client affair and the hub has many
// clients.
func (h *Hub) SetHovered(*intelengine.CountryFeature) {}

func (h *Hub) SetPoints(points []intelengine.PointMarker) {
	wire := make([]pointWire, 0, len(points))
	for _, p := range points {
		wire = append(wire, pointWire{p.Lat, p.Lng, p.Radius, hexColor(p.Color), p.Label})
	}
	h.broadcast("points", wire)
}

func (h *Hub) SetArcs(arcs []intelengine.Arc) {
	wire := make([]arcWire, 0, len(arcs))
	for _, a := range arcs {
		wire = append(wire, arcWire{
			StartLat: a.StartLat, StartLng: a.StartLng,
			EndLat: a.EndLat, EndLng: a.EndLng,
			Color: hexColor(a.Color), Stroke: a.Stroke,
			Partner: a.PartnerName, Volume: a.Volume,
		})
	}
	h.broadcast("arcs", wire)
}

func (h *Hub) SetRings(rings []intelengine.Ring) {
	wire := make([]ringWire, 0, len(rings))
	for _, r := range rings {
		wire = append(wire, ringWire{
			Lat: r.Lat, Lng: r.Lng,
			MaxRadius: r.MaxRadius, Speed: r.Speed,
			PeriodMS: r.Period.Milliseconds(),
			Color:    hexColor(r.Color),
		})
	}
	h.broadcast("rings", wire)
}

func (h *Hub) PointOfView(view intelengine.CameraView, transition time.Duration) {
	h.broadcast("camera", map[string]interface{}{
		"lat":          view.Lat,
		"lng":          view.Lng,
		"altitude":     view.Altitude,
		"transitionMs": transition.Milliseconds(),
	})
}

func (h *Hub) SetAutoRotate(enabled bool) {
	h.broadcast("autorotate", enabled)
}

func (h *Hub) SetHandlers(handlers intelengine.InteractionHandlers) {
	h.mu.Lock()
	h.handlers = handlers
	h.mu.Unlock()
}

// PanelRenderer implementation.

func (h *Hub) ShowPanel(name string, lat, lng float64) {
	h.broadcast("panel", map[string]interface{}{
		"open": true,
		"name": name,
		"lat":  lat,
		"lng":  lng,
	})
}

func (h *Hub) ClosePanel() {
	h.broadcast("panel", map[string]interface{}{"open": false})
}

func (h *Hub) SetFactsPending() {
	h.broadcast("facts", map[string]interface{}{"pending": true})
}

func (h *Hub) SetFacts(v intelengine.FactsView) {
	h.broadcast("facts", map[string]interface{}{
		"capital":    v.Capital,
		"population": v.Population,
		"currency":   v.Currency,
		"gdp":        v.GDP,
	})
}

func (h *Hub) SetNewsPending() {
	h.broadcast("news", map[string]interface{}{"pending": true})
}

func (h *Hub) SetNews(items []intelengine.NewsItemView) {
	h.broadcast("news", map[string]interface{}{"items": items})
}

func (h *Hub) SetNewsError(msg string) {
	h.broadcast("news", map[string]interface{}{"error": msg})
}

func (h *Hub) SetConnectionsPending() {
	h.broadcast("connections", map[string]interface{}{"pending": true})
}

func (h *Hub) SetConnections(items []intelengine.ConnectionView) {
	h.broadcast("connections", map[string]interface{}{"items": items})
}

func (h *Hub) SetConnectionsUnavailable(msg string) {
	h.broadcast("connections", map[string]interface{}{"unavailable": msg})
}
