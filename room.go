/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Simon rooms
//
// Every room ID gets its own engine. All browsers connected to a room see the
// same board, and any of them may start a game or press a color.
//
// Routes:
// - $path                 → redirect to a new room
// - $path/:gameid         → HTML client
// - $path/:gameid/ws      → WebSocket for that room
// - $path/:gameid/qr      → PNG QR code for the room URL
//
// Each hub runs one goroutine that owns the engine. Client messages and the
// engine's timers are both delivered to that goroutine, so the engine never
// sees two callers at once.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/simonbox/simon"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages coming from clients
type ClientMessage struct {
	Type  string `json:"type"`            // "start", "click"
	Color string `json:"color,omitempty"` // click
}

// SessionInfoMessage is sent immediately on connect so the client can build
// the board and catch up with a game already in progress.
type SessionInfoMessage struct {
	Type    string         `json:"type"` // "session_info"
	GameID  string         `json:"game_id"`
	Lang    string         `json:"lang"`
	Palette []string       `json:"palette"`
	Timings TimingsMessage `json:"timings"`
	State   StateMessage   `json:"state"`
}

type TimingsMessage struct {
	IntervalMS     int64 `json:"interval_ms"`
	FlashMS        int64 `json:"flash_ms"`
	AcknowledgeMS  int64 `json:"acknowledge_ms"`
	AdvanceDelayMS int64 `json:"advance_delay_ms"`
	FailureMS      int64 `json:"failure_ms"`
}

type StateMessage struct {
	Phase     string `json:"phase"`
	Level     int    `json:"level"`
	Started   bool   `json:"started"`
	Accepting bool   `json:"accepting"`
	LastScore int    `json:"last_score"`
	Games     int    `json:"games"`
}

// StatusMessage carries the status line, already localized for the client.
type StatusMessage struct {
	Type  string `json:"type"` // "status"
	Kind  string `json:"kind"` // "idle", "level", "game_over"
	Level int    `json:"level"`
	Score int    `json:"score"`
	Text  string `json:"text"`
}

// LightMessage turns one color's highlight on or off.
type LightMessage struct {
	Type  string `json:"type"`  // "light"
	Color string `json:"color"` // palette color
	Kind  string `json:"kind"`  // "playback" or "acknowledge"
	On    bool   `json:"on"`
}

// FailureMessage toggles the page-wide failure indicator.
type FailureMessage struct {
	Type string `json:"type"` // "failure"
	On   bool   `json:"on"`
}

// PlayersMessage reports how many browsers are watching the room.
type PlayersMessage struct {
	Type  string `json:"type"` // "players"
	Count int    `json:"count"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	lang     language.Tag
	printer  *message.Printer
}

type action struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	actions  chan action
	done     chan struct{}
	stop     sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	loop   *simon.Loop
	engine *simon.Engine
	status simon.Status
}

func newHub(cfg *Config, gameID string, gc simon.Config) (*Hub, error) {
	now := time.Now()

	h := &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan action),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		loop:       simon.NewLoop(),
		status:     simon.Status{Kind: simon.StatusIdle},
	}

	gc.Rand = simon.NewRand(cfg.seed)

	engine, err := simon.New(gc, &hubPresenter{cfg: cfg, hub: h}, h.loop)
	if err != nil {
		return nil, err
	}
	h.engine = engine

	return h, nil
}

func (h *Hub) run(cfg *Config) {
	defer h.loop.Stop()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			h.sendLocked(c, h.sessionInfoLocked(c))
			h.sendLocked(c, h.statusMessage(c, h.status))
			h.broadcastPlayersLocked()
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.broadcastPlayersLocked()
			h.mu.Unlock()

		case a := <-h.actions:
			h.handleAction(cfg, a)

		case <-h.loop.C():
			h.mu.Lock()
			h.loop.RunDue()
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleAction(cfg *Config, a action) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch a.msg.Type {
	case "start":
		if h.engine.Start() {
			logf(cfg, "GAMES: Started game %d in room %s", h.engine.Games(), h.id)
		}
	case "click":
		h.engine.Click(simon.Color(strings.ToLower(a.msg.Color)))
	}
}

func (h *Hub) sessionInfoLocked(c *Client) SessionInfoMessage {
	t := h.engine.Timings()
	s := h.engine.Snapshot()

	return SessionInfoMessage{
		Type:    "session_info",
		GameID:  h.id,
		Lang:    c.lang.String(),
		Palette: h.engine.Palette().Strings(),
		Timings: TimingsMessage{
			IntervalMS:     t.Interval.Milliseconds(),
			FlashMS:        t.Flash.Milliseconds(),
			AcknowledgeMS:  t.Acknowledge.Milliseconds(),
			AdvanceDelayMS: t.AdvanceDelay.Milliseconds(),
			FailureMS:      t.Failure.Milliseconds(),
		},
		State: StateMessage{
			Phase:     s.Phase.String(),
			Level:     s.Level,
			Started:   s.Started,
			Accepting: s.AcceptingInput,
			LastScore: s.LastScore,
			Games:     h.engine.Games(),
		},
	}
}

func (h *Hub) statusMessage(c *Client, s simon.Status) StatusMessage {
	return StatusMessage{
		Type:  "status",
		Kind:  s.Kind.String(),
		Level: s.Level,
		Score: s.Score,
		Text:  statusText(c.printer, s),
	}
}

// sendLocked queues msg for c, dropping the client if it has fallen behind.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) broadcastPlayersLocked() {
	h.broadcastLocked(PlayersMessage{
		Type:  "players",
		Count: len(h.clients),
	})
}

// closeAll stops the hub and disconnects all of its clients (used by reaper).
func (h *Hub) closeAll() {
	h.stop.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// hubPresenter renders engine output to every client of a hub. The engine
// only calls it from the hub goroutine with h.mu held.
type hubPresenter struct {
	cfg *Config
	hub *Hub
}

func (p *hubPresenter) DisplayStatus(s simon.Status) {
	h := p.hub
	h.status = s

	if s.Kind == simon.StatusGameOver {
		logf(p.cfg, "GAMES: Game over in room %s at level %d, score %d", h.id, s.Level, s.Score)
	}

	for c := range h.clients {
		h.sendLocked(c, h.statusMessage(c, s))
	}
}

func (p *hubPresenter) Light(c simon.Color, kind simon.FlashKind, on bool) {
	p.hub.broadcastLocked(LightMessage{
		Type:  "light",
		Color: string(c),
		Kind:  kind.String(),
		On:    on,
	})
}

func (p *hubPresenter) FailureIndicator(on bool) {
	p.hub.broadcastLocked(FailureMessage{
		Type: "failure",
		On:   on,
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "simonbox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated room.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	game        simon.Config
}

func newGameManager(idleTimeout time.Duration, gc simon.Config) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		game:        gc,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) (*Hub, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	hub, err := newHub(cfg, gameID, gm.game)
	if err != nil {
		return nil, err
	}
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	logf(cfg, "GAMES: Opened room %s", gameID)

	return hub, nil
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs idle since before now-idleTimeout and returns their IDs.
func (gm *GameManager) reap(now time.Time) []string {
	cutoff := now.Add(-gm.idleTimeout)

	var reaped []string

	gm.mu.Lock()
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			reaped = append(reaped, id)
			go hub.closeAll()
		}
	}
	gm.mu.Unlock()

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for now := range ticker.C {
		gm.reap(now)
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub, err := gm.getHub(cfg, gameID)
		if err != nil {
			http.Error(w, "unable to open game", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		tag := matchLanguage(cfg.lang, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))

		client := &Client{
			conn:     conn,
			send:     make(chan any, 64),
			playerID: playerID,
			lang:     tag,
			printer:  newPrinter(tag),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "SERVE: Player %s joined room %s from %s", playerID, gameID, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start", "click":
			select {
			case h.actions <- action{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		data, err := assets.ReadFile("assets/simon/index.html")
		if err != nil {
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		written, _ := w.Write(data)

		logf(cfg, "SERVE: Game page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

func registerSimonGame(cfg *Config, path string, gc simon.Config, mux *httprouter.Router) *GameManager {
	gm := newGameManager(cfg.sessionTimeout, gc)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
