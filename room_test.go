/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/simonbox/simon"
	"github.com/gorilla/websocket"
)

const testSeed = 5

func fastGame() simon.Config {
	return simon.Config{
		Palette: simon.DefaultPalette(),
		Timings: simon.Timings{
			Interval:     20 * time.Millisecond,
			Flash:        10 * time.Millisecond,
			Acknowledge:  5 * time.Millisecond,
			AdvanceDelay: 20 * time.Millisecond,
			Failure:      10 * time.Millisecond,
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *GameManager) {
	t.Helper()

	cfg := &Config{lang: "en", seed: testSeed}
	errs := make(chan error, 16)

	mux, gm := newRouter(cfg, fastGame(), errs)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, gm
}

func dialRoom(t *testing.T, srv *httptest.Server, room string, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/simon/" + room + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	return conn
}

// readUntil reads messages until match returns true, failing after a timeout.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func isType(typ string) func(map[string]any) bool {
	return func(m map[string]any) bool { return m["type"] == typ }
}

func isStatus(kind string) func(map[string]any) bool {
	return func(m map[string]any) bool { return m["type"] == "status" && m["kind"] == kind }
}

func TestRoomSessionInfo(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialRoom(t, srv, "lobby", nil)

	info := readUntil(t, conn, isType("session_info"))
	if info["game_id"] != "lobby" {
		t.Errorf("game_id = %v", info["game_id"])
	}
	if p, ok := info["palette"].([]any); !ok || len(p) != 4 || p[0] != "red" {
		t.Errorf("palette = %v", info["palette"])
	}
	state := info["state"].(map[string]any)
	if state["phase"] != "idle" || state["started"] != false {
		t.Errorf("state = %v", state)
	}
	timings := info["timings"].(map[string]any)
	if timings["interval_ms"] != float64(20) {
		t.Errorf("timings = %v", timings)
	}

	status := readUntil(t, conn, isType("status"))
	if status["text"] != "Press any key to start" {
		t.Errorf("status = %v", status)
	}

	players := readUntil(t, conn, isType("players"))
	if players["count"] != float64(1) {
		t.Errorf("players = %v", players)
	}
}

func TestRoomFullGame(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialRoom(t, srv, "game", nil)
	readUntil(t, conn, isType("players"))

	palette := simon.DefaultPalette()
	r := simon.NewRand(testSeed)
	first := palette[r.IntN(len(palette))]
	second := palette[r.IntN(len(palette))]

	wrong := palette[0]
	if wrong == second {
		wrong = palette[1]
	}

	if err := conn.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatal(err)
	}

	lvl := readUntil(t, conn, isStatus("level"))
	if lvl["level"] != float64(1) || lvl["text"] != "Level 1" {
		t.Fatalf("status = %v", lvl)
	}

	light := readUntil(t, conn, isType("light"))
	if light["color"] != string(first) || light["kind"] != "playback" || light["on"] != true {
		t.Fatalf("light = %v", light)
	}

	time.Sleep(200 * time.Millisecond)
	if err := conn.WriteJSON(ClientMessage{Type: "click", Color: string(first)}); err != nil {
		t.Fatal(err)
	}

	ack := readUntil(t, conn, func(m map[string]any) bool {
		return m["type"] == "light" && m["kind"] == "acknowledge"
	})
	if ack["color"] != string(first) {
		t.Fatalf("ack = %v", ack)
	}

	lvl = readUntil(t, conn, isStatus("level"))
	if lvl["level"] != float64(2) {
		t.Fatalf("status = %v", lvl)
	}

	time.Sleep(200 * time.Millisecond)
	for _, c := range []simon.Color{first, wrong} {
		if err := conn.WriteJSON(ClientMessage{Type: "click", Color: string(c)}); err != nil {
			t.Fatal(err)
		}
	}

	over := readUntil(t, conn, isStatus("game_over"))
	if over["score"] != float64(1) {
		t.Fatalf("game over = %v", over)
	}
	if !strings.Contains(over["text"].(string), "Your score: 1") {
		t.Errorf("text = %v", over["text"])
	}

	on := readUntil(t, conn, isType("failure"))
	off := readUntil(t, conn, isType("failure"))
	if on["on"] != true || off["on"] != false {
		t.Fatalf("failure = %v then %v", on, off)
	}
}

func TestRoomLocalizedStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialRoom(t, srv, "sprachen", http.Header{"Accept-Language": {"de-DE,de;q=0.9"}})

	info := readUntil(t, conn, isType("session_info"))
	if info["lang"] != "de" {
		t.Errorf("lang = %v", info["lang"])
	}

	if err := conn.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatal(err)
	}

	lvl := readUntil(t, conn, isStatus("level"))
	if lvl["text"] != "Stufe 1" {
		t.Fatalf("status = %v", lvl)
	}
}

func TestRoomSharedBetweenClients(t *testing.T) {
	srv, _ := newTestServer(t)

	a := dialRoom(t, srv, "shared", nil)
	readUntil(t, a, isType("players"))

	b := dialRoom(t, srv, "shared", nil)
	readUntil(t, b, isType("session_info"))

	players := readUntil(t, a, isType("players"))
	if players["count"] != float64(2) {
		t.Fatalf("players = %v", players)
	}

	if err := b.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatal(err)
	}

	readUntil(t, a, isStatus("level"))
}

func TestRoomReap(t *testing.T) {
	srv, gm := newTestServer(t)
	conn := dialRoom(t, srv, "stale", nil)
	readUntil(t, conn, isType("players"))

	reaped := gm.reap(time.Now().Add(time.Hour))
	if len(reaped) != 1 || reaped[0] != "stale" {
		t.Fatalf("reaped = %v", reaped)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
	}

	gm.mu.Lock()
	n := len(gm.hubs)
	gm.mu.Unlock()
	if n != 0 {
		t.Fatalf("%d hubs left", n)
	}
}

func TestNewGameIDs(t *testing.T) {
	gm := newGameManager(0, fastGame())

	seen := map[string]bool{}
	for range 100 {
		id := gm.newGameID()
		if len(id) != 8 {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
