/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package simon

import "fmt"

// FlashKind tells presenters which of the two highlight styles to use.
type FlashKind int

const (
	// FlashPlayback is used while the engine replays the target sequence.
	FlashPlayback FlashKind = iota
	// FlashAcknowledge is the brief echo of a player's click.
	FlashAcknowledge
)

func (k FlashKind) String() string {
	switch k {
	case FlashPlayback:
		return "playback"
	case FlashAcknowledge:
		return "acknowledge"
	default:
		return fmt.Sprintf("FlashKind(%d)", int(k))
	}
}

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLevel
	StatusGameOver
)

func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLevel:
		return "level"
	case StatusGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is the text line shown to the player.
type Status struct {
	Kind  StatusKind
	Level int
	Score int
}

func (s Status) String() string {
	switch s.Kind {
	case StatusLevel:
		return fmt.Sprintf("Level %d", s.Level)
	case StatusGameOver:
		return fmt.Sprintf("Game Over! Your score: %d. Press any key to start again", s.Score)
	default:
		return "Press any key to start"
	}
}

// Presenter is the rendering side of a game.
//
// Implementations must treat a color they have no control for as a no-op.
// Turning the failure indicator off restores whatever was shown before it.
type Presenter interface {
	DisplayStatus(s Status)
	Light(c Color, kind FlashKind, on bool)
	FailureIndicator(on bool)
}

// Presenters fans every call out to each member in order.
type Presenters []Presenter

func (ps Presenters) DisplayStatus(s Status) {
	for _, p := range ps {
		p.DisplayStatus(s)
	}
}

func (ps Presenters) Light(c Color, kind FlashKind, on bool) {
	for _, p := range ps {
		p.Light(c, kind, on)
	}
}

func (ps Presenters) FailureIndicator(on bool) {
	for _, p := range ps {
		p.FailureIndicator(on)
	}
}
