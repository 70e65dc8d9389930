/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package simon implements the Simon Says game loop: a growing sequence of
// colors is played back, and the player has to repeat it.
//
// An Engine is not safe for concurrent use. Start, Click and every callback
// handed to the Scheduler must run on the same goroutine; Loop arranges that
// for real time and Manual for tests.
package simon

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// Timings holds every delay the game uses.
type Timings struct {
	// Interval separates the starts of two consecutive playback flashes.
	Interval time.Duration
	// Flash is how long each playback flash stays lit.
	Flash time.Duration
	// Acknowledge is how long a clicked control stays lit.
	Acknowledge time.Duration
	// AdvanceDelay is the pause between a completed round and the next one.
	AdvanceDelay time.Duration
	// Failure is how long the failure indicator stays on after a game over.
	Failure time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Interval:     600 * time.Millisecond,
		Flash:        300 * time.Millisecond,
		Acknowledge:  160 * time.Millisecond,
		AdvanceDelay: 700 * time.Millisecond,
		Failure:      200 * time.Millisecond,
	}
}

var ErrTimings = errors.New("invalid timings")

func (t Timings) Validate() error {
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"interval", t.Interval},
		{"flash", t.Flash},
		{"acknowledge", t.Acknowledge},
		{"advance delay", t.AdvanceDelay},
		{"failure", t.Failure},
	} {
		if d.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrTimings, d.name, d.v)
		}
	}

	return nil
}

// Rand is the source of color draws. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a PCG source for seed, or a randomly seeded one for seed 0.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type Config struct {
	Palette Palette
	Timings Timings
	Rand    Rand
}

func (c *Config) withDefaults() {
	if c.Palette == nil {
		c.Palette = DefaultPalette()
	}
	if c.Timings == (Timings{}) {
		c.Timings = DefaultTimings()
	}
	if c.Rand == nil {
		c.Rand = NewRand(0)
	}
}

// Phase is the externally visible state of an Engine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlayback
	PhaseInput
	PhaseAdvancing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlayback:
		return "playback"
	case PhaseInput:
		return "input"
	case PhaseAdvancing:
		return "advancing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

type Engine struct {
	palette   Palette
	timings   Timings
	rand      Rand
	presenter Presenter
	scheduler Scheduler

	target []Color
	input  []Color
	level  int

	started        bool
	acceptingInput bool

	// session changes on every start and game over; game callbacks from an
	// older session do nothing.
	session   uint64
	lastScore int
	games     int
}

// New returns an idle engine. Zero fields of cfg take their defaults.
func New(cfg Config, p Presenter, s Scheduler) (*Engine, error) {
	cfg.withDefaults()

	if err := cfg.Palette.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Timings.Validate(); err != nil {
		return nil, err
	}
	if p == nil || s == nil {
		return nil, errors.New("simon: presenter and scheduler are required")
	}

	return &Engine{
		palette:   slices.Clone(cfg.Palette),
		timings:   cfg.Timings,
		rand:      cfg.Rand,
		presenter: p,
		scheduler: s,
	}, nil
}

// Start begins a new game. It reports false and changes nothing if a game is
// already running.
func (e *Engine) Start() bool {
	if e.started {
		return false
	}

	e.reset()
	e.started = true
	e.games++
	e.advance()

	return true
}

// Click registers the player pressing c. It reports whether the click was
// taken; clicks outside the input phase or on unknown colors are ignored.
func (e *Engine) Click(c Color) bool {
	if !e.started || !e.acceptingInput {
		return false
	}
	if !e.palette.Contains(c) {
		return false
	}

	e.flash(c, FlashAcknowledge, e.timings.Acknowledge)

	e.input = append(e.input, c)
	e.check(len(e.input) - 1)

	return true
}

func (e *Engine) advance() {
	e.acceptingInput = false
	e.input = e.input[:0]

	e.level++
	e.presenter.DisplayStatus(Status{Kind: StatusLevel, Level: e.level})

	e.target = append(e.target, e.palette[e.rand.IntN(len(e.palette))])

	session := e.session
	e.playback(e.target, func() {
		if e.session != session {
			return
		}
		e.acceptingInput = true
	})
}

// playback lights seq[i] at i*Interval for Flash and calls done at
// len(seq)*Interval, which may be before the last flash has gone dark.
func (e *Engine) playback(seq []Color, done func()) {
	for i, c := range seq {
		e.scheduler.After(time.Duration(i)*e.timings.Interval, func() {
			e.flash(c, FlashPlayback, e.timings.Flash)
		})
	}

	e.scheduler.After(time.Duration(len(seq))*e.timings.Interval, done)
}

func (e *Engine) flash(c Color, kind FlashKind, d time.Duration) {
	e.presenter.Light(c, kind, true)
	e.scheduler.After(d, func() {
		e.presenter.Light(c, kind, false)
	})
}

func (e *Engine) check(i int) {
	if e.input[i] != e.target[i] {
		e.gameOver()
		return
	}

	if len(e.input) < len(e.target) {
		return
	}

	e.acceptingInput = false

	session := e.session
	e.scheduler.After(e.timings.AdvanceDelay, func() {
		if e.session != session || !e.started {
			return
		}
		e.advance()
	})
}

func (e *Engine) gameOver() {
	score := max(0, e.level-1)
	e.lastScore = score

	e.presenter.DisplayStatus(Status{Kind: StatusGameOver, Level: e.level, Score: score})

	e.presenter.FailureIndicator(true)
	e.scheduler.After(e.timings.Failure, func() {
		e.presenter.FailureIndicator(false)
	})

	e.reset()
}

func (e *Engine) reset() {
	e.session++
	e.started = false
	e.acceptingInput = false
	e.target = nil
	e.input = nil
	e.level = 0
}

func (e *Engine) Level() int {
	return e.level
}

// Target returns a copy of the sequence generated so far.
func (e *Engine) Target() []Color {
	return slices.Clone(e.target)
}

// Input returns a copy of the colors clicked this round.
func (e *Engine) Input() []Color {
	return slices.Clone(e.input)
}

func (e *Engine) Started() bool {
	return e.started
}

func (e *Engine) AcceptingInput() bool {
	return e.acceptingInput
}

// LastScore is the score of the most recent game over, 0 before any.
func (e *Engine) LastScore() int {
	return e.lastScore
}

// Games counts the games started on this engine.
func (e *Engine) Games() int {
	return e.games
}

func (e *Engine) Palette() Palette {
	return slices.Clone(e.palette)
}

func (e *Engine) Timings() Timings {
	return e.timings
}

func (e *Engine) Phase() Phase {
	switch {
	case !e.started:
		return PhaseIdle
	case e.acceptingInput:
		return PhaseInput
	case len(e.target) > 0 && len(e.input) == len(e.target):
		return PhaseAdvancing
	default:
		return PhasePlayback
	}
}

// Snapshot is a copy of the engine state, for clients joining mid-game.
type Snapshot struct {
	Phase          Phase
	Level          int
	Started        bool
	AcceptingInput bool
	InputLength    int
	LastScore      int
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Phase:          e.Phase(),
		Level:          e.level,
		Started:        e.started,
		AcceptingInput: e.acceptingInput,
		InputLength:    len(e.input),
		LastScore:      e.lastScore,
	}
}
