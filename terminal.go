/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/Seednode/simonbox/simon"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/message"
)

const terminalHelp = "any key: start   1-9 or initial: press   Esc: quit"

// terminalBoard draws the game as one column per color.
type terminalBoard struct {
	screen  tcell.Screen
	palette simon.Palette
	printer *message.Printer

	lit     map[simon.Color]map[simon.FlashKind]bool
	failure bool
	status  string
}

func newTerminalBoard(screen tcell.Screen, palette simon.Palette, printer *message.Printer) *terminalBoard {
	return &terminalBoard{
		screen:  screen,
		palette: palette,
		printer: printer,
		lit:     make(map[simon.Color]map[simon.FlashKind]bool),
		status:  statusText(printer, simon.Status{Kind: simon.StatusIdle}),
	}
}

func (b *terminalBoard) DisplayStatus(s simon.Status) {
	b.status = statusText(b.printer, s)
	b.draw()
}

func (b *terminalBoard) Light(c simon.Color, kind simon.FlashKind, on bool) {
	if !b.palette.Contains(c) {
		return
	}

	if b.lit[c] == nil {
		b.lit[c] = make(map[simon.FlashKind]bool)
	}
	b.lit[c][kind] = on
	b.draw()
}

func (b *terminalBoard) FailureIndicator(on bool) {
	b.failure = on
	b.draw()
}

// colorFor maps a palette name to a terminal color, falling back to white.
func colorFor(c simon.Color) tcell.Color {
	if tc := tcell.GetColor(string(c)); tc != tcell.ColorDefault {
		return tc
	}
	return tcell.ColorWhite
}

func (b *terminalBoard) draw() {
	s := b.screen
	w, h := s.Size()

	bg := tcell.ColorBlack
	if b.failure {
		bg = tcell.ColorSalmon
	}
	base := tcell.StyleDefault.Background(bg).Foreground(tcell.ColorWhite)

	s.Fill(' ', base)

	drawText(s, 1, 0, base.Bold(true), b.status)
	drawText(s, 1, h-1, base.Dim(true), terminalHelp)

	n := len(b.palette)
	if n == 0 || w < n || h < 5 {
		s.Show()
		return
	}

	colWidth := w / n
	top, bottom := 2, h-3

	for i, c := range b.palette {
		fill := '░'
		style := base.Foreground(colorFor(c))

		switch {
		case b.lit[c][simon.FlashPlayback]:
			fill = '█'
		case b.lit[c][simon.FlashAcknowledge]:
			fill = '▓'
			style = style.Bold(true)
		}

		x0 := i * colWidth
		for x := x0 + 1; x < x0+colWidth-1; x++ {
			for y := top; y < bottom; y++ {
				s.SetContent(x, y, fill, nil, style)
			}
		}

		label := fmt.Sprintf("%d %s", i+1, c)
		drawText(s, x0+max((colWidth-len([]rune(label)))/2, 0), bottom, base, label)
	}

	s.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// keyColor maps a digit to its palette position, or a letter to the first
// color starting with it.
func keyColor(p simon.Palette, r rune) (simon.Color, bool) {
	if r >= '1' && r <= '9' {
		i := int(r - '1')
		if i < len(p) {
			return p[i], true
		}
		return "", false
	}

	r = unicode.ToLower(r)
	for _, c := range p {
		if first, _ := utf8.DecodeRuneInString(string(c)); first == r {
			return c, true
		}
	}

	return "", false
}

// handleTerminalEvent applies one input event. It returns false when the
// player asked to quit.
func handleTerminalEvent(e *simon.Engine, b *terminalBoard, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}

		if !e.Started() {
			e.Start()
			return true
		}

		if ev.Key() == tcell.KeyRune {
			if c, ok := keyColor(b.palette, ev.Rune()); ok {
				e.Click(c)
			}
		}

	case *tcell.EventResize:
		b.screen.Sync()
		b.draw()
	}

	return true
}

func PlayTerminal(ctx context.Context, cfg *Config, gc simon.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}

	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return playOn(ctx, cfg, gc, screen)
}

func playOn(ctx context.Context, cfg *Config, gc simon.Config, screen tcell.Screen) error {
	loop := simon.NewLoop()
	defer loop.Stop()

	board := newTerminalBoard(screen, gc.Palette, newPrinter(matchLanguage(cfg.lang)))

	engine, err := simon.New(gc, board, loop)
	if err != nil {
		return err
	}
	board.palette = engine.Palette()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	board.draw()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !handleTerminalEvent(engine, board, ev) {
				return nil
			}

		case <-loop.C():
			loop.RunDue()
		}
	}
}
