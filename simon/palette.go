/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package simon

import (
	"errors"
	"fmt"
	"strings"
)

// Color identifies one control of the board.
type Color string

// Palette is the ordered set of colors a game draws from.
type Palette []Color

const (
	minColors = 2
	maxColors = 9
)

var (
	ErrPaletteSize  = errors.New("palette must have between 2 and 9 colors")
	ErrPaletteColor = errors.New("invalid palette color")
)

// DefaultPalette returns red, yellow, green and purple.
func DefaultPalette() Palette {
	return Palette{"red", "yellow", "green", "purple"}
}

// ParsePalette builds a palette from names, lowercasing and trimming each one.
func ParsePalette(names []string) (Palette, error) {
	p := make(Palette, 0, len(names))
	for _, name := range names {
		p = append(p, Color(strings.ToLower(strings.TrimSpace(name))))
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p Palette) Validate() error {
	if len(p) < minColors || len(p) > maxColors {
		return fmt.Errorf("%w: got %d", ErrPaletteSize, len(p))
	}

	seen := make(map[Color]bool, len(p))
	for _, c := range p {
		if c == "" {
			return fmt.Errorf("%w: empty name", ErrPaletteColor)
		}
		if seen[c] {
			return fmt.Errorf("%w: %q listed twice", ErrPaletteColor, c)
		}
		seen[c] = true
	}

	return nil
}

// Index returns the position of c, or -1.
func (p Palette) Index(c Color) int {
	for i, pc := range p {
		if pc == c {
			return i
		}
	}

	return -1
}

func (p Palette) Contains(c Color) bool {
	return p.Index(c) >= 0
}

// Strings returns the palette as plain strings, for JSON and templates.
func (p Palette) Strings() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = string(c)
	}

	return out
}
