/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Seednode/simonbox/simon"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{port: 8080, lang: "en"}, false},
		{"cert without key", Config{port: 8080, lang: "en", tlsCert: "c.pem"}, true},
		{"port zero", Config{port: 0, lang: "en"}, true},
		{"port too high", Config{port: 70000, lang: "en"}, true},
		{"bad language", Config{port: 8080, lang: "!!"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestGameConfigPrecedence(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	err := os.WriteFile(rules, []byte(`
palette: [blue, orange, green]
timings:
  interval: 1s
  flash: 400ms
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	cmd := newCmd(cfg)
	if err := cmd.ParseFlags([]string{"--rules", rules, "--flash", "250ms", "--seed", "9"}); err != nil {
		t.Fatal(err)
	}

	gc, err := cfg.gameConfig(cmd.Flags())
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(gc.Palette, simon.Palette{"blue", "orange", "green"}) {
		t.Errorf("palette = %v", gc.Palette)
	}

	want := simon.DefaultTimings()
	want.Interval = time.Second
	want.Flash = 250 * time.Millisecond
	if gc.Timings != want {
		t.Errorf("timings = %+v, want %+v", gc.Timings, want)
	}
	if gc.Rand == nil {
		t.Error("rand not set")
	}
}

func TestGameConfigRejectsBadTimings(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)
	if err := cmd.ParseFlags([]string{"--interval", "0s"}); err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.gameConfig(cmd.Flags()); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestGameConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}

	gc, err := cfg.gameConfig(cmd.Flags())
	if err != nil {
		t.Fatal(err)
	}

	if gc.Timings != simon.DefaultTimings() {
		t.Errorf("timings = %+v", gc.Timings)
	}
	if !slices.Equal(gc.Palette, simon.DefaultPalette()) {
		t.Errorf("palette = %v", gc.Palette)
	}
	if cfg.port != 8080 || cfg.lang != "en" {
		t.Errorf("port %d lang %q", cfg.port, cfg.lang)
	}
}

func TestEnvironmentBinding(t *testing.T) {
	t.Setenv("SIMONBOX_PORT", "9090")
	t.Setenv("SIMONBOX_ADVANCE_DELAY", "1s")

	cfg := &Config{}
	cmd := newCmd(cfg)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}

	if cfg.port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.port)
	}

	gc, err := cfg.gameConfig(cmd.Flags())
	if err != nil {
		t.Fatal(err)
	}
	if gc.Timings.AdvanceDelay != time.Second {
		t.Errorf("advance delay = %s, want 1s", gc.Timings.AdvanceDelay)
	}
}
