/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Seednode/simonbox/simon"
	"gopkg.in/yaml.v3"
)

// Rules is the on-disk form of a game variant. Omitted fields keep their
// defaults.
type Rules struct {
	Palette []string     `yaml:"palette"`
	Timings RulesTimings `yaml:"timings"`
}

type RulesTimings struct {
	Interval     *time.Duration `yaml:"interval"`
	Flash        *time.Duration `yaml:"flash"`
	Acknowledge  *time.Duration `yaml:"acknowledge"`
	AdvanceDelay *time.Duration `yaml:"advance_delay"`
	Failure      *time.Duration `yaml:"failure"`
}

func loadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	return parseRules(data)
}

func parseRules(data []byte) (*Rules, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Rules
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	return &r, nil
}

func (r *Rules) apply(gc *simon.Config) error {
	if len(r.Palette) > 0 {
		p, err := simon.ParsePalette(r.Palette)
		if err != nil {
			return err
		}
		gc.Palette = p
	}

	for _, set := range []struct {
		src *time.Duration
		dst *time.Duration
	}{
		{r.Timings.Interval, &gc.Timings.Interval},
		{r.Timings.Flash, &gc.Timings.Flash},
		{r.Timings.Acknowledge, &gc.Timings.Acknowledge},
		{r.Timings.AdvanceDelay, &gc.Timings.AdvanceDelay},
		{r.Timings.Failure, &gc.Timings.Failure},
	} {
		if set.src != nil {
			*set.dst = *set.src
		}
	}

	return gc.Timings.Validate()
}
