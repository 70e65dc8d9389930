/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/simonbox/simon"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	rules        string
	lang         string
	seed         uint64
	interval     time.Duration
	flash        time.Duration
	acknowledge  time.Duration
	advanceDelay time.Duration
	failure      time.Duration
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return c.validateGame()
}

func (c *Config) validateGame() error {
	if _, err := language.Parse(c.lang); err != nil {
		return fmt.Errorf("invalid --lang %q: %w", c.lang, err)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// gameConfig merges defaults, the rules file and any timing flags that were
// set explicitly, in that order.
func (c *Config) gameConfig(fs *pflag.FlagSet) (simon.Config, error) {
	gc := simon.Config{
		Palette: simon.DefaultPalette(),
		Timings: simon.DefaultTimings(),
	}

	if c.rules != "" {
		r, err := loadRules(c.rules)
		if err != nil {
			return simon.Config{}, err
		}
		if err := r.apply(&gc); err != nil {
			return simon.Config{}, fmt.Errorf("rules %s: %w", c.rules, err)
		}
	}

	for name, set := range map[string]struct {
		dst *time.Duration
		v   time.Duration
	}{
		"interval":      {&gc.Timings.Interval, c.interval},
		"flash":         {&gc.Timings.Flash, c.flash},
		"acknowledge":   {&gc.Timings.Acknowledge, c.acknowledge},
		"advance-delay": {&gc.Timings.AdvanceDelay, c.advanceDelay},
		"failure-flash": {&gc.Timings.Failure, c.failure},
	} {
		if fs.Changed(name) {
			*set.dst = set.v
		}
	}

	if err := gc.Timings.Validate(); err != nil {
		return simon.Config{}, err
	}

	gc.Rand = simon.NewRand(c.seed)

	return gc, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SIMONBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "simonbox",
		Short:         "A Simon Says memory game, served to browsers or played in the terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			gc, err := cfg.gameConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, gc)
		},
	}

	play := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateGame(); err != nil {
				return err
			}
			gc, err := cfg.gameConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return PlayTerminal(cmd.Context(), cfg, gc)
		},
	}

	pfs := cmd.PersistentFlags()

	pfs.StringVar(&cfg.rules, "rules", "", "path to a YAML rules file with palette and timings (env: SIMONBOX_RULES)")
	pfs.StringVar(&cfg.lang, "lang", "en", "language for status text when the client does not ask for one (env: SIMONBOX_LANG)")
	pfs.Uint64Var(&cfg.seed, "seed", 0, "seed for color draws, 0 picks one at random (env: SIMONBOX_SEED)")
	pfs.DurationVar(&cfg.interval, "interval", 600*time.Millisecond, "time between the starts of two playback flashes (env: SIMONBOX_INTERVAL)")
	pfs.DurationVar(&cfg.flash, "flash", 300*time.Millisecond, "how long each playback flash lasts (env: SIMONBOX_FLASH)")
	pfs.DurationVar(&cfg.acknowledge, "acknowledge", 160*time.Millisecond, "how long a clicked color stays lit (env: SIMONBOX_ACKNOWLEDGE)")
	pfs.DurationVar(&cfg.advanceDelay, "advance-delay", 700*time.Millisecond, "pause between a completed round and the next (env: SIMONBOX_ADVANCE_DELAY)")
	pfs.DurationVar(&cfg.failure, "failure-flash", 200*time.Millisecond, "how long the failure indicator lasts (env: SIMONBOX_FAILURE_FLASH)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SIMONBOX_VERBOSE)")

	fs := cmd.Flags()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SIMONBOX_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SIMONBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SIMONBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SIMONBOX_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game rooms are closed (env: SIMONBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SIMONBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SIMONBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SIMONBOX_VERSION)")

	bindFlags(v, pfs)
	bindFlags(v, fs)

	cmd.AddCommand(play)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("simonbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
