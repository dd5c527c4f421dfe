// Package config resolves the effective traversal settings from
// defaults, an optional wisu.toml, and command-line overrides, in that
// order.
package config

import (
	"fmt"
	"time"

	"github.com/sh1zen/wisu/internal/filter"
	"github.com/sh1zen/wisu/internal/sortkey"
)

// Config is the fully resolved settings for one invocation.
type Config struct {
	Root string `toml:"root"`

	Interactive bool `toml:"interactive"`
	Watch       bool `toml:"watch"`

	// Output is an export destination; empty means render to the
	// terminal. Format is derived from the extension when empty.
	Output string `toml:"output"`
	Format string `toml:"format"` // "csv", "json" or "xml"

	DirsOnly   bool     `toml:"dirs-only"`
	FilesOnly  bool     `toml:"files-only"`
	ShowHidden bool     `toml:"all"`
	UseIgnore  bool     `toml:"use-ignore"`
	Exclude    []string `toml:"exclude"`
	TimeSpec   string   `toml:"time"` // see ParseTimeSpec

	// MaxDepth < 0 is unbounded, 0 lists only the root.
	MaxDepth int `toml:"depth"`
	// FileCap < 0 is unlimited, 0 keeps no files.
	FileCap int `toml:"file-cap"`
	// ExpandLevel is how deep the interactive session pre-expands.
	ExpandLevel int `toml:"expand-level"`

	Sort          string `toml:"sort"`
	Reverse       bool   `toml:"reverse"`
	DirsFirst     bool   `toml:"dirs-first"`
	DotfilesFirst bool   `toml:"dotfiles-first"`
	CaseSensitive bool   `toml:"case-sensitive"`
	NaturalSort   bool   `toml:"natural-sort"`

	ShowSize        bool `toml:"size"`
	ShowPermissions bool `toml:"permissions"`
	ShowInfo        bool `toml:"info"`
	ShowStats       bool `toml:"stats"`
	Hyperlinks      bool `toml:"hyperlinks"`

	LogLevel string `toml:"log-level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Root:        ".",
		UseIgnore:   true,
		MaxDepth:    -1,
		FileCap:     -1,
		ExpandLevel: 1,
		Sort:        "name",
		DirsFirst:   true,
		NaturalSort: true,
		LogLevel:    "warn",
	}
}

// Validate checks the configuration and normalizes values that have a
// sane fallback.
func (c *Config) Validate() error {
	if _, err := sortkey.ParseKey(c.Sort); err != nil {
		return err
	}
	if c.TimeSpec != "" {
		if _, err := ParseTimeSpec(c.TimeSpec, time.Now()); err != nil {
			return err
		}
	}
	switch c.Format {
	case "", "csv", "json", "xml":
	default:
		return fmt.Errorf("unknown export format %q", c.Format)
	}
	if c.DirsOnly && c.FilesOnly {
		return fmt.Errorf("dirs-only and files-only are mutually exclusive")
	}
	if c.ExpandLevel < 0 {
		c.ExpandLevel = 0
	}
	return nil
}

// Policy builds the sort policy the configuration describes. Validate
// must have accepted the configuration first.
func (c *Config) Policy() sortkey.Policy {
	key, _ := sortkey.ParseKey(c.Sort)
	return sortkey.Policy{
		Key:           key,
		DirsFirst:     c.DirsFirst,
		DotfilesFirst: c.DotfilesFirst,
		CaseSensitive: c.CaseSensitive,
		Natural:       c.NaturalSort,
		Reverse:       c.Reverse,
	}
}

// FilterOptions builds the predicate set the configuration describes.
func (c *Config) FilterOptions() (filter.Options, error) {
	opts := filter.Options{
		ShowHidden:     c.ShowHidden,
		UseIgnoreRules: c.UseIgnore,
		Exclude:        c.Exclude,
	}
	if c.TimeSpec != "" {
		r, err := ParseTimeSpec(c.TimeSpec, time.Now())
		if err != nil {
			return opts, err
		}
		opts.Time = &r
	}
	return opts, nil
}
