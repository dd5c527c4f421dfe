package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	configDir  = ".config/wisu"
	configFile = "wisu.toml"
)

// rawConfig is the TOML-unmarshaling intermediary. Pointers
// distinguish "absent" from zero so the file only overrides what it
// mentions.
type rawConfig struct {
	Root *string `toml:"root"`

	Interactive *bool `toml:"interactive"`
	Watch       *bool `toml:"watch"`

	Output *string `toml:"output"`
	Format *string `toml:"format"`

	DirsOnly   *bool    `toml:"dirs-only"`
	FilesOnly  *bool    `toml:"files-only"`
	ShowHidden *bool    `toml:"all"`
	UseIgnore  *bool    `toml:"use-ignore"`
	Exclude    []string `toml:"exclude"`
	TimeSpec   *string  `toml:"time"`

	MaxDepth    *int `toml:"depth"`
	FileCap     *int `toml:"file-cap"`
	ExpandLevel *int `toml:"expand-level"`

	Sort          *string `toml:"sort"`
	Reverse       *bool   `toml:"reverse"`
	DirsFirst     *bool   `toml:"dirs-first"`
	DotfilesFirst *bool   `toml:"dotfiles-first"`
	CaseSensitive *bool   `toml:"case-sensitive"`
	NaturalSort   *bool   `toml:"natural-sort"`

	ShowSize        *bool `toml:"size"`
	ShowPermissions *bool `toml:"permissions"`
	ShowInfo        *bool `toml:"info"`
	ShowStats       *bool `toml:"stats"`
	Hyperlinks      *bool `toml:"hyperlinks"`

	LogLevel *string `toml:"log-level"`
}

// Load resolves configuration from the default locations: wisu.toml
// in the current directory, falling back to ~/.config/wisu/wisu.toml.
func Load() (*Config, error) {
	if _, err := os.Stat(configFile); err == nil {
		return LoadFrom(configFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(filepath.Join(home, configDir, configFile))
}

// LoadFrom loads configuration from a specific file, layered over the
// defaults. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	mergeConfig(cfg, &raw)

	cfg.Root = ExpandPath(cfg.Root)
	cfg.Output = ExpandPath(cfg.Output)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig folds file values into the defaults.
func mergeConfig(cfg *Config, raw *rawConfig) {
	setString(&cfg.Root, raw.Root)
	setBool(&cfg.Interactive, raw.Interactive)
	setBool(&cfg.Watch, raw.Watch)
	setString(&cfg.Output, raw.Output)
	setString(&cfg.Format, raw.Format)

	setBool(&cfg.DirsOnly, raw.DirsOnly)
	setBool(&cfg.FilesOnly, raw.FilesOnly)
	setBool(&cfg.ShowHidden, raw.ShowHidden)
	setBool(&cfg.UseIgnore, raw.UseIgnore)
	if len(raw.Exclude) > 0 {
		cfg.Exclude = raw.Exclude
	}
	setString(&cfg.TimeSpec, raw.TimeSpec)

	setInt(&cfg.MaxDepth, raw.MaxDepth)
	setInt(&cfg.FileCap, raw.FileCap)
	setInt(&cfg.ExpandLevel, raw.ExpandLevel)

	setString(&cfg.Sort, raw.Sort)
	setBool(&cfg.Reverse, raw.Reverse)
	setBool(&cfg.DirsFirst, raw.DirsFirst)
	setBool(&cfg.DotfilesFirst, raw.DotfilesFirst)
	setBool(&cfg.CaseSensitive, raw.CaseSensitive)
	setBool(&cfg.NaturalSort, raw.NaturalSort)

	setBool(&cfg.ShowSize, raw.ShowSize)
	setBool(&cfg.ShowPermissions, raw.ShowPermissions)
	setBool(&cfg.ShowInfo, raw.ShowInfo)
	setBool(&cfg.ShowStats, raw.ShowStats)
	setBool(&cfg.Hyperlinks, raw.Hyperlinks)

	setString(&cfg.LogLevel, raw.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// ExpandPath expands ~ to the home directory.
func ExpandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
