package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sh1zen/wisu/internal/config"
	"github.com/sh1zen/wisu/internal/export"
	"github.com/sh1zen/wisu/internal/filter"
	"github.com/sh1zen/wisu/internal/session"
	"github.com/sh1zen/wisu/internal/tree"
	"github.com/sh1zen/wisu/internal/view"
	"github.com/sh1zen/wisu/internal/watch"
)

// Version is set at build time via ldflags.
var Version = ""

const (
	watchDebounce = 300 * time.Millisecond
	watchRescan   = 2 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		showVersion bool
		saveConfig  bool
	)
	cmd := &cobra.Command{
		Use:          "wisu [path]",
		Short:        "Explore directory trees with filters, sorting and live updates",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("wisu version %s\n", effectiveVersion(Version))
				return nil
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if len(args) == 1 {
				cfg.Root = config.ExpandPath(args[0])
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if saveConfig {
				return config.Save(cfg, configPath)
			}
			return run(cfg)
		},
	}

	defaults := config.Default()
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "path to a wisu.toml")
	f.BoolVar(&saveConfig, "save-config", false, "write the resolved settings to the config file and exit")
	f.BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	f.BoolP("interactive", "i", defaults.Interactive, "open the interactive explorer")
	f.BoolP("watch", "w", defaults.Watch, "follow filesystem changes")
	f.StringP("output", "o", defaults.Output, "export to a file instead of rendering")
	f.String("format", defaults.Format, "export format: csv, json or xml (default: by extension)")

	f.BoolP("dirs-only", "d", defaults.DirsOnly, "list directories only")
	f.BoolP("files-only", "f", defaults.FilesOnly, "list files only, flattened to one level")
	f.BoolP("all", "a", defaults.ShowHidden, "include hidden entries")
	f.BoolP("use-ignore", "g", defaults.UseIgnore, "honor .gitignore and related files")
	f.StringSliceP("exclude", "e", defaults.Exclude, "file extensions to exclude")
	f.StringP("time", "t", defaults.TimeSpec, "modification-time filter, e.g. 7d, <2w, >01-06-2024")

	f.IntP("depth", "L", defaults.MaxDepth, "max depth (negative: unlimited, 0: root only)")
	f.IntP("file-cap", "F", defaults.FileCap, "max files per directory (negative: unlimited)")
	f.Int("expand-level", defaults.ExpandLevel, "levels pre-expanded in the interactive explorer")

	f.String("sort", defaults.Sort, "sort key: name, size, accessed, created, modified, extension")
	f.BoolP("reverse", "r", defaults.Reverse, "reverse the sort order")
	f.Bool("dirs-first", defaults.DirsFirst, "group directories before files")
	f.Bool("dotfiles-first", defaults.DotfilesFirst, "group dot entries before the rest")
	f.Bool("case-sensitive", defaults.CaseSensitive, "case-sensitive name comparison")
	f.Bool("natural-sort", defaults.NaturalSort, "compare digit runs numerically")

	f.BoolP("size", "s", defaults.ShowSize, "show entry sizes")
	f.BoolP("permissions", "p", defaults.ShowPermissions, "show permission bits")
	f.BoolP("info", "x", defaults.ShowInfo, "show per-directory size and entry counts")
	f.Bool("stats", defaults.ShowStats, "print a summary footer")
	f.Bool("hyperlinks", defaults.Hyperlinks, "emit terminal hyperlinks")

	f.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// applyFlags lets explicitly set flags override both defaults and the
// config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}
	integer := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}

	boolean("interactive", &cfg.Interactive)
	boolean("watch", &cfg.Watch)
	str("output", &cfg.Output)
	str("format", &cfg.Format)
	boolean("dirs-only", &cfg.DirsOnly)
	boolean("files-only", &cfg.FilesOnly)
	boolean("all", &cfg.ShowHidden)
	boolean("use-ignore", &cfg.UseIgnore)
	if f.Changed("exclude") {
		cfg.Exclude, _ = f.GetStringSlice("exclude")
	}
	str("time", &cfg.TimeSpec)
	integer("depth", &cfg.MaxDepth)
	integer("file-cap", &cfg.FileCap)
	integer("expand-level", &cfg.ExpandLevel)
	str("sort", &cfg.Sort)
	boolean("reverse", &cfg.Reverse)
	boolean("dirs-first", &cfg.DirsFirst)
	boolean("dotfiles-first", &cfg.DotfilesFirst)
	boolean("case-sensitive", &cfg.CaseSensitive)
	boolean("natural-sort", &cfg.NaturalSort)
	boolean("size", &cfg.ShowSize)
	boolean("permissions", &cfg.ShowPermissions)
	boolean("info", &cfg.ShowInfo)
	boolean("stats", &cfg.ShowStats)
	boolean("hyperlinks", &cfg.Hyperlinks)
	str("log-level", &cfg.LogLevel)
}

func run(cfg *config.Config) error {
	logger := newLogger(cfg)
	hooks := filter.NewRegistry(logger)

	switch {
	case cfg.Interactive:
		path, err := session.Run(cfg, logger, hooks)
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Println(path)
		}
		return nil

	case cfg.Output != "":
		format, err := export.DetectFormat(cfg.Output, cfg.Format)
		if err != nil {
			return err
		}
		t, _, err := buildTree(context.Background(), cfg, hooks)
		if err != nil {
			return err
		}
		return export.ToFile(cfg.Output, t, format)

	case cfg.Watch:
		return watchLoop(cfg, logger, hooks)

	default:
		t, _, err := buildTree(context.Background(), cfg, hooks)
		if err != nil {
			return err
		}
		return view.Render(os.Stdout, t, viewOptions(cfg))
	}
}

func buildTree(ctx context.Context, cfg *config.Config, hooks *filter.Registry) (*tree.Tree, *filter.Pipeline, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.FilterOptions()
	if err != nil {
		return nil, nil, err
	}
	pipeline := filter.New(root, opts, hooks)
	t, err := tree.Build(ctx, tree.Config{
		Root:      root,
		MaxDepth:  cfg.MaxDepth,
		FileCap:   cfg.FileCap,
		DirsOnly:  cfg.DirsOnly,
		FilesOnly: cfg.FilesOnly,
		Filter:    pipeline,
		Transform: pipeline,
		Policy:    cfg.Policy(),
	})
	if err != nil {
		return nil, nil, err
	}
	return t, pipeline, nil
}

func viewOptions(cfg *config.Config) view.Options {
	return view.Options{
		ShowSize:        cfg.ShowSize,
		ShowPermissions: cfg.ShowPermissions,
		ShowInfo:        cfg.ShowInfo,
		ShowStats:       cfg.ShowStats,
		Hyperlinks:      cfg.Hyperlinks,
		Color:           view.ColorEnabled(os.Stdout),
	}
}

// watchLoop re-renders the listing whenever the tree changes, until
// interrupted.
func watchLoop(cfg *config.Config, logger *slog.Logger, hooks *filter.Registry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, pipeline, err := buildTree(ctx, cfg, hooks)
	if err != nil {
		return err
	}
	coord, err := watch.New(logger)
	if err != nil {
		return err
	}
	defer coord.Close()

	if cfg.FilesOnly {
		for _, dir := range t.WatchRoots() {
			if err := coord.Add(dir); err != nil {
				logger.Warn("watch add failed", "path", dir, "error", err)
			}
		}
	} else {
		t.Walk(func(n *tree.Node) bool {
			if n.IsDir() && n.State == tree.Loaded {
				if err := coord.Add(n.Path()); err != nil {
					logger.Warn("watch add failed", "path", n.Path(), "error", err)
				}
			}
			return true
		})
	}
	applier := &watch.Applier{Tree: t, Filter: pipeline, Coord: coord, Logger: logger}

	render := func() error {
		fmt.Print("\x1b[2J\x1b[H") // clear and home
		return view.Render(os.Stdout, t, viewOptions(cfg))
	}
	if err := render(); err != nil {
		return err
	}

	degraded := false
	for {
		var poll <-chan time.Time
		if degraded {
			poll = time.After(watchRescan)
		}
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-coord.Wake():
			time.Sleep(watchDebounce)
			res := applier.Apply(ctx, coord.Drain())
			if res.Degraded && !degraded {
				degraded = true
				logger.Warn("watch degraded, polling", "every", watchRescan)
			}
			if res.Changed {
				if err := render(); err != nil {
					return err
				}
			}
		case <-poll:
			applier.RescanLoaded(ctx)
			if err := render(); err != nil {
				return err
			}
		}
	}
}

// newLogger builds the leveled logger. Interactive sessions log to a
// file so the TUI stays clean.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	var w io.Writer = os.Stderr
	if cfg.Interactive {
		f, err := os.OpenFile(filepath.Join(os.TempDir(), "wisu.log"),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			w = f
		} else {
			w = io.Discard
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// effectiveVersion prefers the ldflags-injected version, then the
// module version stamped by go install, then the embedded VCS state.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		return mv
	}
	return vcsVersion(info.Settings)
}

// vcsVersion derives a development version from the build's VCS
// settings, e.g. "devel+1a2b3c4d5e6f+dirty".
func vcsVersion(settings []debug.BuildSetting) string {
	var rev string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "devel"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	ver := "devel+" + rev
	if dirty {
		ver += "+dirty"
	}
	return ver
}
