package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gg"

	"github.com/example/magicdraw/internal/config"
	"github.com/example/magicdraw/internal/engine"
	"github.com/example/magicdraw/internal/notify"
	"github.com/example/magicdraw/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	logger      *slog.Logger
	saveAlerts  bool
	copyAlerts  bool
	exportAlert bool
	themeName   string
	logLevel    string
	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:     program,
		notifier:    r.notifier,
		config:      r.config,
		logger:      r.logger,
		saveAlerts:  r.saveAlerts,
		copyAlerts:  r.copyAlerts,
		exportAlert: r.exportAlert,
		themeName:   r.themeName,
		logLevel:    r.logLevel,
		activeTheme: r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("magicdraw", flag.ExitOnError),
		program:  "magicdraw",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving a drawing")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.exportAlert, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting an image")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme for the viewer (default, dark or a theme file)")
	r.fs.StringVar(&r.logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.setupLogging()
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventExport, r.exportAlert)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "file":
		cmd, err = parseFileCmd(subArgs, r)
	case "export":
		cmd, err = parseExportCmd(subArgs, r)
	case "inspect":
		cmd, err = parseInspectCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "background":
		cmd, err = parseBackgroundCmd(subArgs, r)
	case "view":
		cmd, err = parseViewCmd(subArgs, r)
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// setupLogging installs a text handler on stderr for the whole process,
// including the rasterizer's internal logger.
func (r *root) setupLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(r.logLevel)); err != nil {
		level = slog.LevelWarn
	}
	r.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(r.logger)
	gg.SetLogger(r.logger)
}

func (r *root) loadTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("MAGICDRAW_THEME")
	}
	if name == "" && r.config != nil {
		name = r.config.Theme
	}
	if r.config != nil {
		if t, ok := r.config.Themes[name]; ok {
			return t
		}
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			r.log().Warn("failed to load theme, using default", "theme", name, "err", err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) log() *slog.Logger {
	if r == nil || r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// engineOptions turns the loaded configuration into engine settings.
func (r *root) engineOptions(extra ...engine.Option) []engine.Option {
	opts := []engine.Option{engine.WithLogger(r.log())}
	if r != nil && r.config != nil {
		cfg := r.config
		if cfg.Scale > 0 {
			opts = append(opts, engine.WithScale(cfg.Scale))
		}
		if cfg.HistoryLimit > 0 {
			opts = append(opts, engine.WithHistoryLimit(cfg.HistoryLimit))
		}
		if cfg.ImageFit > 0 {
			opts = append(opts, engine.WithImageFit(cfg.ImageFit))
		}
		stroke := engine.DefaultStroke
		if cfg.StrokeColor != "" {
			stroke.Color = cfg.StrokeColor
		}
		if cfg.StrokeWidth > 0 {
			stroke.Width = cfg.StrokeWidth
		}
		opts = append(opts, engine.WithStroke(stroke))
	}
	if r != nil && r.activeTheme != nil {
		opts = append(opts, engine.WithHalo(r.activeTheme.Halo))
	}
	return append(opts, extra...)
}

// canvasSize is the size of new drawings.
func (r *root) canvasSize() (int, int) {
	w, h := defaultWidth, defaultHeight
	if r != nil && r.config != nil {
		if r.config.Width > 0 {
			w = r.config.Width
		}
		if r.config.Height > 0 {
			h = r.config.Height
		}
	}
	return w, h
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}

func (r *root) notifyExport(path string, img image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Export(path, img)
}
