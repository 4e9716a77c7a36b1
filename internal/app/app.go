package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/sieve/internal/backend"
	"github.com/five82/sieve/internal/config"
	"github.com/five82/sieve/internal/engine"
	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
	"github.com/five82/sieve/internal/prefs"
	"github.com/five82/sieve/internal/state"
	"github.com/five82/sieve/internal/ui"
)

// Options configure a sieve session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/sieve/prefs.toml
	APIURL     string // overrides api_url from the config file

	// Logger replaces the file logger configured by log_file.
	Logger *slog.Logger
}

// Session is the wired object graph shared by the TUI and the CLI commands.
type Session struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string

	Client   *feed.Client
	List     *state.ListStore
	Creators *state.CreatorStore
	Notifier *notify.Notifier
	Engine   *engine.Transitions
	Editor   *engine.CreatorEditor
	Logger   *slog.Logger

	closeLog func() error
}

// NewSession loads configuration and preferences and wires the engines to a
// feed client. Close releases the log file.
func NewSession(opts Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if api := strings.TrimSpace(opts.APIURL); api != "" {
		cfg.APIURL = api
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	logger, closeLog := opts.Logger, func() error { return nil }
	if logger == nil {
		logger, closeLog, err = openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
	}

	client, err := feed.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init feed client: %w", err)
	}

	s := &Session{
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Client:    client,
		List:      &state.ListStore{},
		Creators:  &state.CreatorStore{},
		Notifier:  notify.New(cfg.NoticeDuration),
		Logger:    logger,
		closeLog:  closeLog,
	}
	s.Engine = engine.NewTransitions(s.List, client, s.Notifier, engine.Options{
		RemovalStates: cfg.RemovalStates,
		UndoWindow:    cfg.UndoWindow,
		Logger:        logger.With("component", "transitions"),
	})
	s.Editor = engine.NewCreatorEditor(s.Creators, client, logger.With("component", "creators"))
	return s, nil
}

// Close flushes and closes the session log.
func (s *Session) Close() error {
	if s == nil || s.closeLog == nil {
		return nil
	}
	return s.closeLog()
}

// InitialSource is the list query the TUI opens with: the configured base
// filter with the saved sort, or the daily view when it was last active.
func (s *Session) InitialSource() state.Source {
	filter := s.Config.BaseFilter()
	filter.Sort = s.Prefs.SortKey(filter.Sort)
	return state.Source{Daily: s.Prefs.Daily, Filter: filter}
}

// Run boots the sieve TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	s, err := NewSession(opts)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	s.Logger.Info("starting tui", "api", s.Client.BaseURL())
	return ui.Run(ui.Options{
		Context:   ctx,
		List:      s.List,
		Creators:  s.Creators,
		Notifier:  s.Notifier,
		Engine:    s.Engine,
		Editor:    s.Editor,
		Source:    s.InitialSource(),
		Config:    &s.Config,
		ThemeName: s.Prefs.Theme,
		Prefs:     s.Prefs,
		PrefsPath: s.PrefsPath,
		Logger:    s.Logger,
	})
}

// ServeOptions configure the reference backend.
type ServeOptions struct {
	ConfigPath string
	DBPath     string // overrides db_path
	Listen     string // overrides listen
	SeedPath   string // optional JSON seed imported before serving
	Logger     *slog.Logger
}

// Serve runs the feed API over SQLite until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dbPath := firstNonEmpty(opts.DBPath, cfg.DBPath)
	listen := firstNonEmpty(opts.Listen, cfg.Listen)
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	db, err := backend.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := backend.NewStore(db)
	if err != nil {
		return err
	}
	if opts.SeedPath != "" {
		seed, err := backend.LoadSeed(opts.SeedPath)
		if err != nil {
			return err
		}
		if err := store.Import(ctx, seed); err != nil {
			return err
		}
		logger.Info("seed imported", "path", opts.SeedPath, "creators", len(seed.Creators), "videos", len(seed.Videos))
	}

	logger.Info("database ready", "path", dbPath)
	return backend.NewServer(store, logger).ListenAndServe(ctx, listen)
}

// openLogFile opens path for appending and returns a JSON logger on it. An
// empty path discards.
func openLogFile(path string) (*slog.Logger, func() error, error) {
	if strings.TrimSpace(path) == "" {
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return NewLogger(f, slog.LevelInfo), f.Close, nil
}

// NewLogger returns a JSON logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
