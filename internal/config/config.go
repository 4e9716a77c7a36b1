package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/sieve/internal/feed"
)

// Config holds the settings sieve reads at startup.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	RemovalStates  []feed.State
	UndoWindow     time.Duration
	NoticeDuration time.Duration
	PageSize       int
	DefaultSort    feed.SortKey
	WhitelistOnly  bool
	LogFile        string
	DBPath         string
	Listen         string
}

const (
	defaultConfigPath     = "~/.config/sieve/config.toml"
	defaultAPIURL         = "http://127.0.0.1:9000"
	defaultRequestTimeout = 10 * time.Second
	defaultUndoWindow     = 8 * time.Second
	defaultNoticeDuration = 4 * time.Second
	defaultPageSize       = 50
	maxPageSize           = 200
	defaultLogFile        = "~/.local/state/sieve/sieve.log"
	defaultDBPath         = "~/.local/share/sieve/sieve.db"
	defaultListen         = "127.0.0.1:9000"
)

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		RemovalStates:  []feed.State{feed.StateHidden, feed.StateRead},
		UndoWindow:     defaultUndoWindow,
		NoticeDuration: defaultNoticeDuration,
		PageSize:       defaultPageSize,
		DefaultSort:    feed.SortPub,
		WhitelistOnly:  true,
		LogFile:        mustExpand(defaultLogFile),
		DBPath:         mustExpand(defaultDBPath),
		Listen:         defaultListen,
	}
}

type rawConfig struct {
	APIURL         string   `toml:"api_url"`
	RequestTimeout int      `toml:"request_timeout"`
	RemovalStates  []string `toml:"removal_states"`
	UndoWindow     int      `toml:"undo_window"`
	NoticeDuration int      `toml:"notice_duration"`
	PageSize       int      `toml:"page_size"`
	DefaultSort    string   `toml:"default_sort"`
	WhitelistOnly  *bool    `toml:"whitelist_only"`
	LogFile        string   `toml:"log_file"`
	DBPath         string   `toml:"db_path"`
	Listen         string   `toml:"listen"`
}

// Load reads the config at path, falling back to defaults when the file is
// missing. Durations are whole seconds; unset or non-positive values keep
// their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.RequestTimeout = seconds(raw.RequestTimeout, cfg.RequestTimeout)
	cfg.UndoWindow = seconds(raw.UndoWindow, cfg.UndoWindow)
	cfg.NoticeDuration = seconds(raw.NoticeDuration, cfg.NoticeDuration)
	if raw.PageSize != 0 {
		cfg.PageSize = ClampPageSize(raw.PageSize)
	}
	if v := strings.TrimSpace(raw.DefaultSort); v != "" {
		cfg.DefaultSort = feed.ParseSortKey(v)
	}
	if raw.WhitelistOnly != nil {
		cfg.WhitelistOnly = *raw.WhitelistOnly
	}
	if raw.RemovalStates != nil {
		states, err := parseRemovalStates(raw.RemovalStates)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.RemovalStates = states
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.DBPath); v != "" {
		cfg.DBPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Listen); v != "" {
		cfg.Listen = v
	}

	return cfg, nil
}

// BaseFilter returns the list query the UI starts from.
func (c Config) BaseFilter() feed.Filter {
	return feed.Filter{
		WhitelistOnly: c.WhitelistOnly,
		Sort:          c.DefaultSort,
		Limit:         ClampPageSize(c.PageSize),
	}
}

// ClampPageSize keeps n within what the API accepts.
func ClampPageSize(n int) int {
	switch {
	case n < 1:
		return 1
	case n > maxPageSize:
		return maxPageSize
	default:
		return n
	}
}

func parseRemovalStates(values []string) ([]feed.State, error) {
	states := make([]feed.State, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		s, err := feed.ParseState(v)
		if err != nil {
			return nil, fmt.Errorf("removal_states: %w", err)
		}
		if s == feed.StateNew {
			return nil, fmt.Errorf("removal_states: %s cannot remove videos", s)
		}
		states = append(states, s)
	}
	return states, nil
}

func seconds(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
