package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/sieve/internal/feed"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RequestTimeout != 10*time.Second || cfg.UndoWindow != 8*time.Second || cfg.NoticeDuration != 4*time.Second {
		t.Fatalf("durations = %v %v %v", cfg.RequestTimeout, cfg.UndoWindow, cfg.NoticeDuration)
	}
	if !reflect.DeepEqual(cfg.RemovalStates, []feed.State{feed.StateHidden, feed.StateRead}) {
		t.Fatalf("RemovalStates = %v", cfg.RemovalStates)
	}
	if !cfg.WhitelistOnly || cfg.PageSize != 50 || cfg.DefaultSort != feed.SortPub {
		t.Fatalf("cfg = %#v", cfg)
	}
	if cfg.LogFile != filepath.Join(home, ".local/state/sieve/sieve.log") {
		t.Fatalf("LogFile = %q", cfg.LogFile)
	}
	if cfg.DBPath != filepath.Join(home, ".local/share/sieve/sieve.db") {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  http://10.0.0.5:9999  "
request_timeout = 3
removal_states = ["hidden"]
undo_window = 15
notice_duration = 2
page_size = 500
default_sort = "VIEW"
whitelist_only = false
log_file = "  ~/logs/sieve.log  "
listen = "0.0.0.0:8080"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 3*time.Second || cfg.UndoWindow != 15*time.Second || cfg.NoticeDuration != 2*time.Second {
		t.Fatalf("durations = %v %v %v", cfg.RequestTimeout, cfg.UndoWindow, cfg.NoticeDuration)
	}
	if !reflect.DeepEqual(cfg.RemovalStates, []feed.State{feed.StateHidden}) {
		t.Fatalf("RemovalStates = %v", cfg.RemovalStates)
	}
	if cfg.PageSize != 200 {
		t.Fatalf("PageSize = %d, want clamp to 200", cfg.PageSize)
	}
	if cfg.DefaultSort != feed.SortView || cfg.WhitelistOnly {
		t.Fatalf("sort/whitelist = %v %v", cfg.DefaultSort, cfg.WhitelistOnly)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg.Listen != "0.0.0.0:8080" {
		t.Fatalf("Listen = %q", cfg.Listen)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
api_url = "   "
request_timeout = 0
undo_window = -4
log_file = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if cfg.APIURL != def.APIURL || cfg.RequestTimeout != def.RequestTimeout || cfg.UndoWindow != def.UndoWindow {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
	if cfg.LogFile != def.LogFile {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, def.LogFile)
	}
	if !reflect.DeepEqual(cfg.RemovalStates, def.RemovalStates) {
		t.Fatalf("RemovalStates = %v", cfg.RemovalStates)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "invalid toml", body: `api_url = [`, want: "parse config"},
		{name: "unknown state", body: `removal_states = ["GONE"]`, want: "removal_states"},
		{name: "new cannot remove", body: `removal_states = ["NEW"]`, want: "cannot remove"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestBaseFilter(t *testing.T) {
	cfg := Config{WhitelistOnly: true, DefaultSort: feed.SortView, PageSize: 0}
	got := cfg.BaseFilter()
	want := feed.Filter{WhitelistOnly: true, Sort: feed.SortView, Limit: 1}
	if got != want {
		t.Fatalf("BaseFilter = %#v, want %#v", got, want)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
