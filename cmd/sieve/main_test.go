package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/sieve/internal/backend"
	"github.com/five82/sieve/internal/feed"
)

func newTestAPI(t *testing.T) string {
	t.Helper()
	db, err := backend.Open(filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := backend.NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ago := func(h int) int64 { return time.Now().Add(-time.Duration(h) * time.Hour).Unix() }
	seed := backend.Seed{
		Creators: []feed.Creator{
			{UID: 1, AuthorName: "alice", Group: "tech", Enabled: true, Weight: 1},
			{UID: 2, AuthorName: "bob", Group: "must", Enabled: true, Priority: 3, Weight: 1},
			{UID: 3, AuthorName: "carol", Enabled: false, Weight: 1},
		},
		Videos: []feed.Video{
			{ID: "a1", UID: 1, Title: "Go TUI tour", PubTS: ago(1), URL: "https://v/a1", View: 1500},
			{ID: "a2", UID: 1, Title: "Deep dive", PubTS: ago(3), URL: "https://v/a2", View: 5000},
			{ID: "b1", UID: 2, Title: "Must see", PubTS: ago(2), URL: "https://v/b1", View: 10},
			{ID: "c1", UID: 3, Title: "Disabled creator", PubTS: ago(4), URL: "https://v/c1", View: 999},
		},
	}
	if err := store.Import(context.Background(), seed); err != nil {
		t.Fatalf("Import: %v", err)
	}

	srv := httptest.NewServer(backend.NewServer(store, nil).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, api string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.toml"),
		"--prefs", filepath.Join(dir, "prefs.toml"),
		"--api", api,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeIDs(t *testing.T, out string) []string {
	t.Helper()
	var videos []feed.Video
	if err := json.Unmarshal([]byte(out), &videos); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	ids := []string{}
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestListPrintsTable(t *testing.T) {
	api := newTestAPI(t)
	out, err := execute(t, api, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"BVID", "Go TUI tour", "alice", "1,500", "NEW"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Disabled creator") {
		t.Errorf("whitelist filter not applied:\n%s", out)
	}
}

func TestListFlagsReachTheAPI(t *testing.T) {
	api := newTestAPI(t)

	out, err := execute(t, api, "list", "--all", "--sort", "view", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got, want := decodeIDs(t, out), []string{"a2", "a1", "c1", "b1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}

	out, err = execute(t, api, "list", "-q", "dive", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := decodeIDs(t, out); !reflect.DeepEqual(got, []string{"a2"}) {
		t.Fatalf("query ids = %v", got)
	}

	if _, err := execute(t, api, "list", "--state", "maybe"); err == nil {
		t.Fatalf("unknown state accepted")
	}
}

func TestMarkGoesThroughTheEngine(t *testing.T) {
	api := newTestAPI(t)

	out, err := execute(t, api, "mark", "a1", "star")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if out != "a1: Starred\n" {
		t.Fatalf("out = %q", out)
	}

	out, err = execute(t, api, "mark", "a1", "STAR")
	if err != nil {
		t.Fatalf("mark again: %v", err)
	}
	if out != "a1 is already STAR\n" {
		t.Fatalf("out = %q", out)
	}

	out, err = execute(t, api, "list", "--state", "star", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := decodeIDs(t, out); !reflect.DeepEqual(got, []string{"a1"}) {
		t.Fatalf("starred ids = %v", got)
	}

	if _, err := execute(t, api, "mark", "a1", "bogus"); err == nil {
		t.Fatalf("unknown state accepted")
	}
}

func TestCreatorsSet(t *testing.T) {
	api := newTestAPI(t)
	cases := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{name: "locked weight", args: []string{"2", "weight", "5"}, wantErr: "locked"},
		{name: "unknown uid", args: []string{"9", "weight", "3"}, wantErr: "no creator"},
		{name: "bad field", args: []string{"1", "color", "3"}, wantErr: "unknown creator field"},
		{name: "bad toggle", args: []string{"1", "enabled", "maybe"}, wantErr: "on/off"},
		{name: "unchanged", args: []string{"1", "priority", "-4"}, want: "1 priority unchanged\n"},
		{name: "priority", args: []string{"1", "priority", "2"}, want: "alice: priority = 2\n"},
		{name: "disable", args: []string{"3", "enabled", "off"}, want: "3 enabled unchanged\n"},
		{name: "enable", args: []string{"3", "enabled", "yes"}, want: "carol: enabled = on\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, api, append([]string{"creators", "set"}, tc.args...)...)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("set: %v", err)
			}
			if out != tc.want {
				t.Fatalf("out = %q, want %q", out, tc.want)
			}
		})
	}

	out, err := execute(t, api, "creators", "--json")
	if err != nil {
		t.Fatalf("creators: %v", err)
	}
	var creators []feed.Creator
	if err := json.Unmarshal([]byte(out), &creators); err != nil {
		t.Fatalf("decode: %v", err)
	}
	byUID := map[int64]feed.Creator{}
	for _, c := range creators {
		byUID[c.UID] = c
	}
	if byUID[1].Priority != 2 || !byUID[3].Enabled {
		t.Fatalf("creators = %#v", creators)
	}
}

func TestCreatorsTableAndGroups(t *testing.T) {
	api := newTestAPI(t)

	out, err := execute(t, api, "creators")
	if err != nil {
		t.Fatalf("creators: %v", err)
	}
	for _, want := range []string{"PRIORITY", "alice", "bob", "must"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, api, "groups")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if out != "must\ntech\n" {
		t.Fatalf("groups = %q", out)
	}
}

func TestDailyPutsMustWatchFirst(t *testing.T) {
	api := newTestAPI(t)
	out, err := execute(t, api, "daily", "--json")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	ids := decodeIDs(t, out)
	if len(ids) != 2 || ids[0] != "b1" || ids[1] != "a1" {
		t.Fatalf("daily ids = %v, want [b1 a1]", ids)
	}
}

func TestStatsCommand(t *testing.T) {
	api := newTestAPI(t)

	out, err := execute(t, api, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{
		"Last 7 days: 4 videos",
		"Creators: 3 total, 2 enabled, 1 must-watch",
		"LAST PUBLISHED",
		"uncategorized:2",
		"disabled",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, api, "stats", "--json", "--days", "1", "--limit", "2")
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	var report statsReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Overview.WindowDays != 1 || len(report.Creators) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report.Creators[0].UID != 2 || report.Creators[1].UID != 1 {
		t.Fatalf("creator order = %+v", report.Creators)
	}

	if _, err := execute(t, api, "stats", "--days", "0"); err == nil {
		t.Fatalf("expected an error for --days 0")
	}
}

func TestUnreachableAPIFails(t *testing.T) {
	_, err := execute(t, "http://127.0.0.1:1", "list")
	if err == nil {
		t.Fatalf("expected an error for an unreachable API")
	}
}

func TestLogShowsSessionRecords(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "sieve.log")
	configPath := filepath.Join(dir, "config.toml")
	config := "log_file = \"" + filepath.ToSlash(logPath) + "\"\n"
	records := strings.Join([]string{
		`{"time":"2026-03-01T12:00:00Z","level":"INFO","msg":"starting tui","api":"http://127.0.0.1:9000"}`,
		`{"time":"2026-03-01T12:00:01Z","level":"WARN","msg":"set state failed","id":"a1","err":"boom"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(logPath, []byte(records), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", configPath, "log", "--level", "warn"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("log: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "set state failed") || strings.Contains(got, "starting tui") {
		t.Fatalf("log output = %q", got)
	}
}
