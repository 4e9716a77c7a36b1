package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sieve/internal/feed"
)

func TestResolveKeys(t *testing.T) {
	keys := DefaultKeyMap()
	cases := []struct {
		name string
		view View
		key  tea.KeyMsg
		want Command
	}{
		{"star", ViewFeed, keyMsg("s"), CmdMarkStar},
		{"watched in feed", ViewFeed, keyMsg("w"), CmdMarkWatched},
		{"weight in creators", ViewCreators, keyMsg("w"), CmdEditWeight},
		{"mark keys idle in creators", ViewCreators, keyMsg("x"), CmdNone},
		{"space toggles enabled", ViewCreators, keyMsg(" "), CmdToggleEnabled},
		{"undo", ViewFeed, keyMsg("u"), CmdUndo},
		{"tab", ViewCreators, keyMsg("tab"), CmdSwitchView},
		{"ctrl+c", ViewFeed, keyMsg("ctrl+c"), CmdQuit},
		{"unbound", ViewFeed, keyMsg("z"), CmdNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := keys.Resolve(tc.view, tc.key); got != tc.want {
				t.Fatalf("Resolve(%v, %q) = %s, want %s", tc.view, tc.key.String(), got, tc.want)
			}
		})
	}
}

func TestCommandTargetState(t *testing.T) {
	if s, ok := CmdMarkHidden.TargetState(); !ok || s != feed.StateHidden {
		t.Fatalf("CmdMarkHidden.TargetState() = %q, %v", s, ok)
	}
	if _, ok := CmdUndo.TargetState(); ok {
		t.Fatalf("CmdUndo should not carry a state")
	}
	if f, ok := CmdEditWeight.EditField(); !ok || f != feed.FieldWeight {
		t.Fatalf("CmdEditWeight.EditField() = %q, %v", f, ok)
	}
	if got := Command(999).String(); got != "command(999)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseFilterQuery(t *testing.T) {
	base := feed.Filter{WhitelistOnly: true, Sort: feed.SortView, Limit: 30, Tag: "old"}

	got := parseFilterQuery(base, "  go tui tag:go group:tech min:100 max:5000 state:later ")
	want := feed.Filter{
		Query:         "go tui",
		Tag:           "go",
		Group:         "tech",
		ViewMin:       100,
		ViewMax:       5000,
		State:         feed.StateLater,
		WhitelistOnly: true,
		Sort:          feed.SortView,
		Limit:         30,
	}
	if got != want {
		t.Fatalf("parseFilterQuery = %#v, want %#v", got, want)
	}

	got = parseFilterQuery(base, "all min:abc state:nope")
	if got.WhitelistOnly || got.ViewMin != 0 || got.State != "" || got.Tag != "" {
		t.Fatalf("bad terms should be dropped: %#v", got)
	}

	if q := formatFilterQuery(want); parseFilterQuery(base, q) != want {
		t.Fatalf("formatFilterQuery(%#v) = %q does not parse back", want, q)
	}
}

func TestFormatViews(t *testing.T) {
	cases := map[int64]string{
		0:       "-",
		999:     "999",
		12500:   "12,500",
		3400000: "3,400,000",
	}
	for in, want := range cases {
		if got := formatViews(in); got != want {
			t.Errorf("formatViews(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatAgeAndDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := formatAge(now.Add(-3*time.Hour), now); got != "3 hours ago" {
		t.Fatalf("formatAge = %q", got)
	}
	if got := formatAge(now.Add(-10*time.Second), now); got != "just now" {
		t.Fatalf("formatAge recent = %q", got)
	}
	if got := formatAge(time.Time{}, now); got != "-" {
		t.Fatalf("formatAge zero = %q", got)
	}
	if got := formatDuration(65 * time.Second); got != "1:05" {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := formatDuration(3*time.Hour + 2*time.Minute + 1*time.Second); got != "3:02:01" {
		t.Fatalf("formatDuration hours = %q", got)
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := truncate("  abcdef ", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "" {
		t.Fatalf("truncate zero = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padLeft("ab", 4); got != "  ab" {
		t.Fatalf("padLeft = %q", got)
	}
}

func TestWindowStart(t *testing.T) {
	cases := []struct {
		cursor, total, height, want int
	}{
		{0, 5, 10, 0},
		{0, 50, 10, 0},
		{20, 50, 10, 15},
		{49, 50, 10, 40},
	}
	for _, tc := range cases {
		if got := windowStart(tc.cursor, tc.total, tc.height); got != tc.want {
			t.Errorf("windowStart(%d, %d, %d) = %d, want %d", tc.cursor, tc.total, tc.height, got, tc.want)
		}
	}
}

func TestRetryDelay(t *testing.T) {
	base := 2 * time.Second
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{-1, 2 * time.Second},
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{3, 16 * time.Second},
		{4, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := retryDelay(tc.failures, base); got != tc.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tc.failures, got, tc.want)
		}
	}
}
