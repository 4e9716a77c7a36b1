package ui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sieve/internal/engine"
	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
	"github.com/five82/sieve/internal/prefs"
	"github.com/five82/sieve/internal/state"
)

// memRemote is an in-memory feed API.
type memRemote struct {
	mu       sync.Mutex
	videos   []feed.Video
	creators []feed.Creator
	filters  []feed.Filter
	failSet  error
	patches  []feed.CreatorPatch
}

func (r *memRemote) FetchVideos(_ context.Context, f feed.Filter) ([]feed.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	var out []feed.Video
	for _, v := range r.videos {
		if v.State != feed.StateHidden && v.State != feed.StateRead {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memRemote) FetchDaily(ctx context.Context) ([]feed.Video, error) {
	return r.FetchVideos(ctx, feed.Filter{})
}

func (r *memRemote) SetVideoState(_ context.Context, id string, next feed.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return r.failSet
	}
	for i := range r.videos {
		if r.videos[i].ID == id {
			r.videos[i].State = next
		}
	}
	return nil
}

func (r *memRemote) FetchCreators(context.Context) ([]feed.Creator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feed.Creator(nil), r.creators...), nil
}

func (r *memRemote) SetCreatorFields(_ context.Context, patch feed.CreatorPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches = append(r.patches, patch)
	return nil
}

type testUI struct {
	m        Model
	remote   *memRemote
	list     *state.ListStore
	creators *state.CreatorStore
	notifier *notify.Notifier
}

func newTestUI(t *testing.T) *testUI {
	t.Helper()
	remote := &memRemote{
		videos: []feed.Video{
			{ID: "v1", Title: "first", State: feed.StateNew},
			{ID: "v2", Title: "second", State: feed.StateNew},
			{ID: "v3", Title: "third", State: feed.StateLater},
		},
		creators: []feed.Creator{
			{UID: 1, AuthorName: "alice", Enabled: true, Weight: 2},
			{UID: 2, AuthorName: "bob", Enabled: true, Priority: 3, Weight: 1},
		},
	}
	list := &state.ListStore{}
	creators := &state.CreatorStore{}
	notifier := notify.New(0)
	eng := engine.NewTransitions(list, remote, notifier, engine.Options{})
	editor := engine.NewCreatorEditor(creators, remote, nil)

	m := New(Options{
		List:      list,
		Creators:  creators,
		Notifier:  notifier,
		Engine:    eng,
		Editor:    editor,
		Source:    state.Source{Filter: feed.Filter{WhitelistOnly: true, Limit: 50}},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	tu := &testUI{m: m, remote: remote, list: list, creators: creators, notifier: notifier}
	tu.run(t, loadCmd(m.ctx, m.engine, m.source()))
	tu.send(t, tea.WindowSizeMsg{Width: 120, Height: 30})
	return tu
}

// send delivers msg and runs any command it returns, feeding the result back.
func (tu *testUI) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	next, cmd := tu.m.Update(msg)
	tu.m = next.(Model)
	tu.run(t, cmd)
}

func (tu *testUI) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg.(type) {
	case nil:
		return
	case loadedMsg, creatorsLoadedMsg, transitionMsg, editMsg, undoMsg:
		tu.send(t, msg)
	}
}

func (tu *testUI) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		tu.send(t, keyMsg(k))
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestStarThenUndoThroughKeys(t *testing.T) {
	tu := newTestUI(t)

	tu.press(t, "s")
	if v, _, _ := tu.list.Get("v1"); v.State != feed.StateStar {
		t.Fatalf("v1 state = %s, want STAR", v.State)
	}
	if !tu.m.hasNotice || tu.m.notice.Text != "Starred" || !tu.m.notice.HasAction() {
		t.Fatalf("notice = %#v", tu.m.notice)
	}

	tu.press(t, "u")
	if v, _, _ := tu.list.Get("v1"); v.State != feed.StateNew {
		t.Fatalf("v1 state after undo = %s, want NEW", v.State)
	}
	if tu.m.notice.Text != "Restored to NEW" {
		t.Fatalf("notice after undo = %q", tu.m.notice.Text)
	}

	// The undo notice carries no action, so a second u has nothing to run.
	tu.press(t, "u")
	if tu.m.notice.Text != "Nothing to undo" {
		t.Fatalf("notice after second undo = %q", tu.m.notice.Text)
	}
}

func TestHideRemovesRowAndKeepsCursorInRange(t *testing.T) {
	tu := newTestUI(t)

	tu.press(t, "G")
	if tu.m.feedCursor != 2 {
		t.Fatalf("cursor = %d, want 2", tu.m.feedCursor)
	}
	tu.press(t, "x")
	if got := len(tu.m.feed.Videos); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if tu.m.feedCursor != 1 {
		t.Fatalf("cursor = %d, want clamped to 1", tu.m.feedCursor)
	}
	if _, _, ok := tu.list.Get("v3"); ok {
		t.Fatalf("hidden video still listed")
	}
}

func TestFailedStateChangeShowsError(t *testing.T) {
	tu := newTestUI(t)
	tu.remote.failSet = errors.New("boom")

	tu.press(t, "l")
	if v, _, _ := tu.list.Get("v1"); v.State != feed.StateNew {
		t.Fatalf("v1 state = %s, want rolled back to NEW", v.State)
	}
	if tu.m.notice.Kind != notify.KindError || tu.m.notice.HasAction() {
		t.Fatalf("notice = %#v, want error without action", tu.m.notice)
	}
}

func TestEscDismissesNotice(t *testing.T) {
	tu := newTestUI(t)
	tu.press(t, "s")
	tu.press(t, "esc")
	if tu.m.hasNotice {
		t.Fatalf("notice still visible after esc")
	}
}

func TestFilterInputReloadsWithQuery(t *testing.T) {
	tu := newTestUI(t)

	tu.press(t, "/")
	if tu.m.inputMode != inputFilter {
		t.Fatalf("input mode = %v, want filter", tu.m.inputMode)
	}
	tu.m.input.SetValue("tag:go min:100 all")
	tu.press(t, "enter")

	last := tu.remote.filters[len(tu.remote.filters)-1]
	if last.Tag != "go" || last.ViewMin != 100 || last.WhitelistOnly || last.Limit != 50 {
		t.Fatalf("filter = %#v", last)
	}
	if tu.m.inputMode != inputNone {
		t.Fatalf("input still open")
	}
}

func TestCreatorEdits(t *testing.T) {
	tu := newTestUI(t)
	tu.press(t, "tab")
	if tu.m.currentView != ViewCreators || len(tu.m.creatorRows.Rows) != 2 {
		t.Fatalf("view = %v rows = %d", tu.m.currentView, len(tu.m.creatorRows.Rows))
	}

	// bob is must-watch and sorts first; his weight is locked.
	tu.press(t, "w")
	if tu.m.inputMode != inputNone {
		t.Fatalf("weight input opened for must-watch creator")
	}
	if !tu.m.hasNotice || tu.m.notice.Kind != notify.KindInfo {
		t.Fatalf("notice = %#v, want info about locked weight", tu.m.notice)
	}

	// Invalid priority input coerces to 0, which unlocks weight.
	tu.press(t, "p")
	if tu.m.inputMode != inputPriority {
		t.Fatalf("input mode = %v, want priority", tu.m.inputMode)
	}
	tu.m.input.SetValue("-3")
	tu.press(t, "enter")

	row, _ := tu.creators.Row(2)
	if row.Committed.Priority != 0 || !row.WeightEditable() || row.Status.Kind != state.StatusSaved {
		t.Fatalf("row = %#v", row)
	}

	// Both rows are now normal priority, so alice sorts first under the cursor.
	tu.press(t, " ")
	row, _ = tu.creators.Row(1)
	if row.Committed.Enabled {
		t.Fatalf("enabled not toggled: %#v", row)
	}
	if len(tu.remote.patches) != 2 {
		t.Fatalf("patches = %#v, want priority then enabled", tu.remote.patches)
	}
}

func TestToggleSortSavesPrefs(t *testing.T) {
	tu := newTestUI(t)
	tu.press(t, "o", "T")

	got := prefs.Load(tu.m.prefsPath)
	if got.Sort != "view" || got.Theme != "Slate" {
		t.Fatalf("prefs = %#v", got)
	}
	last := tu.remote.filters[len(tu.remote.filters)-1]
	if last.Sort != feed.SortView {
		t.Fatalf("reload sort = %q, want view", last.Sort)
	}
}

func TestViewRendersWithoutPanicking(t *testing.T) {
	tu := newTestUI(t)
	tu.press(t, "s")
	if out := tu.m.View(); out == "" {
		t.Fatalf("empty feed view")
	}
	tu.press(t, "tab")
	if out := tu.m.View(); out == "" {
		t.Fatalf("empty creators view")
	}
	tu.press(t, "?")
	if !tu.m.showHelp || tu.m.View() == "" {
		t.Fatalf("help not shown")
	}
	tu.press(t, "j")
	if tu.m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestQuit(t *testing.T) {
	tu := newTestUI(t)
	_, cmd := tu.m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatalf("no command for q")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit")
	}
}
