package engine

import (
	"context"
	"sync"
	"time"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
	"github.com/five82/sieve/internal/state"
)

type stateCall struct {
	ID    string
	State feed.State
}

// fakeRemote serves a fixed list and lets each write be scripted.
type fakeRemote struct {
	mu sync.Mutex

	videos   []feed.Video
	creators []feed.Creator
	fetchErr error

	// setState decides the result of the n-th SetVideoState call. It may
	// block; it runs outside the fake's lock.
	setState   func(n int, id string, next feed.State) error
	stateCalls []stateCall
	fetches    int

	setFields    func(n int, patch feed.CreatorPatch) error
	patches      []feed.CreatorPatch
	creatorLoads int
}

var _ VideoRemote = (*fakeRemote)(nil)
var _ CreatorRemote = (*fakeRemote)(nil)

func (f *fakeRemote) FetchVideos(context.Context, feed.Filter) ([]feed.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]feed.Video(nil), f.videos...), nil
}

func (f *fakeRemote) FetchDaily(ctx context.Context) ([]feed.Video, error) {
	return f.FetchVideos(ctx, feed.Filter{})
}

func (f *fakeRemote) SetVideoState(_ context.Context, id string, next feed.State) error {
	f.mu.Lock()
	n := len(f.stateCalls)
	f.stateCalls = append(f.stateCalls, stateCall{ID: id, State: next})
	script := f.setState
	f.mu.Unlock()
	if script == nil {
		return nil
	}
	return script(n, id, next)
}

func (f *fakeRemote) FetchCreators(context.Context) ([]feed.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creatorLoads++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]feed.Creator(nil), f.creators...), nil
}

func (f *fakeRemote) SetCreatorFields(_ context.Context, patch feed.CreatorPatch) error {
	f.mu.Lock()
	n := len(f.patches)
	f.patches = append(f.patches, patch)
	script := f.setFields
	f.mu.Unlock()
	if script == nil {
		return nil
	}
	return script(n, patch)
}

func (f *fakeRemote) calls() []stateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stateCall(nil), f.stateCalls...)
}

func (f *fakeRemote) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeRemote) patchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patches)
}

// recorder keeps every notice shown.
type recorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recorder) Show(text string, kind notify.Kind, action *notify.Action) notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := notify.Notice{Text: text, Kind: kind, Action: action}
	r.notices = append(r.notices, n)
	return n
}

func (r *recorder) all() []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notice(nil), r.notices...)
}

func (r *recorder) last() (notify.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notify.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// manualClock is a settable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	list   *state.ListStore
	remote *fakeRemote
	notes  *recorder
	clock  *manualClock
	engine *Transitions
}

func newHarness(videos ...feed.Video) *harness {
	h := &harness{
		list:   &state.ListStore{},
		remote: &fakeRemote{videos: videos},
		notes:  &recorder{},
		clock:  &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.list.Replace(state.Source{Filter: feed.Filter{WhitelistOnly: true}}, videos)
	h.engine = NewTransitions(h.list, h.remote, h.notes, Options{
		UndoWindow: 5 * time.Second,
		Now:        h.clock.Now,
	})
	return h
}

func video(id string, s feed.State) feed.Video {
	return feed.Video{ID: id, Title: "video " + id, State: s}
}
