package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/sieve/internal/feed"
)

func seedList(t *testing.T) *ListStore {
	t.Helper()
	var s ListStore
	s.Replace(Source{Filter: feed.Filter{WhitelistOnly: true}}, []feed.Video{
		{ID: "a", State: feed.StateNew, Tags: []string{"x"}},
		{ID: "b", State: feed.StateLater},
		{ID: "c", State: feed.StateNew},
	})
	return &s
}

func ids(videos []feed.Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestListStore_ReplaceAndSnapshotClone(t *testing.T) {
	s := seedList(t)

	snap := s.Snapshot()
	if !snap.Loaded || len(snap.Videos) != 3 {
		t.Fatalf("snapshot = %#v, want 3 loaded videos", snap)
	}
	if snap.LastUpdated.IsZero() {
		t.Fatalf("LastUpdated should be set")
	}

	snap.Videos[0].ID = "mutated"
	snap.Videos[0].Tags[0] = "y"
	again := s.Snapshot()
	if again.Videos[0].ID != "a" || again.Videos[0].Tags[0] != "x" {
		t.Fatalf("Snapshot should deep-clone videos, got %#v", again.Videos[0])
	}
}

func TestListStore_ApplyInPlace(t *testing.T) {
	s := seedList(t)
	before := s.Snapshot().Version

	applied, res := s.Apply("a", feed.StateStar, false)
	if res != ApplyChanged {
		t.Fatalf("Apply result = %v, want ApplyChanged", res)
	}
	if applied.Prev != feed.StateNew || applied.Next != feed.StateStar || applied.Index != 0 || applied.Removed {
		t.Fatalf("Applied = %#v", applied)
	}
	v, _, ok := s.Get("a")
	if !ok || v.State != feed.StateStar {
		t.Fatalf("Get(a) = %#v, %v, want STAR", v, ok)
	}
	if s.Snapshot().Version <= before {
		t.Fatalf("Version should advance on Apply")
	}
}

func TestListStore_ApplyRemoves(t *testing.T) {
	s := seedList(t)

	applied, res := s.Apply("b", feed.StateHidden, true)
	if res != ApplyChanged || !applied.Removed || applied.Index != 1 {
		t.Fatalf("Apply = %#v, %v", applied, res)
	}
	if applied.Video.State != feed.StateLater {
		t.Fatalf("Applied.Video should hold the pre-change record, got %#v", applied.Video)
	}
	if got := ids(s.Snapshot().Videos); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("ids = %v, want [a c]", got)
	}
}

func TestListStore_ApplyNoOps(t *testing.T) {
	s := seedList(t)
	before := s.Snapshot().Version

	if _, res := s.Apply("missing", feed.StateStar, false); res != ApplyNotFound {
		t.Fatalf("Apply(missing) = %v, want ApplyNotFound", res)
	}
	if _, res := s.Apply("b", feed.StateLater, false); res != ApplyUnchanged {
		t.Fatalf("Apply(same state) = %v, want ApplyUnchanged", res)
	}
	if s.Snapshot().Version != before {
		t.Fatalf("no-op Apply should not bump the version")
	}
}

func TestListStore_CompareAndSetState(t *testing.T) {
	s := seedList(t)
	s.Apply("a", feed.StateStar, false)

	if s.CompareAndSetState("a", feed.StateLater, feed.StateNew) {
		t.Fatalf("CompareAndSetState should refuse when expectation does not hold")
	}
	if !s.CompareAndSetState("a", feed.StateStar, feed.StateNew) {
		t.Fatalf("CompareAndSetState should succeed when expectation holds")
	}
	if v, _, _ := s.Get("a"); v.State != feed.StateNew {
		t.Fatalf("state = %s, want NEW", v.State)
	}
	if s.CompareAndSetState("missing", feed.StateNew, feed.StateStar) {
		t.Fatalf("CompareAndSetState on missing id should be false")
	}
}

func TestListStore_Restore(t *testing.T) {
	s := seedList(t)
	applied, _ := s.Apply("b", feed.StateHidden, true)

	restored := applied.Video
	restored.State = feed.StateLater
	s.Restore(restored, applied.Index)
	if got := ids(s.Snapshot().Videos); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("ids after Restore = %v, want [a b c]", got)
	}

	// Restoring an existing id updates in place.
	restored.State = feed.StateStar
	s.Restore(restored, 99)
	snap := s.Snapshot()
	if len(snap.Videos) != 3 || snap.Videos[1].State != feed.StateStar {
		t.Fatalf("Restore of existing id = %#v", snap.Videos)
	}

	// Out-of-range index clamps to the end.
	s.Restore(feed.Video{ID: "z"}, 42)
	if got := ids(s.Snapshot().Videos); got[len(got)-1] != "z" {
		t.Fatalf("ids = %v, want z appended", got)
	}
}

func TestListStore_RecordErrorKeepsVideos(t *testing.T) {
	s := seedList(t)
	origErr := errors.New("boom")
	src := Source{Daily: true}
	s.RecordError(src, origErr)

	snap := s.Snapshot()
	if len(snap.Videos) != 3 {
		t.Fatalf("videos changed on error: %v", ids(snap.Videos))
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if !s.Source().Daily {
		t.Fatalf("Source should follow the failed load")
	}
}

func TestListStore_ListenersRunOutsideLock(t *testing.T) {
	var s ListStore
	calls := 0
	s.OnChange(func() {
		calls++
		// Reading inside the listener must not deadlock.
		_ = s.Snapshot()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Replace(Source{}, []feed.Video{{ID: "a"}})
		s.Apply("a", feed.StateStar, false)
		s.Remove("a")
		s.Remove("a")
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener deadlocked")
	}
	if calls != 3 {
		t.Fatalf("listener calls = %d, want 3", calls)
	}
}

func TestSourceLabel(t *testing.T) {
	if (Source{Daily: true}).Label() != "daily" {
		t.Fatalf("daily label mismatch")
	}
	if got := (Source{Filter: feed.Filter{Tag: "go", WhitelistOnly: true}}).Label(); got != "tag=go" {
		t.Fatalf("Label = %q, want tag=go", got)
	}
}
