package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/sieve/internal/feed"
)

// Source identifies the query that produced the current list.
type Source struct {
	Daily  bool
	Filter feed.Filter
}

// Label returns a short description of the source for headers.
func (s Source) Label() string {
	if s.Daily {
		return "daily"
	}
	return s.Filter.Describe()
}

// ListSnapshot represents the latest list available to the UI.
type ListSnapshot struct {
	Source      Source
	Videos      []feed.Video
	Loaded      bool
	LastUpdated time.Time
	LastError   error
	Version     uint64
}

// Applied describes an optimistic state change made by ListStore.Apply.
type Applied struct {
	Prev    feed.State
	Next    feed.State
	Index   int
	Removed bool
	Video   feed.Video // record as it was before the change
}

// ApplyResult classifies the outcome of ListStore.Apply.
type ApplyResult int

const (
	ApplyChanged ApplyResult = iota
	ApplyNotFound
	ApplyUnchanged
)

// ListStore is the ordered collection of videos for the current query. It is
// the single source of truth for what the presentation renders.
type ListStore struct {
	mu        sync.RWMutex
	snapshot  ListSnapshot
	listeners []func()
}

// OnChange registers fn to be called after every mutation. Listeners run
// outside the lock.
func (s *ListStore) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Replace swaps in a freshly fetched list.
func (s *ListStore) Replace(src Source, videos []feed.Video) {
	s.mutate(func(snap *ListSnapshot) {
		snap.Source = src
		snap.Videos = cloneVideos(videos)
		snap.Loaded = true
		snap.LastError = nil
		snap.LastUpdated = time.Now()
	})
}

// RecordError keeps the current list but remembers a failed load.
func (s *ListStore) RecordError(src Source, err error) {
	s.mutate(func(snap *ListSnapshot) {
		snap.Source = src
		snap.LastError = err
		snap.LastUpdated = time.Now()
	})
}

// Source returns the query behind the current list.
func (s *ListStore) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Source
}

// Get returns the record with id and its position.
func (s *ListStore) Get(id string) (feed.Video, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return feed.Video{}, -1, false
	}
	return cloneVideo(s.snapshot.Videos[idx]), idx, true
}

// Apply sets the state of id to next and, when remove is true, takes the
// record out of the list in the same step.
func (s *ListStore) Apply(id string, next feed.State, remove bool) (Applied, ApplyResult) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return Applied{}, ApplyNotFound
	}
	current := s.snapshot.Videos[idx]
	if current.State == next {
		s.mu.Unlock()
		return Applied{}, ApplyUnchanged
	}
	applied := Applied{
		Prev:    current.State,
		Next:    next,
		Index:   idx,
		Removed: remove,
		Video:   cloneVideo(current),
	}
	if remove {
		s.snapshot.Videos = slices.Delete(s.snapshot.Videos, idx, idx+1)
	} else {
		s.snapshot.Videos[idx].State = next
	}
	s.snapshot.Version++
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners)
	return applied, ApplyChanged
}

// CompareAndSetState sets the state of id to next only if it currently holds
// expect. It reports whether the record was found and updated.
func (s *ListStore) CompareAndSetState(id string, expect, next feed.State) bool {
	changed := false
	s.mutateIf(func(snap *ListSnapshot) bool {
		idx := indexOf(snap.Videos, id)
		if idx < 0 || snap.Videos[idx].State != expect {
			return false
		}
		snap.Videos[idx].State = next
		changed = true
		return true
	})
	return changed
}

// Restore puts v back into the list. An existing record with the same id is
// updated in place; otherwise v is inserted at index, clamped to the list
// bounds.
func (s *ListStore) Restore(v feed.Video, index int) {
	s.mutate(func(snap *ListSnapshot) {
		if idx := indexOf(snap.Videos, v.ID); idx >= 0 {
			snap.Videos[idx] = cloneVideo(v)
			return
		}
		index = max(0, min(index, len(snap.Videos)))
		snap.Videos = slices.Insert(snap.Videos, index, cloneVideo(v))
	})
}

// Remove takes id out of the list.
func (s *ListStore) Remove(id string) bool {
	removed := false
	s.mutateIf(func(snap *ListSnapshot) bool {
		idx := indexOf(snap.Videos, id)
		if idx < 0 {
			return false
		}
		snap.Videos = slices.Delete(snap.Videos, idx, idx+1)
		removed = true
		return true
	})
	return removed
}

// Snapshot returns a copy of the current list.
func (s *ListStore) Snapshot() ListSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Videos = cloneVideos(s.snapshot.Videos)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Len returns the number of visible records.
func (s *ListStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot.Videos)
}

func (s *ListStore) mutate(fn func(snap *ListSnapshot)) {
	s.mutateIf(func(snap *ListSnapshot) bool {
		fn(snap)
		return true
	})
}

func (s *ListStore) mutateIf(fn func(snap *ListSnapshot) bool) {
	s.mu.Lock()
	if !fn(&s.snapshot) {
		s.mu.Unlock()
		return
	}
	s.snapshot.Version++
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners)
}

func (s *ListStore) indexLocked(id string) int {
	return indexOf(s.snapshot.Videos, id)
}

func indexOf(videos []feed.Video, id string) int {
	return slices.IndexFunc(videos, func(v feed.Video) bool { return v.ID == id })
}

func notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}

func cloneVideo(v feed.Video) feed.Video {
	v.Tags = slices.Clone(v.Tags)
	return v
}

func cloneVideos(videos []feed.Video) []feed.Video {
	if len(videos) == 0 {
		return nil
	}
	dup := make([]feed.Video, len(videos))
	for i, v := range videos {
		dup[i] = cloneVideo(v)
	}
	return dup
}
