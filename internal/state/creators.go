package state

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/five82/sieve/internal/feed"
)

// StatusKind is the per-row save indicator.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusSaving
	StatusSaved
	StatusError
)

// RowStatus is the feedback shown next to a creator row.
type RowStatus struct {
	Kind    StatusKind
	Field   feed.CreatorField
	At      time.Time
	Message string
}

// CreatorRow is a read-only view of one creator. Committed holds the last
// value confirmed by the server, Displayed overlays in-flight edits.
type CreatorRow struct {
	Committed feed.Creator
	Displayed feed.Creator
	Saving    []feed.CreatorField
	Status    RowStatus
}

// WeightEditable reports whether the weight input accepts edits. It follows
// the committed priority, not an in-flight one.
func (r CreatorRow) WeightEditable() bool {
	return r.Committed.WeightEditable()
}

// EditResult classifies the outcome of CreatorStore.BeginEdit.
type EditResult int

const (
	EditStarted EditResult = iota
	EditNotFound
	EditUnchanged
	EditLocked
)

// CreatorSnapshot is a point-in-time copy of the creator table.
type CreatorSnapshot struct {
	Rows        []CreatorRow
	Loaded      bool
	LastUpdated time.Time
	LastError   error
	Version     uint64
}

type draft struct {
	value int
	seq   uint64
}

type creatorEntry struct {
	committed feed.Creator
	drafts    map[feed.CreatorField]draft
	status    RowStatus
}

// CreatorStore holds creator settings together with in-flight field edits.
type CreatorStore struct {
	mu          sync.RWMutex
	entries     map[int64]*creatorEntry
	seq         uint64
	loaded      bool
	lastUpdated time.Time
	lastError   error
	version     uint64
	listeners   []func()
}

// OnChange registers fn to be called after every mutation.
func (s *CreatorStore) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Replace loads a fresh creator list. Rows keep their status line.
func (s *CreatorStore) Replace(creators []feed.Creator) {
	s.mutate(func() {
		next := make(map[int64]*creatorEntry, len(creators))
		for _, c := range creators {
			entry := &creatorEntry{committed: c, drafts: map[feed.CreatorField]draft{}}
			if prev, ok := s.entries[c.UID]; ok {
				entry.status = prev.status
				for field, d := range prev.drafts {
					entry.drafts[field] = d
				}
			}
			next[c.UID] = entry
		}
		s.entries = next
		s.loaded = true
		s.lastError = nil
		s.lastUpdated = time.Now()
	})
}

// RecordError remembers a failed load.
func (s *CreatorStore) RecordError(err error) {
	s.mutate(func() {
		s.lastError = err
		s.lastUpdated = time.Now()
	})
}

// Row returns the current view of uid.
func (s *CreatorStore) Row(uid int64) (CreatorRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[uid]
	if !ok {
		return CreatorRow{}, false
	}
	return entry.row(), true
}

// BeginEdit records value as the pending draft of field. The edit does not
// start when value equals the displayed value or when the field is locked.
func (s *CreatorStore) BeginEdit(uid int64, field feed.CreatorField, value int) (uint64, CreatorRow, EditResult) {
	s.mu.Lock()
	entry, ok := s.entries[uid]
	if !ok {
		s.mu.Unlock()
		return 0, CreatorRow{}, EditNotFound
	}
	row := entry.row()
	if field == feed.FieldWeight && !row.WeightEditable() {
		s.mu.Unlock()
		return 0, row, EditLocked
	}
	if field.Get(row.Displayed) == value {
		s.mu.Unlock()
		return 0, row, EditUnchanged
	}
	s.seq++
	seq := s.seq
	entry.drafts[field] = draft{value: value, seq: seq}
	entry.status = RowStatus{Kind: StatusSaving, Field: field}
	s.version++
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners)
	return seq, row, EditStarted
}

// CommitEdit makes value the confirmed value of field. The draft is cleared
// only if no newer edit of the same field replaced it. The row reads saved
// once no edit of it is in flight.
func (s *CreatorStore) CommitEdit(uid int64, field feed.CreatorField, seq uint64, value int, at time.Time) {
	s.mutate(func() {
		entry, ok := s.entries[uid]
		if !ok {
			return
		}
		field.Set(&entry.committed, value)
		entry.clearDraft(field, seq)
		if len(entry.drafts) > 0 {
			return
		}
		entry.status = RowStatus{Kind: StatusSaved, Field: field, At: at}
	})
}

// FailEdit discards the draft of field so the row shows the pre-edit value.
func (s *CreatorStore) FailEdit(uid int64, field feed.CreatorField, seq uint64, message string, at time.Time) {
	s.mutate(func() {
		entry, ok := s.entries[uid]
		if !ok {
			return
		}
		if !entry.clearDraft(field, seq) {
			// A newer edit of this field is still saving.
			return
		}
		entry.status = RowStatus{Kind: StatusError, Field: field, At: at, Message: message}
	})
}

// clearDraft removes the draft of field if it belongs to edit seq. It
// reports false when a newer edit of the field holds the draft.
func (e *creatorEntry) clearDraft(field feed.CreatorField, seq uint64) bool {
	d, ok := e.drafts[field]
	if !ok {
		return true
	}
	if d.seq != seq {
		return false
	}
	delete(e.drafts, field)
	return true
}

// Snapshot returns all rows in display order.
func (s *CreatorStore) Snapshot() CreatorSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]CreatorRow, 0, len(s.entries))
	for _, entry := range s.entries {
		rows = append(rows, entry.row())
	}
	SortRows(rows)
	return CreatorSnapshot{
		Rows:        rows,
		Loaded:      s.loaded,
		LastUpdated: s.lastUpdated,
		LastError:   s.lastError,
		Version:     s.version,
	}
}

// SortRows orders rows must-watch first (higher priority first), then
// enabled before disabled, then by name.
func SortRows(rows []CreatorRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Committed, rows[j].Committed
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Enabled != b.Enabled {
			return a.Enabled
		}
		an, bn := strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())
		if an != bn {
			return an < bn
		}
		return a.UID < b.UID
	})
}

func (s *CreatorStore) mutate(fn func()) {
	s.mu.Lock()
	if s.entries == nil {
		s.entries = map[int64]*creatorEntry{}
	}
	fn()
	s.version++
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners)
}

func (e *creatorEntry) row() CreatorRow {
	row := CreatorRow{
		Committed: e.committed,
		Displayed: e.committed,
		Status:    e.status,
	}
	for _, field := range feed.CreatorFields {
		if d, ok := e.drafts[field]; ok {
			field.Set(&row.Displayed, d.value)
			row.Saving = append(row.Saving, field)
		}
	}
	return row
}
