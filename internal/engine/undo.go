package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
	"github.com/five82/sieve/internal/state"
)

// Descriptor records the last confirmed transition so it can be reversed.
// Index and Video keep enough of the record to put it back after a removal;
// Source is the list they refer to.
type Descriptor struct {
	ID        string
	From      feed.State
	To        feed.State
	Index     int
	Video     feed.Video
	Source    state.Source
	OfferedAt time.Time
}

// UndoManager holds at most one pending Descriptor.
type UndoManager struct {
	mu      sync.Mutex
	pending *Descriptor
	window  time.Duration
	now     func() time.Time
	engine  *Transitions
}

func newUndoManager(engine *Transitions, window time.Duration, now func() time.Time) *UndoManager {
	if window <= 0 {
		window = DefaultUndoWindow
	}
	if now == nil {
		now = time.Now
	}
	return &UndoManager{engine: engine, window: window, now: now}
}

// Offer makes d the only undoable transition.
func (u *UndoManager) Offer(d Descriptor) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if d.OfferedAt.IsZero() {
		d.OfferedAt = u.now()
	}
	u.pending = &d
}

// Pending returns the live descriptor, if any.
func (u *UndoManager) Pending() (Descriptor, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pending == nil || u.expiredLocked(*u.pending) {
		return Descriptor{}, false
	}
	return *u.pending, true
}

// Invoke reverses the pending transition. The slot is emptied before any
// I/O, so only the first of several overlapping calls does anything.
func (u *UndoManager) Invoke(ctx context.Context) (Outcome, error) {
	d, ok := u.take()
	if !ok {
		return NoOp, nil
	}
	if !u.engine.Removes(d.To) {
		if _, _, ok := u.engine.list.Get(d.ID); !ok {
			u.engine.notifier.Show(fmt.Sprintf("Nothing to undo: %s is no longer listed", d.ID), notify.KindInfo, nil)
			return NoOp, nil
		}
		return u.engine.transition(ctx, d.ID, d.From, false)
	}
	return u.restoreRemoved(ctx, d)
}

func (u *UndoManager) take() (Descriptor, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pending == nil {
		return Descriptor{}, false
	}
	d := *u.pending
	u.pending = nil
	if u.expiredLocked(d) {
		return Descriptor{}, false
	}
	return d, true
}

func (u *UndoManager) expiredLocked(d Descriptor) bool {
	return u.now().Sub(d.OfferedAt) > u.window
}

// restoreRemoved brings back a record whose transition took it out of the
// list. The list is reloaded first so the restore lands on current data.
// The saved record is only re-inserted into the list it was removed from;
// after a switch to another query the reversal is persisted without
// touching the list.
func (u *UndoManager) restoreRemoved(ctx context.Context, d Descriptor) (Outcome, error) {
	t := u.engine
	if err := t.Reload(ctx); err != nil {
		t.logger.Warn("reload before undo failed", "id", d.ID, "err", err)
	}

	outcome := NoOp
	_, err := Run(ctx, Txn{
		Apply: func() bool {
			if current, idx, ok := t.list.Get(d.ID); ok {
				current.State = d.From
				t.list.Restore(current, idx)
				return true
			}
			if t.list.Source() != d.Source {
				return true
			}
			restored := d.Video
			restored.State = d.From
			t.list.Restore(restored, d.Index)
			return true
		},
		Remote: func(ctx context.Context) error {
			return t.remote.SetVideoState(ctx, d.ID, d.From)
		},
		Commit: func() {
			outcome = Committed
			t.notifier.Show(RestoredMessage(d.From), notify.KindSuccess, nil)
		},
		Rollback: func(ctx context.Context, err error) {
			outcome = Reloaded
			t.logger.Warn("undo failed", "id", d.ID, "state", d.From, "err", err)
			if rerr := t.Reload(ctx); rerr != nil {
				t.logger.Warn("reload after failed undo", "id", d.ID, "err", rerr)
			}
			t.notifier.Show(fmt.Sprintf("Undo failed: %s", feed.Reason(err)), notify.KindError, nil)
		},
	})
	return outcome, err
}
