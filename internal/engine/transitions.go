package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
	"github.com/five82/sieve/internal/state"
)

// VideoRemote is the part of the feed API the transition engine needs.
type VideoRemote interface {
	FetchVideos(ctx context.Context, filter feed.Filter) ([]feed.Video, error)
	FetchDaily(ctx context.Context) ([]feed.Video, error)
	SetVideoState(ctx context.Context, id string, next feed.State) error
}

// Notifier shows feedback to the user.
type Notifier interface {
	Show(text string, kind notify.Kind, action *notify.Action) notify.Notice
}

// Outcome classifies how a request settled.
type Outcome int

const (
	// NoOp means nothing changed and no remote call was made.
	NoOp Outcome = iota
	// Committed means the remote accepted the change.
	Committed
	// RolledBack means the remote refused and the record was restored in place.
	RolledBack
	// Reloaded means the record could not be located locally and the list
	// was fetched again.
	Reloaded
)

func (o Outcome) String() string {
	switch o {
	case NoOp:
		return "no-op"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	case Reloaded:
		return "reloaded"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Options configures Transitions.
type Options struct {
	// RemovalStates take a video out of the visible list.
	RemovalStates []feed.State
	// UndoWindow bounds how long a confirmed transition stays undoable.
	UndoWindow time.Duration
	Logger     *slog.Logger
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// DefaultRemovalStates are used when Options leaves RemovalStates empty.
var DefaultRemovalStates = []feed.State{feed.StateHidden, feed.StateRead}

// DefaultUndoWindow is used when Options leaves UndoWindow unset.
const DefaultUndoWindow = 8 * time.Second

// Transitions changes video states optimistically.
type Transitions struct {
	list     *state.ListStore
	remote   VideoRemote
	notifier Notifier
	removal  map[feed.State]bool
	undo     *UndoManager
	logger   *slog.Logger
}

// NewTransitions wires a transition engine and its undo slot to list.
func NewTransitions(list *state.ListStore, remote VideoRemote, notifier Notifier, opts Options) *Transitions {
	removal := opts.RemovalStates
	if len(removal) == 0 {
		removal = DefaultRemovalStates
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Transitions{
		list:     list,
		remote:   remote,
		notifier: notifier,
		removal:  make(map[feed.State]bool, len(removal)),
		logger:   logger,
	}
	for _, s := range removal {
		t.removal[s] = true
	}
	t.undo = newUndoManager(t, opts.UndoWindow, opts.Now)
	return t
}

// Undo returns the undo slot fed by this engine.
func (t *Transitions) Undo() *UndoManager {
	return t.undo
}

// Removes reports whether moving a video into s takes it out of the list.
func (t *Transitions) Removes(s feed.State) bool {
	return t.removal[s]
}

// Load fetches the list for src and replaces the store contents. On failure
// the current list stays and the error is recorded on the snapshot.
func (t *Transitions) Load(ctx context.Context, src state.Source) error {
	var (
		videos []feed.Video
		err    error
	)
	if src.Daily {
		videos, err = t.remote.FetchDaily(ctx)
	} else {
		videos, err = t.remote.FetchVideos(ctx, src.Filter)
	}
	if err != nil {
		t.list.RecordError(src, err)
		t.logger.Warn("load videos failed", "source", src.Label(), "err", err)
		return fmt.Errorf("load %s: %w", src.Label(), err)
	}
	t.list.Replace(src, videos)
	return nil
}

// Reload fetches the current source again.
func (t *Transitions) Reload(ctx context.Context) error {
	return t.Load(ctx, t.list.Source())
}

// Request moves video id to next. The store changes immediately; the remote
// call settles it. Exactly one notice is shown unless the call is a no-op.
func (t *Transitions) Request(ctx context.Context, id string, next feed.State) (Outcome, error) {
	return t.transition(ctx, id, next, true)
}

func (t *Transitions) transition(ctx context.Context, id string, next feed.State, offerUndo bool) (Outcome, error) {
	var (
		applied state.Applied
		source  state.Source
		outcome = NoOp
	)
	_, err := Run(ctx, Txn{
		Apply: func() bool {
			var res state.ApplyResult
			source = t.list.Source()
			applied, res = t.list.Apply(id, next, t.Removes(next))
			return res == state.ApplyChanged
		},
		Remote: func(ctx context.Context) error {
			return t.remote.SetVideoState(ctx, id, next)
		},
		Commit: func() {
			outcome = Committed
			if !offerUndo {
				t.notifier.Show(RestoredMessage(next), notify.KindSuccess, nil)
				return
			}
			t.undo.Offer(Descriptor{
				ID:     id,
				From:   applied.Prev,
				To:     next,
				Index:  applied.Index,
				Video:  applied.Video,
				Source: source,
			})
			t.notifier.Show(ConfirmMessage(next), notify.KindSuccess, &notify.Action{
				Label: "undo",
				Run:   func(ctx context.Context) { _, _ = t.undo.Invoke(ctx) },
			})
		},
		Rollback: func(ctx context.Context, err error) {
			t.logger.Warn("set state failed", "id", id, "state", next, "err", err)
			outcome = t.settleFailure(ctx, id, applied, err)
		},
	})
	return outcome, err
}

// settleFailure undoes an optimistic apply after the remote refused it. A
// record that still holds this call's value gets its previous state back; a
// record that moved on keeps the newer value; a record that is gone forces
// a reload.
func (t *Transitions) settleFailure(ctx context.Context, id string, applied state.Applied, err error) Outcome {
	reason := feed.Reason(err)
	if _, _, ok := t.list.Get(id); ok {
		t.list.CompareAndSetState(id, applied.Next, applied.Prev)
		t.notifier.Show(fmt.Sprintf("Could not update %s: %s", id, reason), notify.KindError, nil)
		return RolledBack
	}
	if rerr := t.Reload(ctx); rerr != nil {
		t.logger.Warn("reload after failed transition", "id", id, "err", rerr)
	}
	t.notifier.Show(fmt.Sprintf("Could not update %s: %s (list reloaded)", id, reason), notify.KindError, nil)
	return Reloaded
}

// ConfirmMessage is the notice shown after a confirmed transition.
func ConfirmMessage(s feed.State) string {
	switch s {
	case feed.StateNew:
		return "Marked new"
	case feed.StateLater:
		return "Saved for later"
	case feed.StateStar:
		return "Starred"
	case feed.StateWatched:
		return "Marked watched"
	case feed.StateHidden:
		return "Hidden"
	case feed.StateRead:
		return "Marked read"
	default:
		return "Marked " + string(s)
	}
}

// RestoredMessage is the notice shown after an undo is confirmed.
func RestoredMessage(s feed.State) string {
	return "Restored to " + string(s)
}
