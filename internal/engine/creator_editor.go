package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/state"
)

// CreatorRemote is the part of the feed API the creator editor needs.
type CreatorRemote interface {
	FetchCreators(ctx context.Context) ([]feed.Creator, error)
	SetCreatorFields(ctx context.Context, patch feed.CreatorPatch) error
}

// EditOutcome classifies how a field edit settled.
type EditOutcome int

const (
	EditNoOp EditOutcome = iota
	EditSaved
	EditFailed
	EditLocked
	EditUnknown
)

func (o EditOutcome) String() string {
	switch o {
	case EditNoOp:
		return "no-op"
	case EditSaved:
		return "saved"
	case EditFailed:
		return "failed"
	case EditLocked:
		return "locked"
	case EditUnknown:
		return "unknown creator"
	default:
		return fmt.Sprintf("edit(%d)", int(o))
	}
}

// CreatorEditor saves creator settings one field at a time.
type CreatorEditor struct {
	store  *state.CreatorStore
	remote CreatorRemote
	logger *slog.Logger
	now    func() time.Time
}

// NewCreatorEditor builds an editor over store. A nil logger discards.
func NewCreatorEditor(store *state.CreatorStore, remote CreatorRemote, logger *slog.Logger) *CreatorEditor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CreatorEditor{store: store, remote: remote, logger: logger, now: time.Now}
}

// Load replaces the store contents with the remote creator list.
func (e *CreatorEditor) Load(ctx context.Context) error {
	creators, err := e.remote.FetchCreators(ctx)
	if err != nil {
		e.store.RecordError(err)
		e.logger.Warn("load creators failed", "err", err)
		return fmt.Errorf("load creators: %w", err)
	}
	e.store.Replace(creators)
	return nil
}

// SetField coerces input for field and saves it. Input that cannot be read
// as a boolean leaves enabled untouched.
func (e *CreatorEditor) SetField(ctx context.Context, uid int64, field feed.CreatorField, input string) (EditOutcome, error) {
	switch field {
	case feed.FieldEnabled:
		on, ok := ParseToggle(input)
		if !ok {
			return EditNoOp, nil
		}
		return e.SetEnabled(ctx, uid, on)
	case feed.FieldPriority:
		return e.SetPriority(ctx, uid, CoercePriority(input))
	case feed.FieldWeight:
		return e.SetWeight(ctx, uid, CoerceWeight(input))
	default:
		return EditNoOp, fmt.Errorf("unknown creator field %q", field)
	}
}

// SetEnabled saves the enabled flag.
func (e *CreatorEditor) SetEnabled(ctx context.Context, uid int64, on bool) (EditOutcome, error) {
	v := 0
	if on {
		v = 1
	}
	return e.save(ctx, uid, feed.FieldEnabled, v)
}

// SetPriority saves priority, clamped to zero or more.
func (e *CreatorEditor) SetPriority(ctx context.Context, uid int64, priority int) (EditOutcome, error) {
	return e.save(ctx, uid, feed.FieldPriority, max(priority, 0))
}

// SetWeight saves weight, clamped to one or more.
func (e *CreatorEditor) SetWeight(ctx context.Context, uid int64, weight int) (EditOutcome, error) {
	return e.save(ctx, uid, feed.FieldWeight, max(weight, 1))
}

func (e *CreatorEditor) save(ctx context.Context, uid int64, field feed.CreatorField, value int) (EditOutcome, error) {
	var (
		seq     uint64
		outcome = EditNoOp
	)
	_, err := Run(ctx, Txn{
		Apply: func() bool {
			var res state.EditResult
			seq, _, res = e.store.BeginEdit(uid, field, value)
			switch res {
			case state.EditLocked:
				outcome = EditLocked
			case state.EditNotFound:
				outcome = EditUnknown
			}
			return res == state.EditStarted
		},
		Remote: func(ctx context.Context) error {
			return e.remote.SetCreatorFields(ctx, field.Patch(uid, value))
		},
		Commit: func() {
			outcome = EditSaved
			e.store.CommitEdit(uid, field, seq, value, e.now())
		},
		Rollback: func(_ context.Context, err error) {
			outcome = EditFailed
			e.logger.Warn("save creator field failed", "uid", uid, "field", field, "value", value, "err", err)
			e.store.FailEdit(uid, field, seq, feed.Reason(err), e.now())
		},
	})
	return outcome, err
}

// CoercePriority reads a priority. Invalid or negative input becomes 0.
func CoercePriority(input string) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// CoerceWeight reads a weight. Invalid input or values below 1 become 1.
func CoerceWeight(input string) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseToggle reads a boolean the way a form field would send it.
func ParseToggle(input string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "on", "y", "t":
		return true, true
	case "0", "false", "no", "off", "n", "f":
		return false, true
	default:
		return false, false
	}
}
