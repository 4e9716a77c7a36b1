// Package notify shows short-lived feedback messages with an optional action.
//
// Exactly one notice is visible at a time. Showing a new notice replaces the
// previous one together with its action; notices hide themselves after a
// fixed duration. Hiding a notice only affects what is shown: whatever the
// action refers to (for example a pending undo) keeps its own lifecycle.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects how a notice is styled.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindError
)

// Action is the single affordance a notice may offer.
type Action struct {
	Label string
	Run   func(ctx context.Context)
}

// Notice is one message.
type Notice struct {
	ID      string
	Text    string
	Kind    Kind
	Action  *Action
	ShownAt time.Time
}

// HasAction reports whether the notice still offers its action.
func (n Notice) HasAction() bool {
	return n.Action != nil && n.Action.Run != nil
}

// Timer is the subset of *time.Timer the notifier uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// Option configures a Notifier.
type Option func(*Notifier)

// WithAfterFunc replaces the timer source, for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(n *Notifier) { n.afterFunc = fn }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// Notifier holds the visible notice.
type Notifier struct {
	mu        sync.Mutex
	current   *Notice
	timer     Timer
	duration  time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	listeners []func()
}

// New builds a Notifier whose notices hide after duration. A non-positive
// duration keeps notices until replaced or dismissed.
func New(duration time.Duration, opts ...Option) *Notifier {
	n := &Notifier{
		duration: duration,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OnChange registers fn to be called whenever the visible notice changes.
func (n *Notifier) OnChange(fn func()) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Show replaces the visible notice.
func (n *Notifier) Show(text string, kind Kind, action *Action) Notice {
	notice := Notice{
		ID:      uuid.NewString(),
		Text:    text,
		Kind:    kind,
		Action:  action,
		ShownAt: n.now(),
	}

	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = &notice
	if n.duration > 0 {
		id := notice.ID
		n.timer = n.afterFunc(n.duration, func() { n.Hide(id) })
	}
	listeners := n.listeners
	n.mu.Unlock()

	notifyAll(listeners)
	return notice
}

// Current returns the visible notice.
func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}

// Hide removes the notice with id if it is still the visible one.
func (n *Notifier) Hide(id string) {
	n.mu.Lock()
	if n.current == nil || n.current.ID != id {
		n.mu.Unlock()
		return
	}
	n.clearLocked()
	listeners := n.listeners
	n.mu.Unlock()

	notifyAll(listeners)
}

// Dismiss removes whatever notice is visible.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.current == nil {
		n.mu.Unlock()
		return
	}
	n.clearLocked()
	listeners := n.listeners
	n.mu.Unlock()

	notifyAll(listeners)
}

// Trigger runs the visible notice's action, at most once. It reports whether
// an action ran. The action is detached before it runs so a second Trigger
// while it is still running does nothing.
func (n *Notifier) Trigger(ctx context.Context) bool {
	n.mu.Lock()
	if n.current == nil || !n.current.HasAction() {
		n.mu.Unlock()
		return false
	}
	action := n.current.Action
	detached := *n.current
	detached.Action = nil
	n.current = &detached
	listeners := n.listeners
	n.mu.Unlock()

	notifyAll(listeners)
	action.Run(ctx)
	return true
}

func (n *Notifier) clearLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
}

func notifyAll(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}
