package engine

import "context"

// Txn is one optimistic change: a local mutation that is shown at once, a
// remote call that confirms it, and the two ways of settling it.
//
// Apply reports whether there is anything to do; when it returns false Run
// stops without calling Remote. Commit and Rollback run after Remote returns
// and must not block on the network themselves, except for recovery reloads.
type Txn struct {
	Apply    func() bool
	Remote   func(ctx context.Context) error
	Commit   func()
	Rollback func(ctx context.Context, err error)
}

// Run executes t. It reports whether Apply took effect and returns the
// remote error, if any.
func Run(ctx context.Context, t Txn) (bool, error) {
	if t.Apply != nil && !t.Apply() {
		return false, nil
	}
	if err := t.Remote(ctx); err != nil {
		if t.Rollback != nil {
			t.Rollback(ctx, err)
		}
		return true, err
	}
	if t.Commit != nil {
		t.Commit()
	}
	return true, nil
}
