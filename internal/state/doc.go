// Package state holds the in-memory collections the triage UI renders.
//
// # Overview
//
// Two stores live here:
//
//   - ListStore: the ordered videos for the current query. The transition
//     engine is its only writer; the UI and CLI only read snapshots.
//   - CreatorStore: creator settings plus the drafts of field edits that are
//     still waiting for the server.
//
// # Concurrency Model
//
// Both stores use a sync.RWMutex:
//
//   - mutations take the write lock and never hold it across network I/O
//   - Snapshot takes the read lock and returns deep copies
//   - change listeners run after the lock is released, so a listener may
//     call back into the store (or block on a UI channel) without deadlock
//
// Engines call the store from tea.Cmd goroutines; the UI reads snapshots
// from its Update loop. No two mutations ever interleave inside the store.
//
// # Optimistic Values
//
// ListStore.Apply changes a record's state (or removes it) in one step and
// reports what it replaced, so the caller can roll back. Rollback goes
// through CompareAndSetState: a failure of an older request cannot clobber
// a newer optimistic value.
//
// CreatorStore keeps committed values and drafts apart. A row's Displayed
// creator is Committed with drafts overlaid; the draft disappears on commit
// or failure, and each draft carries a sequence number so that only the
// edit that created it can clear it.
//
// # Testing Considerations
//
// Zero values are ready to use:
//
//	var list state.ListStore
//	var creators state.CreatorStore
package state
