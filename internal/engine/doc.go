// Package engine reconciles local edits with the feed server.
//
// Both engines follow the same shape, captured by Txn and Run: change the
// store first so the UI reflects the intent immediately, make one remote
// call, then either commit or roll back.
//
// Transitions moves videos between workflow states. A confirmed transition
// is offered to the UndoManager, which keeps exactly one reversible step.
// A failed transition restores the previous state when the record is still
// in the list and reloads the list when it is not.
//
// CreatorEditor saves creator settings field by field. Every (creator,
// field) pair is its own transaction with a row-level status; failures
// revert the field and never reload.
//
// Engine methods block on the network and are meant to run inside tea.Cmd
// goroutines. Remote failures are reported through the Notifier or the
// CreatorStore row status and returned for callers that want them; they
// never leave a store in a half-applied state.
package engine
