// Package ui provides the Bubble Tea terminal interface for sieve.
//
// # Views
//
// Two views share one screen layout (header, content, notice bar, key hints):
//
//   - Feed: the video list from state.ListStore, either the filtered feed or
//     the curated daily subset. Single keys move the selected video to a
//     workflow state through engine.Transitions.
//   - Creators: the creator table from state.CreatorStore. Enabled, priority
//     and weight are edited in place through engine.CreatorEditor, and each
//     row shows its own saving/saved/error status.
//
// # Data flow
//
// Key presses resolve to a Command (keys.go, commands.go). Update turns a
// Command into a tea.Cmd that calls the engine off the UI goroutine. The
// engines mutate the stores, and the store and notifier change listeners
// post a storeChangedMsg back into the program, which re-reads snapshots.
// The UI never writes to a store directly.
//
// # Notices and undo
//
// The notifier shows one notice at a time. A confirmed state change carries
// an "undo" action; pressing u runs the action of the visible notice. Once
// the notice is replaced or hidden that undo is no longer reachable from the
// keyboard.
//
// # Themes
//
// Dracula and Slate are built in; T cycles them and the choice is saved to
// the prefs file together with the sort order and the daily toggle.
package ui
