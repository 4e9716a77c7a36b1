// Package app is the composition root for sieve.
//
// # Overview
//
// NewSession loads configuration and preferences and wires one object graph:
//
//	┌──────────────┐
//	│ NewSession() │
//	└──────┬───────┘
//	       ├─────> config.Load()             Read ~/.config/sieve/config.toml
//	       ├─────> prefs.Load()              Theme, sort, daily toggle
//	       ├─────> feed.NewClient()          REST client for the feed API
//	       ├─────> state.ListStore{}         Visible video list
//	       ├─────> state.CreatorStore{}      Creator table with drafts
//	       ├─────> notify.New()              Single-slot notice bar
//	       ├─────> engine.NewTransitions()   Optimistic state changes + undo
//	       └─────> engine.NewCreatorEditor() Per-field creator saves
//
// Run hands the session to the Bubble Tea UI. The CLI subcommands in
// cmd/sieve use the same session for one-shot operations, and Serve runs the
// reference backend from internal/backend.
//
// # Logging
//
// The TUI owns the terminal, so the session logs JSON lines to log_file
// (default ~/.local/state/sieve/sieve.log). Callers that do not draw to the
// terminal pass their own Logger.
//
// # Errors
//
// Only configuration and client construction errors are fatal. Failed list
// loads and failed saves are recorded on the stores and shown as notices; the
// session keeps running.
package app
