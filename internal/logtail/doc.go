// Package logtail reads the end of the session log and renders its records
// for the terminal.
//
// The TUI owns the terminal while it runs, so the session logger writes JSON
// records to a file (log_file in config.toml). `sieve log` uses this package
// to show what happened: Read pulls the last N lines with a ring buffer in a
// single pass, Parse turns each slog JSON record into an Entry, Filter drops
// records below a level and Format prints one colored line per record.
//
// Read returns nil, nil for a missing file. Lines that are not JSON are kept
// and printed unchanged.
package logtail
