// Package config loads sieve's TOML configuration.
//
// # Configuration Discovery
//
// Load resolves its path in this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/sieve/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but a field is missing or empty, use its default
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:9000"
//	request_timeout = 10        # seconds
//	removal_states = ["HIDDEN", "READ"]
//	undo_window = 8             # seconds
//	notice_duration = 4         # seconds
//	page_size = 50              # clamped to 1..200
//	default_sort = "pub"        # or "view"
//	whitelist_only = true
//	log_file = "~/.local/state/sieve/sieve.log"
//	db_path = "~/.local/share/sieve/sieve.db"   # sieve serve
//	listen = "127.0.0.1:9000"                   # sieve serve
//
// Every field is optional. Paths get tilde expansion. An unknown state in
// removal_states is a parse error, as is NEW. A path in api_url is kept and
// prefixes every /api route, so "http://host/bili" requests /bili/api/videos.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors. A missing file is not an error.
package config
