// Package backend is a reference implementation of the feed REST API on
// SQLite, used by `sieve serve` for local use and by tests.
//
// The schema has four tables: creators, videos, video_tags and video_state.
// A video without a video_state row is NEW. Lists leave out HIDDEN and READ
// videos unless a state is requested explicitly.
//
// Errors are JSON bodies of the form {"detail": "..."}; parameter problems
// answer 422, storage failures 500.
package backend
