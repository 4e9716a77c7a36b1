// Package feed provides an HTTP client for the curated video feed API.
//
// # Overview
//
// This package defines the wire types and the client used to talk to the
// feed server. The server is the remote authority for video workflow state
// and creator settings; everything the triage engines know about it goes
// through the Remote interface declared here.
//
// # Architecture
//
//   - client.go: HTTP client, request encoding and error extraction
//   - types.go: Data structures mirroring the API schema
//
// # API Endpoints
//
//   - GET  /api/videos: filtered list (q, tag, view_min, view_max, group,
//     only_whitelist, state, sort, limit, offset)
//   - GET  /api/daily: curated daily subset
//   - POST /api/state: set one video's state
//   - GET  /api/state: recorded state changes
//   - GET  /api/creators: all creators
//   - POST /api/creators: partial creator updates
//   - GET  /api/creator-groups: distinct group names
//
// # Error Handling
//
// Any response with status >= 400 becomes a *RemoteError. Its Reason is
// taken from a JSON {"detail": ...} body when present, then from the raw
// body text, and finally from the HTTP status line. Transport failures are
// wrapped with the operation name. Reason(err) returns the string that
// should be shown to a user for either kind.
//
// The client performs no retries. A superseding request simply races an
// in-flight one.
package feed
