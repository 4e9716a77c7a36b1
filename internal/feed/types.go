package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State is the workflow state of a video.
type State string

const (
	StateNew     State = "NEW"
	StateLater   State = "LATER"
	StateStar    State = "STAR"
	StateWatched State = "WATCHED"
	StateHidden  State = "HIDDEN"
	StateRead    State = "READ"
)

// States lists every known state in display order.
var States = []State{StateNew, StateLater, StateStar, StateWatched, StateHidden, StateRead}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// ParseState normalizes user input into a State.
func ParseState(value string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(value)))
	if s == "" {
		return StateNew, nil
	}
	if !s.Valid() {
		return "", fmt.Errorf("unknown state %q", value)
	}
	return s, nil
}

// Video mirrors the items returned by /api/videos and /api/daily.
// Everything except ID and State is display payload.
type Video struct {
	ID          string   `json:"bvid"`
	UID         int64    `json:"uid"`
	AuthorName  string   `json:"author_name,omitempty"`
	Title       string   `json:"title"`
	PubTS       int64    `json:"pub_ts"`
	DurationSec int      `json:"duration_sec,omitempty"`
	State       State    `json:"state"`
	URL         string   `json:"url"`
	CoverURL    string   `json:"cover_url,omitempty"`
	TName       string   `json:"tname,omitempty"`
	View        int64    `json:"view,omitempty"`
	Tags        []string `json:"tags"`
}

// PublishedAt returns the publish timestamp as time.Time.
func (v Video) PublishedAt() time.Time {
	if v.PubTS <= 0 {
		return time.Time{}
	}
	return time.Unix(v.PubTS, 0)
}

// Duration returns the video length.
func (v Video) Duration() time.Duration {
	return time.Duration(v.DurationSec) * time.Second
}

// Author returns the author name, falling back to the uid.
func (v Video) Author() string {
	if name := strings.TrimSpace(v.AuthorName); name != "" {
		return name
	}
	return "uid=" + strconv.FormatInt(v.UID, 10)
}

// Creator mirrors the items returned by /api/creators.
type Creator struct {
	UID        int64  `json:"uid"`
	AuthorName string `json:"author_name,omitempty"`
	Group      string `json:"group,omitempty"`
	Enabled    bool   `json:"enabled"`
	Priority   int    `json:"priority"`
	Weight     int    `json:"weight"`
}

// DisplayName returns the creator name, falling back to the uid.
func (c Creator) DisplayName() string {
	if name := strings.TrimSpace(c.AuthorName); name != "" {
		return name
	}
	return "uid=" + strconv.FormatInt(c.UID, 10)
}

// MustWatch reports whether the creator is flagged must-watch.
func (c Creator) MustWatch() bool {
	return c.Priority > 0
}

// WeightEditable reports whether the weight field is meaningful.
// Weight only applies to normal-priority creators.
func (c Creator) WeightEditable() bool {
	return c.Priority == 0
}

// CreatorPatch is a partial update for one creator. Nil fields are left
// unchanged by the server.
type CreatorPatch struct {
	UID      int64 `json:"uid"`
	Enabled  *bool `json:"enabled,omitempty"`
	Priority *int  `json:"priority,omitempty"`
	Weight   *int  `json:"weight,omitempty"`
}

// StateUpdate is the body of POST /api/state.
type StateUpdate struct {
	ID    string `json:"bvid"`
	State State  `json:"state"`
}

// StateRecord is returned by POST and GET /api/state.
type StateRecord struct {
	ID        string `json:"bvid"`
	State     State  `json:"state"`
	UpdatedTS int64  `json:"updated_ts"`
}

// SortKey selects the list ordering.
type SortKey string

const (
	SortPub  SortKey = "pub"
	SortView SortKey = "view"
)

// ParseSortKey normalizes a sort key, defaulting to publish time.
func ParseSortKey(value string) SortKey {
	if SortKey(strings.ToLower(strings.TrimSpace(value))) == SortView {
		return SortView
	}
	return SortPub
}

// Filter configures /api/videos requests. Zero values are omitted, except
// WhitelistOnly which is always sent.
type Filter struct {
	Query         string
	Tag           string
	ViewMin       int64
	ViewMax       int64
	Group         string
	WhitelistOnly bool
	State         State
	Sort          SortKey
	Limit         int
	Offset        int
}

// Describe returns a short human summary of the active filter terms.
func (f Filter) Describe() string {
	var parts []string
	if q := strings.TrimSpace(f.Query); q != "" {
		parts = append(parts, fmt.Sprintf("q=%q", q))
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		parts = append(parts, "tag="+tag)
	}
	if f.ViewMin > 0 {
		parts = append(parts, "view>="+strconv.FormatInt(f.ViewMin, 10))
	}
	if f.ViewMax > 0 {
		parts = append(parts, "view<="+strconv.FormatInt(f.ViewMax, 10))
	}
	if g := strings.TrimSpace(f.Group); g != "" {
		parts = append(parts, "group="+g)
	}
	if f.State != "" {
		parts = append(parts, "state="+string(f.State))
	}
	if !f.WhitelistOnly {
		parts = append(parts, "all creators")
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}
