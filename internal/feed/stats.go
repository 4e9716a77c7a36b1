package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TNameCount counts videos in one category.
type TNameCount struct {
	TName string `json:"tname"`
	Count int    `json:"cnt"`
}

// StatsOverview mirrors GET /api/stats/overview.
type StatsOverview struct {
	WindowDays       int          `json:"window_days"`
	TotalCreators    int          `json:"total_creators"`
	EnabledCreators  int          `json:"enabled_creators"`
	PriorityCreators int          `json:"priority_creators"`
	VideosInWindow   int          `json:"videos_in_window"`
	HiddenInWindow   int          `json:"hidden_in_window"`
	ReadInWindow     int          `json:"read_in_window"`
	TopTNames        []TNameCount `json:"top_tnames"`
}

// CreatorStat mirrors the items of GET /api/stats/creators.
type CreatorStat struct {
	UID            int64        `json:"uid"`
	AuthorName     string       `json:"author_name,omitempty"`
	Enabled        bool         `json:"enabled"`
	Priority       int          `json:"priority"`
	Weight         int          `json:"weight"`
	VideosInWindow int          `json:"videos_in_window"`
	LastPubTS      *int64       `json:"last_pub_ts"`
	FreshnessHours *float64     `json:"freshness_hours"`
	HiddenCount    int          `json:"hidden_cnt"`
	ReadCount      int          `json:"read_cnt"`
	TNameMix       []TNameCount `json:"tname_mix"`
	Hint           string       `json:"hint,omitempty"`
}

// DisplayName returns the creator name, falling back to the uid.
func (s CreatorStat) DisplayName() string {
	return Creator{UID: s.UID, AuthorName: s.AuthorName}.DisplayName()
}

// LastPublished returns the newest visible publish time, or the zero time.
func (s CreatorStat) LastPublished() time.Time {
	if s.LastPubTS == nil || *s.LastPubTS <= 0 {
		return time.Time{}
	}
	return time.Unix(*s.LastPubTS, 0)
}

// StatsQuery configures the stats endpoints. Zero values use the server
// defaults.
type StatsQuery struct {
	Days  int
	Limit int
}

func (q StatsQuery) values() url.Values {
	values := url.Values{}
	if q.Days > 0 {
		values.Set("days", strconv.Itoa(q.Days))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}

// FetchStatsOverview retrieves catalogue totals for the window.
func (c *Client) FetchStatsOverview(ctx context.Context, query StatsQuery) (StatsOverview, error) {
	if c == nil {
		return StatsOverview{}, fmt.Errorf("client is nil")
	}
	query.Limit = 0
	rel := &url.URL{Path: "/api/stats/overview", RawQuery: query.values().Encode()}
	var payload StatsOverview
	if err := c.doURL(ctx, "fetch stats overview", http.MethodGet, rel, nil, &payload); err != nil {
		return StatsOverview{}, err
	}
	return payload, nil
}

// FetchCreatorStats retrieves per-creator activity for the window.
func (c *Client) FetchCreatorStats(ctx context.Context, query StatsQuery) ([]CreatorStat, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/stats/creators", RawQuery: query.values().Encode()}
	var payload []CreatorStat
	if err := c.doURL(ctx, "fetch creator stats", http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
