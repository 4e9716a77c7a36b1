package backend

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/five82/sieve/internal/feed"
)

const uncategorized = "uncategorized"

// visibleVideos selects videos not marked HIDDEN.
const visibleVideos = `FROM videos v
	LEFT JOIN video_state hs ON hs.bvid = v.bvid AND hs.state = 'HIDDEN'
	WHERE hs.bvid IS NULL`

const tnameExpr = `COALESCE(NULLIF(TRIM(v.tname), ''), '` + uncategorized + `')`

func statsDays(days, fallback int) (int, error) {
	if days == 0 {
		days = fallback
	}
	if days < 1 || days > 3650 {
		return 0, invalidf("days must be between 1 and 3650")
	}
	return days, nil
}

func (s *Store) cutoff(days int) int64 {
	return s.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
}

// StatsOverview returns catalogue totals. Video counts cover visible videos
// published within the last days (default 7); hidden and read counts cover
// state changes made within the same window.
func (s *Store) StatsOverview(ctx context.Context, days int) (feed.StatsOverview, error) {
	days, err := statsDays(days, 7)
	if err != nil {
		return feed.StatsOverview{}, err
	}
	cutoff := s.cutoff(days)
	out := feed.StatsOverview{WindowDays: days, TopTNames: []feed.TNameCount{}}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(enabled = 1), 0), COALESCE(SUM(priority > 0), 0)
		FROM creators`).Scan(&out.TotalCreators, &out.EnabledCreators, &out.PriorityCreators)
	if err != nil {
		return feed.StatsOverview{}, fmt.Errorf("stats overview: creators: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+visibleVideos+` AND v.pub_ts >= ?`, cutoff).
		Scan(&out.VideosInWindow)
	if err != nil {
		return feed.StatsOverview{}, fmt.Errorf("stats overview: videos: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(state = 'HIDDEN'), 0), COALESCE(SUM(state = 'READ'), 0)
		FROM video_state WHERE updated_ts >= ?`, cutoff).Scan(&out.HiddenInWindow, &out.ReadInWindow)
	if err != nil {
		return feed.StatsOverview{}, fmt.Errorf("stats overview: states: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tnameExpr+` AS tname, COUNT(*) AS cnt `+visibleVideos+` AND v.pub_ts >= ?
		GROUP BY tname ORDER BY cnt DESC, tname ASC LIMIT 5`, cutoff)
	if err != nil {
		return feed.StatsOverview{}, fmt.Errorf("stats overview: tnames: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc feed.TNameCount
		if err := rows.Scan(&tc.TName, &tc.Count); err != nil {
			return feed.StatsOverview{}, fmt.Errorf("stats overview: scan tname: %w", err)
		}
		out.TopTNames = append(out.TopTNames, tc)
	}
	if err := rows.Err(); err != nil {
		return feed.StatsOverview{}, fmt.Errorf("stats overview: tnames: %w", err)
	}
	return out, nil
}

// CreatorStats returns per-creator activity within the last days (default
// 30), ordered by priority, then enabled, then videos in the window, then
// recency. At most Limit rows are returned (default 200).
func (s *Store) CreatorStats(ctx context.Context, q feed.StatsQuery) ([]feed.CreatorStat, error) {
	days, err := statsDays(q.Days, 30)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = 200
	}
	if limit < 1 || limit > 2000 {
		return nil, invalidf("limit must be between 1 and 2000")
	}
	cutoff := s.cutoff(days)
	now := s.now().Unix()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.uid, COALESCE(c.author_name, ''), c.enabled, c.priority, c.weight,
			COALESCE(w.cnt, 0), lp.last_pub_ts
		FROM creators c
		LEFT JOIN (SELECT v.uid AS uid, COUNT(*) AS cnt `+visibleVideos+` AND v.pub_ts >= ? GROUP BY v.uid) w
			ON w.uid = c.uid
		LEFT JOIN (SELECT v.uid AS uid, MAX(v.pub_ts) AS last_pub_ts `+visibleVideos+` GROUP BY v.uid) lp
			ON lp.uid = c.uid
		ORDER BY c.priority DESC, c.enabled DESC, COALESCE(w.cnt, 0) DESC,
			COALESCE(lp.last_pub_ts, 0) DESC, c.uid ASC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("creator stats: query: %w", err)
	}
	defer rows.Close()

	out := []feed.CreatorStat{}
	index := map[int64]int{}
	for rows.Next() {
		var st feed.CreatorStat
		var last sql.NullInt64
		if err := rows.Scan(&st.UID, &st.AuthorName, &st.Enabled, &st.Priority, &st.Weight,
			&st.VideosInWindow, &last); err != nil {
			return nil, fmt.Errorf("creator stats: scan: %w", err)
		}
		if last.Valid {
			ts := last.Int64
			hours := math.Round(float64(now-ts)/3600*10) / 10
			st.LastPubTS = &ts
			st.FreshnessHours = &hours
		}
		st.TNameMix = []feed.TNameCount{}
		index[st.UID] = len(out)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("creator stats: rows: %w", err)
	}
	_ = rows.Close()

	if err := s.attachStateCounts(ctx, out, index, cutoff); err != nil {
		return nil, fmt.Errorf("creator stats: %w", err)
	}
	if err := s.attachTNameMix(ctx, out, index, cutoff); err != nil {
		return nil, fmt.Errorf("creator stats: %w", err)
	}
	for i := range out {
		out[i].Hint = creatorHint(out[i], days)
	}
	return out, nil
}

func (s *Store) attachStateCounts(ctx context.Context, stats []feed.CreatorStat, index map[int64]int, cutoff int64) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.uid, COALESCE(SUM(st.state = 'HIDDEN'), 0), COALESCE(SUM(st.state = 'READ'), 0)
		FROM video_state st JOIN videos v ON v.bvid = st.bvid
		WHERE st.updated_ts >= ?
		GROUP BY v.uid`, cutoff)
	if err != nil {
		return fmt.Errorf("state counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid int64
		var hidden, read int
		if err := rows.Scan(&uid, &hidden, &read); err != nil {
			return fmt.Errorf("state counts: scan: %w", err)
		}
		if i, ok := index[uid]; ok {
			stats[i].HiddenCount = hidden
			stats[i].ReadCount = read
		}
	}
	return rows.Err()
}

// attachTNameMix keeps the three largest categories per creator.
func (s *Store) attachTNameMix(ctx context.Context, stats []feed.CreatorStat, index map[int64]int, cutoff int64) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.uid, `+tnameExpr+` AS tname, COUNT(*) AS cnt `+visibleVideos+` AND v.pub_ts >= ?
		GROUP BY v.uid, tname ORDER BY v.uid, cnt DESC, tname ASC`, cutoff)
	if err != nil {
		return fmt.Errorf("tname mix: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid int64
		var tc feed.TNameCount
		if err := rows.Scan(&uid, &tc.TName, &tc.Count); err != nil {
			return fmt.Errorf("tname mix: scan: %w", err)
		}
		if i, ok := index[uid]; ok && len(stats[i].TNameMix) < 3 {
			stats[i].TNameMix = append(stats[i].TNameMix, tc)
		}
	}
	return rows.Err()
}

// creatorHint explains why a creator contributes nothing to the feed.
func creatorHint(st feed.CreatorStat, days int) string {
	switch {
	case !st.Enabled:
		return "disabled"
	case st.LastPubTS == nil:
		return "no visible videos"
	case st.VideosInWindow == 0:
		return fmt.Sprintf("nothing new in %d days", days)
	default:
		return ""
	}
}
