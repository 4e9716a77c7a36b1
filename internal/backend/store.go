package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/five82/sieve/internal/feed"
)

// ErrInvalid marks requests the store refuses because of their parameters.
var ErrInvalid = errors.New("invalid request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// hiddenByDefault are the states left out of lists unless asked for.
var hiddenByDefault = []feed.State{feed.StateHidden, feed.StateRead}

// Store serves the feed API from SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store bound to an open database.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

const videoColumns = `v.bvid, v.uid, COALESCE(v.author_name, c.author_name, ''), v.title, v.pub_ts,
	COALESCE(v.duration_sec, 0), v.url, COALESCE(v.cover_url, ''), COALESCE(v.tname, ''),
	COALESCE(v.view, 0), COALESCE(s.state, 'NEW')`

const videoJoins = `FROM videos v
	LEFT JOIN creators c ON c.uid = v.uid
	LEFT JOIN video_state s ON s.bvid = v.bvid`

// ListVideos returns videos matching filter.
func (s *Store) ListVideos(ctx context.Context, filter feed.Filter) ([]feed.Video, error) {
	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}
	if limit < 1 || limit > 200 {
		return nil, invalidf("limit must be between 1 and 200")
	}
	if filter.Offset < 0 {
		return nil, invalidf("offset must not be negative")
	}

	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "v.title LIKE ?")
		args = append(args, "%"+q+"%")
	}
	if filter.ViewMin > 0 {
		where = append(where, "COALESCE(v.view, 0) >= ?")
		args = append(args, filter.ViewMin)
	}
	if filter.ViewMax > 0 {
		where = append(where, "COALESCE(v.view, 0) <= ?")
		args = append(args, filter.ViewMax)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM video_tags vt WHERE vt.bvid = v.bvid AND vt.tag = ?)")
		args = append(args, tag)
	}
	if filter.WhitelistOnly {
		where = append(where, "c.enabled = 1")
	}
	if group := strings.TrimSpace(filter.Group); group != "" {
		where = append(where, "c.group_name = ?")
		args = append(args, group)
	}
	if filter.State != "" {
		where = append(where, "COALESCE(s.state, 'NEW') = ?")
		args = append(args, string(filter.State))
	} else {
		where = append(where, "COALESCE(s.state, 'NEW') NOT IN (?, ?)")
		args = append(args, string(hiddenByDefault[0]), string(hiddenByDefault[1]))
	}

	order := "ORDER BY v.pub_ts DESC"
	if filter.Sort == feed.SortView {
		order = "ORDER BY COALESCE(v.view, 0) DESC, v.pub_ts DESC"
	}

	query := "SELECT " + videoColumns + " " + videoJoins +
		" WHERE " + strings.Join(where, " AND ") + " " + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	videos, err := s.queryVideos(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// DailyQuery configures the curated daily list.
type DailyQuery struct {
	Group  string
	Hours  int
	Limit  int
	Sample bool
	Seed   *uint64
}

// Daily returns the latest video of each enabled creator published within
// the window. Must-watch creators come first, by priority then recency;
// the remaining slots go to normal creators, drawn by weight when Sample is
// set and newest first otherwise.
func (s *Store) Daily(ctx context.Context, q DailyQuery) ([]feed.Video, error) {
	if q.Hours == 0 {
		q.Hours = 24
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Hours < 1 || q.Hours > 168 {
		return nil, invalidf("hours must be between 1 and 168")
	}
	if q.Limit < 1 || q.Limit > 200 {
		return nil, invalidf("limit must be between 1 and 200")
	}

	group := strings.TrimSpace(q.Group)
	if group != "" {
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM creators WHERE enabled = 1 AND group_name = ? LIMIT 1`, group).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			group = ""
		case err != nil:
			return nil, fmt.Errorf("daily: check group: %w", err)
		}
	}

	cutoff := s.now().Add(-time.Duration(q.Hours) * time.Hour).Unix()
	where := []string{"c.enabled = 1", "v.pub_ts >= ?", "COALESCE(s.state, 'NEW') NOT IN (?, ?)"}
	args := []any{cutoff, string(hiddenByDefault[0]), string(hiddenByDefault[1])}
	if group != "" {
		where = append(where, "c.group_name = ?")
		args = append(args, group)
	}
	query := "SELECT " + videoColumns + ", COALESCE(c.priority, 0), COALESCE(c.weight, 1) " + videoJoins +
		" WHERE " + strings.Join(where, " AND ") + " ORDER BY v.pub_ts DESC LIMIT 2000"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily: query: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		video    feed.Video
		priority int
		weight   int
	}
	seen := map[int64]bool{}
	var mustWatch, normal []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(videoScanDest(&c.video, &c.priority, &c.weight)...); err != nil {
			return nil, fmt.Errorf("daily: scan: %w", err)
		}
		if seen[c.video.UID] {
			continue
		}
		seen[c.video.UID] = true
		if c.priority > 0 {
			mustWatch = append(mustWatch, c)
		} else {
			normal = append(normal, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily: rows: %w", err)
	}
	_ = rows.Close()

	sort.SliceStable(mustWatch, func(i, j int) bool {
		if mustWatch[i].priority != mustWatch[j].priority {
			return mustWatch[i].priority > mustWatch[j].priority
		}
		return mustWatch[i].video.PubTS > mustWatch[j].video.PubTS
	})

	var selected []feed.Video
	for _, c := range mustWatch {
		if len(selected) == q.Limit {
			break
		}
		selected = append(selected, c.video)
	}

	if remaining := q.Limit - len(selected); remaining > 0 {
		var picked []feed.Video
		if q.Sample {
			pool := make([]weighted[feed.Video], len(normal))
			for i, c := range normal {
				pool[i] = weighted[feed.Video]{item: c.video, weight: c.weight}
			}
			picked = weightedSample(pool, remaining, newRand(q.Seed))
		} else {
			for _, c := range normal {
				if len(picked) == remaining {
					break
				}
				picked = append(picked, c.video)
			}
		}
		sort.SliceStable(picked, func(i, j int) bool { return picked[i].PubTS > picked[j].PubTS })
		selected = append(selected, picked...)
	}

	if err := s.attachTags(ctx, selected); err != nil {
		return nil, fmt.Errorf("daily: %w", err)
	}
	return selected, nil
}

// SetState records the workflow state of a video.
func (s *Store) SetState(ctx context.Context, id string, state feed.State) (feed.StateRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return feed.StateRecord{}, invalidf("bvid is required")
	}
	if !state.Valid() {
		return feed.StateRecord{}, invalidf("unknown state %q", state)
	}
	rec := feed.StateRecord{ID: id, State: state, UpdatedTS: s.now().Unix()}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_state (bvid, state, updated_ts) VALUES (?, ?, ?)
		ON CONFLICT(bvid) DO UPDATE SET state = excluded.state, updated_ts = excluded.updated_ts`,
		rec.ID, string(rec.State), rec.UpdatedTS)
	if err != nil {
		return feed.StateRecord{}, fmt.Errorf("set state: %w", err)
	}
	return rec, nil
}

// ListStates returns recorded states, newest first.
func (s *Store) ListStates(ctx context.Context, q feed.StateQuery) ([]feed.StateRecord, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 200
	}
	if limit < 1 || limit > 1000 {
		return nil, invalidf("limit must be between 1 and 1000")
	}
	if q.Offset < 0 {
		return nil, invalidf("offset must not be negative")
	}

	var (
		where []string
		args  []any
	)
	if id := strings.TrimSpace(q.ID); id != "" {
		where = append(where, "bvid = ?")
		args = append(args, id)
	}
	if q.State != "" {
		where = append(where, "state = ?")
		args = append(args, string(q.State))
	}
	query := "SELECT bvid, state, updated_ts FROM video_state"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_ts DESC, bvid LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	out := []feed.StateRecord{}
	for rows.Next() {
		var rec feed.StateRecord
		var state string
		if err := rows.Scan(&rec.ID, &state, &rec.UpdatedTS); err != nil {
			return nil, fmt.Errorf("list states: scan: %w", err)
		}
		rec.State = feed.State(state)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list states: rows: %w", err)
	}
	return out, nil
}

// ListCreators returns every creator ordered by uid.
func (s *Store) ListCreators(ctx context.Context) ([]feed.Creator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, COALESCE(author_name, ''), COALESCE(group_name, ''), enabled, priority, weight
		FROM creators ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list creators: %w", err)
	}
	defer rows.Close()

	out := []feed.Creator{}
	for rows.Next() {
		var c feed.Creator
		if err := rows.Scan(&c.UID, &c.AuthorName, &c.Group, &c.Enabled, &c.Priority, &c.Weight); err != nil {
			return nil, fmt.Errorf("list creators: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list creators: rows: %w", err)
	}
	return out, nil
}

// UpdateCreators applies partial updates. Unknown creators are inserted
// with defaults for the fields a patch leaves out. Weight is clamped to 1
// and priority to 0.
func (s *Store) UpdateCreators(ctx context.Context, patches []feed.CreatorPatch) ([]feed.Creator, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update creators: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range patches {
		if p.UID <= 0 {
			return nil, invalidf("uid must be positive")
		}
		c := feed.Creator{UID: p.UID, Enabled: true, Weight: 1}
		err := tx.QueryRowContext(ctx, `SELECT enabled, priority, weight FROM creators WHERE uid = ?`, p.UID).
			Scan(&c.Enabled, &c.Priority, &c.Weight)
		exists := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update creators: read %d: %w", p.UID, err)
		}
		if p.Enabled != nil {
			c.Enabled = *p.Enabled
		}
		if p.Priority != nil {
			c.Priority = max(0, *p.Priority)
		}
		if p.Weight != nil {
			c.Weight = max(1, *p.Weight)
		}

		if exists {
			_, err = tx.ExecContext(ctx, `UPDATE creators SET enabled = ?, priority = ?, weight = ? WHERE uid = ?`,
				c.Enabled, c.Priority, c.Weight, c.UID)
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO creators (uid, enabled, priority, weight) VALUES (?, ?, ?, ?)`,
				c.UID, c.Enabled, c.Priority, c.Weight)
		}
		if err != nil {
			return nil, fmt.Errorf("update creators: write %d: %w", p.UID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update creators: commit: %w", err)
	}
	return s.ListCreators(ctx)
}

// CreatorGroups returns the distinct non-empty group names.
func (s *Store) CreatorGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT group_name FROM creators
		WHERE group_name IS NOT NULL AND group_name != ''
		ORDER BY group_name`)
	if err != nil {
		return nil, fmt.Errorf("creator groups: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("creator groups: scan: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("creator groups: rows: %w", err)
	}
	return out, nil
}

func (s *Store) queryVideos(ctx context.Context, query string, args ...any) ([]feed.Video, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []feed.Video{}
	for rows.Next() {
		var v feed.Video
		if err := rows.Scan(videoScanDest(&v)...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// Release the connection before the tag query.
	_ = rows.Close()
	if err := s.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func videoScanDest(v *feed.Video, extra ...any) []any {
	dest := []any{&v.ID, &v.UID, &v.AuthorName, &v.Title, &v.PubTS,
		&v.DurationSec, &v.URL, &v.CoverURL, &v.TName, &v.View, (*string)(&v.State)}
	return append(dest, extra...)
}

// attachTags fills in Tags for videos, sorted by tag.
func (s *Store) attachTags(ctx context.Context, videos []feed.Video) error {
	if len(videos) == 0 {
		return nil
	}
	index := make(map[string]int, len(videos))
	placeholders := make([]string, len(videos))
	args := make([]any, len(videos))
	for i := range videos {
		videos[i].Tags = []string{}
		index[videos[i].ID] = i
		placeholders[i] = "?"
		args[i] = videos[i].ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT bvid, tag FROM video_tags WHERE bvid IN ("+strings.Join(placeholders, ",")+") ORDER BY bvid, tag", args...)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return fmt.Errorf("load tags: scan: %w", err)
		}
		if i, ok := index[id]; ok {
			videos[i].Tags = append(videos[i].Tags, tag)
		}
	}
	return rows.Err()
}
