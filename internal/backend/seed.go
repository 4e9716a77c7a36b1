package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/five82/sieve/internal/feed"
)

// Seed is the JSON document accepted by `sieve serve --seed`.
type Seed struct {
	Creators []feed.Creator `json:"creators"`
	Videos   []feed.Video   `json:"videos"`
}

// LoadSeed reads a seed document from path.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// Import upserts creators, videos, tags and non-default states in one
// transaction.
func (s *Store) Import(ctx context.Context, seed Seed) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range seed.Creators {
		if c.UID <= 0 {
			return fmt.Errorf("import: creator uid must be positive")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO creators (uid, author_name, group_name, enabled, priority, weight)
			VALUES (?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)
			ON CONFLICT(uid) DO UPDATE SET
				author_name = excluded.author_name,
				group_name = excluded.group_name,
				enabled = excluded.enabled,
				priority = excluded.priority,
				weight = excluded.weight`,
			c.UID, c.AuthorName, c.Group, c.Enabled, max(0, c.Priority), max(1, c.Weight))
		if err != nil {
			return fmt.Errorf("import: creator %d: %w", c.UID, err)
		}
	}

	now := s.now().Unix()
	for _, v := range seed.Videos {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("import: video bvid is required")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO videos (bvid, uid, author_name, title, pub_ts, duration_sec, url, cover_url, tname, view)
			VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)`,
			v.ID, v.UID, v.AuthorName, v.Title, v.PubTS, v.DurationSec, v.URL, v.CoverURL, v.TName, v.View)
		if err != nil {
			return fmt.Errorf("import: video %s: %w", v.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM video_tags WHERE bvid = ?`, v.ID); err != nil {
			return fmt.Errorf("import: clear tags %s: %w", v.ID, err)
		}
		for _, tag := range v.Tags {
			if tag = strings.TrimSpace(tag); tag == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO video_tags (bvid, tag) VALUES (?, ?)`, v.ID, tag); err != nil {
				return fmt.Errorf("import: tag %s/%s: %w", v.ID, tag, err)
			}
		}
		if v.State != "" && v.State != feed.StateNew {
			if !v.State.Valid() {
				return fmt.Errorf("import: video %s: unknown state %q", v.ID, v.State)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO video_state (bvid, state, updated_ts) VALUES (?, ?, ?)
				ON CONFLICT(bvid) DO UPDATE SET state = excluded.state, updated_ts = excluded.updated_ts`,
				v.ID, string(v.State), now)
			if err != nil {
				return fmt.Errorf("import: state %s: %w", v.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import: commit: %w", err)
	}
	return nil
}
