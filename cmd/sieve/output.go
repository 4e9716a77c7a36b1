package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/state"
)

const titleWidth = 60

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeVideos(w io.Writer, videos []feed.Video, now time.Time) error {
	if len(videos) == 0 {
		_, err := fmt.Fprintln(w, "No videos")
		return err
	}
	t := newTable("BVID", "STATE", "TITLE", "CREATOR", "VIEWS", "PUBLISHED")
	for _, v := range videos {
		t.Row(v.ID, string(v.State), clip(v.Title, titleWidth), v.Author(), views(v.View), age(v.PublishedAt(), now))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeCreators(w io.Writer, rows []state.CreatorRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No creators")
		return err
	}
	t := newTable("UID", "CREATOR", "GROUP", "ENABLED", "PRIORITY", "WEIGHT")
	for _, row := range rows {
		c := row.Committed
		weight := strconv.Itoa(c.Weight)
		if !c.WeightEditable() {
			weight = "-"
		}
		t.Row(strconv.FormatInt(c.UID, 10), c.DisplayName(), orDash(c.Group), yesNo(c.Enabled), strconv.Itoa(c.Priority), weight)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeStats(w io.Writer, o feed.StatsOverview, creators []feed.CreatorStat, now time.Time) error {
	_, err := fmt.Fprintf(w, "Last %d days: %s videos, %s hidden, %s read\nCreators: %d total, %d enabled, %d must-watch\n",
		o.WindowDays, humanize.Comma(int64(o.VideosInWindow)), humanize.Comma(int64(o.HiddenInWindow)),
		humanize.Comma(int64(o.ReadInWindow)), o.TotalCreators, o.EnabledCreators, o.PriorityCreators)
	if err != nil {
		return err
	}
	if len(o.TopTNames) > 0 {
		if _, err := fmt.Fprintf(w, "Top categories: %s\n", tnames(o.TopTNames)); err != nil {
			return err
		}
	}
	if len(creators) == 0 {
		_, err := fmt.Fprintln(w, "No creators")
		return err
	}
	t := newTable("UID", "CREATOR", "ENABLED", "PRIORITY", "VIDEOS", "LAST PUBLISHED", "HIDDEN", "READ", "CATEGORIES", "NOTE")
	for _, st := range creators {
		t.Row(strconv.FormatInt(st.UID, 10), st.DisplayName(), yesNo(st.Enabled), strconv.Itoa(st.Priority),
			strconv.Itoa(st.VideosInWindow), age(st.LastPublished(), now), strconv.Itoa(st.HiddenCount),
			strconv.Itoa(st.ReadCount), orDash(tnames(st.TNameMix)), orDash(st.Hint))
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

func tnames(counts []feed.TNameCount) string {
	parts := make([]string, len(counts))
	for i, tc := range counts {
		parts[i] = fmt.Sprintf("%s:%d", tc.TName, tc.Count)
	}
	return strings.Join(parts, " ")
}

func views(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Comma(n)
}

func age(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func clip(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
