package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// formatViews renders a view count with thousands separators.
func formatViews(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Comma(n)
}

// formatAge renders how long ago t was, relative to now.
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatDuration renders a video length as m:ss or h:mm:ss.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// truncate shortens a string to limit runes, adding an ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

// padRight pads or truncates value to exactly width runes.
func padRight(value string, width int) string {
	value = truncate(value, width)
	if n := len([]rune(value)); n < width {
		return value + strings.Repeat(" ", width-n)
	}
	return value
}

// padLeft right-aligns value within width runes.
func padLeft(value string, width int) string {
	value = truncate(value, width)
	if n := len([]rune(value)); n < width {
		return strings.Repeat(" ", width-n) + value
	}
	return value
}

// windowStart returns the first visible row so that cursor stays on screen.
func windowStart(cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}

// clampCursor keeps cursor within a list of n rows.
func clampCursor(cursor, n int) int {
	if n <= 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// retryDelay doubles base for every consecutive failure, capped at 30s.
func retryDelay(failures int, base time.Duration) time.Duration {
	const maxDelay = 30 * time.Second
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}
