package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sieve/internal/feed"
)

// Column widths for the feed table. The title takes what is left.
const (
	colState    = 9
	colAuthor   = 16
	colViews    = 11
	colAge      = 15
	colDuration = 8
)

// renderFeed renders the video list around the cursor.
func (m Model) renderFeed(height int) string {
	styles := m.theme.Styles()
	videos := m.feed.Videos

	if len(videos) == 0 {
		msg := "No videos"
		switch {
		case !m.feed.Loaded && m.feed.LastError != nil:
			msg = "Could not reach the feed API: " + feed.Reason(m.feed.LastError)
		case !m.feed.Loaded:
			msg = "Loading videos..."
		case !m.daily:
			msg = "No videos match " + m.filter.Describe()
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(styles.MutedText.Render(msg))
	}

	titleWidth := max(m.width-colState-colAuthor-colViews-colAge-colDuration-6, 12)
	rows := max(height-1, 1)
	cursor := clampCursor(m.feedCursor, len(videos))
	start := windowStart(cursor, len(videos), rows)
	end := min(start+rows, len(videos))

	var b strings.Builder
	b.WriteString(styles.FaintText.Bold(true).Render(strings.Join([]string{
		padRight("STATE", colState),
		padRight("TITLE", titleWidth),
		padRight("CREATOR", colAuthor),
		padLeft("VIEWS", colViews),
		padRight(" PUBLISHED", colAge),
		padLeft("LENGTH", colDuration),
	}, " ")))

	now := m.now()
	for i := start; i < end; i++ {
		v := videos[i]
		b.WriteString("\n")

		badge := styles.StateStyle(v.State).Render(padRight(string(v.State), colState-2))
		cells := strings.Join([]string{
			padRight(v.Title, titleWidth),
			padRight(v.Author(), colAuthor),
			padLeft(formatViews(v.View), colViews),
			padRight(" "+formatAge(v.PublishedAt(), now), colAge),
			padLeft(formatDuration(v.Duration()), colDuration),
		}, " ")
		if i == cursor {
			b.WriteString(badge + " " + styles.Selected.Render(cells))
			continue
		}
		b.WriteString(badge + " " + styles.Text.Render(cells))
	}
	return b.String()
}
