package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/state"
)

const (
	colCreatorName  = 24
	colCreatorGroup = 12
	colEnabled      = 7
	colPriority     = 9
	colWeight       = 8
)

// renderCreators renders the creator settings table. Must-watch rows are
// highlighted, disabled rows dimmed, and weight is greyed while priority is
// above zero.
func (m Model) renderCreators(height int) string {
	styles := m.theme.Styles()
	rows := m.creatorRows.Rows

	if len(rows) == 0 {
		msg := "No creators"
		switch {
		case !m.creatorRows.Loaded && m.creatorRows.LastError != nil:
			msg = "Could not load creators: " + feed.Reason(m.creatorRows.LastError)
		case !m.creatorRows.Loaded:
			msg = "Loading creators..."
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(styles.MutedText.Render(msg))
	}

	visible := max(height-1, 1)
	cursor := clampCursor(m.creatorCursor, len(rows))
	start := windowStart(cursor, len(rows), visible)
	end := min(start+visible, len(rows))

	var b strings.Builder
	b.WriteString(styles.FaintText.Bold(true).Render(strings.Join([]string{
		padRight("CREATOR", colCreatorName),
		padRight("GROUP", colCreatorGroup),
		padRight("ENABLED", colEnabled),
		padLeft("PRIORITY", colPriority),
		padLeft("WEIGHT", colWeight),
		"  STATUS",
	}, " ")))

	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderCreatorRow(rows[i], i == cursor, styles))
	}
	return b.String()
}

func (m Model) renderCreatorRow(row state.CreatorRow, selected bool, styles Styles) string {
	c := row.Displayed
	base := styles.Text
	switch {
	case selected:
		base = styles.Selected
	case c.MustWatch():
		base = styles.WarningText
	case !c.Enabled:
		base = styles.FaintText
	}

	cell := func(field feed.CreatorField, value string, width int) string {
		if slices.Contains(row.Saving, field) {
			value += "*"
		}
		return padLeft(value, width)
	}

	enabled := "off"
	if c.Enabled {
		enabled = "on"
	}
	if slices.Contains(row.Saving, feed.FieldEnabled) {
		enabled += "*"
	}

	left := strings.Join([]string{
		padRight(c.DisplayName(), colCreatorName),
		padRight(c.Group, colCreatorGroup),
		padRight(enabled, colEnabled),
		cell(feed.FieldPriority, fmt.Sprintf("%d", c.Priority), colPriority),
	}, " ")

	weight := cell(feed.FieldWeight, fmt.Sprintf("%d", c.Weight), colWeight)
	weightStyle := base
	if !row.WeightEditable() && !selected {
		weightStyle = styles.FaintText
	}

	return base.Render(left+" ") + weightStyle.Render(weight) + "  " + m.renderRowStatus(row.Status, styles)
}

// renderRowStatus renders the save indicator for one creator row.
func (m Model) renderRowStatus(st state.RowStatus, styles Styles) string {
	switch st.Kind {
	case state.StatusSaving:
		return styles.WarningText.Render("saving " + string(st.Field) + "...")
	case state.StatusSaved:
		return styles.SuccessText.Render("saved " + string(st.Field) + " " + st.At.Format("15:04:05"))
	case state.StatusError:
		return styles.DangerText.Render(truncate(string(st.Field)+": "+st.Message, 48))
	default:
		return ""
	}
}
