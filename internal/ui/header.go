package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
)

// renderMain renders header, content and the bottom lines.
func (m Model) renderMain() string {
	header := m.renderHeader()
	bottom := m.renderBottom()

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(bottom)
	var content string
	switch m.currentView {
	case ViewCreators:
		content = m.renderCreators(contentHeight)
	default:
		content = m.renderFeed(contentHeight)
	}
	content = lipgloss.NewStyle().Height(max(contentHeight, 0)).MaxHeight(max(contentHeight, 0)).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, bottom)
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)

	parts := []string{bg.Render("sieve", styles.Logo)}
	switch m.currentView {
	case ViewCreators:
		snap := m.creatorRows
		parts = append(parts, bg.Render("creators", styles.AccentText.Bold(true)))
		if snap.Loaded {
			parts = append(parts, bg.Render(fmt.Sprintf("%d", len(snap.Rows)), styles.Text))
		}
		if snap.LastError != nil {
			parts = append(parts, bg.Render("API "+feed.Reason(snap.LastError), styles.DangerText))
		}
	default:
		label := "feed"
		if m.daily {
			label = "daily"
		}
		parts = append(parts, bg.Render(label, styles.AccentText.Bold(true)))
		if !m.daily {
			parts = append(parts, bg.Render(m.filter.Describe(), styles.MutedText))
			parts = append(parts, bg.Render("sort "+sortLabel(m.filter.Sort), styles.MutedText))
		}
		if m.feed.Loaded {
			parts = append(parts, bg.Render(fmt.Sprintf("%d videos", len(m.feed.Videos)), styles.Text))
		}
		switch {
		case m.loading:
			parts = append(parts, bg.Render("Loading...", styles.WarningText.Bold(true)))
		case m.feed.LastError != nil && !m.feed.Loaded:
			parts = append(parts,
				bg.Render("API "+feed.Reason(m.feed.LastError), styles.DangerText),
				bg.Render("Retrying...", styles.WarningText.Bold(true)))
		case m.feed.LastError != nil:
			parts = append(parts, bg.Render("API "+feed.Reason(m.feed.LastError), styles.DangerText))
		}
		if !m.feed.LastUpdated.IsZero() {
			parts = append(parts, bg.Render(m.feed.LastUpdated.Format("15:04:05"), styles.FaintText))
		}
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderBottom renders the input line or notice bar, then the key hints.
func (m Model) renderBottom() string {
	lines := []string{}
	switch {
	case m.inputMode != inputNone:
		lines = append(lines, m.theme.Styles().Footer.Width(m.width).Render(m.input.View()))
	case m.hasNotice:
		lines = append(lines, m.renderNotice())
	}
	lines = append(lines, m.renderFooter())
	return strings.Join(lines, "\n")
}

// renderNotice renders the single visible notice with its action hint.
func (m Model) renderNotice() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)

	style := styles.InfoText
	switch m.notice.Kind {
	case notify.KindSuccess:
		style = styles.SuccessText
	case notify.KindError:
		style = styles.DangerText
	}
	text := bg.Render(truncate(m.notice.Text, max(m.width-16, 10)), style)
	if m.notice.HasAction() {
		text += bg.Spaces(2) + bg.Render("[u] "+m.notice.Action.Label, styles.WarningText.Bold(true))
	}
	return styles.Header.Width(m.width).Render(text)
}

// renderFooter renders the short key help for the current view.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)

	var parts []string
	for _, b := range m.keys.ShortHelp(m.currentView) {
		parts = append(parts, renderBinding(b, styles, bg))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}

func renderBinding(b key.Binding, styles Styles, bg bgStyle) string {
	h := b.Help()
	return bg.Render("<"+h.Key+">", styles.AccentText) + bg.Space() + bg.Render(h.Desc, styles.MutedText)
}

func sortLabel(k feed.SortKey) string {
	if k == feed.SortView {
		return "views"
	}
	return "date"
}

// bgStyle renders segments on a shared background so that gaps between
// styled words keep the color.
type bgStyle struct {
	bg    lipgloss.Color
	space string
}

func newBgStyle(color string) bgStyle {
	bg := lipgloss.Color(color)
	return bgStyle{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// Render styles each word of text separately and joins them with styled
// spaces.
func (b bgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	words := strings.Split(text, " ")
	styled := style.Background(b.bg)
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b bgStyle) Space() string { return b.space }

func (b bgStyle) Spaces(n int) string {
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

func (b bgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}
