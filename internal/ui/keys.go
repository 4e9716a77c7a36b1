package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	SwitchView key.Binding
	Reload     key.Binding
	Undo       key.Binding
	Dismiss    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Feed actions
	MarkNew       key.Binding
	MarkLater     key.Binding
	MarkStar      key.Binding
	MarkWatched   key.Binding
	MarkHidden    key.Binding
	MarkRead      key.Binding
	ToggleDaily   key.Binding
	ToggleSort    key.Binding
	ToggleAllFeed key.Binding
	Filter        key.Binding

	// Creator actions
	ToggleEnabled key.Binding
	EditPriority  key.Binding
	EditWeight    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "Feed/creators"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R", "ctrl+r"),
			key.WithHelp("R", "Reload"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "ctrl+z"),
			key.WithHelp("u", "Undo"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Dismiss notice"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		MarkNew: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Mark new"),
		),
		MarkLater: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Later"),
		),
		MarkStar: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Star"),
		),
		MarkWatched: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Watched"),
		),
		MarkHidden: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Hide"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Read"),
		),
		ToggleDaily: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Daily/feed"),
		),
		ToggleSort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Sort by date/views"),
		),
		ToggleAllFeed: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "All/enabled creators"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Filter"),
		),

		ToggleEnabled: key.NewBinding(
			key.WithKeys(" ", "e"),
			key.WithHelp("space", "Toggle enabled"),
		),
		EditPriority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Edit priority"),
		),
		EditWeight: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Edit weight"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp(v View) []key.Binding {
	if v == ViewCreators {
		return []key.Binding{k.ToggleEnabled, k.EditPriority, k.EditWeight, k.SwitchView, k.Help, k.Quit}
	}
	return []key.Binding{k.MarkStar, k.MarkLater, k.MarkHidden, k.MarkRead, k.Undo, k.Filter, k.SwitchView, k.Help, k.Quit}
}

// Resolve maps a key press to a command for view v. View bindings win over
// global ones so that a key can mean different things per view.
func (k keyMap) Resolve(v View, msg tea.KeyMsg) Command {
	var bindings []binding
	switch v {
	case ViewCreators:
		bindings = k.creatorBindings()
	default:
		bindings = k.feedBindings()
	}
	bindings = append(bindings, k.globalBindings()...)
	for _, b := range bindings {
		if key.Matches(msg, b.key) {
			return b.cmd
		}
	}
	return CmdNone
}

type binding struct {
	key key.Binding
	cmd Command
}

func (k keyMap) globalBindings() []binding {
	return []binding{
		{k.Quit, CmdQuit},
		{k.Help, CmdHelp},
		{k.CycleTheme, CmdCycleTheme},
		{k.SwitchView, CmdSwitchView},
		{k.Reload, CmdReload},
		{k.Undo, CmdUndo},
		{k.Dismiss, CmdDismiss},
		{k.Up, CmdUp},
		{k.Down, CmdDown},
		{k.Top, CmdTop},
		{k.Bottom, CmdBottom},
	}
}

func (k keyMap) feedBindings() []binding {
	return []binding{
		{k.MarkNew, CmdMarkNew},
		{k.MarkLater, CmdMarkLater},
		{k.MarkStar, CmdMarkStar},
		{k.MarkWatched, CmdMarkWatched},
		{k.MarkHidden, CmdMarkHidden},
		{k.MarkRead, CmdMarkRead},
		{k.ToggleDaily, CmdToggleDaily},
		{k.ToggleSort, CmdToggleSort},
		{k.ToggleAllFeed, CmdToggleWhitelist},
		{k.Filter, CmdFilter},
	}
}

func (k keyMap) creatorBindings() []binding {
	return []binding{
		{k.ToggleEnabled, CmdToggleEnabled},
		{k.EditPriority, CmdEditPriority},
		{k.EditWeight, CmdEditWeight},
	}
}
