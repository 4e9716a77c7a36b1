package ui

import (
	"fmt"

	"github.com/five82/sieve/internal/feed"
)

// Command is a user intent. Key presses resolve to a Command and Update
// dispatches it to the engines.
type Command int

const (
	CmdNone Command = iota

	CmdQuit
	CmdHelp
	CmdCycleTheme
	CmdSwitchView
	CmdReload
	CmdUndo
	CmdDismiss

	CmdUp
	CmdDown
	CmdTop
	CmdBottom

	CmdMarkNew
	CmdMarkLater
	CmdMarkStar
	CmdMarkWatched
	CmdMarkHidden
	CmdMarkRead
	CmdToggleDaily
	CmdToggleSort
	CmdToggleWhitelist
	CmdFilter

	CmdToggleEnabled
	CmdEditPriority
	CmdEditWeight
)

var commandNames = map[Command]string{
	CmdNone:            "none",
	CmdQuit:            "quit",
	CmdHelp:            "help",
	CmdCycleTheme:      "cycle-theme",
	CmdSwitchView:      "switch-view",
	CmdReload:          "reload",
	CmdUndo:            "undo",
	CmdDismiss:         "dismiss",
	CmdUp:              "up",
	CmdDown:            "down",
	CmdTop:             "top",
	CmdBottom:          "bottom",
	CmdMarkNew:         "mark-new",
	CmdMarkLater:       "mark-later",
	CmdMarkStar:        "mark-star",
	CmdMarkWatched:     "mark-watched",
	CmdMarkHidden:      "mark-hidden",
	CmdMarkRead:        "mark-read",
	CmdToggleDaily:     "toggle-daily",
	CmdToggleSort:      "toggle-sort",
	CmdToggleWhitelist: "toggle-whitelist",
	CmdFilter:          "filter",
	CmdToggleEnabled:   "toggle-enabled",
	CmdEditPriority:    "edit-priority",
	CmdEditWeight:      "edit-weight",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// TargetState returns the workflow state a mark command requests.
func (c Command) TargetState() (feed.State, bool) {
	switch c {
	case CmdMarkNew:
		return feed.StateNew, true
	case CmdMarkLater:
		return feed.StateLater, true
	case CmdMarkStar:
		return feed.StateStar, true
	case CmdMarkWatched:
		return feed.StateWatched, true
	case CmdMarkHidden:
		return feed.StateHidden, true
	case CmdMarkRead:
		return feed.StateRead, true
	default:
		return "", false
	}
}

// EditField returns the creator field an edit command opens.
func (c Command) EditField() (feed.CreatorField, bool) {
	switch c {
	case CmdEditPriority:
		return feed.FieldPriority, true
	case CmdEditWeight:
		return feed.FieldWeight, true
	default:
		return "", false
	}
}
