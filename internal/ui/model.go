package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sieve/internal/config"
	"github.com/five82/sieve/internal/engine"
	"github.com/five82/sieve/internal/feed"
	"github.com/five82/sieve/internal/notify"
	"github.com/five82/sieve/internal/prefs"
	"github.com/five82/sieve/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewCreators
)

// inputMode is what the bottom input line is editing, if anything.
type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputPriority
	inputWeight
)

const retryBase = 2 * time.Second

// Options configures the UI.
type Options struct {
	Context   context.Context
	List      *state.ListStore
	Creators  *state.CreatorStore
	Notifier  *notify.Notifier
	Engine    *engine.Transitions
	Editor    *engine.CreatorEditor
	Source    state.Source
	Config    *config.Config
	ThemeName string
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Wiring
	ctx       context.Context
	list      *state.ListStore
	creators  *state.CreatorStore
	notifier  *notify.Notifier
	engine    *engine.Transitions
	editor    *engine.CreatorEditor
	config    *config.Config
	prefs     prefs.Prefs
	prefsPath string
	logger    *slog.Logger
	now       func() time.Time

	// UI state
	keys        keyMap
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Feed state
	daily        bool
	filter       feed.Filter
	feed         state.ListSnapshot
	feedCursor   int
	loading      bool
	loadFailures int

	// Creator state
	creatorRows    state.CreatorSnapshot
	creatorCursor  int
	creatorsLoaded bool

	notice    notify.Notice
	hasNotice bool

	// Input line
	input     textinput.Model
	inputMode inputMode
	editUID   int64
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	input := textinput.New()
	input.CharLimit = 120

	filter := opts.Source.Filter
	if filter.Sort == "" {
		filter.Sort = feed.SortPub
	}

	return Model{
		ctx:         ctx,
		list:        opts.List,
		creators:    opts.Creators,
		notifier:    opts.Notifier,
		engine:      opts.Engine,
		editor:      opts.Editor,
		config:      opts.Config,
		prefs:       opts.Prefs,
		prefsPath:   opts.PrefsPath,
		logger:      logger,
		now:         time.Now,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewFeed,
		daily:       opts.Source.Daily,
		filter:      filter,
		loading:     opts.Engine != nil,
		input:       input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		loadCmd(m.ctx, m.engine, m.source()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.Width = max(msg.Width-20, 10)
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, nil

	case loadedMsg:
		m.loading = false
		m.refresh()
		if msg.err == nil {
			m.loadFailures = 0
			return m, nil
		}
		if m.feed.Loaded {
			return m, nil
		}
		// Nothing to show yet, keep trying until the feed API answers.
		delay := retryDelay(m.loadFailures, retryBase)
		m.loadFailures++
		return m, tea.Tick(delay, func(time.Time) tea.Msg { return retryMsg{} })

	case retryMsg:
		if m.feed.Loaded || m.loading {
			return m, nil
		}
		m.loading = true
		return m, loadCmd(m.ctx, m.engine, m.source())

	case creatorsLoadedMsg:
		m.refresh()
		return m, nil

	case transitionMsg:
		m.logger.Debug("transition settled", "id", msg.id, "state", msg.state, "outcome", msg.outcome)
		m.refresh()
		return m, nil

	case editMsg:
		m.logger.Debug("creator edit settled", "uid", msg.uid, "field", msg.field, "outcome", msg.outcome)
		m.refresh()
		return m, nil

	case undoMsg:
		m.refresh()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.inputMode != inputNone {
		return m.handleInputKey(msg)
	}
	return m.dispatch(m.keys.Resolve(m.currentView, msg))
}

// dispatch runs one command. Engine calls happen inside the returned
// tea.Cmd so Update never blocks on the network.
func (m Model) dispatch(cmd Command) (tea.Model, tea.Cmd) {
	switch cmd {
	case CmdQuit:
		return m, tea.Quit

	case CmdHelp:
		m.showHelp = true
		return m, nil

	case CmdCycleTheme:
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case CmdSwitchView:
		if m.currentView == ViewFeed {
			m.currentView = ViewCreators
			if !m.creatorsLoaded {
				m.creatorsLoaded = true
				return m, loadCreatorsCmd(m.ctx, m.editor)
			}
			return m, nil
		}
		m.currentView = ViewFeed
		return m, nil

	case CmdReload:
		if m.currentView == ViewCreators {
			return m, loadCreatorsCmd(m.ctx, m.editor)
		}
		m.loading = true
		return m, loadCmd(m.ctx, m.engine, m.source())

	case CmdUndo:
		return m, undoCmd(m.ctx, m.notifier)

	case CmdDismiss:
		if m.notifier != nil {
			m.notifier.Dismiss()
			m.refresh()
		}
		return m, nil

	case CmdUp, CmdDown, CmdTop, CmdBottom:
		m.move(cmd)
		return m, nil

	case CmdToggleDaily:
		m.daily = !m.daily
		m.feedCursor = 0
		m.prefs.Daily = m.daily
		m.savePrefs()
		m.loading = true
		return m, loadCmd(m.ctx, m.engine, m.source())

	case CmdToggleSort:
		if m.filter.Sort == feed.SortView {
			m.filter.Sort = feed.SortPub
		} else {
			m.filter.Sort = feed.SortView
		}
		m.prefs.Sort = string(m.filter.Sort)
		m.savePrefs()
		if m.daily {
			return m, nil
		}
		m.loading = true
		return m, loadCmd(m.ctx, m.engine, m.source())

	case CmdToggleWhitelist:
		m.filter.WhitelistOnly = !m.filter.WhitelistOnly
		m.daily = false
		m.feedCursor = 0
		m.loading = true
		return m, loadCmd(m.ctx, m.engine, m.source())

	case CmdFilter:
		m.inputMode = inputFilter
		m.input.Prompt = "/ "
		m.input.Placeholder = "text tag:x group:x min:n max:n state:LATER all"
		m.input.SetValue(formatFilterQuery(m.filter))
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink

	case CmdMarkNew, CmdMarkLater, CmdMarkStar, CmdMarkWatched, CmdMarkHidden, CmdMarkRead:
		v, ok := m.selectedVideo()
		if !ok {
			return m, nil
		}
		next, _ := cmd.TargetState()
		return m, requestCmd(m.ctx, m.engine, v.ID, next)

	case CmdToggleEnabled:
		row, ok := m.selectedCreator()
		if !ok {
			return m, nil
		}
		uid, on := row.Committed.UID, !row.Displayed.Enabled
		return m, editCmd(m.ctx, uid, feed.FieldEnabled, func(ctx context.Context) (engine.EditOutcome, error) {
			return m.editor.SetEnabled(ctx, uid, on)
		})

	case CmdEditPriority, CmdEditWeight:
		row, ok := m.selectedCreator()
		if !ok {
			return m, nil
		}
		field, _ := cmd.EditField()
		if field == feed.FieldWeight && !row.WeightEditable() {
			if m.notifier != nil {
				m.notifier.Show("Weight only applies while priority is 0", notify.KindInfo, nil)
				m.refresh()
			}
			return m, nil
		}
		m.inputMode = inputPriority
		if field == feed.FieldWeight {
			m.inputMode = inputWeight
		}
		m.editUID = row.Committed.UID
		m.input.Prompt = string(field) + " for " + row.Committed.DisplayName() + ": "
		m.input.Placeholder = ""
		m.input.SetValue(field.Format(field.Get(row.Displayed)))
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

// handleInputKey feeds keys to the input line until enter or esc.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		value := m.input.Value()
		mode, uid := m.inputMode, m.editUID
		m.closeInput()
		return m.submitInput(mode, uid, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput(mode inputMode, uid int64, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case inputFilter:
		m.filter = parseFilterQuery(m.filter, value)
		m.daily = false
		m.feedCursor = 0
		m.loading = true
		return m, loadCmd(m.ctx, m.engine, m.source())
	case inputPriority, inputWeight:
		field := feed.FieldPriority
		if mode == inputWeight {
			field = feed.FieldWeight
		}
		return m, editCmd(m.ctx, uid, field, func(ctx context.Context) (engine.EditOutcome, error) {
			return m.editor.SetField(ctx, uid, field, value)
		})
	}
	return m, nil
}

func (m *Model) closeInput() {
	m.inputMode = inputNone
	m.editUID = 0
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) move(cmd Command) {
	n := len(m.feed.Videos)
	cursor := &m.feedCursor
	if m.currentView == ViewCreators {
		n = len(m.creatorRows.Rows)
		cursor = &m.creatorCursor
	}
	switch cmd {
	case CmdUp:
		*cursor--
	case CmdDown:
		*cursor++
	case CmdTop:
		*cursor = 0
	case CmdBottom:
		*cursor = n - 1
	}
	*cursor = clampCursor(*cursor, n)
}

// refresh copies the latest store contents into the model.
func (m *Model) refresh() {
	if m.list != nil {
		m.feed = m.list.Snapshot()
		m.feedCursor = clampCursor(m.feedCursor, len(m.feed.Videos))
	}
	if m.creators != nil {
		m.creatorRows = m.creators.Snapshot()
		m.creatorCursor = clampCursor(m.creatorCursor, len(m.creatorRows.Rows))
	}
	if m.notifier != nil {
		m.notice, m.hasNotice = m.notifier.Current()
	}
}

func (m Model) source() state.Source {
	return state.Source{Daily: m.daily, Filter: m.filter}
}

func (m Model) selectedVideo() (feed.Video, bool) {
	if m.currentView != ViewFeed || len(m.feed.Videos) == 0 {
		return feed.Video{}, false
	}
	return m.feed.Videos[clampCursor(m.feedCursor, len(m.feed.Videos))], true
}

func (m Model) selectedCreator() (state.CreatorRow, bool) {
	if m.currentView != ViewCreators || m.editor == nil || len(m.creatorRows.Rows) == 0 {
		return state.CreatorRow{}, false
	}
	return m.creatorRows.Rows[clampCursor(m.creatorCursor, len(m.creatorRows.Rows))], true
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "err", err)
	}
}

// Messages

type storeChangedMsg struct{}

type loadedMsg struct{ err error }

type retryMsg struct{}

type creatorsLoadedMsg struct{ err error }

type transitionMsg struct {
	id      string
	state   feed.State
	outcome engine.Outcome
	err     error
}

type editMsg struct {
	uid     int64
	field   feed.CreatorField
	outcome engine.EditOutcome
	err     error
}

type undoMsg struct{ ran bool }

// Commands

func loadCmd(ctx context.Context, eng *engine.Transitions, src state.Source) tea.Cmd {
	if eng == nil {
		return nil
	}
	return func() tea.Msg {
		return loadedMsg{err: eng.Load(ctx, src)}
	}
}

func loadCreatorsCmd(ctx context.Context, editor *engine.CreatorEditor) tea.Cmd {
	if editor == nil {
		return nil
	}
	return func() tea.Msg {
		return creatorsLoadedMsg{err: editor.Load(ctx)}
	}
}

func requestCmd(ctx context.Context, eng *engine.Transitions, id string, next feed.State) tea.Cmd {
	if eng == nil {
		return nil
	}
	return func() tea.Msg {
		outcome, err := eng.Request(ctx, id, next)
		return transitionMsg{id: id, state: next, outcome: outcome, err: err}
	}
}

func editCmd(ctx context.Context, uid int64, field feed.CreatorField, run func(context.Context) (engine.EditOutcome, error)) tea.Cmd {
	return func() tea.Msg {
		outcome, err := run(ctx)
		return editMsg{uid: uid, field: field, outcome: outcome, err: err}
	}
}

// undoCmd runs the action of the visible notice. Once a notice is gone its
// undo is out of reach from the keyboard.
func undoCmd(ctx context.Context, n *notify.Notifier) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		if !n.Trigger(ctx) {
			n.Show("Nothing to undo", notify.KindInfo, nil)
			return undoMsg{}
		}
		return undoMsg{ran: true}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))

	changed := func() { go p.Send(storeChangedMsg{}) }
	if opts.List != nil {
		opts.List.OnChange(changed)
	}
	if opts.Creators != nil {
		opts.Creators.OnChange(changed)
	}
	if opts.Notifier != nil {
		opts.Notifier.OnChange(changed)
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
