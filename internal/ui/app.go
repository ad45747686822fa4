package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/waypoint/internal/editor"
	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/logtail"
	"github.com/five82/waypoint/internal/prefs"
)

// Focus identifies the panel receiving keys.
type Focus int

const (
	FocusList Focus = iota
	FocusMap
	FocusForm
)

func (f Focus) String() string {
	switch f {
	case FocusMap:
		return "map"
	case FocusForm:
		return "form"
	default:
		return "list"
	}
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    features.RecordClient
	APIURL    string
	PageSize  int
	Logger    *zerolog.Logger
	LogPath   string
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	engine    *editor.Engine
	apiURL    string
	prefsPath string
	logPath   string
	log       zerolog.Logger
	keys      keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool
	focus  Focus

	// Rendering state shared with the engine
	scr *screen

	// List state
	listCursor int
	listOffset int
	searching  bool
	search     textinput.Model

	// Map state
	mapCursor int

	// Activity
	spinner spinner.Model
	status  string

	// Overlays
	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model.
func New(opts Options) (Model, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	scr := newScreen()
	engine, err := editor.New(editor.Options{
		Client:   opts.Client,
		View:     scr,
		PageSize: opts.PageSize,
		Logger:   &logger,
	})
	if err != nil {
		return Model{}, err
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search name or description"

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	return Model{
		ctx:       ctx,
		engine:    engine,
		apiURL:    opts.APIURL,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		log:       logger.With().Str("component", "ui").Logger(),
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		focus:     FocusList,
		scr:       scr,
		mapCursor: -1,
		search:    search,
		spinner:   spin,
	}, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
		m.loadPage(0),
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
		m.resize()
		return m, nil

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case logLoadedMsg:
		if lm, ok := m.modal.(logModal); ok {
			m.modal = lm.load(msg.lines, msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = m.nextNotice()
			return m, cmd
		}
		m.modal = modal
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	if m.focus == FocusForm {
		return m.handleFormKey(msg)
	}

	switch {
	case matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
				m.log.Warn().Err(err).Msg("save prefs")
			}
		}
		return m, nil

	case matches(msg, m.keys.ShowLog):
		m.modal = newLogModal(m.logPath, m.width, m.height)
		return m, readLogCmd(m.logPath)

	case matches(msg, m.keys.Tab):
		m.setFocus(m.focus + 1)
		return m, nil

	case matches(msg, m.keys.ShiftTab):
		m.setFocus(m.focus + 2)
		return m, nil

	case matches(msg, m.keys.NextPage):
		return m, m.loadPage(m.engine.State().CurrentPage + 1)

	case matches(msg, m.keys.PrevPage):
		page := m.engine.State().CurrentPage
		if page == 0 {
			m.status = "Already on the first page"
			return m, nil
		}
		return m, m.loadPage(page - 1)

	case matches(msg, m.keys.Reload):
		return m, m.reload()

	case matches(msg, m.keys.NewFeature):
		m.engine.Clear()
		m.setFocus(FocusForm)
		m.status = "New feature"
		return m, nil

	case matches(msg, m.keys.Delete):
		return m.startDelete()
	}

	switch m.focus {
	case FocusList:
		return m.handleListKey(msg)
	case FocusMap:
		return m.handleMapKey(msg)
	}
	return m, nil
}

// handleListKey processes keyboard input for the list panel.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if matches(msg, m.keys.Search) {
		m.searching = true
		m.search.SetValue(m.engine.State().Query)
		m.search.CursorEnd()
		m.search.Focus()
		return m, textinput.Blink
	}

	items := m.scr.visibleItems()
	if len(items) == 0 {
		return m, nil
	}

	switch {
	case matches(msg, m.keys.Down):
		if m.listCursor < len(items)-1 {
			m.listCursor++
		}
	case matches(msg, m.keys.Up):
		if m.listCursor > 0 {
			m.listCursor--
		}
	case matches(msg, m.keys.Top):
		m.listCursor = 0
	case matches(msg, m.keys.Bottom):
		m.listCursor = len(items) - 1
	case matches(msg, m.keys.Select):
		item := items[m.listCursor]
		if err := item.OnClick(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.setFocus(FocusForm)
	}
	return m, nil
}

// handleMapKey moves the hover highlight through overlay features and zooms.
func (m Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case matches(msg, m.keys.ZoomIn):
		m.scr.zoom(1 / MapZoomStep)
		return m, nil
	case matches(msg, m.keys.ZoomOut):
		m.scr.zoom(MapZoomStep)
		return m, nil
	case matches(msg, m.keys.ZoomFit):
		m.scr.resetZoom()
		return m, nil
	}

	overlay := m.scr.overlay
	if len(overlay) == 0 {
		return m, nil
	}

	switch {
	case matches(msg, m.keys.Down):
		m.moveHover(1)
	case matches(msg, m.keys.Up):
		m.moveHover(-1)
	case matches(msg, m.keys.Select):
		if hovered := m.hoveredFeature(); hovered != nil {
			if err := hovered.OnClick(); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.setFocus(FocusForm)
		}
	}
	return m, nil
}

// handleSearchKey edits the search query and applies it as the user types.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.engine.Filter("")
		m.clampCursors()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	visible := m.engine.Filter(m.search.Value())
	m.listCursor = 0
	m.listOffset = 0
	m.status = pluralize(visible, "match", "matches")
	return m, cmd
}

// handleFormKey routes keys to the focused form input.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.scr.form
	switch {
	case matches(msg, m.keys.Escape):
		m.engine.Clear()
		m.setFocus(FocusList)
		m.status = "Edit cancelled"
		return m, nil

	case matches(msg, m.keys.Submit):
		return m.submit()

	case matches(msg, m.keys.FormDelete):
		return m.startDelete()

	case matches(msg, m.keys.Tab):
		f.focusField(f.focused + 1)
		return m, nil

	case matches(msg, m.keys.ShiftTab):
		f.focusField(f.focused - 1)
		return m, nil
	}

	var cmd tea.Cmd
	switch f.focused {
	case fieldName:
		if msg.Type == tea.KeyEnter {
			f.focusField(fieldDescription)
			return m, nil
		}
		f.name, cmd = f.name.Update(msg)
	case fieldDescription:
		if msg.Type == tea.KeyEnter {
			f.focusField(fieldGeometry)
			return m, nil
		}
		f.description, cmd = f.description.Update(msg)
	case fieldGeometry:
		f.geometry, cmd = f.geometry.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	mutation, err := m.engine.Submit(m.scr.draft())
	if err != nil {
		var verr *editor.ValidationError
		if errors.As(err, &verr) {
			m.scr.form.status = verr.Error()
			m.scr.form.focusField(fieldGeometry)
			return m, nil
		}
		m.scr.form.status = err.Error()
		return m, nil
	}
	m.scr.form.status = ""
	m.status = "Saving..."
	return m, m.execute(mutation)
}

func (m Model) startDelete() (tea.Model, tea.Cmd) {
	mutation, ok := m.engine.Delete()
	if !ok {
		return m, nil
	}
	m.status = "Deleting..."
	return m, m.execute(mutation)
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	err := m.engine.ApplyPage(msg.result)
	switch {
	case errors.Is(err, editor.ErrStaleResponse):
		return m, nil
	case err != nil:
		m.status = "Load failed"
	default:
		st := m.engine.State()
		m.status = pluralize(len(st.Page), "feature", "features") + " on page " + itoa(st.CurrentPage+1)
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.mapCursor = -1
	}
	m.clampCursors()
	return m, nil
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	req, err := m.engine.ApplyMutation(msg.result)
	if err != nil {
		m.status = failureTitle(err)
		if m.modal == nil {
			m.modal = m.nextNotice()
		}
		return m, nil
	}
	m.status = savedLabel(msg.result.Mutation.Kind)
	if m.focus == FocusForm {
		m.setFocus(FocusList)
	}
	return m, fetchPageCmd(m.ctx, m.engine, req)
}

func (m Model) loadPage(n int) tea.Cmd {
	return fetchPageCmd(m.ctx, m.engine, m.engine.LoadPage(n))
}

func (m Model) reload() tea.Cmd {
	return fetchPageCmd(m.ctx, m.engine, m.engine.ReloadCurrent())
}

func (m Model) execute(mutation editor.Mutation) tea.Cmd {
	return executeCmd(m.ctx, m.engine, mutation)
}

// nextNotice turns the oldest queued failure into a notice modal.
func (m Model) nextNotice() Modal {
	if err := m.scr.popNotice(); err != nil {
		return newNoticeModal(err)
	}
	return nil
}

func (m *Model) setFocus(f Focus) {
	m.focus = Focus(int(f) % 3)
	if m.focus == FocusForm {
		m.scr.form.focusField(fieldName)
	} else {
		m.scr.form.blur()
	}
	if m.focus != FocusMap {
		if hovered := m.hoveredFeature(); hovered != nil {
			hovered.OnHoverOut()
		}
		m.mapCursor = -1
	}
}

// moveHover steps the hover highlight to the next or previous feature.
func (m *Model) moveHover(delta int) {
	overlay := m.scr.overlay
	if prev := m.hoveredFeature(); prev != nil {
		prev.OnHoverOut()
	}
	next := m.mapCursor + delta
	if m.mapCursor < 0 && delta < 0 {
		next = len(overlay) - 1
	}
	next = ((next % len(overlay)) + len(overlay)) % len(overlay)
	m.mapCursor = next
	overlay[next].OnHoverIn()
}

func (m Model) hoveredFeature() *editor.OverlayFeature {
	if m.mapCursor < 0 || m.mapCursor >= len(m.scr.overlay) {
		return nil
	}
	return &m.scr.overlay[m.mapCursor]
}

func (m *Model) clampCursors() {
	n := len(m.scr.visibleItems())
	if m.listCursor >= n {
		m.listCursor = max(n-1, 0)
	}
	if m.mapCursor >= len(m.scr.overlay) {
		m.mapCursor = -1
	}
}

// resize fits the form inputs to the current terminal size.
func (m *Model) resize() {
	_, rightWidth := m.columnWidths()
	inner := max(rightWidth-4, 10)
	m.scr.form.name.Width = inner - 14
	m.scr.form.description.Width = inner - 14
	m.scr.form.geometry.SetWidth(inner)
	m.search.Width = max(m.listWidth()-6, 8)
}

// Messages

type pageLoadedMsg struct {
	result editor.PageResult
}

type mutationDoneMsg struct {
	result editor.MutationResult
}

type logLoadedMsg struct {
	lines []string
	err   error
}

// Commands

func fetchPageCmd(ctx context.Context, engine *editor.Engine, req editor.PageRequest) tea.Cmd {
	return func() tea.Msg {
		return pageLoadedMsg{result: engine.Fetch(ctx, req)}
	}
}

func executeCmd(ctx context.Context, engine *editor.Engine, mutation editor.Mutation) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{result: engine.Execute(ctx, mutation)}
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return logLoadedMsg{}
		}
		lines, err := logtail.Read(path, LogModalLines)
		return logLoadedMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
