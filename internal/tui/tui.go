// Package tui is the terminal front end of the todo client.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"todolist/internal/client"
	"todolist/internal/utils"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// rows taken by everything around the list
	chromeHeight = 14
)

// listItem adapts a todo to bubbles/list.Item
type listItem struct {
	ID   string
	Text string
	Done bool
}

func (i listItem) Title() string {
	box := boxUnchecked
	if i.Done {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.Text)
}

func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// single-line rows
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := mutedStyle.Render(boxUnchecked)
	text := it.Text
	if it.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Toggle    key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Refresh   key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Confirm   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Confirm:   key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Edit, k.Delete, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, k.ShortHelp()}
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
	modeConfirm
)

type loadedMsg struct{ err error }

type doneMsg struct {
	err         error
	selectFirst bool
}

type modelTUI struct {
	ctx     context.Context
	session *client.Session
	keys    keyMap

	list    list.Model
	ti      textinput.Model
	spinner spinner.Model
	help    help.Model

	mode     mode
	loaded   bool     // first fetch finished
	target   listItem // item being edited or confirmed
	inputErr string
}

func newModel(ctx context.Context, session *client.Session) modelTUI {
	l := list.New(nil, itemDelegate{}, defaultWidth-4, defaultHeight-chromeHeight)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = accentStyle

	return modelTUI{
		ctx:     ctx,
		session: session,
		keys:    defaultKeyMap(),
		list:    l,
		ti:      ti,
		spinner: sp,
		help:    help.New(),
	}
}

// Run shows the todo list until the user quits.
func Run(ctx context.Context, session *client.Session) error {
	p := tea.NewProgram(newModel(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m modelTUI) load() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		return loadedMsg{err: s.Refresh(ctx)}
	}
}

func (m modelTUI) run(selectFirst bool, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{err: fn(ctx), selectFirst: selectFirst}
	}
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadedMsg:
		m.loaded = true
		return m, m.sync(false)
	case doneMsg:
		return m, m.sync(msg.selectFirst && msg.err == nil)
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	if m.mode == modeAdd || m.mode == modeEdit {
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	switch {
	case msg.String() == "esc" && s.Snapshot().Notice != "":
		s.ClearNotice()
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.inputErr = ""
		m.ti.Placeholder = "What needs to be done?"
		m.ti.SetValue(s.Snapshot().Draft)
		m.ti.CursorEnd()
		return m, m.ti.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.selected(); ok {
			return m, m.run(false, func(ctx context.Context) error { return s.Toggle(ctx, it.ID) })
		}
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.selected(); ok {
			m.mode = modeEdit
			m.target = it
			m.inputErr = ""
			m.ti.Placeholder = "Edit todo..."
			m.ti.SetValue(it.Text)
			m.ti.CursorEnd()
			return m, m.ti.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			m.mode = modeConfirm
			m.target = it
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	switch {
	case key.Matches(msg, m.keys.Submit):
		s.SetDraft(m.ti.Value())
		if _, ok := utils.TrimmedText(m.ti.Value()); !ok {
			m.inputErr = "Todo text cannot be empty"
			return m, nil
		}
		m.closeInput()
		return m, m.run(true, func(ctx context.Context) error {
			_, err := s.Submit(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Cancel):
		// the draft survives until the next add
		s.SetDraft(m.ti.Value())
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	s.SetDraft(m.ti.Value())
	return m, cmd
}

func (m modelTUI) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		text := m.ti.Value()
		if _, ok := utils.TrimmedText(text); !ok {
			m.inputErr = "Todo text cannot be empty"
			return m, nil
		}
		s, id := m.session, m.target.ID
		m.closeInput()
		return m, m.run(false, func(ctx context.Context) error { return s.Edit(ctx, id, text) })
	case key.Matches(msg, m.keys.Cancel):
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m modelTUI) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	if !key.Matches(msg, m.keys.Confirm) {
		return m, nil
	}
	s, id := m.session, m.target.ID
	return m, m.run(false, func(ctx context.Context) error { return s.Delete(ctx, id) })
}

func (m *modelTUI) closeInput() {
	m.mode = modeBrowse
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m modelTUI) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// sync copies the session's todos into the list.
func (m *modelTUI) sync(selectFirst bool) tea.Cmd {
	snap := m.session.Snapshot()
	items := make([]list.Item, len(snap.Todos))
	for i, t := range snap.Todos {
		items[i] = listItem{ID: t.ID, Text: t.Text, Done: t.Completed}
	}
	cmd := m.list.SetItems(items)
	switch {
	case selectFirst || len(items) == 0:
		m.list.Select(0)
	case m.list.Index() >= len(items):
		m.list.Select(len(items) - 1)
	}
	return cmd
}

func (m *modelTUI) resize(width, height int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	h := height - chromeHeight
	if h < 3 {
		h = 3
	}
	m.list.SetSize(width-4, h)
	m.help.Width = width - 4
	m.ti.Width = width - 10
}

func (m modelTUI) View() string {
	snap := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Simple Todo List"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Keep track of your tasks"))
	b.WriteString("\n\n")

	if snap.Notice != "" {
		b.WriteString(errorStyle.Render("✖ " + snap.Notice))
		b.WriteString("\n\n")
	}

	switch {
	case !m.loaded || (snap.Loading && len(snap.Todos) == 0):
		b.WriteString(m.spinner.View() + " Loading todos...")
	case snap.Empty():
		b.WriteString(mutedStyle.Render("No todos yet. Press a to add one!"))
	default:
		b.WriteString(m.list.View())
	}

	if st := snap.Stats(); st.Total > 0 {
		b.WriteString("\n\n")
		b.WriteString(statsLine(st.Total, st.Completed, st.Remaining))
	}

	switch m.mode {
	case modeAdd, modeEdit:
		title := "Add a new todo"
		if m.mode == modeEdit {
			title = "Edit todo"
		}
		if m.inputErr != "" {
			title += "  " + errorStyle.Render(m.inputErr)
		}
		b.WriteString("\n")
		b.WriteString(barString(title + "\n" + m.ti.View()))
	case modeConfirm:
		b.WriteString("\n")
		b.WriteString(barString(fmt.Sprintf("%q\nAre you sure you want to delete this todo? %s",
			m.target.Text, mutedStyle.Render("(y/n)"))))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return panelString(b.String())
}
