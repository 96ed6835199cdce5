// Package ui is the bubbletea front end: a date-grouped list over the todo
// repository with add/edit, search, bulk deletes, and a theme toggle. All
// state changes go through the repository; this package only renders its
// outputs.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"haru/internal/config"
	"haru/internal/search"
	"haru/internal/theme"
	"haru/internal/todo"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeSearch
)

// formState carries the add/edit form. An empty editingID means add.
type formState struct {
	editingID   string
	title       string
	description string
	date        string
	index       int
}

type confirmKind int

const (
	confirmDeleteOne confirmKind = iota
	confirmDeleteGroup
	confirmDeleteCompleted
	confirmDeleteAll
)

type pendingAction struct {
	kind confirmKind
	id   string
	date string
}

type (
	searchCommittedMsg string
	repoChangedMsg     struct{}
	themeTickMsg       time.Time
)

type Model struct {
	repo   *todo.Repository
	themes *theme.Controller
	cfg    config.Config
	st     styles

	visible []todo.Todo
	dates   []string
	groups  map[string][]todo.Todo
	cursor  int
	mode    mode
	input   textinput.Model
	status  string

	form    *formState
	pending *pendingAction

	query     string // what is being typed
	committed string // what the list is filtered by

	debounce *search.Debouncer
	commits  chan string
	changes  chan struct{}

	now func() time.Time
}

func Run(repo *todo.Repository, themes *theme.Controller, cfg config.Config) error {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 40

	commits := make(chan string, 8)
	changes := make(chan struct{}, 1)

	m := Model{
		repo:     repo,
		themes:   themes,
		cfg:      cfg,
		st:       stylesFor(themes.Mode()),
		input:    ti,
		mode:     modeList,
		status:   "Press 'a' to add, space to toggle, '/' to search.",
		commits:  commits,
		changes:  changes,
		debounce: search.New(time.Duration(cfg.DebounceMS)*time.Millisecond, func(q string) { commits <- q }),
		now:      time.Now,
	}
	defer m.debounce.Stop()

	repo.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	stop := repo.Watch(2 * time.Second)
	defer stop()

	m.refresh()
	program := tea.NewProgram(m)
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForCommit(m.commits), waitForChange(m.changes), themeTick())
}

func waitForCommit(ch chan string) tea.Cmd {
	return func() tea.Msg { return searchCommittedMsg(<-ch) }
}

func waitForChange(ch chan struct{}) tea.Cmd {
	return func() tea.Msg { <-ch; return repoChangedMsg{} }
}

func themeTick() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg { return themeTickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchCommittedMsg:
		m.committed = string(msg)
		m.refresh()
		if m.committed != "" && len(m.visible) == 0 {
			m.status = fmt.Sprintf("No todos match %q", m.committed)
		}
		return m, waitForCommit(m.commits)
	case repoChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	case themeTickMsg:
		if m.themes.Refresh() {
			m.st = stylesFor(m.themes.Mode())
		}
		return m, themeTick()
	case tea.KeyMsg:
		if m.pending != nil {
			return m.updateConfirm(msg.String())
		}
		switch m.mode {
		case modeForm:
			return m.updateFormMode(msg.String(), msg)
		case modeSearch:
			return m.updateSearchMode(msg.String(), msg)
		default:
			return m.updateListMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.visible) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.visible))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.visible))
		}
	case m.cfg.Keys.Add:
		m.form = &formState{date: m.now().Format(todo.DateLayout)}
		m.mode = modeForm
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		m.input.Focus()
		m.status = "Add: enter to advance, esc to cancel"
	case m.cfg.Keys.Edit:
		sel, ok := m.selected()
		if !ok {
			m.status = "No todo to edit"
			return m, nil
		}
		m.form = &formState{
			editingID:   sel.ID,
			title:       sel.Title,
			description: sel.Description,
			date:        sel.Date,
		}
		m.mode = modeForm
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		m.input.Focus()
		m.status = "Edit: enter to advance, esc to cancel"
	case m.cfg.Keys.Toggle:
		sel, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.repo.Toggle(sel.ID)
		m.refresh()
		m.status = "Toggled"
	case m.cfg.Keys.Delete:
		sel, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pending = &pendingAction{kind: confirmDeleteOne, id: sel.ID}
		m.status = fmt.Sprintf("Delete %q? y/n", sel.Title)
	case m.cfg.Keys.DeleteGroup:
		sel, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pending = &pendingAction{kind: confirmDeleteGroup, date: sel.Date}
		m.status = fmt.Sprintf("Delete every todo due %s? y/n", todo.FormatForDisplay(sel.Date, m.now()))
	case m.cfg.Keys.DeleteCompleted:
		if m.repo.Stats().Completed == 0 {
			m.status = "Nothing completed to delete"
			return m, nil
		}
		m.pending = &pendingAction{kind: confirmDeleteCompleted}
		m.status = "Delete all completed todos? y/n"
	case m.cfg.Keys.DeleteAll:
		if m.repo.Stats().Total == 0 {
			return m, nil
		}
		m.pending = &pendingAction{kind: confirmDeleteAll}
		m.status = "Delete ALL todos? y/n"
	case m.cfg.Keys.Theme:
		m.themes.Toggle()
		m.st = stylesFor(m.themes.Mode())
		m.status = fmt.Sprintf("Theme: %s", m.themes.Mode())
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.Placeholder = "Search"
		m.input.Focus()
		m.status = "Search: esc to clear, enter to keep"
	case m.cfg.Keys.Cancel, "esc":
		if m.committed != "" || m.query != "" {
			m.query = ""
			m.debounce.Clear()
			m.status = "Search cleared"
		}
	}
	return m, nil
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.query = ""
		m.input.SetValue("")
		m.input.Blur()
		m.debounce.Clear()
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.mode = modeList
		m.input.Blur()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != m.query {
			m.query = v
			m.debounce.Update(v)
		}
		return m, cmd
	}
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		if m.form == nil {
			return m, nil
		}
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, len(formFields()))
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		return m, nil
	case "shift+tab", "up":
		if m.form == nil {
			return m, nil
		}
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, len(formFields()))
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if m.form == nil {
			return m, nil
		}
		m.form.setCurrentValue(m.input.Value())
		if m.form.index < len(formFields())-1 {
			m.form.index++
			m.input.SetValue(m.form.currentValue())
			m.input.Placeholder = m.form.currentLabel()
			return m, nil
		}
		return m.saveForm()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// saveForm validates the form and hands it to the repository. The
// repository trusts its input, so nothing invalid may pass this point.
func (m Model) saveForm() (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	in := todo.Input{
		Title:       strings.TrimSpace(m.form.title),
		Description: strings.TrimSpace(m.form.description),
		Date:        strings.TrimSpace(m.form.date),
	}
	if err := todo.ValidateInput(in); err != nil {
		m.status = fmt.Sprintf("Invalid: %v", err)
		return m, nil
	}

	if m.form.editingID == "" {
		created := m.repo.Add(in)
		m.refresh()
		m.moveCursorTo(created.ID)
		m.status = "Added"
	} else {
		m.repo.Update(m.form.editingID, todo.Patch{
			Title:       &in.Title,
			Description: &in.Description,
			Date:        &in.Date,
		})
		id := m.form.editingID
		m.refresh()
		m.moveCursorTo(id)
		m.status = "Saved"
	}
	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	return m, nil
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.pending = nil
		m.status = "Cancelled"
		return m, nil
	case "y", "Y":
		if m.pending == nil {
			return m, nil
		}
		switch m.pending.kind {
		case confirmDeleteOne:
			m.repo.Delete(m.pending.id)
			m.status = "Deleted"
		case confirmDeleteGroup:
			m.repo.DeleteAllForDate(m.pending.date)
			m.status = "Deleted group"
		case confirmDeleteCompleted:
			m.repo.DeleteAllCompleted()
			m.status = "Deleted completed"
		case confirmDeleteAll:
			m.repo.DeleteAll()
			m.status = "Deleted everything"
		}
		m.pending = nil
		m.refresh()
		return m, nil
	default:
		return m, nil
	}
}

// refresh recomputes the derived views the list renders from: the filtered
// collection, its date buckets, and the flattened cursor order.
func (m *Model) refresh() {
	filtered := todo.Filter(m.repo.List(), m.committed)
	m.groups = todo.GroupByDate(filtered)
	dates := make([]string, 0, len(m.groups))
	for d := range m.groups {
		dates = append(dates, d)
	}
	m.dates = todo.SortDates(dates)

	m.visible = make([]todo.Todo, 0, len(filtered))
	for _, d := range m.dates {
		m.visible = append(m.visible, m.groups[d]...)
	}
	m.cursor = clampCursor(m.cursor, len(m.visible))
}

func (m Model) selected() (todo.Todo, bool) {
	if len(m.visible) == 0 {
		return todo.Todo{}, false
	}
	return m.visible[clampCursor(m.cursor, len(m.visible))], true
}

func (m *Model) moveCursorTo(id string) {
	for i, t := range m.visible {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render("haru"))
	if m.committed != "" {
		b.WriteString(m.st.muted.Render(fmt.Sprintf("  filtering by %q", m.committed)))
	}
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString("Search: ")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if m.form != nil {
		b.WriteString(m.renderForm())
	} else {
		b.WriteString(m.renderGroups())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(m.st.status.Render(m.status))
	b.WriteString("\n")
	b.WriteString(m.st.help.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderGroups() string {
	if len(m.visible) == 0 {
		if m.committed != "" {
			return m.st.muted.Render(fmt.Sprintf("No todos match %q.", m.committed))
		}
		return m.st.muted.Render("No todos yet. Press 'a' to add one.")
	}

	now := m.now()
	var b strings.Builder
	idx := 0
	for _, date := range m.dates {
		header := m.st.groupHeader.Render(todo.FormatForDisplay(date, now))
		line := header + " " + m.st.groupDate.Render(date)
		if todo.IsOverdue(date, now) {
			line += " " + m.st.overdue.Render("overdue")
		}
		b.WriteString(line)
		b.WriteString("\n")

		for _, t := range m.groups[date] {
			b.WriteString(m.renderTodoLine(t, idx))
			b.WriteString("\n")
			idx++
		}
	}
	return b.String()
}

func (m Model) renderTodoLine(t todo.Todo, idx int) string {
	cursor := "  "
	if m.cursor == idx && m.mode == modeList {
		cursor = m.st.cursor.Render("> ")
	}

	checkbox := "[ ]"
	if t.Completed {
		checkbox = "[x]"
	}

	title := renderHighlighted(m.st, todo.Highlight(t.Title, m.committed))
	if t.Completed {
		title = m.st.done.Render(t.Title)
	}
	body := fmt.Sprintf("%s%s %s", cursor, checkbox, title)
	if t.Description != "" {
		body += m.st.muted.Render(" — ") + renderHighlighted(m.st, todo.Highlight(t.Description, m.committed))
	}
	return body
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	header := "Add todo"
	if m.form.editingID != "" {
		header = "Edit todo"
	}
	fields := formFields()
	values := []string{m.form.title, m.form.description, m.form.date}

	var b strings.Builder
	b.WriteString(m.st.groupHeader.Render(header))
	b.WriteString("\n\n")
	for i, name := range fields {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = m.st.muted.Render("(empty)")
		}
		b.WriteString(fmt.Sprintf("%s %-22s : %s\n", prefix, name, val))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) renderStats() string {
	s := m.repo.Stats()
	return m.st.muted.Render(fmt.Sprintf("%d total · %d done · %d pending", s.Total, s.Completed, s.Pending))
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s search • %s theme • %s/%s/%s bulk delete • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Toggle, k.Delete, k.Search, k.Theme, k.DeleteGroup, k.DeleteCompleted, k.DeleteAll, k.Quit)
}

func formFields() []string {
	return []string{"title", "description", "date (YYYY-MM-DD)"}
}

func (f formState) currentLabel() string {
	return formFields()[f.index]
}

func (f formState) currentValue() string {
	switch f.index {
	case 0:
		return f.title
	case 1:
		return f.description
	case 2:
		return f.date
	default:
		return ""
	}
}

func (f *formState) setCurrentValue(v string) {
	switch f.index {
	case 0:
		f.title = v
	case 1:
		f.description = v
	case 2:
		f.date = v
	}
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
