package tui

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/contacts/internal/contact"
)

// Book is the read-only view of an address book the displays need.
type Book interface {
	Keys() []string
	Get(name string) (*contact.Record, bool)
	Search(query string) []string
	Batches(size int) iter.Seq[[]*contact.Record]
}

// Model is the Bubble Tea model for browsing contacts. It never mutates the book.
type Model struct {
	book      Book
	today     time.Time
	visible   []string // keys shown in the list, in book order
	cursor    int
	offset    int // first visible row of the list
	filter    textinput.Model
	filtering bool
	help      help.Model
	keys      browseKeys
	fkeys     filterKeys
	width     int
	height    int
}

// NewModel creates a Model listing every record in book. Birthday countdowns
// are measured from today.
func NewModel(book Book, today time.Time) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "name, phone or email"

	return Model{
		book:    book,
		today:   today,
		visible: book.Keys(),
		filter:  ti,
		help:    help.New(),
		keys:    BrowseKeyMap(),
		fkeys:   FilterKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if len(m.visible) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.visible) - 1
			}
			m.scrollToCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if len(m.visible) > 0 {
			m.cursor++
			if m.cursor >= len(m.visible) {
				m.cursor = 0
			}
			m.scrollToCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		cmd := m.filter.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Clear):
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.fkeys.Apply):
		m.filtering = false
		m.filter.Blur()
		return m, nil

	case key.Matches(msg, m.fkeys.Cancel):
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter recomputes the visible keys from the current query.
func (m *Model) applyFilter() {
	if q := m.filter.Value(); q != "" {
		m.visible = m.book.Search(q)
	} else {
		m.visible = m.book.Keys()
	}
	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
	m.scrollToCursor()
}

// paneHeight returns the rows inside a pane border. Borders take two rows and
// the help bar one, plus one more for the filter line.
func (m Model) paneHeight() int {
	return max(m.height-4, 1)
}

// scrollToCursor moves the list window so the cursor row is visible.
// Before the first WindowSizeMsg the whole list is shown.
func (m *Model) scrollToCursor() {
	if m.height == 0 {
		m.offset = 0
		return
	}
	rows := m.paneHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = max(min(m.offset, len(m.visible)-rows), 0)
}

// Selected returns the key at the cursor, or "" when nothing is listed.
func (m Model) Selected() string {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return ""
	}
	return m.visible[m.cursor]
}

// Query returns the active search query.
func (m Model) Query() string {
	return m.filter.Value()
}

// View renders the list and detail panes with a help bar.
func (m Model) View() string {
	listWidth, detailWidth := PaneWidths(m.width)
	innerHeight := m.paneHeight()
	// Height only pads; MaxHeight clips rows that wrap. Zero means unbounded.
	maxHeight := 0
	if m.height > 0 {
		maxHeight = innerHeight + 2
	}

	list := paneBorder(!m.filtering).
		Width(max(listWidth-2, 0)).
		Height(innerHeight).
		MaxHeight(maxHeight).
		Render(m.listView())
	detail := paneBorder(false).
		Width(max(detailWidth-2, 0)).
		Height(innerHeight).
		MaxHeight(maxHeight).
		Render(m.detailView())

	var km help.KeyMap = m.keys
	if m.filtering {
		km = m.fkeys
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, detail))
	b.WriteByte('\n')
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteByte('\n')
	}
	b.WriteString(m.help.View(km))
	return b.String()
}

func (m Model) listView() string {
	if len(m.visible) == 0 {
		if m.filter.Value() != "" {
			return mutedText.Render(fmt.Sprintf("No contacts match %q", m.filter.Value()))
		}
		return mutedText.Render("No contacts yet")
	}

	rows := m.visible[m.offset:]
	if m.height > 0 && len(rows) > m.paneHeight() {
		rows = rows[:m.paneHeight()]
	}

	var b strings.Builder
	for j, name := range rows {
		i := m.offset + j
		if j > 0 {
			b.WriteByte('\n')
		}
		if i == m.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(name)
	}
	return b.String()
}

func (m Model) detailView() string {
	r, ok := m.book.Get(m.Selected())
	if !ok {
		return ""
	}
	card := FormatRecord(r, m.today)
	if m.height > 0 {
		lines := strings.Split(card, "\n")
		if len(lines) > m.paneHeight() {
			card = strings.Join(lines[:m.paneHeight()], "\n")
		}
	}
	title, rest, _ := strings.Cut(card, "\n")
	if rest == "" {
		return titleText.Render(title)
	}
	return titleText.Render(title) + "\n" + rest
}
