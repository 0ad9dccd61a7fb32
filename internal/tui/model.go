// Package tui is a terminal browser for the paginated article collection.
// The header bar hides while the list scrolls down and comes back on the
// first upward scroll.
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"catalog-api/internal/collection"
	"catalog-api/internal/models"
	"catalog-api/internal/scroll"
)

// header, footer and help line
const chromeHeight = 3

// StateMsg delivers a controller snapshot to the program.
type StateMsg collection.State

type Model struct {
	ctrl *collection.Paginated
	keys KeyMap

	help    help.Model
	spinner spinner.Model
	vp      viewport.Model

	window *scroll.Window
	header *scroll.Tracker
	detach func()

	state  collection.State
	status string
	width  int
}

func New(ctrl *collection.Paginated) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = faintStyle

	window := scroll.NewWindow()
	header := scroll.NewTracker()

	m := Model{
		ctrl:    ctrl,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		vp:      viewport.New(80, 20),
		window:  window,
		header:  header,
		detach:  header.Attach(window),
		state:   ctrl.State(),
		width:   80,
	}
	m.setContent()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start, m.spinner.Tick)
}

func (m Model) start() tea.Msg {
	m.ctrl.Start()
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-chromeHeight, 1)
		m.help.Width = msg.Width
		m.setContent()
		return m, nil

	case StateMsg:
		s := collection.State(msg)
		if s.Version <= m.state.Version {
			return m, nil
		}
		pageChanged := s.Query != m.state.Query || !slices.EqualFunc(s.Items, m.state.Items, sameArticle)
		m.state = s
		m.setContent()
		if pageChanged {
			m.scrollTo(0)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.updateViewport(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.ctrl.Query()
	meta := collection.NewMeta(q.Page, q.PageSize, m.state.Total)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.detach()
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextPage):
		if meta.HasNext() {
			m.apply(m.ctrl.SetPage(q.Page + 1))
		}

	case key.Matches(msg, m.keys.PrevPage):
		if meta.HasPrev() {
			m.apply(m.ctrl.SetPage(q.Page - 1))
		}

	case key.Matches(msg, m.keys.Sort):
		next := models.SortAscending
		if q.Sort == models.SortAscending {
			next = models.SortDescending
		}
		m.apply(m.ctrl.SetSortKey(next))

	case key.Matches(msg, m.keys.PageSize):
		sizes := m.ctrl.PageSizes()
		i := slices.Index(sizes, q.PageSize)
		m.apply(m.ctrl.SetPageSize(sizes[(i+1)%len(sizes)]))

	case key.Matches(msg, m.keys.Retry):
		m.status = ""
		m.ctrl.Refresh()

	default:
		return m.updateViewport(msg)
	}

	return m, nil
}

// updateViewport forwards msg to the list viewport and reports any change
// in its offset to the header tracker.
func (m Model) updateViewport(msg tea.Msg) (tea.Model, tea.Cmd) {
	prev := m.vp.YOffset
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	if m.vp.YOffset != prev {
		m.window.Scroll(float64(m.vp.YOffset))
	}
	return m, cmd
}

func (m *Model) scrollTo(y int) {
	prev := m.vp.YOffset
	m.vp.SetYOffset(y)
	if m.vp.YOffset != prev {
		m.window.Scroll(float64(m.vp.YOffset))
	}
}

func (m *Model) apply(err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) setContent() {
	s := m.state
	if len(s.Items) == 0 {
		switch {
		case !s.Loaded:
			m.vp.SetContent(faintStyle.Render("Loading ideas..."))
		default:
			m.vp.SetContent(faintStyle.Render("No ideas to show."))
		}
		return
	}

	lines := make([]string, 0, len(s.Items))
	for _, a := range s.Items {
		date := "          "
		if !a.PublishedAt.IsZero() {
			date = a.PublishedAt.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("%s  %s", dateStyle.Render(date), a.Title))
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
}

func (m Model) View() string {
	var b strings.Builder
	if m.header.Visible() {
		b.WriteString(m.headerView())
		b.WriteString("\n")
	}
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	meta := m.state.Meta()
	order := "Newest"
	if m.state.Query.Sort == models.SortAscending {
		order = "Oldest"
	}
	title := fmt.Sprintf("Ideas · %s · %d per page · %s", order, meta.PageSize, meta.Label())
	return headerStyle.Width(m.width).Render(title)
}

func (m Model) footerView() string {
	meta := m.state.Meta()

	parts := make([]string, 0, meta.PageCount+1)
	for _, btn := range meta.Buttons() {
		if btn.Current {
			parts = append(parts, currentStyle.Render(fmt.Sprintf("[%d]", btn.Number)))
			continue
		}
		parts = append(parts, faintStyle.Render(fmt.Sprintf("%d", btn.Number)))
	}

	switch {
	case m.state.Loading:
		parts = append(parts, m.spinner.View()+faintStyle.Render("loading"))
	case m.state.Err != nil:
		parts = append(parts, errorStyle.Render("failed to load: "+m.state.Err.Error()+" (r to retry)"))
	}
	if m.status != "" {
		parts = append(parts, errorStyle.Render(m.status))
	}

	return strings.Join(parts, " ")
}

func sameArticle(a, b models.Article) bool {
	return a.ID == b.ID
}
