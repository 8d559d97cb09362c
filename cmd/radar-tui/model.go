package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	dateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

// riskColors highlights the risk column, most severe first.
var riskColors = map[string]lipgloss.Color{
	"missingITComponent":   "#FF0000",
	"missingLifecycle":     "#FF5F00",
	"unaddressedEndOfLife": "#FF0000",
	"unaddressedPhaseOut":  "#FFAF00",
	"riskAccepted":         "#FFFF00",
	"riskAddressed":        "#00AFFF",
	"noRisk":               "#00FF00",
}

type view int

const (
	applicationsView view = iota
	componentsView
)

type keyMap struct {
	Tab       key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	PrevYear  key.Binding
	NextYear  key.Binding
	Today     key.Binding
	Up        key.Binding
	Down      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "toggle view"),
	),
	PrevMonth: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "month back"),
	),
	NextMonth: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "month forward"),
	),
	PrevYear: key.NewBinding(
		key.WithKeys("shift+left", "H"),
		key.WithHelp("shift+←", "year back"),
	),
	NextYear: key.NewBinding(
		key.WithKeys("shift+right", "L"),
		key.WithHelp("shift+→", "year forward"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "today"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevMonth, k.NextMonth, k.Tab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevMonth, k.NextMonth, k.PrevYear, k.NextYear, k.Today},
		{k.Up, k.Down, k.Tab},
		{k.Quit},
	}
}

// updateMsg carries one engine update into the program.
type updateMsg engine.Update

type model struct {
	state       *engine.State
	results     *pubsub.Subscription[engine.Update]
	failures    *pubsub.Subscription[engine.Update]
	cancel      context.CancelFunc
	refDate     time.Time
	currentView view
	appTable    table.Model
	compTable   table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	latest      *engine.Result
	pending     bool
	message     string
	messageErr  bool
	now         func() time.Time
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func initialModel(state *engine.State, bus *pubsub.PubSub[engine.Update]) (model, error) {
	ctx, cancel := context.WithCancel(context.Background())
	results, err := bus.Subscribe(ctx, pubsub.TopicResults)
	if err != nil {
		cancel()
		return model{}, err
	}
	failures, err := bus.Subscribe(ctx, pubsub.TopicErrors)
	if err != nil {
		cancel()
		return model{}, err
	}

	d := state.RefDate()
	return model{
		state:    state,
		results:  results,
		failures: failures,
		cancel:   cancel,
		refDate:  time.Date(d/10000, time.Month(d/100%100), d%100, 0, 0, 0, 0, time.UTC),
		appTable: newTable([]table.Column{
			{Title: "ID", Width: 24},
			{Title: "Name", Width: 32},
			{Title: "Level", Width: 5},
			{Title: "Risk", Width: 22},
		}),
		compTable: newTable([]table.Column{
			{Title: "ID", Width: 24},
			{Title: "Name", Width: 32},
			{Title: "Lifecycle", Width: 10},
			{Title: "Aggregated", Width: 10},
		}),
		help:    help.New(),
		keys:    keys,
		pending: true,
		now:     time.Now,
	}, nil
}

func (m model) unsubscribe() {
	m.cancel()
	m.results.Unsubscribe()
	m.failures.Unsubscribe()
}

func waitForUpdate(sub *pubsub.Subscription[engine.Update]) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-sub.Channel()
		if !ok {
			return nil
		}
		return updateMsg(u)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.results),
		waitForUpdate(m.failures),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 12; h > 3 {
			m.appTable.SetHeight(h)
			m.compTable.SetHeight(h)
		}

	case updateMsg:
		return m.applyUpdate(engine.Update(msg))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % 2
			return m, nil

		case key.Matches(msg, m.keys.PrevYear):
			return m.shiftDate(-1, 0), nil

		case key.Matches(msg, m.keys.NextYear):
			return m.shiftDate(1, 0), nil

		case key.Matches(msg, m.keys.PrevMonth):
			return m.shiftDate(0, -1), nil

		case key.Matches(msg, m.keys.NextMonth):
			return m.shiftDate(0, 1), nil

		case key.Matches(msg, m.keys.Today):
			t := m.now()
			return m.setDate(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
		}

		if m.currentView == applicationsView {
			m.appTable, cmd = m.appTable.Update(msg)
		} else {
			m.compTable, cmd = m.compTable.Update(msg)
		}
	}

	return m, cmd
}

func (m model) shiftDate(years, months int) model {
	return m.setDate(m.refDate.AddDate(years, months, 0))
}

// setDate hands the date to the state, which recomputes after its
// debounce interval.
func (m model) setDate(t time.Time) model {
	if err := m.state.SetRefDate(engine.RefDateOf(t)); err != nil {
		m.message = err.Error()
		m.messageErr = true
		return m
	}
	m.refDate = t
	m.pending = true
	m.message = ""
	return m
}

func (m model) applyUpdate(u engine.Update) (tea.Model, tea.Cmd) {
	if u.Err != nil {
		m.pending = false
		m.message = "Pass failed: " + u.Err.Error()
		m.messageErr = true
		return m, waitForUpdate(m.failures)
	}

	res := u.Result
	m.latest = res
	m.pending = res.RefDate != engine.RefDateOf(m.refDate)

	apps := res.ApplicationRisks()
	appRows := make([]table.Row, 0, len(apps))
	for _, a := range apps {
		appRows = append(appRows, table.Row{a.ID, a.Name, fmt.Sprintf("%d", a.Level), a.Risk})
	}
	m.appTable.SetRows(appRows)

	comps := res.ComponentLifecycles()
	compRows := make([]table.Row, 0, len(comps))
	for _, c := range comps {
		compRows = append(compRows, table.Row{c.ID, c.Name, c.Lifecycle, c.AggregatedLifecycle})
	}
	m.compTable.SetRows(compRows)

	m.message = fmt.Sprintf("Computed %d applications and %d IT components in %s", len(apps), len(comps), res.Duration.Round(time.Microsecond))
	m.messageErr = false
	return m, waitForUpdate(m.results)
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Obsolescence Radar"))
	s.WriteString("\n\n")

	date := m.refDate.Format("2006-01-02")
	if m.pending {
		date += " (computing)"
	}
	s.WriteString(contentStyle.Render(dateStyle.Render("Reference date " + date)))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n")

	if m.currentView == applicationsView {
		s.WriteString(contentStyle.Render(m.appTable.View()))
		s.WriteString("\n")
		s.WriteString(contentStyle.Render(m.riskSummary()))
	} else {
		s.WriteString(contentStyle.Render(m.compTable.View()))
	}
	s.WriteString("\n")

	if m.message != "" {
		style := successStyle
		if m.messageErr {
			style = errorStyle
		}
		s.WriteString(contentStyle.Render(style.Render(m.message)))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Applications", "IT Components"}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if view(i) == m.currentView {
			rendered[i] = activeTabStyle.Render(t)
		} else {
			rendered[i] = inactiveTabStyle.Render(t)
		}
	}
	return lipgloss.NewStyle().MarginLeft(2).Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

// riskSummary counts Applications per risk, most severe first.
func (m model) riskSummary() string {
	if m.latest == nil {
		return ""
	}
	counts := make(map[string]int)
	for _, a := range m.latest.ApplicationRisks() {
		counts[a.Risk]++
	}
	order := []string{"missingITComponent", "missingLifecycle", "unaddressedEndOfLife", "unaddressedPhaseOut", "riskAccepted", "riskAddressed", "noRisk"}
	parts := make([]string, 0, len(order))
	for _, r := range order {
		if n := counts[r]; n > 0 {
			parts = append(parts, lipgloss.NewStyle().Foreground(riskColors[r]).Render(fmt.Sprintf("%s: %d", r, n)))
		}
	}
	return strings.Join(parts, "  ")
}
