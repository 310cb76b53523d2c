package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"llmbench/internal/runner"
)

// Model renders a live console UI using Bubble Tea.
type Model struct {
	state        State
	table        table.Model
	events       <-chan runner.Event
	tickInterval time.Duration
	now          time.Time
	clock        func() time.Time
	promptWidth  int
	noColor      bool
	onInterrupt  func()
}

// Options configures the live UI model.
type Options struct {
	NoColor      bool
	TickInterval time.Duration
	// OnInterrupt runs when the user presses ctrl+c or q.
	OnInterrupt func()
	// Now overrides the clock.
	Now func() time.Time
}

// NewModel constructs a live UI model for an event stream.
func NewModel(events <-chan runner.Event, opts Options) Model {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = 200 * time.Millisecond
	}
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}
	t := table.New(
		table.WithColumns(defaultColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	return Model{
		state:        State{},
		table:        t,
		events:       events,
		tickInterval: tickInterval,
		now:          clock(),
		clock:        clock,
		promptWidth:  defaultPromptWidth,
		noColor:      opts.NoColor,
		onInterrupt:  opts.OnInterrupt,
	}
}

// State returns the current UI state.
func (m Model) State() State {
	return m.state
}

// Init starts ticking and waits for the first event.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick(m.tickInterval))
}

// Update consumes run events, key presses and timer ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "q":
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		columns := columnsForWidth(typed.Width)
		m.promptWidth = columns[2].Width
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-4, 1))
		m.table.SetColumns(columns)
		m.refresh()
		return m, nil
	case EventMsg:
		m.now = m.clock()
		m.state = Reduce(m.state, typed.Event, m.now)
		m.refresh()
		return m, waitForEvent(m.events)
	case tickMsg:
		m.now = m.clock()
		m.refresh()
		return m, tick(m.tickInterval)
	}
	return m, nil
}

// View renders the live UI.
func (m Model) View() string {
	header := renderHeader(m.state, m.now, m.noColor)
	summary := renderSummary(m.state, m.noColor)
	tableView := m.table.View()
	footer := renderFooter(m.state, m.noColor)
	return lipgloss.JoinVertical(lipgloss.Left, header, summary, tableView, footer)
}

func (m *Model) refresh() {
	m.table.SetRows(rowsForState(m.state, m.now, m.promptWidth, m.noColor))
}

// EventMsg wraps a run event for Bubble Tea.
type EventMsg struct {
	Event runner.Event
}

// tickMsg carries a clock tick for updates.
type tickMsg time.Time

// waitForEvent blocks until a run event is available. The program quits
// once the stream closes.
func waitForEvent(events <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		event, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: event}
	}
}

// tick emits a periodic tick message.
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
