package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"streamplot/internal/fetch"
	"streamplot/internal/series"
)

// fetchEventsMsg carries a batch of loop events into Update. ok is
// false once the loop has shut down and closed its channel.
type fetchEventsMsg struct {
	events []fetch.Event
	ok     bool
}

type refreshTickMsg struct {
	at time.Time
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Pause   key.Binding
	Older   key.Binding
	Newer   key.Binding
	Live    key.Binding
	Help    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refetch")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Older:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "older")),
		Newer:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "newer")),
		Live:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "latest")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Older, k.Newer, k.Pause, k.Refresh, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Older, k.Newer, k.Live},
		{k.Pause, k.Refresh},
		{k.Quit, k.Help},
	}
}

// Options configure the chart view.
type Options struct {
	// Title names the data source in the header, the command line or
	// "stdin".
	Title string

	Theme Theme

	// History caps how many finished datasets stay navigable.
	History int

	// Refresh schedules snapshot passes when greater than zero.
	Refresh time.Duration
}

// Model is the bubbletea program state for the chart view. Datasets
// arrive from the fetch loop, newest last, and the cursor walks them.
type Model struct {
	loop    *fetch.Loop
	styles  Styles
	chart   Chart
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	datasets []*series.SeriesSet
	cursor   int
	live     bool
	history  int

	mode    fetch.Mode
	refresh time.Duration
	paused  bool

	err      error
	title    string
	waiting  bool
	quitting bool
}

// NewModel builds the chart view over a running fetch loop.
func NewModel(loop *fetch.Loop, opts Options) Model {
	styles := NewStyles(opts.Theme)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner))
	h := help.New()
	h.Styles.ShortKey = styles.Help
	h.Styles.FullKey = styles.Help
	h.Styles.ShortDesc = styles.Muted
	h.Styles.FullDesc = styles.Muted
	history := opts.History
	if history < 1 {
		history = 64
	}
	return Model{
		loop:    loop,
		styles:  styles,
		chart:   Chart{Styles: styles},
		keys:    defaultKeyMap(),
		help:    h,
		spinner: sp,
		live:    true,
		history: history,
		mode:    loop.Mode(),
		refresh: opts.Refresh,
		title:   opts.Title,
		waiting: true,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		triggerCmd(m.loop),
		waitForEventsCmd(m.loop.Events()),
	}
	if m.mode == fetch.Snapshot && m.refresh > 0 {
		cmds = append(cmds, refreshTickCmd(m.refresh))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshTickMsg:
		if !m.paused {
			m.loop.Fetch()
		}
		return m, refreshTickCmd(m.refresh)

	case fetchEventsMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		for _, ev := range msg.events {
			m.applyEvent(ev)
		}
		return m, waitForEventsCmd(m.loop.Events())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.loop.Fetch()
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keys.Older):
		if m.cursor > 0 {
			m.cursor--
			m.live = false
		}
		return m, nil

	case key.Matches(msg, m.keys.Newer):
		if m.cursor < len(m.datasets)-1 {
			m.cursor++
		}
		if m.cursor >= len(m.datasets)-1 {
			m.live = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Live):
		if len(m.datasets) > 0 {
			m.cursor = len(m.datasets) - 1
		}
		m.live = true
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

func (m *Model) applyEvent(ev fetch.Event) {
	switch ev := ev.(type) {
	case fetch.DataSetCreated:
		m.err = nil
		m.waiting = false
		m.push(ev.Set)

	case fetch.SliceAppended:
		if len(m.datasets) == 0 {
			return
		}
		m.datasets[len(m.datasets)-1].AppendSlice(ev.Slice)

	case fetch.DataSetReady:
		m.err = nil
		m.waiting = false
		// Snapshot passes re-read the same input, so the newest
		// dataset is replaced instead of piling up the history.
		if m.mode == fetch.Snapshot && len(m.datasets) > 0 {
			m.datasets[len(m.datasets)-1] = ev.Set
			return
		}
		m.push(ev.Set)

	case fetch.FetchFailed:
		m.err = ev.Err
		m.waiting = false
	}
}

// push appends a dataset, trims the history, and keeps the cursor on
// the newest dataset while the view is live.
func (m *Model) push(set *series.SeriesSet) {
	m.datasets = append(m.datasets, set)
	if over := len(m.datasets) - m.history; over > 0 {
		m.datasets = m.datasets[over:]
		m.cursor -= over
		if m.cursor < 0 {
			m.cursor = 0
		}
	}
	if m.live {
		m.cursor = len(m.datasets) - 1
	}
}

func (m Model) viewedSet() *series.SeriesSet {
	if len(m.datasets) == 0 {
		return nil
	}
	i := m.cursor
	if i < 0 {
		i = 0
	}
	if i >= len(m.datasets) {
		i = len(m.datasets) - 1
	}
	return m.datasets[i]
}

func (m Model) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}

	header := m.header()
	footer := m.styles.Footer.Render(m.help.View(m.keys))
	bodyH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyH < 1 {
		bodyH = 1
	}

	var body string
	if m.waiting {
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" waiting for data")
	} else {
		body = m.chart.Render(m.viewedSet(), m.width, bodyH)
	}

	return header + "\n" + body + "\n" + footer
}

func (m Model) header() string {
	parts := []string{
		m.styles.Header.Render("streamplot"),
		m.styles.Muted.Render(m.title),
		m.styles.ModeBadge.Render(m.mode.String()),
	}
	if set := m.viewedSet(); set != nil && set.Epoch != nil {
		parts = append(parts, m.styles.EpochBadge.Render("epoch "+*set.Epoch))
	}
	if len(m.datasets) > 1 {
		pos := fmt.Sprintf("%d/%d", m.cursor+1, len(m.datasets))
		if m.live {
			pos += " live"
		} else {
			pos += " held"
		}
		parts = append(parts, m.styles.Bold.Render(pos))
	}
	if m.paused {
		parts = append(parts, m.styles.Paused.Render("paused"))
	}
	if m.err != nil {
		parts = append(parts, m.styles.ErrorBanner.Render(truncateErr(m.err, m.width/2)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func truncateErr(err error, max int) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if max > 3 && len(msg) > max {
		msg = msg[:max-1] + "…"
	}
	return msg
}

func triggerCmd(loop *fetch.Loop) tea.Cmd {
	return func() tea.Msg {
		loop.Fetch()
		return nil
	}
}

// waitForEventsCmd blocks for the next loop event, then drains up to
// a batch more without blocking so bursts coalesce into one redraw.
func waitForEventsCmd(ch <-chan fetch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return fetchEventsMsg{ok: false}
		}
		events := make([]fetch.Event, 0, 64)
		events = append(events, ev)
		for len(events) < 64 {
			select {
			case next, ok := <-ch:
				if !ok {
					return fetchEventsMsg{events: events, ok: true}
				}
				events = append(events, next)
			default:
				return fetchEventsMsg{events: events, ok: true}
			}
		}
		return fetchEventsMsg{events: events, ok: true}
	}
}

func refreshTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return refreshTickMsg{at: t}
	})
}
