package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tallr-app/tallr/internal/core"
)

// StateFetcher pulls the current snapshot. *client.Client satisfies it.
type StateFetcher interface {
	State(ctx context.Context) (*core.Snapshot, error)
}

const fetchTimeout = 5 * time.Second

// Messages exchanged by the watch model.
type (
	snapshotMsg struct{ snap *core.Snapshot }
	fetchErrMsg struct{ err error }
	pollTickMsg time.Time
)

// WatchModel is the live session view: it polls the daemon and re-renders
// the session table on every change.
type WatchModel struct {
	fetcher  StateFetcher
	interval time.Duration
	spinner  spinner.Model

	snap     *core.Snapshot
	fetchErr error
	lastSync time.Time
	width    int
	height   int
}

// NewWatch creates a watch model polling at the given interval.
func NewWatch(fetcher StateFetcher, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return WatchModel{
		fetcher:  fetcher,
		interval: interval,
		spinner:  sp,
	}
}

// Init starts the spinner and the first poll.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		m.fetchErr = nil
		m.lastSync = time.Now()
		return m, m.schedulePoll()

	case fetchErrMsg:
		m.fetchErr = msg.err
		return m, m.schedulePoll()

	case pollTickMsg:
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the header, the session table, and the key hints.
func (m WatchModel) View() string {
	var b []string

	header := TitleStyle.Render("tallr") + " " + m.spinner.View()
	if !m.lastSync.IsZero() {
		header += MutedStyle.Render(fmt.Sprintf(" synced %s ago", FormatAge(time.Since(m.lastSync))))
	}
	b = append(b, header, "")

	if m.fetchErr != nil {
		b = append(b,
			ErrorBannerStyle.Render("daemon not reachable: "+m.fetchErr.Error()),
			MutedStyle.Render("start it with 'tallr serve'"),
			"",
		)
	}

	if m.snap != nil {
		b = append(b, RenderTable(BuildRows(m.snap, time.Now())))
	} else if m.fetchErr == nil {
		b = append(b, MutedStyle.Render("loading…"), "")
	}

	b = append(b, MutedStyle.Render("r refresh · q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, b...)
}

func (m WatchModel) fetch() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		snap, err := fetcher.State(ctx)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return snapshotMsg{snap: snap}
	}
}

func (m WatchModel) schedulePoll() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}
