// Package tui renders the interactive theme settings surface. All visual
// state derives from the coordinator; the model never owns the theme itself.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shade-terminal/internal/coordinator"
	"shade-terminal/internal/theme"
)

const eventBuffer = 16

// themeEventMsg carries a coordinator event into the bubbletea loop.
type themeEventMsg coordinator.Event

// Options configures a settings model.
type Options struct {
	Width  int
	Height int

	// Term selects the style bundle capability tier. Empty uses $TERM.
	Term string

	// OnClose runs when the user quits, before the program exits. The owner
	// usually closes the coordinator here.
	OnClose func()
}

type keyMap struct {
	Toggle key.Binding
	Light  key.Binding
	Dark   key.Binding
	System key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys("t", "ctrl+t"), key.WithHelp("t", "toggle theme")),
		Light:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "light")),
		Dark:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dark")),
		System: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "follow system")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Light, k.Dark, k.System, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.Light, k.Dark}, {k.System, k.Quit}}
}

// Model is the bubbletea model for the settings surface.
type Model struct {
	coord *coordinator.Coordinator

	current      theme.Theme
	source       coordinator.ChangeSource
	announcement string
	bundle       theme.Bundle

	width  int
	height int
	term   string

	keys    keyMap
	help    help.Model
	events  chan coordinator.Event
	cancel  func()
	onClose func()
}

// New builds a settings model bound to a running coordinator.
func New(coord *coordinator.Coordinator, opts Options) Model {
	current := coord.Effective()
	m := Model{
		coord:   coord,
		current: current,
		bundle:  theme.ResolveFromEnv(current, opts.Term),
		width:   opts.Width,
		height:  opts.Height,
		term:    opts.Term,
		keys:    defaultKeyMap(),
		help:    help.New(),
		events:  make(chan coordinator.Event, eventBuffer),
		onClose: opts.OnClose,
	}

	events := m.events
	m.cancel = coord.Subscribe(func(ev coordinator.Event) {
		select {
		case events <- ev:
		default:
			// A full buffer means the UI is behind; dropping is safe because
			// every event snapshot is re-read from the coordinator.
		}
	})
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case themeEventMsg:
		ev := coordinator.Event(msg)
		m.current = ev.Theme
		m.bundle = theme.ResolveFromEnv(ev.Theme, m.term)
		switch ev.Kind {
		case coordinator.EventThemeChanged:
			m.source = ev.Source
			m.announcement = ev.Announcement
		case coordinator.EventAnnouncementExpired:
			m.announcement = ""
		}
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Toggle):
			m.coord.Toggle()
			return m, nil
		case key.Matches(msg, m.keys.Light):
			m.coord.Set(theme.Light)
			return m, nil
		case key.Matches(msg, m.keys.Dark):
			m.coord.Set(theme.Dark)
			return m, nil
		case key.Matches(msg, m.keys.System):
			m.coord.FollowSystem()
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			if m.onClose != nil {
				m.onClose()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	return strings.Join([]string{
		m.renderHeader(),
		m.renderSwatches(),
		m.renderStatus(),
		m.renderAnnouncement(),
		m.bundle.Help.Render(m.help.View(m.keys)),
	}, "\n")
}

func (m Model) renderHeader() string {
	return m.bundle.Header.Render("SHADE // terminal theme settings")
}

func (m Model) renderSwatches() string {
	swatches := make([]string, 0, 2)
	for _, th := range []theme.Theme{theme.Light, theme.Dark} {
		marker := "  "
		if th == m.current {
			marker = "> "
		}
		style := m.bundle.Swatch
		roles := theme.RolesFor(th)
		style = style.
			Foreground(lipgloss.Color(roles.Foreground)).
			Background(lipgloss.Color(roles.Background))
		swatches = append(swatches, style.Render(marker+th.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, swatches...)
}

func (m Model) renderStatus() string {
	return m.bundle.Status.Render(fmt.Sprintf("theme: %s  source: %s", m.current, m.source))
}

func (m Model) renderAnnouncement() string {
	if m.announcement == "" {
		return ""
	}
	return m.bundle.Announcement.Render(m.announcement)
}

func waitForEvent(ch <-chan coordinator.Event) tea.Cmd {
	return func() tea.Msg {
		return themeEventMsg(<-ch)
	}
}
