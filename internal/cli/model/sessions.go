// Package model provides Bubble Tea models for CLI commands.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/shadowtab/internal/app/session"
	"github.com/bnema/shadowtab/internal/cli/styles"
	"github.com/bnema/shadowtab/internal/domain/entity"
	"github.com/bnema/shadowtab/internal/logging"
)

// SessionsModel is the Bubble Tea model for the interactive session browser.
type SessionsModel struct {
	help help.Model
	keys sessionsKeyMap

	sessions      []*entity.Session
	currentID     entity.SessionID
	selectedIdx   int
	expandedIdx   int // -1 means none expanded
	width         int
	height        int
	err           error
	statusMessage string

	ctx     context.Context
	manager *session.Manager
	theme   *styles.Theme
}

// sessionsKeyMap defines keybindings for the session browser.
type sessionsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Expand  key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings for the short help view.
func (k sessionsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Expand, k.Delete, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k sessionsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand},
		{k.Delete, k.Refresh},
		{k.Help, k.Quit},
	}
}

func defaultSessionsKeyMap() sessionsKeyMap {
	return sessionsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "expand/collapse"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "d"),
			key.WithHelp("x", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NewSessionsModel creates a new session browser model.
func NewSessionsModel(ctx context.Context, theme *styles.Theme, manager *session.Manager) SessionsModel {
	return SessionsModel{
		help:        help.New(),
		keys:        defaultSessionsKeyMap(),
		expandedIdx: -1,
		width:       80,
		height:      24,
		ctx:         ctx,
		manager:     manager,
		theme:       theme,
	}
}

// Init implements tea.Model.
func (m SessionsModel) Init() tea.Cmd {
	return m.loadSessions
}

// sessionsLoadedMsg is sent when sessions are loaded.
type sessionsLoadedMsg struct {
	sessions  []*entity.Session
	currentID entity.SessionID
	err       error
}

// sessionDeletedMsg is sent when a session is deleted.
type sessionDeletedMsg struct {
	sessionID entity.SessionID
	err       error
}

func (m SessionsModel) loadSessions() tea.Msg {
	log := logging.FromContext(m.ctx)
	log.Debug().Msg("loading sessions")

	store, err := m.manager.ListSessions(m.ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load sessions")
		return sessionsLoadedMsg{err: err}
	}
	return sessionsLoadedMsg{sessions: store.Sessions, currentID: store.CurrentSessionID}
}

func (m SessionsModel) deleteSession(id entity.SessionID) tea.Cmd {
	return func() tea.Msg {
		err := m.manager.DeleteSession(m.ctx, id)
		return sessionDeletedMsg{sessionID: id, err: err}
	}
}

// Update implements tea.Model.
func (m SessionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.sessions = msg.sessions
			m.currentID = msg.currentID
			m.err = nil
			if m.selectedIdx >= len(m.sessions) {
				m.selectedIdx = max(0, len(m.sessions)-1)
			}
		}
		return m, nil

	case sessionDeletedMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("Session %s deleted", msg.sessionID)
		return m, m.loadSessions
	}

	return m, nil
}

func (m SessionsModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(m.sessions)-1 {
			m.selectedIdx++
		}
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		if m.expandedIdx == m.selectedIdx {
			m.expandedIdx = -1
		} else {
			m.expandedIdx = m.selectedIdx
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.selectedIdx < len(m.sessions) {
			return m, m.deleteSession(m.sessions[m.selectedIdx].ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadSessions

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m SessionsModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Private Sessions"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if len(m.sessions) == 0 && m.err == nil {
		b.WriteString(m.theme.Subtle.Render("No sessions recorded yet."))
		b.WriteString("\n")
	}

	for i, sess := range m.sessions {
		b.WriteString(m.renderSession(i, sess))
	}

	if m.statusMessage != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Subtle.Render(m.statusMessage))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m SessionsModel) renderSession(i int, sess *entity.Session) string {
	var b strings.Builder

	marker := "  "
	if sess.ID == m.currentID {
		marker = m.theme.SuccessStyle.Render("● ")
	}

	name := sess.Name
	if name == "" {
		name = "session " + entity.ShortSessionID(sess.ID)
	}

	line := fmt.Sprintf("%s%s  %s  %d tabs, %d closed",
		marker,
		name,
		m.theme.Subtle.Render(sess.Modified.Format("2006-01-02 15:04")),
		len(sess.Tabs),
		len(sess.ClosedTabs),
	)

	if i == m.selectedIdx {
		b.WriteString(m.theme.ListItemSelected.Render("> " + line))
	} else {
		b.WriteString(m.theme.ListItem.Render(line))
	}
	b.WriteString("\n")

	if i == m.expandedIdx {
		for _, tab := range sess.Tabs {
			title := tab.Title
			if title == "" {
				title = tab.URL
			}
			b.WriteString(m.theme.Subtle.Render(fmt.Sprintf("      %s", title)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
