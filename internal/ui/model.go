// Package ui provides state management and rendering for ephemeral terminal notifications.
package ui

import (
	"strings"
	"time"

	"github.com/auplay-cli/auplay/style"
	tea "github.com/charmbracelet/bubbletea"
)

// Lifetime is how long a notification stays on screen.
const Lifetime = 3 * time.Second

// Model holds at most one notification at a time. A newer notification replaces the current one.
type Model struct {
	notification string
	notifiedAt   time.Time
}

// NotifyMsg asks the model to show its text.
type NotifyMsg string

// ClearNotificationMsg resets the notification shown at At, if it is still current.
type ClearNotificationMsg struct {
	At time.Time
}

// Notify returns a tea.Cmd that raises text as a notification.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg(text)
	}
}

func clearAfter(at time.Time) tea.Cmd {
	return tea.Tick(Lifetime, func(time.Time) tea.Msg {
		return ClearNotificationMsg{At: at}
	})
}

// Update processes incoming messages to modify the notification state.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NotifyMsg:
		m.notification = string(msg)
		m.notifiedAt = time.Now()
		return clearAfter(m.notifiedAt)
	case ClearNotificationMsg:
		if msg.At.Equal(m.notifiedAt) {
			m.notification = ""
		}
	}
	return nil
}

// Current returns the notification on screen, or an empty string.
func (m *Model) Current() string {
	return m.notification
}

// View appends the current notification to the last line of mainContent.
func (m *Model) View(mainContent string) string {
	if m.notification == "" {
		return mainContent
	}

	lines := strings.Split(mainContent, "\n")
	lines[len(lines)-1] += "  " + style.Faint(m.notification)
	return strings.Join(lines, "\n")
}
