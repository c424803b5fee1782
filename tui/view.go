package tui

import (
	"fmt"
	"strings"

	"github.com/auplay-cli/auplay/color"
	"github.com/auplay-cli/auplay/constant"
	"github.com/auplay-cli/auplay/icon"
	"github.com/auplay-cli/auplay/player"
	"github.com/auplay-cli/auplay/style"
	"github.com/auplay-cli/auplay/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (m *model) View() string {
	lines := []string{
		style.Title(constant.Auplay) + " " + m.viewStatus(),
		"",
		m.viewTitle(),
		"",
		m.progressC.ViewAs(m.percent()),
		m.bufferC.ViewAs(m.bufferedPercent()),
		m.viewTime(),
	}

	if m.lastErr != nil {
		lines = append(lines, "", m.viewError())
	}

	return m.notifier.View(m.renderLines(lines))
}

func (m *model) viewStatus() string {
	var glyph string
	switch {
	case m.active:
		glyph = icon.Get(icon.Play)
	case m.state == player.Paused:
		glyph = icon.Get(icon.Pause)
	case m.state == player.Error:
		glyph = icon.Get(icon.Fail)
	case m.state == player.Preparing:
		glyph = icon.Get(icon.Progress)
	default:
		glyph = icon.Get(icon.Stop)
	}

	label := strings.TrimSpace(glyph + " " + util.Capitalize(m.state.String()))
	return style.Status(label, m.active, m.state == player.Error)
}

func (m *model) viewTitle() string {
	title := fmt.Sprintf("%s %s", icon.Get(icon.Music), style.Fg(color.Purple)(m.title))
	if m.width <= 0 {
		return title
	}
	return truncate.StringWithTail(title, uint(m.width), "…")
}

func (m *model) viewTime() string {
	elapsed := util.FormatMillis(m.currentMs)
	total := util.FormatMillis(m.totalMs)
	left := style.Bold(elapsed) + style.Faint(" / "+total)

	if m.totalMs <= 0 {
		return left
	}

	right := style.Faint(fmt.Sprintf("buffered %d%%", int(m.bufferedPercent()*100)))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *model) viewError() string {
	body := style.Fg(style.ErrorColor)(fmt.Sprintf("%s %v", icon.Get(icon.Fail), m.lastErr))
	if m.width <= 0 {
		return body
	}
	return wrap.String(body, m.width)
}

func (m *model) renderLines(lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")

	helpView := m.helpC.View(m.keymap)
	if gap := m.height - h - lipgloss.Height(helpView); gap > 0 {
		l += strings.Repeat("\n", gap)
	} else {
		l += "\n\n"
	}
	l += helpView

	return paddingStyle.Render(l)
}
