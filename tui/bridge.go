package tui

import (
	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/player"
	tea "github.com/charmbracelet/bubbletea"
)

type (
	progressMsg struct{ totalMs, currentMs int64 }
	bufferedMsg struct{ totalMs, bufferedMs int64 }
	activeMsg   bool
	stateMsg    struct{ previous, current player.State }
	errorMsg    struct{ err error }
)

// bridge turns facade callbacks into program messages. It runs on the
// facade's delivery goroutine and never touches the model directly.
type bridge struct {
	facade.BaseListener
	send func(tea.Msg)
}

func (b *bridge) SetProgress(totalMs, currentMs int64) {
	b.send(progressMsg{totalMs: totalMs, currentMs: currentMs})
}

func (b *bridge) SetBuffered(totalMs, bufferedMs int64) {
	b.send(bufferedMsg{totalMs: totalMs, bufferedMs: bufferedMs})
}

func (b *bridge) SetActive(active bool) {
	b.send(activeMsg(active))
}

func (b *bridge) OnStateChange(previous, current player.State) {
	b.send(stateMsg{previous: previous, current: current})
}

func (b *bridge) OnError(err error) {
	b.send(errorMsg{err: err})
}
