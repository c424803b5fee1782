package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keymap defines the keyboard interactions of the playback screen.
type keymap struct {
	toggle, stop, forward, backward, restart,
	quit, forceQuit, showHelp key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "forward"),
		),
		backward: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.stop, k.backward, k.forward, k.quit, k.showHelp}
}

func (k *keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.stop, k.restart},
		{k.backward, k.forward},
		{k.quit, k.forceQuit, k.showHelp},
	}
}
