// Package tui renders the playback screen: title, play indicator, progress
// bar with buffered track, time labels and key help.
package tui

import (
	"github.com/auplay-cli/auplay/facade"
	tea "github.com/charmbracelet/bubbletea"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	// Source is loaded and started as soon as the screen is up.
	Source string

	// Title is shown instead of Source when set.
	Title string

	// Listener also receives the facade's events, next to the screen itself.
	Listener facade.Listener
}

// Run installs the screen as f's widget and listener and runs the Bubble Tea
// program until the user quits. f must be bound.
func Run(f *facade.Facade, options *Options) error {
	m := newModel(f, options)
	program := tea.NewProgram(m, tea.WithAltScreen())

	b := &bridge{send: program.Send}
	f.SetWidget(b)
	f.SetListener(facade.Listeners(b, options.Listener))
	defer func() {
		f.SetWidget(nil)
		f.SetListener(options.Listener)
	}()

	_, err := program.Run()
	return err
}
