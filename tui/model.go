package tui

import (
	"errors"

	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/internal/ui"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/player"
	"github.com/auplay-cli/auplay/style"
	"github.com/auplay-cli/auplay/util"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
)

// model is the playback screen. It mirrors what the facade reports and
// turns key presses into facade commands; it never decides state itself.
type model struct {
	facade *facade.Facade
	keymap *keymap

	progressC progress.Model
	bufferC   progress.Model
	helpC     help.Model
	notifier  ui.Model

	source string
	title  string

	state      player.State
	active     bool
	totalMs    int64
	currentMs  int64
	bufferedMs int64
	seekStep   int64
	lastErr    error

	width, height int
}

func newModel(f *facade.Facade, options *Options) *model {
	m := &model{
		facade:   f,
		keymap:   newKeymap(),
		helpC:    help.New(),
		source:   options.Source,
		title:    displayTitle(options),
		state:    f.State(),
		seekStep: max(int64(viper.GetInt(key.PlayerSeekStep)), 1000),
		progressC: progress.New(
			progress.WithGradient(style.ProgressStart, style.ProgressEnd),
			progress.WithoutPercentage(),
		),
		bufferC: progress.New(
			progress.WithSolidFill(string(style.BufferedColor)),
			progress.WithoutPercentage(),
		),
	}

	if snapshot, ok := f.Snapshot(); ok {
		m.totalMs, m.currentMs = snapshot.DurationMs, snapshot.PositionMs
	}

	return m
}

// Init loads the source through the facade. Start is deferred by the engine
// until the source is prepared.
func (m *model) Init() tea.Cmd {
	if m.source == "" {
		return nil
	}

	return m.load
}

func (m *model) load() tea.Msg {
	m.facade.SetResource(m.source)
	m.facade.Start()
	return nil
}

// displayTitle is the explicit title, or the file name of a local source.
func displayTitle(options *Options) string {
	if options.Title != "" {
		return options.Title
	}
	if decoder.IsRemote(options.Source) {
		return options.Source
	}
	return util.FileStem(options.Source)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case progressMsg:
		m.totalMs = max(msg.totalMs, 0)
		m.currentMs = util.Clamp(msg.currentMs, 0, m.totalMs)
	case bufferedMsg:
		m.bufferedMs = util.Clamp(msg.bufferedMs, 0, max(msg.totalMs, 0))
	case activeMsg:
		m.active = bool(msg)
	case stateMsg:
		m.state = msg.current
		if msg.current == player.Preparing || msg.current == player.Idle {
			m.lastErr = nil
		}
	case errorMsg:
		if errors.Is(msg.err, player.ErrInvalidState) {
			return m, ui.Notify(msg.err.Error())
		}
		m.lastErr = msg.err
	case ui.NotifyMsg, ui.ClearNotificationMsg:
		return m, m.notifier.Update(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case bubblesKey.Matches(msg, m.keymap.forceQuit), bubblesKey.Matches(msg, m.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(msg, m.keymap.toggle):
		if m.state == player.Playing {
			m.facade.Pause()
		} else {
			m.facade.Start()
		}
	case bubblesKey.Matches(msg, m.keymap.stop):
		m.facade.Stop()
	case bubblesKey.Matches(msg, m.keymap.forward):
		m.seek(m.currentMs + m.seekStep)
	case bubblesKey.Matches(msg, m.keymap.backward):
		m.seek(m.currentMs - m.seekStep)
	case bubblesKey.Matches(msg, m.keymap.restart):
		if m.source != "" {
			return m.load
		}
	case bubblesKey.Matches(msg, m.keymap.showHelp):
		m.helpC.ShowAll = !m.helpC.ShowAll
	}

	return nil
}

// seek moves the position optimistically; the next progress sample corrects it.
func (m *model) seek(ms int64) {
	if !m.state.Active() {
		return
	}

	ms = util.Clamp(ms, 0, m.totalMs)
	m.facade.Seek(ms)
	m.currentMs = ms
}

func (m *model) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	m.width = max(width-x, 0)
	m.height = max(height-y, 0)

	m.progressC.Width = m.width
	m.bufferC.Width = m.width
	m.helpC.Width = m.width
}

func (m *model) percent() float64 {
	if m.totalMs <= 0 {
		return 0
	}
	return float64(m.currentMs) / float64(m.totalMs)
}

func (m *model) bufferedPercent() float64 {
	if m.totalMs <= 0 {
		return 0
	}
	return float64(m.bufferedMs) / float64(m.totalMs)
}
