package decoder

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/auplay-cli/auplay/filesystem"
	"github.com/auplay-cli/auplay/log"
	"github.com/auplay-cli/auplay/where"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 100 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV drives one headless mpv process over its JSON-IPC socket.
// The process is spawned idle, an event connection observes the properties
// the engine needs, and only then is the file loaded, so no lifecycle event
// can be missed.
type MPV struct {
	binary     string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	signals    chan Signal
	events     *eventListener

	mu       sync.Mutex // guards ipc writes
	stateMu  sync.Mutex
	state    mpvState
	released bool
}

// mpvState caches observed properties so Position never touches the socket.
type mpvState struct {
	loaded     bool
	durationMs int64
	positionMs int64
	buffering  int
	hasBuffer  bool
}

// NewMPV checks that binary can be found and returns an unopened handle.
func NewMPV(binary string) (*MPV, error) {
	if binary == "" {
		binary = BackendMPV
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("mpv not available: %w", err)
	}

	return &MPV{
		binary:  binary,
		exited:  make(chan struct{}),
		signals: make(chan Signal, 4),
	}, nil
}

func (m *MPV) Open(source string) error {
	target, err := ValidateSource(source)
	if err != nil {
		return err
	}
	if !IsRemote(target) {
		exists, err := filesystem.API().Exists(target)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		if !exists {
			return fmt.Errorf("%w: %s does not exist", ErrUnsupported, target)
		}
	}

	if err := m.spawn(); err != nil {
		return err
	}

	m.events = newEventListener(m.socketPath, m.onEvent)
	if err := m.events.Start(); err != nil {
		_ = m.Release()
		return fmt.Errorf("mpv events: %w", err)
	}

	if _, err := m.sendCommand([]any{"loadfile", target, "replace"}); err != nil {
		_ = m.Release()
		return fmt.Errorf("mpv loadfile: %w", err)
	}

	go m.watchExit()
	return nil
}

// spawn starts an idle, paused, audio-only mpv and waits for its socket.
func (m *MPV) spawn() error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes))

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--no-video",
		"--idle=yes",
		"--pause=yes",
		"--keep-open=yes",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
	}

	m.cmd = exec.Command(m.binary, args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}
	return nil
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// watchExit reports an unexpected process exit as a decoder failure.
func (m *MPV) watchExit() {
	<-m.exited

	m.stateMu.Lock()
	released := m.released
	m.stateMu.Unlock()

	if !released {
		sendSignal(m.signals, Signal{Kind: Failed, Err: fmt.Errorf("mpv exited unexpectedly")})
	}
}

func (m *MPV) onEvent(name string, data any) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.released {
		return
	}

	switch name {
	case "file-loaded":
		if !m.state.loaded {
			m.state.loaded = true
			sendSignal(m.signals, Signal{Kind: Prepared})
		}
	case "end-file":
		if event, ok := data.(map[string]any); ok && event["reason"] == "error" {
			reason, _ := event["file_error"].(string)
			sendSignal(m.signals, Signal{Kind: Failed, Err: fmt.Errorf("mpv: %s", reason)})
		}
	case "time-pos":
		if v, ok := data.(float64); ok {
			m.state.positionMs = int64(v * 1000)
		}
	case "duration":
		if v, ok := data.(float64); ok {
			m.state.durationMs = int64(v * 1000)
		}
	case "cache-buffering-state":
		if v, ok := data.(float64); ok {
			m.state.buffering = int(v)
			m.state.hasBuffer = true
		}
	case "eof-reached":
		if v, ok := data.(bool); ok && v {
			sendSignal(m.signals, Signal{Kind: Completed})
		}
	}
}

func (m *MPV) Start() error {
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	return m.set("pause", true)
}

func (m *MPV) Stop() error {
	if err := m.set("pause", true); err != nil {
		return err
	}
	return m.Seek(0)
}

func (m *MPV) Seek(ms int64) error {
	if err := m.ready(); err != nil {
		return err
	}
	_, err := m.sendCommand([]any{"seek", float64(ms) / 1000, "absolute"})
	return err
}

func (m *MPV) Position() (durationMs, currentMs int64) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state.durationMs, m.state.positionMs
}

func (m *MPV) Buffered() (int, bool) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state.buffering, m.state.hasBuffer
}

func (m *MPV) Signals() <-chan Signal {
	return m.signals
}

// Release quits mpv, force-killing it if it does not exit in time, and removes the socket.
func (m *MPV) Release() error {
	m.stateMu.Lock()
	if m.released {
		m.stateMu.Unlock()
		return nil
	}
	m.released = true
	m.stateMu.Unlock()

	if m.events != nil {
		m.events.Stop()
	}

	if m.cmd == nil || m.socketPath == "" {
		return nil
	}

	// mpv never started, so there is nobody to quit and nothing to wait for.
	if m.cmd.Process == nil {
		_ = os.Remove(m.socketPath)
		return nil
	}

	_, _ = m.sendCommand([]any{"quit"})

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// MPVVersion returns the resolved path of binary and the first line of its
// --version output.
func MPVVersion(binary string) (path, version string, err error) {
	if binary == "" {
		binary = BackendMPV
	}

	path, err = exec.LookPath(binary)
	if err != nil {
		return "", "", fmt.Errorf("mpv not available: %w", err)
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return path, "", fmt.Errorf("mpv --version: %w", err)
	}

	version, _, _ = strings.Cut(strings.TrimSpace(string(out)), "\n")
	return path, strings.TrimSpace(version), nil
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) ready() error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	if m.released {
		return ErrReleased
	}
	if !m.state.loaded {
		return ErrNotPrepared
	}
	return nil
}

func (m *MPV) set(property string, value any) error {
	if err := m.ready(); err != nil {
		return err
	}
	_, err := m.sendCommand([]any{"set_property", property, value})
	return err
}
