package decoder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/auplay-cli/auplay/log"
)

// eventCallback receives property changes by property name and other mpv
// events by event name with the whole event object as data.
type eventCallback func(name string, data any)

// observedProperties are registered on the listener's own connection, because
// mpv only delivers property-change events to the client that asked for them.
var observedProperties = []string{
	"time-pos",
	"duration",
	"pause",
	"eof-reached",
	"cache-buffering-state",
}

// eventListener keeps one persistent connection to mpv and dispatches events.
type eventListener struct {
	socketPath string
	conn       net.Conn
	callback   eventCallback
	done       chan struct{}
	mu         sync.Mutex
	listening  bool
}

func newEventListener(socketPath string, callback eventCallback) *eventListener {
	return &eventListener{
		socketPath: socketPath,
		callback:   callback,
		done:       make(chan struct{}),
	}
}

// Start connects, subscribes to observedProperties and starts the read loop.
func (el *eventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observedProperties {
		if err := writeCommand(conn, []any{"observe_property", i + 1, name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop()

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection, which ends the read loop.
func (el *eventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	close(el.done)
	el.conn.Close()
	el.listening = false
}

func (el *eventListener) readLoop() {
	scanner := bufio.NewScanner(el.conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)

	for scanner.Scan() {
		el.dispatch(scanner.Bytes())
	}

	select {
	case <-el.done:
	default:
		if err := scanner.Err(); err != nil {
			log.Warnf("mpv event listener read error: %v", err)
		}
	}
}

// dispatch parses one newline-delimited JSON message. Command replies are ignored.
func (el *eventListener) dispatch(line []byte) {
	var event map[string]any
	if err := json.Unmarshal(line, &event); err != nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok || el.callback == nil {
		return
	}

	if eventType == "property-change" {
		name, _ := event["name"].(string)
		if name != "" {
			el.callback(name, event["data"])
		}
		return
	}

	el.callback(eventType, event)
}
