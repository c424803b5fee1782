// Package broker hands out connections to the single shared playback engine.
//
// The first bind launches an engine session, later binds reuse it, and
// unbinding never stops it. The session ends when it has been voluntarily
// cleared back to Idle with no connection left, or when the broker is closed.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/auplay-cli/auplay/log"
	"github.com/auplay-cli/auplay/player"
	"github.com/google/uuid"
)

// ErrBindFailed is returned by Bind when no engine session can be reached.
var ErrBindFailed = errors.New("bind failed")

// Launcher starts a new engine session.
type Launcher func() (*player.Engine, error)

// FromConfig launches engines with options read from the configuration.
func FromConfig() Launcher {
	return func() (*player.Engine, error) {
		opts, err := player.OptionsFromConfig()
		if err != nil {
			return nil, err
		}
		return player.Launch(opts)
	}
}

// Connection is one client's binding to the shared engine.
type Connection struct {
	id        uuid.UUID
	client    uuid.UUID
	engine    *player.Engine
	createdAt time.Time
	bound     atomic.Bool
}

func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Client returns the id the connection was bound for.
func (c *Connection) Client() uuid.UUID {
	return c.client
}

// Engine returns the engine session the connection reaches.
func (c *Connection) Engine() *player.Engine {
	return c.engine
}

// Bound reports whether the connection is still active.
func (c *Connection) Bound() bool {
	return c.bound.Load()
}

// CreatedAt returns when the connection was bound.
func (c *Connection) CreatedAt() time.Time {
	return c.createdAt
}

// Broker owns the engine session. All methods are safe for concurrent use;
// bind, unbind and session teardown are serialized by one mutex, so at most
// one engine ever exists.
type Broker struct {
	mu     sync.Mutex
	launch Launcher
	engine *player.Engine
	conns  map[uuid.UUID]*Connection
	closed bool
}

// New returns a broker that starts sessions with launch.
func New(launch Launcher) *Broker {
	return &Broker{
		launch: launch,
		conns:  make(map[uuid.UUID]*Connection),
	}
}

// Bind returns client's connection, launching the engine session if none is
// running. Binding an already bound client returns its existing connection.
// created reports whether this call started a new session.
func (b *Broker) Bind(client uuid.UUID) (conn *Connection, created bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, false, fmt.Errorf("%w: broker closed", ErrBindFailed)
	}

	if existing, ok := b.conns[client]; ok {
		return existing, false, nil
	}

	if b.engine == nil {
		engine, err := b.launch()
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrBindFailed, err)
		}

		b.engine = engine
		created = true
		go b.supervise(engine, engine.Subscribe())
		log.Infof("engine session %s started", engine.ID())
	}

	conn = &Connection{
		id:        uuid.New(),
		client:    client,
		engine:    b.engine,
		createdAt: time.Now(),
	}
	conn.bound.Store(true)
	b.conns[client] = conn

	log.Debugf("client %s bound as %s", client, conn.id)
	return conn, created, nil
}

// Unbind deactivates conn. It never touches playback; if the engine is
// already Idle and this was the last connection, the session ends.
func (b *Broker) Unbind(conn *Connection) {
	if conn == nil || !conn.bound.CompareAndSwap(true, false) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conns[conn.client] == conn {
		delete(b.conns, conn.client)
	}
	log.Debugf("client %s unbound", conn.client)

	if b.engine == conn.engine && len(b.conns) == 0 && b.engine.State() == player.Idle {
		b.endSessionLocked()
	}
}

// Engine returns the running session, if any.
func (b *Broker) Engine() *player.Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine
}

// Connections returns the number of bound connections.
func (b *Broker) Connections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// Close ends the session regardless of playback and rejects further binds.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for client, conn := range b.conns {
		conn.bound.Store(false)
		delete(b.conns, client)
	}
	b.endSessionLocked()
}

// supervise watches the session it was started for. With no connection bound,
// an engine that finished (Stopped, Completed, Error) is cleared, and an Idle
// engine is shut down.
func (b *Broker) supervise(engine *player.Engine, sub *player.Subscription) {
	for {
		event, err := sub.Next(context.Background())
		if err != nil {
			return
		}
		if event.Kind != player.EventState {
			continue
		}

		b.mu.Lock()
		if b.engine == engine && len(b.conns) == 0 {
			switch event.State {
			case player.Idle:
				b.endSessionLocked()
			case player.Stopped, player.Completed, player.Error:
				log.Debugf("clearing unattended engine in %s", event.State)
				engine.Clear()
			}
		}
		b.mu.Unlock()
	}
}

func (b *Broker) endSessionLocked() {
	if b.engine == nil {
		return
	}

	engine := b.engine
	b.engine = nil
	engine.Shutdown()
	log.Infof("engine session %s ended", engine.ID())
}
