// Package decoder defines the media decoder primitive the playback engine drives.
//
// A Decoder is a black box: it opens one source, prepares it asynchronously,
// plays, pauses, seeks and reports position. Lifecycle signals (prepared,
// completed, failed) arrive on the Signals channel; everything else is a
// direct call. Two backends exist: mpv over JSON-IPC and an in-process
// synthetic clock used for dry runs and tests.
package decoder

import (
	"errors"
	"fmt"

	"github.com/auplay-cli/auplay/key"
	"github.com/spf13/viper"
)

// Backend names accepted by player.decoder.
const (
	BackendMPV       = "mpv"
	BackendSynthetic = "synthetic"
)

var (
	// ErrUnsupported marks sources the backend cannot open (scheme, format, missing file).
	ErrUnsupported = errors.New("unsupported media source")

	// ErrNotPrepared is returned by transport calls made before the source is prepared.
	ErrNotPrepared = errors.New("media not prepared")

	// ErrReleased is returned by calls on a released decoder.
	ErrReleased = errors.New("decoder released")
)

// SignalKind enumerates asynchronous decoder notifications.
type SignalKind int

const (
	Prepared SignalKind = iota + 1
	Completed
	Failed
)

func (k SignalKind) String() string {
	switch k {
	case Prepared:
		return "prepared"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Signal is one asynchronous notification. Err is set for Failed.
type Signal struct {
	Kind SignalKind
	Err  error
}

// Decoder is one media handle.
type Decoder interface {
	// Open starts preparing source. It returns synchronously detectable
	// failures; everything later is reported as a Failed signal.
	Open(source string) error

	Start() error
	Pause() error

	// Stop pauses and rewinds to zero, keeping the media loaded.
	Stop() error

	// Seek moves to an absolute position in milliseconds.
	Seek(ms int64) error

	// Position returns the last known duration and position in milliseconds without blocking.
	Position() (durationMs, currentMs int64)

	// Buffered returns the buffered-ahead percentage, ok is false if the backend has no such signal.
	Buffered() (percent int, ok bool)

	Signals() <-chan Signal

	// Release frees the handle. It is safe to call more than once.
	Release() error
}

// Factory creates a fresh, unopened decoder.
type Factory func() (Decoder, error)

// New resolves a factory for the named backend.
func New(backend string) (Factory, error) {
	switch backend {
	case BackendMPV:
		binary := viper.GetString(key.PlayerMpvPath)
		return func() (Decoder, error) {
			return NewMPV(binary)
		}, nil
	case BackendSynthetic:
		return func() (Decoder, error) {
			return NewSynthetic(SyntheticOptionsFromConfig()), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown decoder backend %q", backend)
	}
}

// FromConfig resolves the factory selected by player.decoder.
func FromConfig() (Factory, error) {
	return New(viper.GetString(key.PlayerDecoder))
}

// sendSignal delivers s without ever blocking the sender. Signal channels are
// buffered and a handle emits at most a few signals in its lifetime.
func sendSignal(ch chan Signal, s Signal) {
	select {
	case ch <- s:
	default:
	}
}
