package player

import "errors"

var (
	// ErrOpenFailed marks a source that could not be opened: bad path,
	// unsupported scheme or format, IO failure, or no decoder available.
	ErrOpenFailed = errors.New("open failed")

	// ErrDecoder marks a runtime decoder failure after a successful open.
	ErrDecoder = errors.New("decoder error")

	// ErrInvalidState marks a command that is illegal in the current state.
	// It never changes state.
	ErrInvalidState = errors.New("invalid state")

	// ErrEngineClosed is returned by subscriptions once the engine session has ended.
	ErrEngineClosed = errors.New("engine closed")
)
