package bridge

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Logger is the diagnostic sink shared by the [Caller] and the [Registry].
//
// Non-error diagnostics are gated by a verbosity flag, which defaults to on.
// Error diagnostics are always emitted, regardless of the flag.
//
// A nil *Logger, or one wrapping a nil logiface logger, discards everything.
type Logger struct {
	log     *logiface.Logger[logiface.Event]
	verbose atomic.Bool
}

// NewLogger wraps log, which may be nil.
func NewLogger(log *logiface.Logger[logiface.Event]) *Logger {
	x := &Logger{log: log}
	x.verbose.Store(true)
	return x
}

// SetVerbose toggles non-error diagnostics.
func (x *Logger) SetVerbose(verbose bool) {
	if x != nil {
		x.verbose.Store(verbose)
	}
}

// Verbose reports the current state of the verbosity flag.
func (x *Logger) Verbose() bool {
	return x != nil && x.verbose.Load()
}

// Info starts a diagnostic entry, returning nil (a no-op builder) if
// verbosity is off.
func (x *Logger) Info() *logiface.Builder[logiface.Event] {
	if !x.Verbose() {
		return nil
	}
	return x.log.Info()
}

// Debug is like [Logger.Info], at debug level.
func (x *Logger) Debug() *logiface.Builder[logiface.Event] {
	if !x.Verbose() {
		return nil
	}
	return x.log.Debug()
}

// Err starts an error entry. Not gated by verbosity.
func (x *Logger) Err() *logiface.Builder[logiface.Event] {
	if x == nil {
		return nil
	}
	return x.log.Err()
}

// Root returns the wrapped logger, which may be nil.
func (x *Logger) Root() *logiface.Logger[logiface.Event] {
	if x == nil {
		return nil
	}
	return x.log
}
