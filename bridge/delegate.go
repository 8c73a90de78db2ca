package bridge

import (
	"strings"
)

const (
	// FunctionPrefix is prepended to the delegate of calls expecting a result.
	FunctionPrefix = "Invoke_"

	// EventPrefix is prepended to the delegate of fire-and-forget events.
	EventPrefix = "OnInvoke_"
)

// Kind is the call kind carried by an [Envelope], and is part of the wire
// format.
type Kind string

const (
	// KindFunction marks a call that expects a (decoded) result.
	KindFunction Kind = "function"

	// KindEvent marks a signal-only call, any response body is discarded.
	KindEvent Kind = "event"
)

// FunctionDelegate returns the host-side delegate for a function call.
func FunctionDelegate(name string) string { return FunctionPrefix + name }

// EventDelegate returns the host-side delegate for an event.
func EventDelegate(name string) string { return EventPrefix + name }

// Delegate returns the host-side delegate for name, for calls of this kind.
func (k Kind) Delegate(name string) string {
	if k == KindEvent {
		return EventDelegate(name)
	}
	return FunctionDelegate(name)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindFunction || k == KindEvent
}

// String implements [fmt.Stringer].
func (k Kind) String() string { return string(k) }

// SplitDelegate reverses the host-side naming convention, returning the
// user-facing name and the kind it implies. ok is false if delegate carries
// neither prefix, or nothing follows it.
func SplitDelegate(delegate string) (name string, kind Kind, ok bool) {
	if name, ok = strings.CutPrefix(delegate, EventPrefix); ok && name != `` {
		return name, KindEvent, true
	}
	if name, ok = strings.CutPrefix(delegate, FunctionPrefix); ok && name != `` {
		return name, KindFunction, true
	}
	return ``, ``, false
}
