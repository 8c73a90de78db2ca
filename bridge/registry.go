package bridge

import (
	"sort"
	"sync"
)

// Handler receives the decoded payload of a host-originated invocation.
type Handler func(data any)

// Registry maps user-facing delegate names to handlers, and dispatches
// inbound host invocations to them. Registering under an existing name
// replaces the previous handler.
//
// Handlers are invoked without holding any lock, so they may register
// handlers (including replacing themselves) while running.
type Registry struct {
	handlers map[string]Handler
	log      *Logger
	mu       sync.RWMutex
}

// NewRegistry constructs an empty [Registry]. The logger may be nil.
func NewRegistry(log *Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		log:      log,
	}
}

// Register sets the handler for name, replacing any existing one. Any name
// is accepted. Panics if handler is nil.
func (x *Registry) Register(name string, handler Handler) {
	if handler == nil {
		panic(`bridge: handler must not be nil`)
	}
	x.log.Info().
		Str(`delegate`, name).
		Log(`registering callback`)
	x.mu.Lock()
	x.handlers[name] = handler
	x.mu.Unlock()
}

// Lookup returns the handler registered for name, if any.
func (x *Registry) Lookup(name string) (Handler, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	handler, ok := x.handlers[name]
	return handler, ok
}

// Names returns the registered names, sorted.
func (x *Registry) Names() []string {
	x.mu.RLock()
	names := make([]string, 0, len(x.handlers))
	for name := range x.handlers {
		names = append(names, name)
	}
	x.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Dispatch delivers raw to the handler registered for name, by exact match.
//
// Text payloads (string or []byte) are JSON decoded first, other values are
// passed through as-is. If decoding fails, or no handler is registered, the
// message is logged and dropped, and a [PayloadDecodeError] or
// [HandlerNotFoundError] is returned. Dispatch never panics on its own
// account, but does not recover a panicking handler.
func (x *Registry) Dispatch(name string, raw any) error {
	data := raw
	switch v := raw.(type) {
	case string:
		decoded, err := decodeJSON([]byte(v))
		if err != nil {
			return x.dropped(name, &PayloadDecodeError{Name: name, Raw: v, Err: err})
		}
		data = decoded
	case []byte:
		decoded, err := decodeJSON(v)
		if err != nil {
			return x.dropped(name, &PayloadDecodeError{Name: name, Raw: string(v), Err: err})
		}
		data = decoded
	}

	handler, ok := x.Lookup(name)
	if !ok {
		return x.dropped(name, &HandlerNotFoundError{Name: name})
	}

	x.log.Debug().
		Str(`delegate`, name).
		Log(`invoking callback`)
	handler(data)
	return nil
}

func (x *Registry) dropped(name string, err error) error {
	x.log.Err().
		Str(`delegate`, name).
		Err(err).
		Log(`invoke callback failed`)
	return err
}
