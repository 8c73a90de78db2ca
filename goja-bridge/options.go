package gojabridge

import (
	"errors"
	"fmt"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-hostbridge/bridge"
	"github.com/joeycumines/logiface"
)

// TransportKind selects how the page reaches the host.
type TransportKind string

const (
	// TransportQuery calls a callback style host function.
	TransportQuery TransportKind = "query"
	// TransportPromiseText calls a promise returning host function with
	// JSON text, and parses text responses.
	TransportPromiseText TransportKind = "promise-text"
	// TransportPromiseStructured calls a promise returning host function
	// with an object, and passes responses through.
	TransportPromiseStructured TransportKind = "promise-structured"
)

// Default global names.
const (
	DefaultNamespace    = "NEON"
	DefaultEntryPoint   = "NEON_Bridge_Web_Invoke"
	DefaultQueryGlobal  = "cefQuery"
	DefaultInvokeGlobal = "neonInvoke"
)

// ParseTransportKind validates s as a [TransportKind]. The empty string
// maps to [TransportQuery].
func ParseTransportKind(s string) (TransportKind, error) {
	switch k := TransportKind(s); k {
	case ``:
		return TransportQuery, nil
	case TransportQuery, TransportPromiseText, TransportPromiseStructured:
		return k, nil
	default:
		return ``, fmt.Errorf("gojabridge: unknown transport kind %q", s)
	}
}

// String implements [fmt.Stringer].
func (k TransportKind) String() string { return string(k) }

// DefaultHostGlobal returns the default host function name for k.
func (k TransportKind) DefaultHostGlobal() string {
	if k == TransportQuery {
		return DefaultQueryGlobal
	}
	return DefaultInvokeGlobal
}

// moduleOptions holds configuration for a [Module] instance.
type moduleOptions struct {
	js                 *eventloop.JS
	bridge             *bridge.Bridge
	logger             *logiface.Logger[logiface.Event]
	kind               TransportKind
	hostGlobal         string
	subscriptionGlobal string
	entryPoint         string
	namespace          string
	verbose            bool
}

// Option configures a [Module] instance. Options are applied during
// module construction.
type Option interface {
	applyOption(*moduleOptions) error
}

// optionFunc implements [Option] via a closure.
type optionFunc struct {
	fn func(*moduleOptions) error
}

func (o *optionFunc) applyOption(opts *moduleOptions) error {
	return o.fn(opts)
}

// WithLoop configures the event loop the runtime is driven by. Either
// this or [WithJS] is required.
func WithLoop(loop *eventloop.Loop) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		if loop == nil {
			return errors.New("gojabridge: loop must not be nil")
		}
		js, err := eventloop.NewJS(loop)
		if err != nil {
			return err
		}
		opts.js = js
		return nil
	}}
}

// WithJS is like [WithLoop], sharing an existing [eventloop.JS].
func WithJS(js *eventloop.JS) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		if js == nil {
			return errors.New("gojabridge: js must not be nil")
		}
		opts.js = js
		return nil
	}}
}

// WithTransportKind selects the host transport. Defaults to
// [TransportQuery].
func WithTransportKind(kind TransportKind) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		k, err := ParseTransportKind(string(kind))
		if err != nil {
			return err
		}
		opts.kind = k
		return nil
	}}
}

// WithHostGlobal overrides the name of the global host function, see
// [TransportKind.DefaultHostGlobal].
func WithHostGlobal(name string) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		if name == `` {
			return errors.New("gojabridge: host global must not be empty")
		}
		opts.hostGlobal = name
		return nil
	}}
}

// WithSubscriptionGlobal names a global host function that [Module.Enable]
// subscribes to, for inbound invocations. It is called once with a
// function(delegate, data). If the global is missing at that time,
// Enable fails.
func WithSubscriptionGlobal(name string) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		opts.subscriptionGlobal = name
		return nil
	}}
}

// WithEntryPointGlobal overrides the name of the global inbound entry
// point, [DefaultEntryPoint]. An empty name disables it.
func WithEntryPointGlobal(name string) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		opts.entryPoint = name
		return nil
	}}
}

// WithNamespace overrides the name of the global namespace object,
// [DefaultNamespace], as installed by [Module.Enable].
func WithNamespace(name string) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		if name == `` {
			return errors.New("gojabridge: namespace must not be empty")
		}
		opts.namespace = name
		return nil
	}}
}

// WithLogger configures the diagnostic logger. Defaults to nil, which
// discards everything.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithVerbose sets the initial verbosity (default true).
func WithVerbose(verbose bool) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		opts.verbose = verbose
		return nil
	}}
}

// WithBridge shares an existing [bridge.Bridge], instead of building one.
// The transport, logging and subscription options are then ignored, and
// starting the bridge is the caller's responsibility.
func WithBridge(b *bridge.Bridge) Option {
	return &optionFunc{fn: func(opts *moduleOptions) error {
		if b == nil {
			return errors.New("gojabridge: bridge must not be nil")
		}
		opts.bridge = b
		return nil
	}}
}

// resolveOptions applies the given options to a default [moduleOptions]
// and validates that all required fields are set.
func resolveOptions(opts []Option) (*moduleOptions, error) {
	cfg := &moduleOptions{
		kind:       TransportQuery,
		entryPoint: DefaultEntryPoint,
		namespace:  DefaultNamespace,
		verbose:    true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.js == nil {
		return nil, errors.New("gojabridge: event loop is required (use WithLoop or WithJS)")
	}
	if cfg.hostGlobal == `` {
		cfg.hostGlobal = cfg.kind.DefaultHostGlobal()
	}
	return cfg, nil
}
