package bridge

import (
	"errors"
	"sync/atomic"

	eventloop "github.com/joeycumines/go-eventloop"
)

// SubscribeFunc is a host subscription entry point. It is called once, at
// startup, with the function the host should call for every inbound
// invocation. The first positional argument is the payload.
type SubscribeFunc func(fn func(name string, args []any))

// StaticSubscription is a lookup that always returns fn.
func StaticSubscription(fn SubscribeFunc) func() SubscribeFunc {
	return func() SubscribeFunc { return fn }
}

// Bridge is the public facade, composing a [Caller], a [Registry] and a
// [Logger]. It holds no state of its own, other than whether [Bridge.Start]
// has subscribed to the host.
type Bridge struct {
	caller            *Caller
	registry          *Registry
	log               *Logger
	subscribe         func() SubscribeFunc
	subscriptionEntry string
	started           atomic.Bool
}

// New constructs a [Bridge], bound to the given [eventloop.JS], which is
// used to create promises. Panics if js is nil.
func New(js *eventloop.JS, opts ...Option) (*Bridge, error) {
	if js == nil {
		panic(`bridge: js must not be nil`)
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	log := NewLogger(cfg.logger)
	log.SetVerbose(cfg.verbose)

	return &Bridge{
		caller:            NewCaller(js, cfg.transport, log),
		registry:          NewRegistry(log),
		log:               log,
		subscribe:         cfg.subscribe,
		subscriptionEntry: cfg.subscriptionEntry,
	}, nil
}

// Start subscribes to the host subscription entry point, if one was
// configured. It fails with [SubscriptionUnavailableError] if the entry
// point is absent, which should be treated as fatal. Subsequent calls,
// after a successful Start, return an error.
func (x *Bridge) Start() error {
	if x.subscribe == nil {
		return nil
	}
	if !x.started.CompareAndSwap(false, true) {
		return errors.New("bridge: already started")
	}
	fn := x.subscribe()
	if fn == nil {
		x.started.Store(false)
		err := &SubscriptionUnavailableError{Entry: x.subscriptionEntry}
		x.log.Err().
			Err(err).
			Log(`bridge startup failed`)
		return err
	}
	fn(x.hostInvoke)
	return nil
}

func (x *Bridge) hostInvoke(name string, args []any) {
	var data any
	if len(args) != 0 {
		data = args[0]
	}
	_ = x.registry.Dispatch(name, data)
}

// InvokeEvent sends a fire-and-forget event, see [Caller.CallEvent].
func (x *Bridge) InvokeEvent(name string, data any) *eventloop.ChainedPromise {
	return x.caller.CallEvent(name, data)
}

// InvokeFunction calls a host function, see [Caller.CallFunction].
func (x *Bridge) InvokeFunction(name string, data any) *eventloop.ChainedPromise {
	return x.caller.CallFunction(name, data)
}

// OnInvoke registers the handler for host invocations of name.
func (x *Bridge) OnInvoke(name string, handler Handler) {
	x.registry.Register(name, handler)
}

// Invoke is the stable inbound entry point, intended to be bound to
// whatever name the host calls. Failures are logged and dropped.
func (x *Bridge) Invoke(name string, data any) {
	_ = x.registry.Dispatch(name, data)
}

// SetVerbose toggles non-error diagnostics.
func (x *Bridge) SetVerbose(verbose bool) { x.log.SetVerbose(verbose) }

// Caller returns the outbound half of the bridge.
func (x *Bridge) Caller() *Caller { return x.caller }

// Registry returns the inbound half of the bridge.
func (x *Bridge) Registry() *Registry { return x.registry }

// Logger returns the diagnostic sink shared by both halves.
func (x *Bridge) Logger() *Logger { return x.log }
