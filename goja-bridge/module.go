package gojabridge

import (
	"fmt"

	"github.com/dop251/goja"
	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-hostbridge/bridge"
)

// Module binds a [bridge.Bridge] to a single [goja.Runtime]. The runtime
// must only be used from the loop goroutine.
type Module struct {
	runtime            *goja.Runtime
	js                 *eventloop.JS
	bridge             *bridge.Bridge
	hostGlobal         string
	subscriptionGlobal string
	entryPoint         string
	namespace          string
	kind               TransportKind
	ownsBridge         bool
}

// New creates a new [Module] bound to the given [goja.Runtime].
//
// New panics if runtime is nil, as this is a programming error. It returns
// an error if option validation fails, or if required options are missing.
func New(runtime *goja.Runtime, opts ...Option) (*Module, error) {
	if runtime == nil {
		panic("gojabridge: runtime must not be nil")
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	m := &Module{
		runtime:            runtime,
		js:                 cfg.js,
		hostGlobal:         cfg.hostGlobal,
		subscriptionGlobal: cfg.subscriptionGlobal,
		entryPoint:         cfg.entryPoint,
		namespace:          cfg.namespace,
		kind:               cfg.kind,
		bridge:             cfg.bridge,
	}

	if m.bridge == nil {
		bridgeOpts := []bridge.Option{
			bridge.WithTransport(m.newTransport()),
			bridge.WithLogger(cfg.logger),
			bridge.WithVerbose(cfg.verbose),
		}
		if m.subscriptionGlobal != `` {
			bridgeOpts = append(bridgeOpts, bridge.WithSubscription(m.subscriptionGlobal, m.subscriptionFromGlobal))
		}
		m.bridge, err = bridge.New(m.js, bridgeOpts...)
		if err != nil {
			return nil, err
		}
		m.ownsBridge = true
	}

	return m, nil
}

// Runtime returns the [goja.Runtime] this module is bound to.
func (m *Module) Runtime() *goja.Runtime { return m.runtime }

// Bridge returns the underlying [bridge.Bridge].
func (m *Module) Bridge() *bridge.Bridge { return m.bridge }

// TransportKind returns the configured transport kind.
func (m *Module) TransportKind() TransportKind { return m.kind }

// HostGlobal returns the name of the global host function.
func (m *Module) HostGlobal() string { return m.hostGlobal }

// Enable installs the namespace object and the inbound entry point as
// globals, then starts the bridge (subscribing to the host, if
// configured). It must be called on the loop goroutine.
func (m *Module) Enable() error {
	exports := m.runtime.NewObject()
	m.setupExports(exports)
	if err := m.runtime.Set(m.namespace, exports); err != nil {
		return err
	}
	return m.start()
}

// SetupExports wires the module's JS API onto the given exports object,
// without installing any globals.
func (m *Module) SetupExports(exports *goja.Object) {
	m.setupExports(exports)
}

// start installs the entry point, and starts the bridge if it was built by
// this module.
func (m *Module) start() error {
	if m.entryPoint != `` {
		if err := m.runtime.Set(m.entryPoint, m.runtime.ToValue(m.jsInvokeWeb)); err != nil {
			return err
		}
	}
	if !m.ownsBridge {
		return nil
	}
	if err := m.bridge.Start(); err != nil {
		return fmt.Errorf("gojabridge: %w", err)
	}
	return nil
}
