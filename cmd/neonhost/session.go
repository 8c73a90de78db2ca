package main

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	eventloop "github.com/joeycumines/go-eventloop"
	gojabridge "github.com/joeycumines/go-hostbridge/goja-bridge"
	"github.com/joeycumines/go-hostbridge/hostsim"
	"github.com/joeycumines/logiface"
)

// idlePollMs is how often a finished script is checked for outstanding
// bridge calls.
const idlePollMs = 10

// session is one page script, running against a simulated host.
type session struct {
	loop    *eventloop.Loop
	js      *eventloop.JS
	runtime *goja.Runtime
	module  *gojabridge.Module
	host    *hostsim.Host
	log     *logiface.Logger[logiface.Event]
	emits   []emitConfig
}

func newSession(cfg hostConfig, logger *logiface.Logger[logiface.Event]) (*session, error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, err
	}

	js, err := eventloop.NewJS(loop)
	if err != nil {
		return nil, err
	}

	runtime := goja.New()

	opts := []gojabridge.Option{
		gojabridge.WithJS(js),
		gojabridge.WithTransportKind(cfg.Transport),
		gojabridge.WithLogger(logger),
		gojabridge.WithVerbose(cfg.Verbose),
	}
	if cfg.HostGlobal != "" {
		opts = append(opts, gojabridge.WithHostGlobal(cfg.HostGlobal))
	}
	if cfg.Subscription != "" {
		opts = append(opts, gojabridge.WithSubscriptionGlobal(cfg.Subscription))
	}
	module, err := gojabridge.New(runtime, opts...)
	if err != nil {
		return nil, err
	}

	host := hostsim.New(js, logger)
	for _, d := range cfg.Delegates {
		host.Handle(d)
	}

	switch cfg.Transport {
	case gojabridge.TransportPromiseText:
		err = module.BindInvokeHost(host.InvokeText)
	case gojabridge.TransportPromiseStructured:
		err = module.BindInvokeHost(host.InvokeStructured)
	default:
		err = module.BindQueryHost(host.Query)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Subscription != "" {
		if err := module.BindSubscriptionHost(host.Subscribe); err != nil {
			return nil, err
		}
	}

	registry := require.NewRegistry()
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{log: logger}))
	registry.RegisterNativeModule("neon", gojabridge.Require(
		gojabridge.WithJS(js),
		gojabridge.WithBridge(module.Bridge()),
		gojabridge.WithEntryPointGlobal(""),
	))
	registry.Enable(runtime)
	console.Enable(runtime)

	return &session{
		loop:    loop,
		js:      js,
		runtime: runtime,
		module:  module,
		host:    host,
		log:     logger,
		emits:   cfg.Emits,
	}, nil
}

// run evaluates the script, delivers the configured emits, then waits until
// no bridge calls are outstanding, or ctx is done.
func (s *session) run(ctx context.Context, name, script string) error {
	result := make(chan error, 1)
	finish := func(err error) {
		select {
		case result <- err:
		default:
		}
	}

	if err := s.loop.Submit(func() {
		if err := s.module.Enable(); err != nil {
			finish(err)
			return
		}
		if _, err := s.runtime.RunScript(name, script); err != nil {
			finish(err)
			return
		}
		for _, e := range s.emits {
			var args []any
			if e.Data != "" {
				args = append(args, e.Data)
			}
			if s.host.Emit(e.Name, args...) == 0 {
				s.log.Warning().
					Str(`delegate`, e.Name).
					Log(`emit has no subscribers, configure subscription`)
			}
		}
		s.whenIdle(func() { finish(nil) })
	}); err != nil {
		return err
	}

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- s.loop.Run(loopCtx)
	}()

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		err = fmt.Errorf("script did not finish, %d bridge calls pending: %w", s.pending(), ctx.Err())
	}

	stop()
	<-loopDone
	return err
}

func (s *session) pending() int {
	return s.module.Bridge().Caller().Pending()
}

func (s *session) whenIdle(fn func()) {
	if s.pending() == 0 {
		fn()
		return
	}
	if _, err := s.js.SetTimeout(func() { s.whenIdle(fn) }, idlePollMs); err != nil {
		fn()
	}
}

// calls returns the journal of the simulated host.
func (s *session) calls() []hostsim.Call {
	return s.host.Calls()
}
