package bridge

import (
	"errors"

	"github.com/joeycumines/logiface"
)

// bridgeOptions holds configuration for a [Bridge] instance.
type bridgeOptions struct {
	transport         Transport
	logger            *logiface.Logger[logiface.Event]
	subscribe         func() SubscribeFunc
	subscriptionEntry string
	verbose           bool
}

// Option configures a [Bridge] instance.
type Option interface {
	applyOption(*bridgeOptions) error
}

// optionFunc implements [Option] via a closure.
type optionFunc struct {
	fn func(*bridgeOptions) error
}

func (o *optionFunc) applyOption(opts *bridgeOptions) error {
	return o.fn(opts)
}

// WithTransport configures the host [Transport]. This option is required.
func WithTransport(transport Transport) Option {
	return &optionFunc{fn: func(opts *bridgeOptions) error {
		if transport == nil {
			return errors.New("bridge: transport must not be nil")
		}
		opts.transport = transport
		return nil
	}}
}

// WithLogger configures the logger used for diagnostics. Defaults to nil,
// which discards everything.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionFunc{fn: func(opts *bridgeOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithVerbose sets the initial state of the verbosity flag (default true).
// See [Logger] for what it gates.
func WithVerbose(verbose bool) Option {
	return &optionFunc{fn: func(opts *bridgeOptions) error {
		opts.verbose = verbose
		return nil
	}}
}

// WithSubscription configures a host subscription entry point, which
// [Bridge.Start] will subscribe to. If the lookup returns nil at that time,
// Start fails. The entry name is used for diagnostics only.
func WithSubscription(entry string, lookup func() SubscribeFunc) Option {
	return &optionFunc{fn: func(opts *bridgeOptions) error {
		if lookup == nil {
			return errors.New("bridge: subscription lookup must not be nil")
		}
		opts.subscribe = lookup
		opts.subscriptionEntry = entry
		return nil
	}}
}

// resolveOptions applies the given options to a default [bridgeOptions]
// and validates that all required fields are set.
func resolveOptions(opts []Option) (*bridgeOptions, error) {
	cfg := &bridgeOptions{
		verbose: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.transport == nil {
		return nil, errors.New("bridge: transport is required (use WithTransport)")
	}
	return cfg, nil
}
