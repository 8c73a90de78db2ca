// Package hostsim implements a scriptable, in-process stand-in for the host
// side of a [bridge.Bridge]. It answers calls according to a table of
// delegates, and can deliver host-originated invocations to subscribers.
//
// All replies are delivered asynchronously, on the event loop.
package hostsim

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-hostbridge/bridge"
	"github.com/joeycumines/logiface"
)

// Mode selects how a [Delegate] answers.
type Mode string

const (
	// ModeEcho answers with the call parameters.
	ModeEcho Mode = "echo"
	// ModeStatic answers with Delegate.Response.
	ModeStatic Mode = "static"
	// ModeFail fails with Delegate.Code and Delegate.Message.
	ModeFail Mode = "fail"
	// ModeSilent never answers.
	ModeSilent Mode = "silent"
	// ModeDuplicate answers like ModeEcho, twice.
	ModeDuplicate Mode = "duplicate"
)

// CodeNotFound is the failure code for calls to unknown delegates.
const CodeNotFound = 404

// RawText is a response sent verbatim by text transports, instead of being
// JSON encoded. The structured transport sends it as a plain string.
type RawText string

// Delegate describes how the host answers one host-side delegate name, e.g.
// "Invoke_Echo".
type Delegate struct {
	Response any
	// Func, if set, overrides Mode. A non-nil error fails the call, with
	// the code from bridge.ErrorCode.
	Func    func(params any) (any, error)
	Name    string
	Mode    Mode
	Message string
	Code    int
}

// Call records one call received by the host.
type Call struct {
	Envelope *bridge.Envelope
	Raw      any
}

// Host is the simulated host. The zero value is not usable, see [New].
type Host struct {
	js          *eventloop.JS
	log         *logiface.Logger[logiface.Event]
	delegates   map[string]Delegate
	subscribers []func(name string, args []any)
	calls       []Call
	mu          sync.Mutex
}

// New constructs a [Host] replying on the loop of js. The logger may be nil.
func New(js *eventloop.JS, log *logiface.Logger[logiface.Event]) *Host {
	if js == nil {
		panic(`hostsim: js must not be nil`)
	}
	return &Host{
		js:        js,
		log:       log,
		delegates: make(map[string]Delegate),
	}
}

// Handle adds or replaces a delegate.
func (x *Host) Handle(d Delegate) {
	if d.Mode == `` {
		d.Mode = ModeEcho
	}
	x.mu.Lock()
	x.delegates[d.Name] = d
	x.mu.Unlock()
}

// Calls returns a snapshot of the calls received so far.
func (x *Host) Calls() []Call {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.calls)
}

// Query implements [bridge.QueryFunc].
func (x *Host) Query(q *bridge.Query) {
	x.receive(q.Request, func(value any, err error) {
		if err != nil {
			code, message := failure(err)
			q.OnFailure(code, message)
			return
		}
		text, err := encodeText(value)
		if err != nil {
			q.OnFailure(500, err.Error())
			return
		}
		q.OnSuccess(text)
	})
}

// InvokeText implements [bridge.InvokeFunc] for a host exchanging JSON text.
func (x *Host) InvokeText(payload any) *eventloop.ChainedPromise {
	return x.invoke(payload, func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		return encodeText(value)
	})
}

// InvokeStructured implements [bridge.InvokeFunc] for a host exchanging
// structured values.
func (x *Host) InvokeStructured(payload any) *eventloop.ChainedPromise {
	return x.invoke(payload, func(value any) (any, error) {
		if raw, ok := value.(RawText); ok {
			return string(raw), nil
		}
		return value, nil
	})
}

// Subscribe implements [bridge.SubscribeFunc].
func (x *Host) Subscribe(fn func(name string, args []any)) {
	x.mu.Lock()
	x.subscribers = append(x.subscribers, fn)
	x.mu.Unlock()
}

// Emit delivers a host-originated invocation to every subscriber,
// synchronously, returning the number of subscribers. Callers driving a
// goja runtime must call Emit on the loop goroutine.
func (x *Host) Emit(name string, args ...any) int {
	x.mu.Lock()
	subscribers := slices.Clone(x.subscribers)
	x.mu.Unlock()
	x.log.Debug().
		Str(`delegate`, name).
		Int(`subscribers`, len(subscribers)).
		Log(`host emit`)
	for _, fn := range subscribers {
		fn(name, args)
	}
	return len(subscribers)
}

func (x *Host) invoke(payload any, encode func(value any) (any, error)) *eventloop.ChainedPromise {
	promise, resolve, reject := x.js.NewChainedPromise()
	x.receive(payload, func(value any, err error) {
		if err == nil {
			value, err = encode(value)
		}
		if err != nil {
			code, message := failure(err)
			reject(map[string]any{`code`: code, `message`: message})
			return
		}
		resolve(value)
	})
	return promise
}

// receive decodes and records the call, then schedules the reply(s) on the
// loop.
func (x *Host) receive(raw any, reply func(value any, err error)) {
	env, err := bridge.ParseEnvelope(raw)
	if err != nil {
		x.log.Err().
			Err(err).
			Log(`host received invalid envelope`)
		x.later(func() { reply(nil, &bridge.RemoteError{Code: 400, Message: err.Error()}) })
		return
	}

	x.mu.Lock()
	x.calls = append(x.calls, Call{Envelope: env, Raw: raw})
	d, ok := x.delegates[env.Delegate]
	x.mu.Unlock()

	x.log.Info().
		Str(`type`, string(env.Type)).
		Str(`delegate`, env.Delegate).
		Bool(`known`, ok).
		Log(`host received call`)

	if !ok {
		x.later(func() {
			reply(nil, &bridge.RemoteError{Code: CodeNotFound, Message: fmt.Sprintf("delegate not found: %s", env.Delegate)})
		})
		return
	}

	if d.Func != nil {
		x.later(func() { reply(d.Func(env.Parameters)) })
		return
	}

	switch d.Mode {
	case ModeSilent:
	case ModeStatic:
		x.later(func() { reply(d.Response, nil) })
	case ModeFail:
		x.later(func() { reply(nil, &bridge.RemoteError{Code: d.Code, Message: d.Message}) })
	case ModeDuplicate:
		x.later(func() {
			reply(env.Parameters, nil)
			reply(env.Parameters, nil)
		})
	default:
		x.later(func() { reply(env.Parameters, nil) })
	}
}

func (x *Host) later(fn func()) {
	if err := x.js.Loop().Submit(fn); err != nil {
		x.log.Err().
			Err(err).
			Log(`host reply dropped`)
	}
}

func encodeText(value any) (string, error) {
	if raw, ok := value.(RawText); ok {
		return string(raw), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return ``, err
	}
	return string(b), nil
}

func failure(err error) (int, string) {
	remote := bridge.RemoteErrorFrom(err)
	return remote.Code, remote.Message
}
