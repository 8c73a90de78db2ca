package bridge

import (
	"context"
	"sync/atomic"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/oklog/ulid/v2"
)

// Caller turns logical calls into exactly one transport invocation and
// exactly one settled promise.
//
// Calls are correlated by the reply handed to the transport, there is no
// table of outstanding calls. Host replies may arrive on any goroutine,
// promises are always settled on the loop goroutine. Calls have no timeout,
// see [Caller.Pending].
type Caller struct {
	js        *eventloop.JS
	transport Transport
	log       *Logger
	pending   atomic.Int64
}

// NewCaller constructs a [Caller]. Panics if js or transport is nil. The
// logger may be nil.
func NewCaller(js *eventloop.JS, transport Transport, log *Logger) *Caller {
	if js == nil {
		panic(`bridge: js must not be nil`)
	}
	if transport == nil {
		panic(`bridge: transport must not be nil`)
	}
	return &Caller{
		js:        js,
		transport: transport,
		log:       log,
	}
}

// CallEvent sends a fire-and-forget event, as delegate "OnInvoke_<name>".
// The promise resolves with nil once the host acknowledges, any response
// body is discarded.
func (x *Caller) CallEvent(name string, data any) *eventloop.ChainedPromise {
	return x.call(KindEvent, name, data)
}

// CallFunction calls a host function, as delegate "Invoke_<name>", and
// resolves with the decoded response.
func (x *Caller) CallFunction(name string, data any) *eventloop.ChainedPromise {
	return x.call(KindFunction, name, data)
}

// Transport returns the transport this caller was built with.
func (x *Caller) Transport() Transport { return x.transport }

// Pending returns the number of calls sent to the host and not yet settled.
// Calls the host never answers stay counted forever.
func (x *Caller) Pending() int { return int(x.pending.Load()) }

// submit runs fn on the loop goroutine, as host replies may arrive on any
// goroutine. If the loop has terminated fn runs inline, settling the promise
// for any Go waiters.
func (x *Caller) submit(fn func()) {
	if err := x.js.Loop().Submit(fn); err != nil {
		fn()
	}
}

func (x *Caller) call(kind Kind, name string, data any) *eventloop.ChainedPromise {
	promise, resolve, reject := x.js.NewChainedPromise()

	env, err := NewEnvelope(kind, name, data)
	if err != nil {
		x.log.Err().
			Str(`type`, string(kind)).
			Err(err).
			Log(`bridge call failed`)
		reject(err)
		return promise
	}

	call := &pendingCall{
		caller:   x,
		resolve:  resolve,
		reject:   reject,
		id:       ulid.Make().String(),
		delegate: env.Delegate,
		kind:     kind,
	}

	x.log.Info().
		Str(`call_id`, call.id).
		Str(`type`, string(kind)).
		Str(`delegate`, env.Delegate).
		Any(`parameters`, env.Parameters).
		Log(`bridge call`)

	x.pending.Add(1)
	if err := call.send(env); err != nil {
		call.Fail(err)
	}

	return promise
}

// pendingCall is the [Reply] for one call. It exists until the host calls
// back, and settles the promise at most once.
type pendingCall struct {
	caller   *Caller
	resolve  eventloop.ResolveFunc
	reject   eventloop.RejectFunc
	id       string
	delegate string
	kind     Kind
	settled  atomic.Bool
}

var _ Reply = (*pendingCall)(nil)

func (x *pendingCall) send(env *Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eventloop.PanicError{Value: r}
		}
	}()
	return x.caller.transport.Send(env, x)
}

func (x *pendingCall) settle() bool {
	if !x.settled.CompareAndSwap(false, true) {
		x.caller.log.Debug().
			Str(`call_id`, x.id).
			Str(`delegate`, x.delegate).
			Log(`ignoring duplicate host reply`)
		return false
	}
	x.caller.pending.Add(-1)
	return true
}

func (x *pendingCall) Succeed(raw any) {
	if x.settle() {
		x.caller.submit(func() { x.succeed(raw) })
	}
}

func (x *pendingCall) Fail(err error) {
	if x.settle() {
		x.caller.submit(func() { x.fail(err) })
	}
}

func (x *pendingCall) succeed(raw any) {
	if x.kind == KindEvent {
		x.caller.log.Debug().
			Str(`call_id`, x.id).
			Str(`delegate`, x.delegate).
			Log(`bridge event succeeded`)
		x.resolve(nil)
		return
	}

	value, err := x.caller.transport.Decode(raw)
	if err != nil {
		x.fail(&ResponseDecodeError{Raw: raw, Err: err, Delegate: x.delegate})
		return
	}

	x.caller.log.Info().
		Str(`call_id`, x.id).
		Str(`delegate`, x.delegate).
		Any(`response`, raw).
		Log(`bridge function succeeded`)
	x.resolve(value)
}

func (x *pendingCall) fail(err error) {
	if err == nil {
		err = &RemoteError{}
	}
	x.caller.log.Err().
		Str(`call_id`, x.id).
		Str(`type`, string(x.kind)).
		Str(`delegate`, x.delegate).
		Int(`code`, ErrorCode(err)).
		Err(err).
		Log(`bridge call failed`)
	x.reject(err)
}

// Await blocks until the promise settles, or ctx is done. A rejection is
// returned as an error, non-error reasons being wrapped in
// [RejectionError].
//
// Await must not be called from the loop goroutine, if settlement depends on
// the loop.
func Await(ctx context.Context, promise *eventloop.ChainedPromise) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-promise.ToChannel():
		if promise.State() == eventloop.Rejected {
			if err, ok := result.(error); ok {
				return nil, err
			}
			return nil, &RejectionError{Reason: result}
		}
		return result, nil
	}
}
