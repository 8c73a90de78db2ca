package gojabridge

import (
	"errors"

	"github.com/dop251/goja"
	eventloop "github.com/joeycumines/go-eventloop"
)

var errSubscriptionNotConfigured = errors.New("gojabridge: subscription global is not configured (use WithSubscriptionGlobal)")

// setupExports wires the module's JS API onto the given exports object.
//
// Exports:
//   - InvokeUnrealEvent (alias InvokeUnreal): sends an event
//   - InvokeUnrealFunction: calls a host function
//   - OnInvoke (alias OnInvokeWeb): registers a callback
//   - InvokeWeb: dispatches to a callback, as if invoked by the host
//   - SetVerbose: toggles non-error diagnostics
func (m *Module) setupExports(exports *goja.Object) {
	invokeEvent := m.runtime.ToValue(m.jsInvokeEvent)
	onInvoke := m.runtime.ToValue(m.jsOnInvoke)
	_ = exports.Set("InvokeUnrealEvent", invokeEvent)
	_ = exports.Set("InvokeUnreal", invokeEvent)
	_ = exports.Set("InvokeUnrealFunction", m.runtime.ToValue(m.jsInvokeFunction))
	_ = exports.Set("OnInvoke", onInvoke)
	_ = exports.Set("OnInvokeWeb", onInvoke)
	_ = exports.Set("InvokeWeb", m.runtime.ToValue(m.jsInvokeWeb))
	_ = exports.Set("SetVerbose", m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		m.bridge.SetVerbose(call.Argument(0).ToBoolean())
		return goja.Undefined()
	}))
}

func (m *Module) jsInvokeEvent(call goja.FunctionCall) goja.Value {
	promise := m.bridge.InvokeEvent(delegateArg(call), fromJS(call.Argument(1)))
	return m.wrapPromise(promise, func(any) goja.Value { return goja.Undefined() }, m.errorValue)
}

func (m *Module) jsInvokeFunction(call goja.FunctionCall) goja.Value {
	promise := m.bridge.InvokeFunction(delegateArg(call), fromJS(call.Argument(1)))
	return m.wrapPromise(promise, m.toJS, m.errorValue)
}

func (m *Module) jsOnInvoke(call goja.FunctionCall) goja.Value {
	name := delegateArg(call)
	callback, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(m.runtime.NewTypeError("OnInvoke: callback must be a function"))
	}
	m.bridge.OnInvoke(name, func(data any) {
		if _, err := callback(goja.Undefined(), m.toJS(data)); err != nil {
			panic(err)
		}
	})
	return goja.Undefined()
}

// jsInvokeWeb dispatches to a registered callback. Failures are logged and
// dropped, never thrown, but exceptions thrown by the callback propagate.
func (m *Module) jsInvokeWeb(call goja.FunctionCall) goja.Value {
	var data any = "{}"
	if arg := call.Argument(1); !goja.IsUndefined(arg) {
		data = fromJS(arg)
	}
	m.bridge.Invoke(delegateArg(call), data)
	return goja.Undefined()
}

// delegateArg reads the first argument as a delegate name, where undefined
// and null are the empty (invalid) name.
func delegateArg(call goja.FunctionCall) string {
	if arg := call.Argument(0); isPresent(arg) {
		return arg.String()
	}
	return ``
}

// wrapPromise returns a native JS promise following promise. It must be
// called on the loop goroutine.
func (m *Module) wrapPromise(promise *eventloop.ChainedPromise, onValue, onReason func(any) goja.Value) goja.Value {
	p, resolve, reject := m.runtime.NewPromise()
	promise.Then(
		func(value any) any {
			_ = resolve(onValue(value))
			return nil
		},
		func(reason any) any {
			_ = reject(onReason(reason))
			return nil
		},
	)
	return m.runtime.ToValue(p)
}

// Callbacks returns the names with registered callbacks.
func (m *Module) Callbacks() []string { return m.bridge.Registry().Names() }
