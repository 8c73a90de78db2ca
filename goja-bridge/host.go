package gojabridge

import (
	"github.com/dop251/goja"
	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-hostbridge/bridge"
)

func (m *Module) newTransport() bridge.Transport {
	switch m.kind {
	case TransportPromiseText:
		return bridge.NewPromiseTransport(m.hostGlobal, bridge.TextCodec{}, m.invokeFromGlobal)
	case TransportPromiseStructured:
		return bridge.NewPromiseTransport(m.hostGlobal, bridge.StructuredCodec{}, m.invokeFromGlobal)
	default:
		return bridge.NewQueryTransport(m.hostGlobal, m.queryFromGlobal)
	}
}

// global returns the named global, if it is callable.
func (m *Module) global(name string) goja.Callable {
	fn, ok := goja.AssertFunction(m.runtime.Get(name))
	if !ok {
		return nil
	}
	return fn
}

// queryFromGlobal adapts the global query function, as of now. A thrown
// exception propagates as a panic, which the caller converts to a
// rejection.
func (m *Module) queryFromGlobal() bridge.QueryFunc {
	fn := m.global(m.hostGlobal)
	if fn == nil {
		return nil
	}
	return func(q *bridge.Query) {
		request := m.runtime.NewObject()
		_ = request.Set("request", q.Request)
		_ = request.Set("onSuccess", m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
			var response any
			if arg := call.Argument(0); isPresent(arg) {
				response = arg.String()
			}
			q.OnSuccess(response)
			return goja.Undefined()
		}))
		_ = request.Set("onFailure", m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
			q.OnFailure(int(call.Argument(0).ToInteger()), call.Argument(1).String())
			return goja.Undefined()
		}))
		if _, err := fn(goja.Undefined(), request); err != nil {
			panic(err)
		}
	}
}

// invokeFromGlobal adapts the global promise style function, as of now.
func (m *Module) invokeFromGlobal() bridge.InvokeFunc {
	fn := m.global(m.hostGlobal)
	if fn == nil {
		return nil
	}
	return func(payload any) *eventloop.ChainedPromise {
		result, err := fn(goja.Undefined(), m.toJS(payload))
		if err != nil {
			panic(err)
		}
		return m.fromThenable(result)
	}
}

// fromThenable converts the result of a JS host function. Thenables are
// followed, undefined and null are an absent response, and anything else
// is an already resolved response.
func (m *Module) fromThenable(v goja.Value) *eventloop.ChainedPromise {
	if !isPresent(v) {
		return nil
	}
	if obj, ok := v.(*goja.Object); ok {
		if then, ok := goja.AssertFunction(obj.Get("then")); ok {
			promise, resolve, reject := m.js.NewChainedPromise()
			_, err := then(obj,
				m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
					resolve(fromJS(call.Argument(0)))
					return goja.Undefined()
				}),
				m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
					reject(reasonFromJS(call.Argument(0)))
					return goja.Undefined()
				}),
			)
			if err != nil {
				reject(err)
			}
			return promise
		}
	}
	return m.js.Resolve(fromJS(v))
}

// subscriptionFromGlobal adapts the global subscription function. The
// subscriber is called as (name, args), where args is an array, and the
// payload is its first element. Missing args are an empty list.
func (m *Module) subscriptionFromGlobal() bridge.SubscribeFunc {
	fn := m.global(m.subscriptionGlobal)
	if fn == nil {
		return nil
	}
	return func(deliver func(name string, args []any)) {
		callback := m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
			deliver(call.Argument(0).String(), argsFromJS(call.Argument(1)))
			return goja.Undefined()
		})
		if _, err := fn(goja.Undefined(), callback); err != nil {
			panic(err)
		}
	}
}

// BindQueryHost installs fn as the global query function, see
// [TransportQuery]. Replies from fn may arrive on any goroutine, the JS
// callbacks are always run on the loop.
func (m *Module) BindQueryHost(fn bridge.QueryFunc) error {
	return m.runtime.Set(m.hostGlobal, m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		obj := call.Argument(0).ToObject(m.runtime)
		onSuccess, _ := goja.AssertFunction(obj.Get("onSuccess"))
		onFailure, _ := goja.AssertFunction(obj.Get("onFailure"))
		fn(&bridge.Query{
			Request: obj.Get("request").String(),
			OnSuccess: func(response any) {
				m.submit(func() {
					if onSuccess == nil {
						return
					}
					var args []goja.Value
					if response != nil {
						args = append(args, m.runtime.ToValue(response))
					}
					_, err := onSuccess(goja.Undefined(), args...)
					m.logCallbackError(`onSuccess`, err)
				})
			},
			OnFailure: func(code int, message string) {
				m.submit(func() {
					if onFailure == nil {
						return
					}
					_, err := onFailure(goja.Undefined(), m.runtime.ToValue(code), m.runtime.ToValue(message))
					m.logCallbackError(`onFailure`, err)
				})
			},
		})
		return goja.Undefined()
	}))
}

// BindInvokeHost installs fn as the global promise style function, see
// [TransportPromiseText] and [TransportPromiseStructured]. The promise
// returned by fn must be settled on the loop.
func (m *Module) BindInvokeHost(fn bridge.InvokeFunc) error {
	return m.runtime.Set(m.hostGlobal, m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		promise := fn(fromJS(call.Argument(0)))
		if promise == nil {
			return goja.Undefined()
		}
		return m.wrapPromise(promise, m.toJS, func(reason any) goja.Value {
			return m.toJS(reason)
		})
	}))
}

// BindSubscriptionHost installs fn as the global subscription function,
// see [WithSubscriptionGlobal]. The subscriber passed to fn must be called
// on the loop.
func (m *Module) BindSubscriptionHost(fn bridge.SubscribeFunc) error {
	if m.subscriptionGlobal == `` {
		return errSubscriptionNotConfigured
	}
	return m.runtime.Set(m.subscriptionGlobal, m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		callback, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(m.runtime.NewTypeError("subscriber must be a function"))
		}
		fn(func(name string, args []any) {
			if args == nil {
				args = []any{}
			}
			if _, err := callback(goja.Undefined(), m.runtime.ToValue(name), m.toJS(args)); err != nil {
				panic(err)
			}
		})
		return goja.Undefined()
	}))
}

// logCallbackError logs an exception thrown by a page callback, which has
// no caller to propagate to.
func (m *Module) logCallbackError(callback string, err error) {
	if err == nil {
		return
	}
	m.bridge.Logger().Err().
		Str(`callback`, callback).
		Err(err).
		Log(`host reply callback failed`)
}

// submit runs fn on the loop goroutine, dropping it if the loop has
// terminated.
func (m *Module) submit(fn func()) {
	if err := m.js.Loop().Submit(fn); err != nil {
		m.bridge.Logger().Err().
			Err(err).
			Log(`host reply dropped`)
	}
}
