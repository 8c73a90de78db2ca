package gojabridge

import (
	"errors"

	"github.com/dop251/goja"
	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-hostbridge/bridge"
)

// errorValue converts a rejection reason into the JS value the page sees.
// Go errors become plain objects:
//
//	{name, code, message, errorCode, errorMessage}
func (m *Module) errorValue(reason any) goja.Value {
	switch r := reason.(type) {
	case goja.Value:
		return r
	case error:
		code := bridge.ErrorCode(r)
		message := r.Error()
		var remote *bridge.RemoteError
		if errors.As(r, &remote) {
			message = remote.Message
		}
		obj := m.newBridgeError(errorName(r), code, message)
		var decode *bridge.ResponseDecodeError
		if errors.As(r, &decode) {
			_ = obj.Set("raw", m.runtime.ToValue(decode.Raw))
		}
		return obj
	default:
		return m.toJS(reason)
	}
}

func (m *Module) newBridgeError(name string, code int, message string) *goja.Object {
	obj := m.runtime.NewObject()
	_ = obj.Set("name", name)
	_ = obj.Set("code", code)
	_ = obj.Set("message", message)
	_ = obj.Set("errorCode", code)
	_ = obj.Set("errorMessage", message)
	_ = obj.Set("toString", m.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		return m.runtime.ToValue(name + ": " + message)
	}))
	return obj
}

func errorName(err error) string {
	switch {
	case errors.Is(err, bridge.ErrMissingDelegate):
		return "MissingDelegateError"
	case errors.Is(err, bridge.ErrTransportUnavailable):
		return "TransportUnavailableError"
	case errors.Is(err, bridge.ErrResponseDecode):
		return "ResponseDecodeError"
	case errors.Is(err, bridge.ErrRemote):
		return "RemoteError"
	}
	var panicErr eventloop.PanicError
	if errors.As(err, &panicErr) {
		return "PanicError"
	}
	return "Error"
}

// reasonFromJS exports a rejection reason from a JS host. Error-like
// objects are reduced to the fields [bridge.RemoteErrorFrom] understands.
func reasonFromJS(v goja.Value) any {
	obj, ok := v.(*goja.Object)
	if !ok {
		return fromJS(v)
	}
	fields := make(map[string]any)
	for _, key := range []string{"code", "message", "errorCode", "errorMessage"} {
		if val := obj.Get(key); isPresent(val) {
			fields[key] = val.Export()
		}
	}
	if len(fields) != 0 {
		return fields
	}
	return obj.String()
}
