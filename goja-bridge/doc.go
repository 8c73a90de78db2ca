// Package gojabridge exposes a [bridge.Bridge] to page scripts running in a
// goja runtime, under a global namespace object, conventionally NEON.
//
// # Overview
//
// The page calls into the host using one of three transports, chosen when
// the module is constructed (see [WithTransportKind]):
//
//   - [TransportQuery]: a callback style host function, by default the
//     global cefQuery, called with {request, onSuccess, onFailure}
//   - [TransportPromiseText]: a promise returning host function, by
//     default the global neonInvoke, called with the JSON text envelope
//   - [TransportPromiseStructured]: like TransportPromiseText, but called
//     with the envelope as an object
//
// Host functions are looked up on the global object at call time, so they
// may be installed after the module is enabled. A missing host function
// rejects the call, it does not throw.
//
// # JavaScript API
//
//	NEON.InvokeUnrealEvent(delegate, data?)    // Promise<void>, alias InvokeUnreal
//	NEON.InvokeUnrealFunction(delegate, data?) // Promise<any>
//	NEON.OnInvoke(delegate, callback)          // alias OnInvokeWeb
//	NEON.InvokeWeb(delegate, data)
//	NEON.SetVerbose(verbose)
//
// The host delivers invocations by calling the global
// NEON_Bridge_Web_Invoke(delegate, data), where data is usually JSON text,
// and defaults to an empty object. Optionally, see
// [WithSubscriptionGlobal], the module subscribes to a host function
// instead.
//
// # Errors
//
// Rejections are plain objects:
//
//	{name, code, message, errorCode, errorMessage}
//
// Where errorCode and errorMessage mirror code and message. Codes 101, 102
// and 103 are reported by the bridge itself (missing delegate, unparseable
// response, missing host function), anything else is the host's own code.
//
// # Go hosts
//
// [Module.BindQueryHost], [Module.BindInvokeHost] and
// [Module.BindSubscriptionHost] install Go implementations (e.g. from
// package hostsim) as the host globals.
package gojabridge
