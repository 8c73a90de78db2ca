// Package bridge implements the call/event correlation protocol between
// script running in an embedded runtime (the page) and the application that
// embeds it (the host).
//
// # Overview
//
// Two directions of communication are supported:
//
//   - Outbound, page to host: a [Caller] wraps a logical call (a delegate
//     name plus data) in an [Envelope], hands it to the configured
//     [Transport], and settles an [eventloop.ChainedPromise] exactly once
//     when the host answers.
//   - Inbound, host to page: a [Registry] maps delegate names to handlers
//     and dispatches host-originated messages to them.
//
// [Bridge] composes both, along with the [Logger] verbosity toggle.
//
// # Naming
//
// The user-facing delegate name is never sent as-is. Calls that expect a
// result travel as "Invoke_<name>" and events as "OnInvoke_<name>", see
// [FunctionDelegate] and [EventDelegate]. The host must mirror this
// convention. The [Registry] is keyed on the bare name.
//
// # Transports
//
// Exactly one [Transport] is chosen when a [Bridge] is constructed:
//
//   - [QueryTransport]: the host exposes a query function taking a request
//     string (the JSON envelope) and one-shot success/failure callbacks.
//   - [PromiseTransport] with [TextCodec]: the host exposes an invoke
//     function taking the JSON envelope text and returning a promise.
//   - [PromiseTransport] with [StructuredCodec]: as above, but the envelope
//     and the response travel as structured values.
//
// The host entry point is looked up on every call. If it is missing the call
// rejects with [TransportUnavailableError]; there is no probing or fallback
// to another transport.
//
// # Errors
//
// Outbound failures are always delivered as promise rejections, carrying one
// of [MissingDelegateError], [TransportUnavailableError], [RemoteError] or
// [ResponseDecodeError]. Inbound failures ([PayloadDecodeError],
// [HandlerNotFoundError]) are logged and dropped; they are returned to Go
// callers of [Registry.Dispatch] but never raised to the host.
//
// # Limitations
//
// Calls have no timeout and cannot be cancelled. If the host never answers,
// the pending call is retained by whatever reference the host holds on the
// reply callbacks, and the promise stays pending forever.
//
// [eventloop.ChainedPromise]: https://pkg.go.dev/github.com/joeycumines/go-eventloop#ChainedPromise
package bridge
