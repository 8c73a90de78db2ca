package bridge

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	eventloop "github.com/joeycumines/go-eventloop"
)

type (
	// Transport is the single seam between the [Caller] and whatever entry
	// point the host exposes. Implementations encode the envelope, invoke
	// the host, and report the outcome via the [Reply].
	Transport interface {
		// Send delivers env to the host. A non-nil error means the host
		// was never reached, and reply will not be used. Otherwise, the
		// host is expected to trigger exactly one of reply's methods,
		// though any further calls are tolerated (and ignored).
		Send(env *Envelope, reply Reply) error

		// Decode converts a raw success response into a value.
		Decode(raw any) (any, error)
	}

	// Reply receives the outcome of a single call. Implementations settle
	// at most once.
	Reply interface {
		Succeed(raw any)
		Fail(err error)
	}

	// Query is the request object accepted by a query style host entry
	// point. Request is the JSON text form of the envelope. OnSuccess
	// accepts JSON text, or nil for an absent response.
	Query struct {
		OnSuccess func(response any)
		OnFailure func(code int, message string)
		Request   string
	}

	// QueryFunc is a query style host entry point.
	QueryFunc func(q *Query)

	// InvokeFunc is a promise style host entry point. A nil result is
	// treated as an already resolved, absent, response.
	InvokeFunc func(payload any) *eventloop.ChainedPromise

	// QueryTransport adapts a query style host entry point.
	QueryTransport struct {
		lookup func() QueryFunc
		entry  string
	}

	// PromiseTransport adapts a promise style host entry point. The codec
	// selects between the text and structured generations.
	PromiseTransport struct {
		lookup func() InvokeFunc
		codec  Codec
		entry  string
	}
)

var (
	_ Transport = (*QueryTransport)(nil)
	_ Transport = (*PromiseTransport)(nil)
)

// NewQueryTransport builds a [QueryTransport]. The lookup is called for
// every call, and may return nil to indicate the entry point is absent.
// The entry name is used for diagnostics only.
func NewQueryTransport(entry string, lookup func() QueryFunc) *QueryTransport {
	if lookup == nil {
		panic(`bridge: query lookup must not be nil`)
	}
	return &QueryTransport{lookup: lookup, entry: entry}
}

// StaticQuery is a lookup that always returns fn.
func StaticQuery(fn QueryFunc) func() QueryFunc {
	return func() QueryFunc { return fn }
}

// Send encodes env as JSON text, and calls the query entry point, as of now.
func (x *QueryTransport) Send(env *Envelope, reply Reply) error {
	fn := x.lookup()
	if fn == nil {
		return &TransportUnavailableError{Entry: x.entry}
	}
	request, err := TextCodec{}.Encode(env)
	if err != nil {
		return err
	}
	fn(&Query{
		Request: request.(string),
		OnSuccess: func(response any) {
			reply.Succeed(response)
		},
		OnFailure: func(code int, message string) {
			reply.Fail(&RemoteError{Code: code, Message: message})
		},
	})
	return nil
}

// Decode decodes a text response, see [TextCodec].
func (x *QueryTransport) Decode(raw any) (any, error) {
	return TextCodec{}.Decode(raw)
}

// NewPromiseTransport builds a [PromiseTransport], see also
// [NewQueryTransport]. Use [TextCodec] for hosts that exchange JSON text,
// and [StructuredCodec] for hosts that exchange structured values.
func NewPromiseTransport(entry string, codec Codec, lookup func() InvokeFunc) *PromiseTransport {
	if codec == nil {
		panic(`bridge: codec must not be nil`)
	}
	if lookup == nil {
		panic(`bridge: invoke lookup must not be nil`)
	}
	return &PromiseTransport{lookup: lookup, codec: codec, entry: entry}
}

// StaticInvoke is a lookup that always returns fn.
func StaticInvoke(fn InvokeFunc) func() InvokeFunc {
	return func() InvokeFunc { return fn }
}

// Send encodes env with the codec, and calls the promise style entry
// point, as of now.
func (x *PromiseTransport) Send(env *Envelope, reply Reply) error {
	fn := x.lookup()
	if fn == nil {
		return &TransportUnavailableError{Entry: x.entry}
	}
	payload, err := x.codec.Encode(env)
	if err != nil {
		return err
	}
	promise := fn(payload)
	if promise == nil {
		reply.Succeed(nil)
		return nil
	}
	promise.Then(
		func(value any) any {
			reply.Succeed(value)
			return nil
		},
		func(reason any) any {
			reply.Fail(RemoteErrorFrom(reason))
			return nil
		},
	)
	return nil
}

// Decode decodes a response using the codec.
func (x *PromiseTransport) Decode(raw any) (any, error) {
	return x.codec.Decode(raw)
}

// Codec returns the codec the transport was built with.
func (x *PromiseTransport) Codec() Codec { return x.codec }

// RemoteErrorFrom maps an implementation defined rejection reason, from a
// promise style host, to a [RemoteError].
//
// A *RemoteError (anywhere in an error chain) is returned as-is. Maps with
// "code"/"message" or "errorCode"/"errorMessage" keys are mapped field-wise.
// Anything else becomes a RemoteError with code 0, and the formatted reason
// as the message.
func RemoteErrorFrom(reason any) *RemoteError {
	switch r := reason.(type) {
	case nil:
		return &RemoteError{Message: `rejected`}
	case *RemoteError:
		return r
	case error:
		var remote *RemoteError
		if errors.As(r, &remote) {
			return remote
		}
		return &RemoteError{Code: ErrorCode(r), Message: r.Error()}
	case map[string]any:
		code, hasCode := firstKey(r, `code`, `errorCode`)
		message, hasMessage := firstKey(r, `message`, `errorMessage`)
		if !hasCode && !hasMessage {
			break
		}
		e := &RemoteError{Code: toCode(code)}
		if hasMessage {
			e.Message = fmt.Sprint(message)
		}
		return e
	}
	return &RemoteError{Message: fmt.Sprint(reason)}
}

func firstKey(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toCode(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	case interface{ Int64() (int64, error) }:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}
