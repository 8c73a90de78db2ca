package bridge

import (
	"errors"
	"fmt"
)

// Error codes reported by the bridge itself. Host reported failures carry
// the host's code verbatim, see [RemoteError].
const (
	CodeMissingDelegate      = 101
	CodeResponseDecode       = 102
	CodeTransportUnavailable = 103
)

var (
	// ErrMissingDelegate matches [MissingDelegateError].
	ErrMissingDelegate = errors.New("bridge: delegate is required")

	// ErrTransportUnavailable matches [TransportUnavailableError].
	ErrTransportUnavailable = errors.New("bridge: host transport is not available")

	// ErrRemote matches [RemoteError].
	ErrRemote = errors.New("bridge: host reported failure")

	// ErrResponseDecode matches [ResponseDecodeError].
	ErrResponseDecode = errors.New("bridge: failed to decode response")

	// ErrHandlerNotFound matches [HandlerNotFoundError].
	ErrHandlerNotFound = errors.New("bridge: callback not found")

	// ErrPayloadDecode matches [PayloadDecodeError].
	ErrPayloadDecode = errors.New("bridge: payload is not JSON decodable")

	// ErrSubscriptionUnavailable matches [SubscriptionUnavailableError].
	ErrSubscriptionUnavailable = errors.New("bridge: host subscription is not available")
)

type (
	// MissingDelegateError indicates a call was attempted with an empty
	// delegate name. The transport is never touched.
	MissingDelegateError struct {
		Kind Kind
	}

	// TransportUnavailableError indicates the host's entry point was not
	// present at call time.
	TransportUnavailableError struct {
		// Entry optionally names the missing entry point.
		Entry string
	}

	// RemoteError is a failure reported by the host, propagated verbatim.
	RemoteError struct {
		Message string
		Code    int
	}

	// ResponseDecodeError indicates the host reported success, but the
	// response could not be decoded. Raw is the response as received.
	ResponseDecodeError struct {
		Raw      any
		Err      error
		Delegate string
	}

	// HandlerNotFoundError indicates an inbound message for a name without
	// a registered handler.
	HandlerNotFoundError struct {
		Name string
	}

	// PayloadDecodeError indicates an inbound text payload that was not
	// valid JSON. The handler was not invoked.
	PayloadDecodeError struct {
		Err  error
		Name string
		Raw  string
	}

	// SubscriptionUnavailableError is returned at startup, if a host
	// subscription entry point was configured but is absent.
	SubscriptionUnavailableError struct {
		Entry string
	}

	// RejectionError wraps a non-error rejection reason, see [Await].
	RejectionError struct {
		Reason any
	}
)

func (e *MissingDelegateError) Error() string {
	if e.Kind == `` {
		return ErrMissingDelegate.Error()
	}
	return fmt.Sprintf("bridge: delegate is required for %s call", e.Kind)
}

func (e *MissingDelegateError) Is(target error) bool { return target == ErrMissingDelegate }

// ErrorCode returns [CodeMissingDelegate].
func (e *MissingDelegateError) ErrorCode() int { return CodeMissingDelegate }

func (e *TransportUnavailableError) Error() string {
	if e.Entry == `` {
		return ErrTransportUnavailable.Error()
	}
	return fmt.Sprintf("bridge: host entry point %s is not defined", e.Entry)
}

func (e *TransportUnavailableError) Is(target error) bool { return target == ErrTransportUnavailable }

// ErrorCode returns [CodeTransportUnavailable].
func (e *TransportUnavailableError) ErrorCode() int { return CodeTransportUnavailable }

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge: host error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// ErrorCode returns the host supplied code.
func (e *RemoteError) ErrorCode() int { return e.Code }

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("bridge: failed to parse response of %s: %v", e.Delegate, e.Err)
}

func (e *ResponseDecodeError) Is(target error) bool { return target == ErrResponseDecode }

func (e *ResponseDecodeError) Unwrap() error { return e.Err }

// ErrorCode returns [CodeResponseDecode].
func (e *ResponseDecodeError) ErrorCode() int { return CodeResponseDecode }

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("bridge: callback not found: %s", e.Name)
}

func (e *HandlerNotFoundError) Is(target error) bool { return target == ErrHandlerNotFound }

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("bridge: payload for %s is not JSON parseable: %v", e.Name, e.Err)
}

func (e *PayloadDecodeError) Is(target error) bool { return target == ErrPayloadDecode }

func (e *PayloadDecodeError) Unwrap() error { return e.Err }

func (e *SubscriptionUnavailableError) Error() string {
	if e.Entry == `` {
		return ErrSubscriptionUnavailable.Error()
	}
	return fmt.Sprintf("bridge: host subscription entry point %s is not defined", e.Entry)
}

func (e *SubscriptionUnavailableError) Is(target error) bool {
	return target == ErrSubscriptionUnavailable
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("bridge: rejected: %v", e.Reason)
}

// ErrorCode extracts the code from any error in err's chain that provides
// one, returning 0 if there is none.
func ErrorCode(err error) int {
	var coder interface{ ErrorCode() int }
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return 0
}
