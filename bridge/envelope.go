package bridge

import (
	"encoding/json"
	"fmt"
)

// Envelope is the unit sent across the transport boundary.
type Envelope struct {
	// Parameters is the call data, any JSON serializable value. Never nil
	// once built by [NewEnvelope], absent data becomes an empty object.
	Parameters any `json:"parameters"`

	// Type is the call kind, "function" or "event".
	Type Kind `json:"type"`

	// Delegate is the prefixed, host-side delegate name.
	Delegate string `json:"delegate"`
}

// NewEnvelope builds the envelope for a call of the given kind, applying the
// delegate naming convention. An empty name is a contract violation, and
// results in a [MissingDelegateError].
func NewEnvelope(kind Kind, name string, data any) (*Envelope, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("bridge: invalid call kind %q", string(kind))
	}
	if name == `` {
		return nil, &MissingDelegateError{Kind: kind}
	}
	if data == nil {
		data = map[string]any{}
	}
	return &Envelope{
		Type:       kind,
		Delegate:   kind.Delegate(name),
		Parameters: data,
	}, nil
}

// Name returns the user-facing delegate name, i.e. without the kind prefix.
func (e *Envelope) Name() string {
	if name, _, ok := SplitDelegate(e.Delegate); ok {
		return name
	}
	return e.Delegate
}

// Map returns the structured form of the envelope, as sent by transports
// using [StructuredCodec].
func (e *Envelope) Map() map[string]any {
	return map[string]any{
		`type`:       string(e.Type),
		`delegate`:   e.Delegate,
		`parameters`: e.Parameters,
	}
}

// ParseEnvelope is the inverse of the transport encodings, accepting either
// the JSON text form or the structured form. It is intended for host
// implementations.
func ParseEnvelope(raw any) (*Envelope, error) {
	switch v := raw.(type) {
	case *Envelope:
		return v, nil
	case string:
		return parseEnvelopeText([]byte(v))
	case []byte:
		return parseEnvelopeText(v)
	case map[string]any:
		var e Envelope
		if t, ok := v[`type`].(string); ok {
			e.Type = Kind(t)
		}
		if d, ok := v[`delegate`].(string); ok {
			e.Delegate = d
		}
		e.Parameters = v[`parameters`]
		if err := e.validate(); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("bridge: unsupported envelope encoding %T", raw)
	}
}

func parseEnvelopeText(b []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("bridge: invalid envelope: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Envelope) validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("bridge: invalid envelope type %q", string(e.Type))
	}
	if e.Delegate == `` {
		return fmt.Errorf("bridge: invalid envelope: %w", ErrMissingDelegate)
	}
	return nil
}
