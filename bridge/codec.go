package bridge

import (
	"encoding/json"
	"fmt"
)

// Codec converts envelopes to their on-wire form, and responses back to
// values. The codec is fixed per transport, and must match exactly what the
// host expects.
type Codec interface {
	Encode(env *Envelope) (any, error)
	Decode(raw any) (any, error)
}

// TextCodec transmits the envelope as JSON text, and decodes text
// responses. An absent (nil) response decodes to nil.
type TextCodec struct{}

// StructuredCodec transmits the envelope as a map. Responses are
// structured values, and are passed through untouched.
type StructuredCodec struct{}

var (
	_ Codec = TextCodec{}
	_ Codec = StructuredCodec{}
)

// Encode returns the envelope as JSON text.
func (TextCodec) Encode(env *Envelope) (any, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s: %w", env.Delegate, err)
	}
	return string(b), nil
}

// Decode parses a string or []byte response as JSON.
func (TextCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return decodeJSON([]byte(v))
	case []byte:
		return decodeJSON(v)
	default:
		return nil, fmt.Errorf("bridge: expected text response, got %T", raw)
	}
}

// Encode returns the envelope as a map[string]any.
func (StructuredCodec) Encode(env *Envelope) (any, error) {
	return env.Map(), nil
}

// Decode returns raw as-is. It never fails.
func (StructuredCodec) Decode(raw any) (any, error) {
	return raw, nil
}

func decodeJSON(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
