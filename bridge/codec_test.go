package bridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(KindFunction, `Load`, nil)
	require.NoError(t, err)
	assert.Equal(t, &Envelope{Type: KindFunction, Delegate: `Invoke_Load`, Parameters: map[string]any{}}, env)
	assert.Equal(t, `Load`, env.Name())

	env, err = NewEnvelope(KindEvent, `Ready`, `raw text`)
	require.NoError(t, err)
	assert.Equal(t, `OnInvoke_Ready`, env.Delegate)
	assert.Equal(t, `raw text`, env.Parameters)

	_, err = NewEnvelope(KindEvent, ``, nil)
	require.ErrorIs(t, err, ErrMissingDelegate)

	_, err = NewEnvelope(Kind(`other`), `Name`, nil)
	require.Error(t, err)
}

func TestSplitDelegate(t *testing.T) {
	for _, tc := range []struct {
		delegate string
		name     string
		kind     Kind
		ok       bool
	}{
		{`Invoke_Echo`, `Echo`, KindFunction, true},
		{`OnInvoke_Ping`, `Ping`, KindEvent, true},
		{`OnInvoke_Invoke_X`, `Invoke_X`, KindEvent, true},
		{`Echo`, ``, ``, false},
	} {
		t.Run(tc.delegate, func(t *testing.T) {
			name, kind, ok := SplitDelegate(tc.delegate)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	want := &Envelope{Type: KindFunction, Delegate: `Invoke_A`, Parameters: map[string]any{`x`: 1.0}}

	text, err := TextCodec{}.Encode(want)
	require.NoError(t, err)
	got, err := ParseEnvelope(text)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	structured, err := StructuredCodec{}.Encode(want)
	require.NoError(t, err)
	got, err = ParseEnvelope(structured)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	for _, raw := range []any{`{`, `{"type":"other","delegate":"x"}`, map[string]any{`type`: `event`}, 5} {
		_, err := ParseEnvelope(raw)
		assert.Error(t, err, raw)
	}
}

func TestTextCodec_Decode(t *testing.T) {
	value, err := TextCodec{}.Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, value)

	value, err = TextCodec{}.Decode(`"str"`)
	require.NoError(t, err)
	assert.Equal(t, `str`, value)

	value, err = TextCodec{}.Decode([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = TextCodec{}.Decode(``)
	assert.Error(t, err)

	_, err = TextCodec{}.Decode(map[string]any{})
	assert.Error(t, err)
}

func TestStructuredCodec_Decode(t *testing.T) {
	m := map[string]any{`a`: 1}
	value, err := StructuredCodec{}.Decode(m)
	require.NoError(t, err)
	assert.Equal(t, m, value)

	for _, raw := range []any{`[1]`, `hello`, ``, []byte(`{`), 5.0, true} {
		value, err = StructuredCodec{}.Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, value)
	}

	value, err = StructuredCodec{}.Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestRemoteErrorFrom(t *testing.T) {
	remote := &RemoteError{Code: 9, Message: `m`}
	for _, tc := range []struct {
		name   string
		reason any
		want   *RemoteError
	}{
		{`nil`, nil, &RemoteError{Message: `rejected`}},
		{`remote`, remote, remote},
		{`wrapped`, fmt.Errorf(`wrap: %w`, remote), remote},
		{`coded`, &ResponseDecodeError{Delegate: `d`, Err: errors.New(`bad`)}, &RemoteError{Code: CodeResponseDecode, Message: `bridge: failed to parse response of d: bad`}},
		{`plain error`, errors.New(`plain`), &RemoteError{Message: `plain`}},
		{`code message`, map[string]any{`code`: int64(3), `message`: `x`}, &RemoteError{Code: 3, Message: `x`}},
		{`error fields`, map[string]any{`errorCode`: `12`, `errorMessage`: `y`}, &RemoteError{Code: 12, Message: `y`}},
		{`message only`, map[string]any{`message`: `z`}, &RemoteError{Message: `z`}},
		{`other map`, map[string]any{`k`: `v`}, &RemoteError{Message: `map[k:v]`}},
		{`string`, `nope`, &RemoteError{Message: `nope`}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := RemoteErrorFrom(tc.reason)
			assert.Equal(t, tc.want, got)
			if tc.name == `remote` || tc.name == `wrapped` {
				assert.Same(t, remote, got)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, 0, ErrorCode(nil))
	assert.Equal(t, 0, ErrorCode(errors.New(`x`)))
	assert.Equal(t, CodeMissingDelegate, ErrorCode(fmt.Errorf(`w: %w`, &MissingDelegateError{})))
	assert.Equal(t, CodeTransportUnavailable, ErrorCode(&TransportUnavailableError{}))
	assert.Equal(t, 500, ErrorCode(&RemoteError{Code: 500}))
}
