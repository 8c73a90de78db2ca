package gojabridge

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/joeycumines/go-hostbridge/hostsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimHost(env *bridgeTestEnv) *hostsim.Host {
	host := hostsim.New(env.js, nil)
	host.Handle(hostsim.Delegate{Name: `Invoke_Echo`, Mode: hostsim.ModeEcho})
	host.Handle(hostsim.Delegate{Name: `Invoke_Version`, Mode: hostsim.ModeStatic, Response: map[string]any{`version`: `1.2.3`}})
	host.Handle(hostsim.Delegate{Name: `Invoke_Fail`, Mode: hostsim.ModeFail, Code: 42, Message: `boom`})
	host.Handle(hostsim.Delegate{Name: `OnInvoke_Ready`, Mode: hostsim.ModeStatic, Response: `ignored`})
	return host
}

func TestHostsim_query(t *testing.T) {
	env := newBridgeTestEnv(t)
	host := newSimHost(env)
	require.NoError(t, env.module.BindQueryHost(host.Query))
	env.enable(t)

	env.runOnLoop(t, settleHelper+`
		settle('echo', NEON.InvokeUnrealFunction('Echo', {a: 1}));
		settle('version', NEON.InvokeUnrealFunction('Version'));
		settle('fail', NEON.InvokeUnrealFunction('Fail'));
		settle('unknown', NEON.InvokeUnrealFunction('Unknown'));
		settle('ready', NEON.InvokeUnrealEvent('Ready'));
	`)

	assert.Equal(t, `{"ok":true,"value":{"a":1}}`, env.getJSON(t, `results.echo`))
	assert.Equal(t, `{"ok":true,"value":{"version":"1.2.3"}}`, env.getJSON(t, `results.version`))
	assert.Equal(t, `{"ok":false,"error":{"name":"RemoteError","code":42,"message":"boom","errorCode":42,"errorMessage":"boom"}}`, env.getJSON(t, `results.fail`))
	assert.Equal(t, int64(hostsim.CodeNotFound), env.run(t, `results.unknown.error.errorCode`).Export())
	assert.Equal(t, `{"ok":true}`, env.getJSON(t, `results.ready`))

	calls := host.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, `Invoke_Echo`, calls[0].Envelope.Delegate)
	assert.IsType(t, ``, calls[0].Raw)
	assert.Equal(t, `OnInvoke_Ready`, calls[4].Envelope.Delegate)
}

func TestHostsim_promise(t *testing.T) {
	for _, tc := range []struct {
		kind TransportKind
		bind func(*bridgeTestEnv, *hostsim.Host) error
		raw  any
	}{
		{TransportPromiseText, func(env *bridgeTestEnv, host *hostsim.Host) error {
			return env.module.BindInvokeHost(host.InvokeText)
		}, ``},
		{TransportPromiseStructured, func(env *bridgeTestEnv, host *hostsim.Host) error {
			return env.module.BindInvokeHost(host.InvokeStructured)
		}, map[string]any{}},
	} {
		t.Run(string(tc.kind), func(t *testing.T) {
			env := newBridgeTestEnv(t, WithTransportKind(tc.kind))
			host := newSimHost(env)
			require.NoError(t, tc.bind(env, host))
			env.enable(t)

			env.runOnLoop(t, settleHelper+`
				settle('echo', NEON.InvokeUnrealFunction('Echo', {list: [1, 'two']}));
				settle('version', NEON.InvokeUnrealFunction('Version'));
				settle('fail', NEON.InvokeUnrealFunction('Fail'));
				settle('ready', NEON.InvokeUnrealEvent('Ready', {}));
			`)

			assert.Equal(t, `{"ok":true,"value":{"list":[1,"two"]}}`, env.getJSON(t, `results.echo`))
			assert.Equal(t, `{"ok":true,"value":{"version":"1.2.3"}}`, env.getJSON(t, `results.version`))
			assert.Equal(t, `{"ok":false,"error":{"name":"RemoteError","code":42,"message":"boom","errorCode":42,"errorMessage":"boom"}}`, env.getJSON(t, `results.fail`))
			assert.Equal(t, `{"ok":true}`, env.getJSON(t, `results.ready`))

			calls := host.Calls()
			require.Len(t, calls, 4)
			assert.IsType(t, tc.raw, calls[0].Raw)
		})
	}
}

func TestHostsim_subscription(t *testing.T) {
	env := newBridgeTestEnv(t, WithSubscriptionGlobal(`neonSubscribe`))
	host := newSimHost(env)
	require.NoError(t, env.module.BindQueryHost(host.Query))
	require.NoError(t, env.module.BindSubscriptionHost(host.Subscribe))
	_ = env.runtime.Set(`emit`, env.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		var args []any
		for _, arg := range call.Arguments[1:] {
			args = append(args, arg.Export())
		}
		return env.runtime.ToValue(host.Emit(call.Argument(0).String(), args...))
	}))
	env.enable(t)

	env.runOnLoop(t, `
		var got = [];
		NEON.OnInvoke('Push', function(data) {
			got.push(data);
			if (got.length === 2) {
				NEON.InvokeUnrealFunction('Echo', got).then(function(v) {
					echoed = v;
					__done();
				});
			}
		});
		var seen = [];
		neonSubscribe(function(name, args) { seen.push([name, args]); });
		var subscribers = emit('Push', '{"n":1}');
		emit('Nobody', '{}');
		emit('Push', '[true]');
		emit('Empty');
	`)

	assert.Equal(t, int64(2), env.get(`subscribers`))
	assert.Equal(t, `[["Push",["{\"n\":1}"]],["Nobody",["{}"]],["Push",["[true]"]],["Empty",[]]]`, env.getJSON(t, `seen`))
	assert.Equal(t, `[{"n":1},[true]]`, env.getJSON(t, `got`))
	assert.Equal(t, `[{"n":1},[true]]`, env.getJSON(t, `echoed`))
	assert.Len(t, env.logs.lines(`invoke callback failed`), 2)
}

func TestHostsim_queryCallbackThrows(t *testing.T) {
	env := newBridgeTestEnv(t)
	host := newSimHost(env)
	require.NoError(t, env.module.BindQueryHost(host.Query))
	env.enable(t)

	env.runOnLoop(t, `
		cefQuery({
			request: JSON.stringify({type: 'function', delegate: 'Invoke_Echo', parameters: {}}),
			onSuccess: function() {
				__done();
				throw new Error('page callback broke');
			},
		});
	`)

	lines := env.logs.lines(`host reply callback failed`)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `page callback broke`)
	assert.Contains(t, lines[0], `onSuccess`)
}

func TestHostsim_subscriptionNotConfigured(t *testing.T) {
	env := newBridgeTestEnv(t)
	host := newSimHost(env)
	assert.Error(t, env.module.BindSubscriptionHost(host.Subscribe))
}
