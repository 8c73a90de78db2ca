package gojabridge

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dop251/goja"
	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// logBuffer collects log output written from the loop goroutine.
type logBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (x *logBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

// lines returns the log lines containing msg.
func (x *logBuffer) lines(msg string) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	var lines []string
	for _, line := range strings.Split(x.buf.String(), "\n") {
		if strings.Contains(line, msg) {
			lines = append(lines, line)
		}
	}
	return lines
}

// bridgeTestEnv provides an event loop, goja runtime and module. The event
// loop is created but NOT started, call [bridgeTestEnv.runOnLoop] for async
// tests, or [bridgeTestEnv.run] for synchronous JS evaluation.
type bridgeTestEnv struct {
	loop    *eventloop.Loop
	js      *eventloop.JS
	runtime *goja.Runtime
	module  *Module
	logs    *logBuffer
}

func newBridgeTestEnv(t *testing.T, opts ...Option) *bridgeTestEnv {
	t.Helper()

	loop, err := eventloop.New()
	require.NoError(t, err)

	js, err := eventloop.NewJS(loop)
	require.NoError(t, err)

	logs := new(logBuffer)
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(logs), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()

	runtime := goja.New()

	module, err := New(runtime, append([]Option{WithJS(js), WithLogger(logger)}, opts...)...)
	require.NoError(t, err)

	return &bridgeTestEnv{
		loop:    loop,
		js:      js,
		runtime: runtime,
		module:  module,
		logs:    logs,
	}
}

// enable installs the globals, failing the test on error.
func (e *bridgeTestEnv) enable(t *testing.T) {
	t.Helper()
	require.NoError(t, e.module.Enable())
}

// run executes JS code synchronously on the runtime (no event loop).
func (e *bridgeTestEnv) run(t *testing.T, code string) goja.Value {
	t.Helper()
	v, err := e.runtime.RunString(code)
	require.NoError(t, err)
	return v
}

// mustFail runs JS code and asserts that it throws an exception.
func (e *bridgeTestEnv) mustFail(t *testing.T, code string) error {
	t.Helper()
	_, err := e.runtime.RunString(code)
	require.Error(t, err)
	return err
}

// runOnLoop submits JS code for execution on the event loop, then runs
// the loop until the JS code signals completion via __done().
//
// The JS code MUST call __done() when all async operations have completed.
// Store results in global variables, which can be read from e.runtime
// after this call returns. The loop cannot be run again afterwards.
func (e *bridgeTestEnv) runOnLoop(t *testing.T, code string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{}, 1)
	var jsErr error

	_ = e.runtime.Set("__done", e.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		select {
		case done <- struct{}{}:
		default:
		}
		return goja.Undefined()
	}))

	if submitErr := e.loop.Submit(func() {
		_, jsErr = e.runtime.RunString(code)
	}); submitErr != nil {
		t.Fatalf("submit error: %v", submitErr)
	}

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- e.loop.Run(ctx)
	}()

	select {
	case <-done:
		cancel()
		<-loopDone
	case err := <-loopDone:
		if jsErr != nil {
			t.Fatalf("JS error: %v", jsErr)
		}
		if err != nil && ctx.Err() == nil {
			t.Fatalf("loop error: %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("timeout waiting for __done()")
	}

	if jsErr != nil {
		t.Fatalf("JS error: %v", jsErr)
	}
}

// get reads a global, exported.
func (e *bridgeTestEnv) get(name string) any {
	return fromJS(e.runtime.Get(name))
}

// getJSON reads a global, as JSON text.
func (e *bridgeTestEnv) getJSON(t *testing.T, name string) string {
	t.Helper()
	return e.run(t, `JSON.stringify(`+name+`)`).String()
}
