package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// lockedBuffer collects log output written from the loop goroutine.
type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (x *lockedBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func (x *lockedBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.String()
}

// Lines returns the log lines containing msg.
func (x *lockedBuffer) Lines(msg string) []string {
	var lines []string
	for _, line := range strings.Split(x.String(), "\n") {
		if strings.Contains(line, msg) {
			lines = append(lines, line)
		}
	}
	return lines
}

// testEnv is a running event loop plus a logger capturing output.
type testEnv struct {
	loop *eventloop.Loop
	js   *eventloop.JS
	out  *lockedBuffer
	root *logiface.Logger[logiface.Event]
	log  *Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	loop, err := eventloop.New()
	require.NoError(t, err)

	js, err := eventloop.NewJS(loop)
	require.NoError(t, err)

	out := new(lockedBuffer)
	root := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(out), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-loopDone:
		case <-time.After(2 * time.Second):
			t.Error("timeout waiting for loop to stop")
		}
	})

	return &testEnv{
		loop: loop,
		js:   js,
		out:  out,
		root: root,
		log:  NewLogger(root),
	}
}

// onLoop runs fn on the loop goroutine, and waits for it to return.
func (e *testEnv) onLoop(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	require.NoError(t, e.loop.Submit(func() {
		defer close(done)
		fn()
	}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for loop")
	}
}

// call starts a call on the loop goroutine, returning the promise.
func (e *testEnv) call(t *testing.T, fn func() *eventloop.ChainedPromise) *eventloop.ChainedPromise {
	t.Helper()
	var promise *eventloop.ChainedPromise
	e.onLoop(t, func() { promise = fn() })
	require.NotNil(t, promise)
	return promise
}

// await waits for the promise to settle.
func (e *testEnv) await(t *testing.T, promise *eventloop.ChainedPromise) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	value, err := Await(ctx, promise)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return value, err
}

// fakeQuery is a query style host entry point, answering asynchronously
// (from another goroutine) via answer, and recording each request.
type fakeQuery struct {
	answer   func(env *Envelope, q *Query)
	requests []string
	mu       sync.Mutex
}

// echoAnswer answers with the JSON text of the parameters.
func echoAnswer(env *Envelope, q *Query) {
	b, err := json.Marshal(env.Parameters)
	if err != nil {
		panic(err)
	}
	q.OnSuccess(string(b))
}

func (x *fakeQuery) Query(q *Query) {
	x.mu.Lock()
	x.requests = append(x.requests, q.Request)
	x.mu.Unlock()
	env, err := ParseEnvelope(q.Request)
	if err != nil {
		panic(err)
	}
	answer := x.answer
	if answer == nil {
		answer = echoAnswer
	}
	go answer(env, q)
}

func (x *fakeQuery) Requests() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.requests...)
}
