package core

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"pkt.systems/termdeck/schema"
)

// fakeHandle is a scripted shell session. Output chunks are pushed with
// emit; exit or Close ends the stream and unblocks Wait.
type fakeHandle struct {
	shell string

	mu      sync.Mutex
	writes  [][]byte
	signals []ProcessSignal

	chunks   chan []byte
	done     chan struct{}
	exitOnce sync.Once
	exitCode int
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		shell:  "/bin/fakesh",
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (h *fakeHandle) emit(chunk string) {
	h.chunks <- []byte(chunk)
}

func (h *fakeHandle) exit(code int) {
	h.exitOnce.Do(func() {
		h.exitCode = code
		close(h.done)
	})
}

func (h *fakeHandle) Output() OutputStream { return &fakeStream{h: h} }

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	h.writes = append(h.writes, append([]byte(nil), p...))
	h.mu.Unlock()
	return len(p), nil
}

func (h *fakeHandle) writtenLines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.writes))
	for _, w := range h.writes {
		out = append(out, string(w))
	}
	return out
}

func (h *fakeHandle) Resize(cols, rows int) error { return nil }

func (h *fakeHandle) Signal(sig ProcessSignal) error {
	h.mu.Lock()
	h.signals = append(h.signals, sig)
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Wait(ctx context.Context) (RunResult, error) {
	select {
	case <-h.done:
		return RunResult{ExitCode: h.exitCode}, nil
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}
}

func (h *fakeHandle) Shell() string { return h.shell }

func (h *fakeHandle) Close() error {
	h.exit(0)
	return nil
}

type fakeStream struct {
	h *fakeHandle
}

func (s *fakeStream) Next(ctx context.Context) ([]byte, error) {
	// Drain pending chunks before reporting exit.
	select {
	case chunk := <-s.h.chunks:
		return chunk, nil
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case chunk := <-s.h.chunks:
		return chunk, nil
	case <-s.h.done:
		return nil, io.EOF
	}
}

func (s *fakeStream) Close() error { return nil }

// fakeRunner hands out fakeHandles and records start requests.
type fakeRunner struct {
	mu       sync.Mutex
	started  []StartSessionRequest
	handles  []*fakeHandle
	startErr error
}

func (r *fakeRunner) Start(ctx context.Context, req StartSessionRequest) (SessionHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, req)
	if r.startErr != nil {
		return nil, r.startErr
	}
	h := newFakeHandle()
	r.handles = append(r.handles, h)
	return h, nil
}

func (r *fakeRunner) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started)
}

func (r *fakeRunner) handle(i int) *fakeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.handles) {
		return nil
	}
	return r.handles[i]
}

// recordSink captures every emitted event.
type recordSink struct {
	mu      sync.Mutex
	outputs []schema.OutputEvent
	exits   []schema.ExitEvent
	routes  []schema.RouteEvent
	chunks  []schema.AgentChunkEvent
	panes   []schema.PaneEvent
}

func (s *recordSink) OnOutput(event schema.OutputEvent) {
	s.mu.Lock()
	s.outputs = append(s.outputs, event)
	s.mu.Unlock()
}

func (s *recordSink) OnExit(event schema.ExitEvent) {
	s.mu.Lock()
	s.exits = append(s.exits, event)
	s.mu.Unlock()
}

func (s *recordSink) OnRoute(event schema.RouteEvent) {
	s.mu.Lock()
	s.routes = append(s.routes, event)
	s.mu.Unlock()
}

func (s *recordSink) OnAgentChunk(event schema.AgentChunkEvent) {
	s.mu.Lock()
	s.chunks = append(s.chunks, event)
	s.mu.Unlock()
}

func (s *recordSink) OnPaneEvent(event schema.PaneEvent) {
	s.mu.Lock()
	s.panes = append(s.panes, event)
	s.mu.Unlock()
}

func (s *recordSink) outputEvents() []schema.OutputEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.OutputEvent(nil), s.outputs...)
}

func (s *recordSink) exitEvents() []schema.ExitEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.ExitEvent(nil), s.exits...)
}

func (s *recordSink) routeEvents() []schema.RouteEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.RouteEvent(nil), s.routes...)
}

func (s *recordSink) chunkEvents() []schema.AgentChunkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.AgentChunkEvent(nil), s.chunks...)
}

func (s *recordSink) paneEvents() []schema.PaneEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.PaneEvent(nil), s.panes...)
}

// fakeBackend delegates to fn and records calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls []CompleteRequest
	fn    func(ctx context.Context, req CompleteRequest) (string, error)
}

func (b *fakeBackend) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()
	if b.fn == nil {
		return "", nil
	}
	return b.fn(ctx, req)
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// settingsFunc adapts a closure to SettingsSource.
type settingsFunc func() schema.Settings

func (f settingsFunc) Get() schema.Settings { return f() }

func fixedSettings(settings schema.Settings) settingsFunc {
	return func() schema.Settings { return settings }
}

// waitFor polls until cond holds or the deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		ProjectRoot:        "/work/project",
		ShellCandidates:    []string{"/bin/fakesh"},
		DefaultShell:       "/bin/fakesh",
		ScrollbackMaxLines: 500,
		HistoryMaxEntries:  50,
	}
}

func newTestService(t *testing.T, runner *fakeRunner, sink *recordSink, settings SettingsSource) Service {
	t.Helper()
	svc, err := NewService(testServiceConfig(), ServiceDeps{
		Sessions:  runner,
		Local:     &fakeBackend{},
		Cloud:     &fakeBackend{},
		Settings:  settings,
		EventSink: sink,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}
