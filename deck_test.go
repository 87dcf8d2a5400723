package termdeck

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/schema"
)

type stubHandle struct {
	done chan struct{}
	once sync.Once
}

func newStubHandle() *stubHandle { return &stubHandle{done: make(chan struct{})} }

func (h *stubHandle) Output() core.OutputStream { return &stubStream{h: h} }

func (h *stubHandle) Write(p []byte) (int, error) { return len(p), nil }

func (h *stubHandle) Resize(cols, rows int) error { return nil }

func (h *stubHandle) Signal(core.ProcessSignal) error { return nil }

func (h *stubHandle) Shell() string { return "/bin/stubsh" }

func (h *stubHandle) Wait(ctx context.Context) (core.RunResult, error) {
	select {
	case <-h.done:
		return core.RunResult{}, nil
	case <-ctx.Done():
		return core.RunResult{}, ctx.Err()
	}
}

func (h *stubHandle) Close() error {
	h.once.Do(func() { close(h.done) })
	return nil
}

type stubStream struct {
	h *stubHandle
}

func (s *stubStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-s.h.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *stubStream) Close() error { return nil }

type stubRunner struct {
	mu      sync.Mutex
	handles []*stubHandle
}

func (r *stubRunner) Start(ctx context.Context, req core.StartSessionRequest) (core.SessionHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := newStubHandle()
	r.handles = append(r.handles, h)
	return h, nil
}

func newTestDeck(t *testing.T) *Deck {
	t.Helper()
	deck, err := New(Config{
		Service: schema.ServiceConfig{
			ProjectRoot:     t.TempDir(),
			ShellCandidates: []string{"/bin/stubsh"},
			DefaultShell:    "/bin/stubsh",
		},
		StateDir: t.TempDir(),
	}, Deps{Sessions: &stubRunner{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return deck
}

func TestNewRequiresStateDir(t *testing.T) {
	if _, err := New(Config{}, Deps{Sessions: &stubRunner{}}); err == nil {
		t.Fatal("expected error for missing state dir")
	}
}

func TestDeckCreateAndSubscribe(t *testing.T) {
	deck := newTestDeck(t)
	ctx := context.Background()

	events, unsubscribe := deck.Subscribe("")
	defer unsubscribe()

	resp, err := deck.Service().CreatePane(ctx, schema.CreatePaneRequest{PaneID: "work"})
	if err != nil {
		t.Fatalf("CreatePane: %v", err)
	}
	if resp.Pane.ID != "work" || resp.Pane.Status != schema.PaneStatusLive {
		t.Fatalf("pane = %+v", resp.Pane)
	}

	select {
	case event := <-events:
		if event.Type != eventbus.EventPane || event.Pane.Type != schema.PaneEventCreated {
			t.Fatalf("event = %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no pane event")
	}
}

func TestDeckCloseTearsDownPanes(t *testing.T) {
	deck := newTestDeck(t)
	ctx := context.Background()

	for _, id := range []schema.PaneID{"one", "two"} {
		if _, err := deck.Service().CreatePane(ctx, schema.CreatePaneRequest{PaneID: id}); err != nil {
			t.Fatalf("CreatePane(%s): %v", id, err)
		}
	}
	if err := deck.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	resp, err := deck.Service().ListPanes(ctx, schema.ListPanesRequest{})
	if err != nil {
		t.Fatalf("ListPanes: %v", err)
	}
	if len(resp.Panes) != 0 {
		t.Fatalf("panes remain: %+v", resp.Panes)
	}
}

func TestDeckSettingsPersistAcrossInstances(t *testing.T) {
	stateDir := t.TempDir()
	cfg := Config{
		Service: schema.ServiceConfig{
			ProjectRoot:     t.TempDir(),
			ShellCandidates: []string{"/bin/stubsh"},
			DefaultShell:    "/bin/stubsh",
		},
		StateDir: stateDir,
	}

	deck, err := New(cfg, Deps{Sessions: &stubRunner{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mode := schema.ModeSystemWide
	if _, err := deck.Settings().Set(schema.SettingsPatch{ExecutionMode: &mode}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := New(cfg, Deps{Sessions: &stubRunner{}})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Settings().Get().ExecutionMode; got != schema.ModeSystemWide {
		t.Fatalf("mode = %q", got)
	}
}
