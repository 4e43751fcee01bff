//go:build desktop

package wailshost

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumison/lumison/config"
	"github.com/lumison/lumison/host"
)

type windowCalls struct {
	mu    sync.Mutex
	calls []string
	quit  chan struct{}
}

func (w *windowCalls) add(call string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
	if call == "quit" && w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
}

func (w *windowCalls) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func newTestHost(calls *windowCalls) *Host {
	h := New(Options{Window: config.WindowConfig{Label: "main", Title: "Lumison"}})
	h.show = func(context.Context) { calls.add("show") }
	h.quit = func(context.Context) { calls.add("quit") }
	return h
}

func TestStartupShowsWindowAfterBoot(t *testing.T) {
	calls := &windowCalls{quit: make(chan struct{})}
	quit := calls.quit
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &session{host: newTestHost(calls), ctx: ctx, boot: func(context.Context, host.Runtime) error {
		calls.add("boot")
		return nil
	}}
	s.startup(context.Background())

	got := calls.list()
	if len(got) != 2 || got[0] != "boot" || got[1] != "show" {
		t.Fatalf("expected [boot show], got %v", got)
	}
	if err := s.bootErr(); err != nil {
		t.Errorf("unexpected boot error %v", err)
	}

	cancel()
	select {
	case <-quit:
	case <-time.After(time.Second):
		t.Fatal("canceling the run context did not quit the application")
	}
	s.shutdown()
}

func TestStartupBootFailureNeverShowsWindow(t *testing.T) {
	calls := &windowCalls{}
	boom := errors.New("display unavailable")

	s := &session{host: newTestHost(calls), ctx: context.Background(), boot: func(context.Context, host.Runtime) error {
		return boom
	}}
	s.startup(context.Background())

	got := calls.list()
	if len(got) != 1 || got[0] != "quit" {
		t.Fatalf("expected [quit], got %v", got)
	}
	if !errors.Is(s.bootErr(), boom) {
		t.Errorf("expected boot error, got %v", s.bootErr())
	}
	s.shutdown()
	select {
	case <-s.rt.done:
	default:
		t.Error("shutdown did not mark the runtime done")
	}
}
