package plugin

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
)

// mockPlugin implements Plugin, Starter and Closer for testing.
type mockPlugin struct {
	name      string
	initErr   error
	closeErr  error
	initOrder *[]string
	closeOrd  *[]string
	started   chan struct{}
}

func (m *mockPlugin) Name() string { return m.name }
func (m *mockPlugin) Init(ctx context.Context, rt host.Runtime) error {
	if m.initOrder != nil {
		*m.initOrder = append(*m.initOrder, m.name)
	}
	return m.initErr
}
func (m *mockPlugin) Close(ctx context.Context) error {
	if m.closeOrd != nil {
		*m.closeOrd = append(*m.closeOrd, m.name)
	}
	return m.closeErr
}
func (m *mockPlugin) Start(ctx context.Context) {
	if m.started != nil {
		close(m.started)
	}
	<-ctx.Done()
}

type panicPlugin struct{}

func (panicPlugin) Name() string                             { return "panicky" }
func (panicPlugin) Init(context.Context, host.Runtime) error { panic("nil window") }

type describedPlugin struct{ mockPlugin }

func (p describedPlugin) Describe() Description {
	return Description{Name: p.name, Details: "2 endpoints"}
}

func newRuntime() host.Runtime {
	return host.NewLoop(host.WithSignals(false))
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockPlugin{name: "updater"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockPlugin{name: "updater"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 plugin, got %d", r.Len())
	}
}

func TestInitAllOrder(t *testing.T) {
	var order []string
	r := NewRegistry()
	for _, name := range []string{"updater", "process", "audio"} {
		r.Register(&mockPlugin{name: name, initOrder: &order})
	}

	if err := r.InitAll(context.Background(), newRuntime()); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if strings.Join(order, ",") != "updater,process,audio" {
		t.Errorf("unexpected init order %v", order)
	}
	if strings.Join(r.Names(), ",") != "updater,process,audio" {
		t.Errorf("unexpected names %v", r.Names())
	}
}

func TestInitAllStopsOnFailure(t *testing.T) {
	var initOrder, closeOrder []string
	r := NewRegistry()
	r.Register(&mockPlugin{name: "a", initOrder: &initOrder, closeOrd: &closeOrder})
	r.Register(&mockPlugin{name: "b", initOrder: &initOrder, closeOrd: &closeOrder, initErr: fmt.Errorf("no network")})
	r.Register(&mockPlugin{name: "c", initOrder: &initOrder, closeOrd: &closeOrder})

	err := r.InitAll(context.Background(), newRuntime())
	if err == nil {
		t.Fatal("expected init error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodePluginInitFailed {
		t.Fatalf("expected PLUGIN_INIT_FAILED, got %v", err)
	}
	if appErr.Details["plugin"] != "b" {
		t.Errorf("expected failing plugin 'b', got %v", appErr.Details["plugin"])
	}
	if strings.Join(initOrder, ",") != "a,b" {
		t.Errorf("plugins after the failure must not init, got %v", initOrder)
	}

	if err := r.CloseAll(context.Background()); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}
	if strings.Join(closeOrder, ",") != "a" {
		t.Errorf("only initialized plugins should close, got %v", closeOrder)
	}
}

func TestInitAllRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(panicPlugin{})

	err := r.InitAll(context.Background(), newRuntime())
	if !errors.HasCode(err, errors.ErrCodePluginInitFailed) {
		t.Fatalf("expected PLUGIN_INIT_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "nil window") {
		t.Errorf("expected panic value in error, got %q", err.Error())
	}
}

func TestCloseAllReverseOrder(t *testing.T) {
	var closeOrder []string
	r := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		r.Register(&mockPlugin{name: name, closeOrd: &closeOrder})
	}
	r.InitAll(context.Background(), newRuntime())

	if err := r.CloseAll(context.Background()); err != nil {
		t.Fatalf("CloseAll failed: %v", err)
	}
	if strings.Join(closeOrder, ",") != "c,b,a" {
		t.Errorf("expected reverse close order, got %v", closeOrder)
	}

	closeOrder = nil
	r.CloseAll(context.Background())
	if len(closeOrder) != 0 {
		t.Errorf("second CloseAll should be a no-op, got %v", closeOrder)
	}
}

func TestCloseAllCollectsErrors(t *testing.T) {
	var closeOrder []string
	r := NewRegistry()
	r.Register(&mockPlugin{name: "a", closeOrd: &closeOrder})
	r.Register(&mockPlugin{name: "b", closeOrd: &closeOrder, closeErr: fmt.Errorf("busy")})
	r.InitAll(context.Background(), newRuntime())

	err := r.CloseAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Fatalf("expected close error, got %v", err)
	}
	if len(closeOrder) != 2 {
		t.Errorf("every plugin should be closed despite errors, got %v", closeOrder)
	}
}

func TestStartAllAndWait(t *testing.T) {
	p := &mockPlugin{name: "bg", started: make(chan struct{})}
	r := NewRegistry()
	r.Register(p)
	r.Register(&mockPlugin{name: "second"})
	r.InitAll(context.Background(), newRuntime())

	ctx, cancel := context.WithCancel(context.Background())
	r.StartAll(ctx)

	select {
	case <-p.started:
	case <-time.After(time.Second):
		t.Fatal("starter was not launched")
	}

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}

func TestGetAndDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockPlugin{name: "plain"})
	r.Register(&describedPlugin{mockPlugin{name: "described"}})

	if r.Get("plain") == nil || r.Get("missing") != nil {
		t.Error("unexpected Get results")
	}

	descs := r.Describe()
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptions, got %d", len(descs))
	}
	if descs[0].Name != "plain" || descs[0].Details != "" {
		t.Errorf("unexpected default description %+v", descs[0])
	}
	if descs[1].Details != "2 endpoints" {
		t.Errorf("unexpected description %+v", descs[1])
	}
}
