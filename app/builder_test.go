package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/platform"
)

// recorder collects lifecycle events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(e string) int {
	n := 0
	for _, got := range r.list() {
		if got == e {
			n++
		}
	}
	return n
}

// fakePlugin implements plugin.Plugin and plugin.Closer.
type fakePlugin struct {
	name    string
	rec     *recorder
	initErr error
}

func (p *fakePlugin) Name() string { return p.name }
func (p *fakePlugin) Init(ctx context.Context, rt host.Runtime) error {
	p.rec.add("init:" + p.name)
	return p.initErr
}
func (p *fakePlugin) Close(ctx context.Context) error {
	p.rec.add("close:" + p.name)
	return nil
}

// starterPlugin records when its background work starts and stops.
type starterPlugin struct {
	fakePlugin
}

func (p *starterPlugin) Start(ctx context.Context) {
	p.rec.add("start:" + p.name)
	<-ctx.Done()
	p.rec.add("stop:" + p.name)
}

// newLoop returns a loop host with a main window that exits as soon as
// the event loop is entered.
func newLoop(rec *recorder, opts ...host.LoopOption) *host.Loop {
	base := []host.LoopOption{
		host.WithSignals(false),
		host.WithWindow(host.MainWindow, "Lumison"),
		host.WithOnEnter(func(rt host.Runtime) {
			rec.add("loop")
			rt.Exit(0)
		}),
	}
	return host.NewLoop(append(base, opts...)...)
}

func newBuilder(h host.Host, opts ...Option) *Builder {
	return New(append([]Option{WithHost(h), WithSummaryWriter(nil)}, opts...)...)
}

func TestNew(t *testing.T) {
	b := New(WithSummaryWriter(nil))
	if b.State() != Configuring {
		t.Errorf("expected Configuring, got %s", b.State())
	}
	if len(b.Plugins()) != 0 {
		t.Errorf("expected no plugins, got %v", b.Plugins())
	}
	if b.ExitCode() != 0 {
		t.Errorf("expected exit code 0 before run, got %d", b.ExitCode())
	}
}

func TestSetupMisuse(t *testing.T) {
	tests := []struct {
		name string
		fn   func(b *Builder)
	}{
		{"second hook", func(b *Builder) {
			b.Setup(func(*Context) error { return nil })
			b.Setup(func(*Context) error { return nil })
		}},
		{"nil hook", func(b *Builder) { b.Setup(nil) }},
		{"nil plugin", func(b *Builder) { b.Plugin(nil) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tc.fn(New(WithSummaryWriter(nil)))
		})
	}
}

func TestConfigureAfterRunPanics(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec))
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic when adding a plugin to a consumed builder")
		}
	}()
	b.Plugin(&fakePlugin{name: "late", rec: rec})
}

func TestRunLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec)).
		Plugin(&fakePlugin{name: "updater", rec: rec}).
		Plugin(&fakePlugin{name: "process", rec: rec}).
		Setup(func(c *Context) error {
			rec.add("setup")
			return nil
		})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "init:updater,init:process,setup,loop,close:process,close:updater"
	if got := strings.Join(rec.list(), ","); got != want {
		t.Errorf("unexpected lifecycle order\n got: %s\nwant: %s", got, want)
	}
	if b.State() != Terminated {
		t.Errorf("expected Terminated, got %s", b.State())
	}
	if strings.Join(b.Plugins(), ",") != "updater,process" {
		t.Errorf("unexpected plugins %v", b.Plugins())
	}
}

func TestRunWithoutSetupHook(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec)).Plugin(&fakePlugin{name: "process", rec: rec})
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.count("loop") != 1 {
		t.Error("expected the event loop to be entered")
	}
}

func TestRunTwice(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec)).Setup(func(*Context) error {
		rec.add("setup")
		return nil
	})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	err := b.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodeAlreadyRun) {
		t.Fatalf("expected ALREADY_RUN, got %v", err)
	}
	if !stderrors.Is(err, ErrAlreadyRun) {
		t.Error("expected errors.Is(err, ErrAlreadyRun)")
	}
	if errors.IsFatal(err) {
		t.Error("ALREADY_RUN should not be a fatal startup error")
	}
	if rec.count("setup") != 1 || rec.count("loop") != 1 {
		t.Errorf("second Run must have no side effects, got %v", rec.list())
	}
	if b.State() != Terminated {
		t.Errorf("state changed by second Run: %s", b.State())
	}
}

func TestRunSetupFailureAborts(t *testing.T) {
	rec := &recorder{}
	cause := fmt.Errorf("audio device unavailable")
	b := newBuilder(newLoop(rec)).
		Plugin(&fakePlugin{name: "process", rec: rec}).
		Setup(func(*Context) error { return cause })

	err := b.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodeSetupFailed) {
		t.Fatalf("expected SETUP_FAILED, got %v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected the hook error as cause")
	}
	if !errors.IsFatal(err) {
		t.Error("setup failure should be fatal")
	}
	if rec.count("loop") != 0 {
		t.Error("event loop must not be entered after a setup failure")
	}
	if b.State() != Aborted {
		t.Errorf("expected Aborted, got %s", b.State())
	}
	if rec.count("close:process") != 1 {
		t.Errorf("initialized plugins should be released on abort, got %v", rec.list())
	}
}

func TestRunSetupPanicRecovered(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec)).Setup(func(*Context) error {
		panic("window handle is nil")
	})

	err := b.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodeSetupFailed) {
		t.Fatalf("expected SETUP_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "window handle is nil") {
		t.Errorf("expected panic value in error, got %q", err.Error())
	}
	if rec.count("loop") != 0 {
		t.Error("event loop must not be entered after a panic in setup")
	}
}

func TestRunPluginInitFailureSkipsSetup(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec)).
		Plugin(&fakePlugin{name: "updater", rec: rec}).
		Plugin(&fakePlugin{name: "process", rec: rec, initErr: fmt.Errorf("no executable path")}).
		Setup(func(*Context) error {
			rec.add("setup")
			return nil
		})

	err := b.Run(context.Background())
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodePluginInitFailed {
		t.Fatalf("expected PLUGIN_INIT_FAILED, got %v", err)
	}
	if appErr.Details["plugin"] != "process" {
		t.Errorf("expected failing plugin 'process', got %v", appErr.Details["plugin"])
	}
	if rec.count("setup") != 0 || rec.count("loop") != 0 {
		t.Errorf("setup and loop must not run after a plugin failure, got %v", rec.list())
	}
	if b.State() != Aborted {
		t.Errorf("expected Aborted, got %s", b.State())
	}
	want := "init:updater,init:process,close:updater"
	if got := strings.Join(rec.list(), ","); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRunDuplicatePluginName(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec)).
		Plugin(&fakePlugin{name: "updater", rec: rec}).
		Plugin(&fakePlugin{name: "updater", rec: rec})

	err := b.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodePluginInitFailed) {
		t.Fatalf("expected PLUGIN_INIT_FAILED, got %v", err)
	}
	if rec.count("init:updater") != 0 {
		t.Error("no plugin should initialize when registration fails")
	}
}

func TestMainWindowMissing(t *testing.T) {
	rec := &recorder{}
	h := host.NewLoop(host.WithSignals(false), host.WithOnEnter(func(rt host.Runtime) {
		rec.add("loop")
		rt.Exit(0)
	}))
	b := newBuilder(h).Setup(func(c *Context) error {
		w, err := c.MainWindow()
		if err != nil {
			return err
		}
		return w.OpenDevtools()
	})

	err := b.Run(context.Background())
	if !errors.HasCode(err, errors.ErrCodePreconditionViolation) {
		t.Fatalf("expected PRECONDITION_VIOLATION, got %v", err)
	}
	if !errors.IsFatal(err) {
		t.Error("precondition violation should be fatal")
	}
	if rec.count("loop") != 0 {
		t.Error("event loop must not be entered")
	}
}

func TestMainWindowLabel(t *testing.T) {
	tests := []struct {
		name    string
		windows []string
		opts    []Option
		want    string
	}{
		{"default label", []string{host.MainWindow}, nil, host.MainWindow},
		{"configured label", []string{"visualizer"}, []Option{WithMainWindow("visualizer")}, "visualizer"},
		{"configured among several", []string{"splash", "visualizer"}, []Option{WithMainWindow("visualizer")}, "visualizer"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loopOpts := []host.LoopOption{host.WithSignals(false), host.WithOnEnter(func(rt host.Runtime) { rt.Exit(0) })}
			for _, label := range tc.windows {
				loopOpts = append(loopOpts, host.WithWindow(label, label))
			}
			var got string
			b := newBuilder(host.NewLoop(loopOpts...), tc.opts...).Setup(func(c *Context) error {
				w, err := c.MainWindow()
				if err != nil {
					return err
				}
				got = w.Label()
				return nil
			})
			if err := b.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != tc.want {
				t.Errorf("main window = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDefaultHostUsesMainWindowLabel(t *testing.T) {
	b := New(WithSummaryWriter(nil), WithMainWindow("visualizer"))
	loop, ok := b.host.(*host.Loop)
	if !ok {
		t.Fatalf("default host is %T", b.host)
	}
	if _, ok := loop.Window("visualizer"); !ok {
		t.Error("default loop did not create the configured main window")
	}
}

func TestContextInvalidAfterSetup(t *testing.T) {
	rec := &recorder{}
	var kept *Context
	b := newBuilder(newLoop(rec)).Setup(func(c *Context) error {
		kept = c
		if _, err := c.MainWindow(); err != nil {
			return err
		}
		if _, err := c.Runtime(); err != nil {
			return err
		}
		return nil
	})
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	checks := map[string]func() error{
		"MainWindow": func() error { _, err := kept.MainWindow(); return err },
		"Runtime":    func() error { _, err := kept.Runtime(); return err },
		"SessionID":  func() error { _, err := kept.SessionID(); return err },
		"Plugin":     func() error { _, err := kept.Plugin("updater"); return err },
		"Go":         func() error { return kept.Go(func(context.Context) {}) },
	}
	for name, check := range checks {
		if err := check(); !errors.HasCode(err, errors.ErrCodePreconditionViolation) {
			t.Errorf("%s after setup: expected PRECONDITION_VIOLATION, got %v", name, err)
		}
	}
}

func TestContextAccessors(t *testing.T) {
	rec := &recorder{}
	b := newBuilder(newLoop(rec), WithPlatform(platform.Mobile), WithProfile(platform.Release)).
		Plugin(&fakePlugin{name: "process", rec: rec}).
		Setup(func(c *Context) error {
			if c.Platform() != platform.Mobile || c.Profile() != platform.Release {
				return fmt.Errorf("unexpected platform/profile %s/%s", c.Platform(), c.Profile())
			}
			if id, err := c.SessionID(); err != nil || id == "" {
				return fmt.Errorf("session id: %q, %v", id, err)
			}
			if p, err := c.Plugin("process"); err != nil || p.Name() != "process" {
				return fmt.Errorf("plugin lookup: %v", err)
			}
			if _, err := c.Plugin("updater"); !errors.HasCode(err, errors.ErrCodePreconditionViolation) {
				return fmt.Errorf("expected missing plugin to be a precondition violation, got %v", err)
			}
			if _, err := c.Window("visualizer"); err == nil {
				return fmt.Errorf("expected unknown window to fail")
			}
			if c.Logger() == nil || c.Context() == nil {
				return fmt.Errorf("expected logger and context")
			}
			return nil
		})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestBackgroundWorkAfterSetup(t *testing.T) {
	rec := &recorder{}
	taskStopped := make(chan struct{})

	h := newLoop(rec)
	b := newBuilder(h).
		Plugin(&starterPlugin{fakePlugin{name: "updater", rec: rec}}).
		Setup(func(c *Context) error {
			rec.add("setup")
			return c.Go(func(ctx context.Context) {
				<-ctx.Done()
				close(taskStopped)
			})
		})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case <-taskStopped:
	case <-time.After(time.Second):
		t.Fatal("scheduled task was not canceled on exit")
	}

	events := rec.list()
	index := func(e string) int {
		for i, got := range events {
			if got == e {
				return i
			}
		}
		return -1
	}
	if index("start:updater") < index("setup") {
		t.Errorf("background work must start after setup, got %v", events)
	}
	if index("stop:updater") == -1 || index("stop:updater") > index("close:updater") {
		t.Errorf("background work must stop before close, got %v", events)
	}
}

func TestExitCode(t *testing.T) {
	h := host.NewLoop(host.WithSignals(false), host.WithWindow(host.MainWindow, "Lumison"),
		host.WithOnEnter(func(rt host.Runtime) { rt.Exit(7) }))
	b := newBuilder(h)
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.ExitCode() != 7 {
		t.Errorf("expected exit code 7, got %d", b.ExitCode())
	}
}

func TestRunContextCanceled(t *testing.T) {
	h := host.NewLoop(host.WithSignals(false), host.WithWindow(host.MainWindow, "Lumison"))
	b := newBuilder(h)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	deadline := time.After(time.Second)
	for !h.Entered() {
		select {
		case <-deadline:
			t.Fatal("loop was not entered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if b.State() != Running {
		t.Errorf("expected Running inside the loop, got %s", b.State())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStartupSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	rec := &recorder{}
	b := newBuilder(newLoop(rec)).
		Plugin(&fakePlugin{name: "process", rec: rec}).
		Setup(func(*Context) error { return nil })
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	names := map[string]bool{}
	for _, s := range sr.Ended() {
		names[s.Name()] = true
	}
	for _, want := range []string{"startup", "plugins.init", "setup"} {
		if !names[want] {
			t.Errorf("expected span %q, got %v", want, names)
		}
	}
}

func TestSummaryOutput(t *testing.T) {
	rec := &recorder{}
	var buf bytes.Buffer
	b := New(WithHost(newLoop(rec)), WithSummaryWriter(&buf), WithName("lumison"), WithVersion("0.4.0")).
		Plugin(&fakePlugin{name: "updater", rec: rec}).
		Setup(func(c *Context) error {
			w, err := c.MainWindow()
			if err != nil {
				return err
			}
			return w.OpenDevtools()
		})
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"lumison 0.4.0 started", "main: \"Lumison\" [devtools]", "updater"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Uninitialized: "uninitialized",
		Configuring:   "configuring",
		Running:       "running",
		Terminated:    "terminated",
		Aborted:       "aborted",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("expected %q, got %q", want, s.String())
		}
	}
}
