//go:build desktop

package wailshost

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/lumison/lumison/config"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
)

// Options configures the webview host.
type Options struct {
	Window   config.WindowConfig
	Frontend config.FrontendConfig
	CSP      string

	// Assets holds the built frontend. Defaults to the Frontend.Dist directory.
	Assets fs.FS
	// UseDevServer proxies assets to Frontend.DevURL instead of serving Assets.
	UseDevServer bool
	// Inspector opens the web inspector when the window is created.
	Inspector bool

	Logger *logger.Logger
}

// Host runs the event loop of a Wails application.
type Host struct {
	opts Options
	log  *logger.Logger

	// show and quit drive the native window; replaced in tests.
	show func(context.Context)
	quit func(context.Context)
}

// New creates a webview host.
func New(opts Options) *Host {
	log := opts.Logger
	if log == nil {
		log = logger.WithComponent("host")
	}
	return &Host{
		opts: opts,
		log:  log.WithFields(logger.Fields(logger.FieldHost, "wails")),
		show: wruntime.WindowShow,
		quit: wruntime.Quit,
	}
}

// Name implements host.Host.
func (h *Host) Name() string { return "wails" }

// Run implements host.Host. The window is created hidden and shown only
// after boot succeeds; if boot fails the application quits before the
// window is visible or any frontend event is handled.
func (h *Host) Run(ctx context.Context, boot host.BootFunc) error {
	assets, err := h.assetOptions()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &session{host: h, ctx: runCtx, boot: boot}
	app := &options.App{
		Title:         h.opts.Window.Title,
		Width:         h.opts.Window.Width,
		Height:        h.opts.Window.Height,
		MinWidth:      h.opts.Window.MinWidth,
		MinHeight:     h.opts.Window.MinHeight,
		DisableResize: h.opts.Window.Fixed,
		StartHidden:   true,
		AssetServer:   assets,
		Debug: options.Debug{
			OpenInspectorOnStartup: h.opts.Inspector,
		},
		OnStartup:  s.startup,
		OnShutdown: func(context.Context) { s.shutdown() },
	}

	err = wails.Run(app)
	if bootErr := s.bootErr(); bootErr != nil {
		return bootErr
	}
	if err != nil {
		return err
	}
	h.log.Info("Event loop exited")
	return nil
}

// session carries one Run between the Wails callbacks, which run on
// goroutines other than the one blocked in wails.Run.
type session struct {
	host *Host
	ctx  context.Context
	boot host.BootFunc

	mu  sync.Mutex
	err error
	rt  *runtimeAdapter
}

func (s *session) startup(wctx context.Context) {
	h := s.host
	rt := newRuntime(wctx, h.opts.Window, h.opts.Inspector)
	s.mu.Lock()
	s.rt = rt
	s.mu.Unlock()

	if err := s.boot(s.ctx, rt); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		h.quit(wctx)
		return
	}
	h.show(wctx)
	h.log.Info("Event loop entered", logger.Fields(logger.FieldSessionID, rt.SessionID()))
	go func() {
		select {
		case <-s.ctx.Done():
			h.quit(wctx)
		case <-rt.done:
		}
	}()
}

func (s *session) shutdown() {
	s.mu.Lock()
	rt := s.rt
	s.mu.Unlock()
	if rt != nil {
		rt.markDone()
	}
}

func (s *session) bootErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (h *Host) assetOptions() (*assetserver.Options, error) {
	opts := &assetserver.Options{
		Middleware: CSPMiddleware(h.opts.CSP),
	}
	if h.opts.UseDevServer && h.opts.Frontend.DevURL != "" {
		proxy, err := DevServerHandler(h.opts.Frontend.DevURL)
		if err != nil {
			return nil, err
		}
		opts.Handler = proxy
		return opts, nil
	}
	opts.Assets = h.opts.Assets
	if opts.Assets == nil {
		opts.Assets = os.DirFS(h.opts.Frontend.Dist)
	}
	return opts, nil
}

type runtimeAdapter struct {
	wctx      context.Context
	sessionID string
	window    *wailsWindow
	wildcard  host.Listeners
	exitCode  atomic.Int32
	exitOnce  sync.Once
	done      chan struct{}
	doneOnce  sync.Once
}

func newRuntime(wctx context.Context, win config.WindowConfig, inspector bool) *runtimeAdapter {
	rt := &runtimeAdapter{
		wctx:      wctx,
		sessionID: uuid.NewString(),
		done:      make(chan struct{}),
	}
	rt.window = &wailsWindow{label: win.Label, title: win.Title, rt: rt}
	rt.window.devtools.Store(inspector)
	return rt
}

func (r *runtimeAdapter) SessionID() string { return r.sessionID }

func (r *runtimeAdapter) Window(label string) (host.Window, bool) {
	if r.window.label == label {
		return r.window, true
	}
	return nil, false
}

func (r *runtimeAdapter) Windows() []host.Window { return []host.Window{r.window} }

func (r *runtimeAdapter) Emit(name string, data any) {
	wruntime.EventsEmit(r.wctx, name, data)
	r.wildcard.Dispatch(host.Event{Name: name, Data: data, At: time.Now()})
}

// Listen bridges named events through the Wails event bus so that events
// emitted by the frontend reach Go handlers too. "*" only sees Go-side emits.
func (r *runtimeAdapter) Listen(name string, h host.Handler) func() {
	if name == "*" {
		return r.wildcard.Add(name, h)
	}
	return wruntime.EventsOn(r.wctx, name, func(data ...interface{}) {
		e := host.Event{Name: name, At: time.Now()}
		if len(data) == 1 {
			e.Data = data[0]
		} else if len(data) > 1 {
			e.Data = data
		}
		h(e)
	})
}

func (r *runtimeAdapter) Exit(code int) {
	r.exitOnce.Do(func() {
		r.exitCode.Store(int32(code))
		wruntime.Quit(r.wctx)
	})
}

func (r *runtimeAdapter) ExitCode() int { return int(r.exitCode.Load()) }

func (r *runtimeAdapter) markDone() {
	r.doneOnce.Do(func() { close(r.done) })
}

type wailsWindow struct {
	label    string
	title    string
	rt       *runtimeAdapter
	devtools atomic.Bool
}

func (w *wailsWindow) Label() string { return w.label }
func (w *wailsWindow) Title() string { return w.title }

// OpenDevtools marks the inspector open and notifies the frontend. Wails
// only opens the native inspector at window creation (Options.Inspector).
func (w *wailsWindow) OpenDevtools() error {
	if w.devtools.CompareAndSwap(false, true) {
		w.rt.Emit(host.EventDevtoolsOpened, map[string]interface{}{"window": w.label})
	}
	return nil
}

func (w *wailsWindow) IsDevtoolsOpen() bool { return w.devtools.Load() }
