package host

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lumison/lumison/logger"
)

// Loop is an in-process Host and Runtime. Events are queued by Emit and
// dispatched on the goroutine that called Run.
type Loop struct {
	listeners Listeners

	sessionID string
	windows   []*loopWindow
	signals   bool
	onEnter   func(Runtime)
	log       *logger.Logger

	mu    sync.Mutex
	queue []Event
	wake  chan struct{}

	done     chan struct{}
	doneOnce sync.Once
	exitCode atomic.Int32
	started  atomic.Bool
	entered  atomic.Bool
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithWindow adds a window to the runtime. Labels are looked up in the
// order windows were added.
func WithWindow(label, title string) LoopOption {
	return func(l *Loop) {
		l.windows = append(l.windows, &loopWindow{label: label, title: title, rt: l})
	}
}

// WithSignals controls whether SIGINT/SIGTERM stop the loop. Enabled by default.
func WithSignals(enabled bool) LoopOption {
	return func(l *Loop) { l.signals = enabled }
}

// WithOnEnter registers a callback invoked on the loop goroutine right
// after the loop is entered.
func WithOnEnter(fn func(Runtime)) LoopOption {
	return func(l *Loop) { l.onEnter = fn }
}

// WithLoopLogger sets the logger used by the loop.
func WithLoopLogger(log *logger.Logger) LoopOption {
	return func(l *Loop) { l.log = log }
}

// NewLoop creates a loop host with a fresh session id.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		sessionID: uuid.NewString(),
		signals:   true,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.WithComponent("host")
	}
	l.log = l.log.WithFields(logger.Fields(logger.FieldHost, l.Name(), logger.FieldSessionID, l.sessionID))
	return l
}

// Name implements Host.
func (l *Loop) Name() string { return "loop" }

// Run implements Host. A Loop can be run once.
func (l *Loop) Run(ctx context.Context, boot BootFunc) error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("host loop already run")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := boot(runCtx, l); err != nil {
		l.log.Debug("Boot failed, event loop not entered", logger.ErrorFields("boot", err))
		return err
	}

	var sigCh chan os.Signal
	if l.signals {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	l.entered.Store(true)
	l.log.Info("Event loop entered")
	if l.onEnter != nil {
		l.onEnter(l)
	}

	for {
		l.drain()
		select {
		case <-l.wake:
		case <-l.done:
			l.drain()
			l.log.Info("Event loop exited", map[string]interface{}{"exit_code": l.ExitCode()})
			return nil
		case sig := <-sigCh:
			l.log.Info("Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			l.Exit(0)
		case <-ctx.Done():
			l.log.Info("Context canceled, leaving event loop")
			return nil
		}
	}
}

// Entered reports whether Run reached the event loop.
func (l *Loop) Entered() bool { return l.entered.Load() }

// Stop is Exit(0).
func (l *Loop) Stop() { l.Exit(0) }

// Done is closed once Exit has been called.
func (l *Loop) Done() <-chan struct{} { return l.done }

// SessionID implements Runtime.
func (l *Loop) SessionID() string { return l.sessionID }

// Window implements Runtime.
func (l *Loop) Window(label string) (Window, bool) {
	for _, w := range l.windows {
		if w.label == label {
			return w, true
		}
	}
	return nil, false
}

// Windows implements Runtime.
func (l *Loop) Windows() []Window {
	out := make([]Window, 0, len(l.windows))
	for _, w := range l.windows {
		out = append(out, w)
	}
	return out
}

// Emit implements Runtime. Events emitted before the loop is entered are
// delivered once it is.
func (l *Loop) Emit(name string, data any) {
	l.mu.Lock()
	l.queue = append(l.queue, Event{Name: name, Data: data, At: time.Now()})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Listen implements Runtime.
func (l *Loop) Listen(name string, h Handler) func() {
	return l.listeners.Add(name, h)
}

// Exit implements Runtime. Only the first call sets the exit code.
func (l *Loop) Exit(code int) {
	l.doneOnce.Do(func() {
		l.exitCode.Store(int32(code))
		l.Emit(EventExitRequested, map[string]interface{}{"code": code})
		close(l.done)
	})
}

// ExitCode implements Runtime.
func (l *Loop) ExitCode() int { return int(l.exitCode.Load()) }

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, e := range batch {
			l.listeners.Dispatch(e)
		}
	}
}

type loopWindow struct {
	label    string
	title    string
	rt       *Loop
	devtools atomic.Bool
}

func (w *loopWindow) Label() string { return w.label }
func (w *loopWindow) Title() string { return w.title }

func (w *loopWindow) OpenDevtools() error {
	if w.devtools.CompareAndSwap(false, true) {
		w.rt.Emit(EventDevtoolsOpened, map[string]interface{}{"window": w.label})
	}
	return nil
}

func (w *loopWindow) IsDevtoolsOpen() bool { return w.devtools.Load() }
