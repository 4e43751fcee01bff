package devtools

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/platform"
	"github.com/lumison/lumison/plugin"
	"github.com/lumison/lumison/version"
)

// Options describe what the inspector reports on.
type Options struct {
	Name     string
	Version  string
	Platform platform.Platform
	Profile  platform.Profile
	Runtime  host.Runtime
	Plugins  []plugin.Plugin
	Logger   *logger.Logger
}

// Server is the inspector HTTP server. It subscribes to every runtime
// event on creation, so it must be created while the runtime is live.
type Server struct {
	cfg     Config
	opts    Options
	engine  *gin.Engine
	handler http.Handler
	events  *eventLog
	stream  *broadcaster
	stop    func()
	started time.Time
	log     *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates an inspector for opts.Runtime. cfg defaults are applied.
func New(cfg Config, opts Options) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Runtime == nil {
		return nil, errors.PreconditionViolation("devtools inspector requires a live runtime")
	}
	if opts.Logger == nil {
		opts.Logger = logger.WithComponent("devtools")
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		opts:    opts,
		engine:  gin.New(),
		events:  newEventLog(cfg.EventBuffer),
		stream:  newBroadcaster(opts.Logger),
		started: time.Now(),
		log:     opts.Logger,
	}
	s.stop = opts.Runtime.Listen("*", s.onEvent)

	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log))
	s.routes()

	s.handler = h2c.NewHandler(s.engine, &http2.Server{
		MaxConcurrentStreams: 64,
		IdleTimeout:          120 * time.Second,
	})
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/runtime", s.runtime)
	s.engine.GET("/windows", s.windows)
	s.engine.POST("/windows/:label/devtools", s.openDevtools)
	s.engine.GET("/plugins", s.plugins)
	s.engine.GET("/events", s.listEvents)
	s.engine.GET("/events/stream", s.streamEvents)
}

func (s *Server) onEvent(e host.Event) {
	s.stream.publish(s.events.record(e))
}

// Handler returns the inspector's HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr returns the bound address once Serve is listening, or the
// configured address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Serve binds the configured address and serves until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	defer s.stop()

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("devtools inspector failed to bind %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("Devtools inspector listening", logger.Fields("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("devtools inspector: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.stream.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devtools inspector shutdown: %w", err)
	}
	s.log.Debug("Devtools inspector stopped")
	return nil
}

// Start runs Serve and logs its failure. It has the shape of a background
// task so it can be scheduled from the setup hook.
func (s *Server) Start(ctx context.Context) {
	if err := s.Serve(ctx); err != nil {
		s.log.Error("Devtools inspector failed", logger.ErrorFields("serve", err))
	}
}

func (s *Server) health(c *gin.Context) {
	h := observability.NewReport(s.opts.Name, s.opts.Version, s.opts.Runtime.SessionID())
	for _, p := range s.opts.Plugins {
		if checker, ok := p.(observability.HealthChecker); ok {
			ch := checker.CheckHealth(c.Request.Context())
			if ch.Name == "" {
				ch.Name = p.Name()
			}
			h.Add(ch)
		}
	}

	status := http.StatusOK
	if h.Status == observability.StatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, h)
}

func (s *Server) runtime(c *gin.Context) {
	v := version.GetVersionInfo()
	c.JSON(http.StatusOK, gin.H{
		"name":       s.opts.Name,
		"version":    s.opts.Version,
		"session_id": s.opts.Runtime.SessionID(),
		"platform":   s.opts.Platform.String(),
		"profile":    s.opts.Profile.String(),
		"target":     v.Target,
		"git_commit": v.GitCommit,
		"build_time": v.BuildTime,
		"go_version": v.GoVersion,
		"uptime":     time.Since(s.started).String(),
		"exit_code":  s.opts.Runtime.ExitCode(),
	})
}

type windowView struct {
	Label    string `json:"label"`
	Title    string `json:"title"`
	Devtools bool   `json:"devtools"`
}

func viewWindow(w host.Window) windowView {
	return windowView{Label: w.Label(), Title: w.Title(), Devtools: w.IsDevtoolsOpen()}
}

func (s *Server) windows(c *gin.Context) {
	ws := s.opts.Runtime.Windows()
	out := make([]windowView, 0, len(ws))
	for _, w := range ws {
		out = append(out, viewWindow(w))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) openDevtools(c *gin.Context) {
	label := c.Param("label")
	w, ok := s.opts.Runtime.Window(label)
	if !ok {
		respondError(c, errors.PreconditionViolation("window "+label+" does not exist").
			WithDetail(logger.FieldWindow, label))
		return
	}
	if err := w.OpenDevtools(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewWindow(w))
}

type pluginView struct {
	Name    string `json:"name"`
	Details string `json:"details,omitempty"`
}

func (s *Server) plugins(c *gin.Context) {
	out := make([]pluginView, 0, len(s.opts.Plugins))
	for _, p := range s.opts.Plugins {
		v := pluginView{Name: p.Name()}
		if d, ok := p.(plugin.Describer); ok {
			v.Details = d.Describe().Details
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, errors.New(errors.ErrCodeConfigInvalid, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, s.events.snapshot(limit))
}

// respondError writes err as a JSON body with a status derived from its code.
func respondError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case errors.ErrCodeConfigInvalid:
		status = http.StatusBadRequest
	case errors.ErrCodePreconditionViolation:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	})
}
