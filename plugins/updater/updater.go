package updater

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/httpclient"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/platform"
	"github.com/lumison/lumison/plugin"
	"github.com/lumison/lumison/plugins/process"
	"github.com/lumison/lumison/version"
)

// Name is the registered plugin name.
const Name = platform.PluginUpdater

// Runtime events emitted by the updater.
const (
	EventAvailable = "updater://available"
	EventProgress  = "updater://progress"
	EventInstalled = "updater://installed"
	EventError     = "updater://error"
)

// Events the updater listens for. Both run in the background; results
// arrive as the events above.
const (
	EventCheck   = "updater://check"
	EventInstall = "updater://install"
)

// Update describes a newer release for the running target.
type Update struct {
	CurrentVersion string
	Version        string
	Body           string
	Date           time.Time
	Target         string
	URL            string
	Signature      string
	Endpoint       string
}

// Updater checks release endpoints for newer versions, downloads the
// artifact for the running target and verifies its signature.
type Updater struct {
	cfg     Config
	current string
	target  string
	client  *httpclient.Client
	metrics *observability.Metrics
	log     *logger.Logger

	pubkey   *PublicKey
	checking atomic.Bool

	mu        sync.RWMutex
	rt        host.Runtime
	unlisten  []func()
	cancel    context.CancelFunc
	bgCtx     context.Context
	work      sync.WaitGroup
	lastCheck time.Time
	lastErr   error
	latest    *Update
}

// Option configures the updater.
type Option func(*Updater)

// WithCurrentVersion overrides the version compared against manifests.
func WithCurrentVersion(v string) Option {
	return func(u *Updater) { u.current = v }
}

// WithTarget overrides the "<os>-<arch>" manifest key.
func WithTarget(target string) Option {
	return func(u *Updater) { u.target = target }
}

// WithClient sets the HTTP client used for manifests and downloads.
func WithClient(c *httpclient.Client) Option {
	return func(u *Updater) { u.client = c }
}

// WithMetrics records check outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(u *Updater) { u.metrics = m }
}

// WithLogger sets the plugin logger.
func WithLogger(l *logger.Logger) Option {
	return func(u *Updater) { u.log = l }
}

// New creates the updater plugin. cfg defaults are applied; validation
// happens in Init.
func New(cfg Config, opts ...Option) *Updater {
	cfg.ApplyDefaults()
	u := &Updater{
		cfg:     cfg,
		current: version.Version,
		target:  version.Target(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.log == nil {
		u.log = logger.WithComponent(Name)
	}
	return u
}

// Name implements plugin.Plugin.
func (u *Updater) Name() string { return Name }

// Init validates the configuration, attaches the runtime and subscribes
// to the frontend check and install events.
func (u *Updater) Init(ctx context.Context, rt host.Runtime) error {
	if err := u.cfg.Validate(); err != nil {
		return err
	}
	if u.cfg.Pubkey != "" {
		pk, err := ParsePublicKey(u.cfg.Pubkey)
		if err != nil {
			return errors.ConfigInvalid("updater.pubkey: " + err.Error())
		}
		u.pubkey = pk
	}
	if u.client == nil {
		retry := u.cfg.Retry.Config()
		retry.RetryIf = httpclient.IsRetryable
		c, err := httpclient.New(httpclient.Config{
			Timeout:   u.cfg.Timeout,
			UserAgent: "lumison/" + u.current,
			Headers:   map[string]string{"Accept": "application/json"},
			Retry:     &retry,
		})
		if err != nil {
			return err
		}
		u.client = c
	}

	u.mu.Lock()
	u.rt = rt
	u.bgCtx, u.cancel = context.WithCancel(context.WithoutCancel(ctx))
	u.unlisten = append(u.unlisten,
		rt.Listen(EventCheck, func(host.Event) {
			u.background("check", func(ctx context.Context) error {
				_, err := u.Check(ctx)
				return err
			})
		}),
		rt.Listen(EventInstall, func(host.Event) {
			u.background("install", func(ctx context.Context) error {
				_, err := u.DownloadAndInstall(ctx, nil)
				return err
			})
		}),
	)
	u.mu.Unlock()

	u.log.Debug("Updater ready", logger.Fields(
		"endpoints", len(u.cfg.Endpoints),
		"target", u.target,
		logger.FieldVersion, u.current,
	))
	return nil
}

// Start runs the startup check and, with an interval configured, the
// periodic checks. Failures are logged; they never stop the application.
func (u *Updater) Start(ctx context.Context) {
	if !u.cfg.Enabled() {
		return
	}
	if u.cfg.CheckOnStartup {
		u.checkAndLog(ctx)
	}
	if u.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(u.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.checkAndLog(ctx)
		}
	}
}

func (u *Updater) checkAndLog(ctx context.Context) {
	if _, err := u.Check(ctx); err != nil && ctx.Err() == nil {
		u.log.Warn("Update check failed", logger.ErrorFields("check", err))
	}
}

// Check fetches the manifest from the first endpoint that answers and
// returns the update if it is newer than the running version and has an
// artifact for this target. It returns nil when there is nothing to do,
// including when another check is already in flight.
func (u *Updater) Check(ctx context.Context) (*Update, error) {
	if !u.checking.CompareAndSwap(false, true) {
		u.log.Debug("Update check already in progress")
		return nil, nil
	}
	defer u.checking.Store(false)

	rt, err := u.runtime()
	if err != nil {
		return nil, err
	}
	if !u.cfg.Enabled() {
		return nil, nil
	}

	ctx, phase := observability.StartPhase(ctx, observability.SpanUpdateCheck)
	upd, err := u.check(ctx)
	phase.End(err)

	u.mu.Lock()
	u.lastCheck = time.Now()
	u.lastErr = err
	if err == nil {
		u.latest = upd
	}
	u.mu.Unlock()

	switch {
	case err != nil:
		u.record(ctx, "error")
		return nil, err
	case upd == nil:
		u.record(ctx, "none")
		u.log.Info("No update available", logger.Fields(logger.FieldVersion, u.current))
		return nil, nil
	}

	u.record(ctx, "available")
	u.log.Info("Update available", logger.Fields(
		"current_version", upd.CurrentVersion,
		"version", upd.Version,
	))
	rt.Emit(EventAvailable, map[string]interface{}{
		"current_version": upd.CurrentVersion,
		"version":         upd.Version,
		"body":            upd.Body,
	})
	return upd, nil
}

func (u *Updater) check(ctx context.Context) (*Update, error) {
	var lastErr error
	for _, endpoint := range u.cfg.Endpoints {
		m, err := u.fetchManifest(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.UpdateCheckFailed(endpoint, ctx.Err())
			}
			u.log.Debug("Endpoint failed, trying next", logger.Fields("endpoint", endpoint, logger.FieldError, err.Error()))
			lastErr = errors.UpdateCheckFailed(endpoint, err)
			continue
		}

		if !m.newerThan(u.current) {
			return nil, nil
		}
		rel, ok := m.Release(u.target)
		if !ok {
			u.log.Info("Newer release has no artifact for this target", logger.Fields(
				"version", m.Version,
				"target", u.target,
			))
			return nil, nil
		}
		return &Update{
			CurrentVersion: u.current,
			Version:        m.Version,
			Body:           m.Notes,
			Date:           m.Date(),
			Target:         u.target,
			URL:            rel.URL,
			Signature:      rel.Signature,
			Endpoint:       endpoint,
		}, nil
	}
	return nil, lastErr
}

func (u *Updater) fetchManifest(ctx context.Context, endpoint string) (*Manifest, error) {
	resp, err := u.client.Do(ctx, httpclient.Request{URL: expandEndpoint(endpoint, u.target, u.current)})
	if err != nil {
		return nil, err
	}
	return parseManifest(resp.Body)
}

// expandEndpoint substitutes {{target}}, {{arch}} and {{current_version}}
// placeholders in an endpoint URL.
func expandEndpoint(endpoint, target, current string) string {
	arch := target
	if i := strings.IndexByte(target, '-'); i >= 0 {
		arch = target[i+1:]
	}
	return strings.NewReplacer(
		"{{target}}", target,
		"{{arch}}", arch,
		"{{current_version}}", current,
	).Replace(endpoint)
}

// Download streams the update artifact, reporting progress to onProgress
// (which may be nil) and as runtime events, then verifies the signature.
func (u *Updater) Download(ctx context.Context, upd *Update, onProgress func(DownloadEvent)) ([]byte, error) {
	rt, err := u.runtime()
	if err != nil {
		return nil, err
	}
	if upd == nil {
		return nil, errors.PreconditionViolation("download requires an update")
	}
	if u.pubkey == nil {
		return nil, errors.SignatureInvalid("no public key configured")
	}

	stream, err := u.client.DoStream(ctx, httpclient.Request{URL: upd.URL})
	if err != nil {
		return nil, errors.UpdateCheckFailed(upd.URL, err)
	}
	defer stream.Close()

	report := func(e DownloadEvent) {
		if onProgress != nil {
			onProgress(e)
		}
		rt.Emit(EventProgress, e)
	}

	total := stream.ContentLength
	if total < 0 {
		total = 0
	}
	report(DownloadEvent{Kind: DownloadStarted, ContentLength: total})

	pw := &progressWriter{total: total, report: report}
	data, err := io.ReadAll(io.TeeReader(stream.Body, pw))
	if err != nil {
		return nil, errors.UpdateCheckFailed(upd.URL, fmt.Errorf("read artifact: %w", err))
	}
	report(DownloadEvent{Kind: DownloadFinished, Downloaded: int64(len(data)), ContentLength: total})

	if err := u.pubkey.Verify(data, upd.Signature); err != nil {
		u.log.Error("Artifact signature rejected", logger.MergeWithError(logger.Fields("version", upd.Version), err))
		return nil, err
	}
	return data, nil
}

// Install writes a verified artifact to the staging directory and reports
// its path.
func (u *Updater) Install(ctx context.Context, upd *Update, data []byte) (string, error) {
	rt, err := u.runtime()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(u.cfg.StagingDir, 0o755); err != nil {
		return "", errors.Internal(fmt.Errorf("create staging dir: %w", err))
	}

	dest := filepath.Join(u.cfg.StagingDir, artifactName(upd))
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, data, 0o755); err != nil {
		return "", errors.Internal(fmt.Errorf("write artifact: %w", err))
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Internal(fmt.Errorf("stage artifact: %w", err))
	}

	u.log.Info("Update staged", logger.Fields("version", upd.Version, "path", dest))
	rt.Emit(EventInstalled, map[string]interface{}{"version": upd.Version, "path": dest})
	return dest, nil
}

// DownloadAndInstall checks for an update, downloads, verifies and stages
// it, then requests a relaunch if configured. It reports whether an update
// was installed.
func (u *Updater) DownloadAndInstall(ctx context.Context, onProgress func(DownloadEvent)) (bool, error) {
	upd, err := u.Check(ctx)
	if err != nil || upd == nil {
		return false, err
	}
	data, err := u.Download(ctx, upd, onProgress)
	if err != nil {
		return false, err
	}
	if _, err := u.Install(ctx, upd, data); err != nil {
		return false, err
	}
	if u.cfg.Relaunch {
		if rt, err := u.runtime(); err == nil {
			rt.Emit(process.EventRestart, nil)
		}
	}
	return true, nil
}

// background runs a frontend request off the event loop. Failures are
// logged and reported as EventError.
func (u *Updater) background(op string, fn func(context.Context) error) {
	u.mu.Lock()
	ctx, rt := u.bgCtx, u.rt
	if ctx == nil || ctx.Err() != nil {
		u.mu.Unlock()
		return
	}
	u.work.Add(1)
	u.mu.Unlock()

	go func() {
		defer u.work.Done()
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			u.log.Warn("Update "+op+" failed", logger.ErrorFields(op, err))
			rt.Emit(EventError, map[string]interface{}{"op": op, "error": err.Error()})
		}
	}()
}

// Close removes the event subscriptions and waits for requests in flight,
// which are canceled.
func (u *Updater) Close(ctx context.Context) error {
	u.mu.Lock()
	for _, stop := range u.unlisten {
		stop()
	}
	u.unlisten = nil
	if u.cancel != nil {
		u.cancel()
	}
	u.mu.Unlock()

	done := make(chan struct{})
	go func() {
		u.work.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the update found by the last successful check, if any.
func (u *Updater) Latest() *Update {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.latest
}

// Describe implements plugin.Describer.
func (u *Updater) Describe() plugin.Description {
	if !u.cfg.Enabled() {
		return plugin.Description{Name: Name, Details: "no endpoints configured"}
	}
	details := fmt.Sprintf("%d endpoint(s)", len(u.cfg.Endpoints))
	if u.cfg.CheckOnStartup {
		details += ", check on startup"
	}
	if u.cfg.Interval > 0 {
		details += ", every " + u.cfg.Interval.String()
	}
	return plugin.Description{Name: Name, Details: details}
}

// CheckHealth implements observability.HealthChecker. A failed last check
// degrades the updater; it never marks the application down.
func (u *Updater) CheckHealth(ctx context.Context) observability.Health {
	u.mu.RLock()
	defer u.mu.RUnlock()

	h := observability.Health{Name: Name, Status: observability.StatusUp, Details: map[string]string{
		"current_version": u.current,
		"target":          u.target,
	}}
	if !u.lastCheck.IsZero() {
		h.Details["last_check"] = u.lastCheck.UTC().Format(time.RFC3339)
	}
	if u.latest != nil {
		h.Details["available"] = u.latest.Version
	}
	if u.lastErr != nil {
		h.Status = observability.StatusDegraded
		h.Message = u.lastErr.Error()
	}
	return h
}

func (u *Updater) runtime() (host.Runtime, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.rt == nil {
		return nil, errors.PreconditionViolation("updater used before Init")
	}
	return u.rt, nil
}

func (u *Updater) record(ctx context.Context, status string) {
	if u.metrics != nil {
		u.metrics.RecordUpdateCheck(ctx, status)
	}
}

// artifactName derives the staged file name from the artifact URL. The
// result is always a plain file name inside the staging directory.
func artifactName(upd *Update) string {
	if parsed, err := url.Parse(upd.URL); err == nil {
		if name := path.Base(parsed.Path); plainFileName(name) {
			return name
		}
	}
	if name := "lumison-" + upd.Version + "-" + upd.Target; plainFileName(name) {
		return name
	}
	return "lumison-update"
}

func plainFileName(name string) bool {
	switch name {
	case "", ".", "..", "/":
		return false
	}
	return !strings.ContainsAny(name, `/\:`) && filepath.Base(name) == name
}
