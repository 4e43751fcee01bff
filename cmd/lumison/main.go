// Command lumison is the desktop entry point.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/lumison/lumison/config"
	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/launcher"
	"github.com/lumison/lumison/launcher/desktop"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/version"
)

const appName = "lumison"

// Exit codes.
const (
	exitOK      = 0
	exitStartup = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to config.yml")
	envFile := flags.String("env-file", "", "path to a .env file")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	showVersion := flags.Bool("version", false, "print the version and exit")

	if err := flags.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	if *showVersion {
		fmt.Printf("%s %s\n", appName, version.GetFullVersion())
		return exitOK
	}

	var cfg desktop.Config
	opts := []config.LoaderOption{
		config.WithFlag("logging.level", flags.Lookup("log-level")),
	}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	if err := config.LoadConfig(appName, &cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitStartup
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		return exitStartup
	}

	logger.Init(cfg.Logging)
	logger.RegisterDefaults("app", "host", "updater", "process", "devtools")
	log := logger.Get("app")

	ctx := context.Background()
	shutdown, err := observability.Setup(ctx, cfg.Telemetry, cfg.Name, cfg.Version)
	if err != nil {
		log.Error("Telemetry setup failed", logger.ErrorFields("telemetry", err))
		return exitStartup
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("Telemetry shutdown failed", logger.ErrorFields("telemetry", err))
		}
	}()

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		log.Warn("Metrics unavailable", logger.ErrorFields("metrics", err))
		metrics = nil
	}

	o := launcher.Resolve()
	b, err := desktop.Build(&cfg,
		launcher.WithLogger(log),
		launcher.WithMetrics(metrics),
		launcher.WithHost(newHost(&cfg, o.Capabilities().Devtools, logger.Get("host"))),
	)
	if err != nil {
		log.Error("Composition failed", logger.ErrorFields("build", err))
		return exitStartup
	}

	if err := b.Run(ctx); err != nil {
		fields := logger.ErrorFields("run", err)
		fields["fatal"] = errors.IsFatal(err)
		log.Error("Lumison stopped with an error", fields)
		return exitStartup
	}
	return b.ExitCode()
}
