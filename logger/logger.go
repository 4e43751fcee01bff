package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatPretty  = "pretty"
	FormatConsole = "console"
)

// Logger is a zerolog logger tagged with the service it belongs to.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// Init builds the global logger from cfg and applies its level process-wide.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	service := cfg.ServiceName
	if service == "" {
		service = "default"
	}
	globalLogger = New(&cfg, service)
	if isConsoleFormat(cfg.Format) {
		log.Logger = globalLogger.zl
	}
}

// New creates a logger writing to the configured output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg, service, outputWriter(cfg.Output))
}

// NewWithWriter creates a logger writing to w. An unknown level means info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var zl zerolog.Logger
	switch {
	case isConsoleFormat(cfg.Format):
		zl = zerolog.New(consoleWriter(cfg, service, w)).With().Timestamp().Logger()
	case cfg.Timestamp:
		zl = zerolog.New(w).With().Timestamp().Logger()
	default:
		zl = zerolog.New(w)
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	return &Logger{zl: zl, service: service}
}

// NewDefault is an info-level console logger on stdout.
func NewDefault(service string) *Logger {
	return New(&Config{Level: "info", Format: FormatConsole, Output: "stdout", Timestamp: true}, service)
}

type sessionKey struct{}

// ContextWithSession returns a copy of ctx carrying the run's session id.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// WithContext adds the session id stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id, ok := ctx.Value(sessionKey{}).(string)
	if !ok {
		return l
	}
	return l.derive(l.zl.With().Str(FieldSessionID, id))
}

func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.zl.With().Str(FieldComponent, name))
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(l.zl.With().Fields(fields))
}

func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err))
}

func (l *Logger) derive(c zerolog.Context) *Logger {
	return &Logger{zl: c.Logger(), service: l.service}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

func emit(e *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		e.Fields(f)
	}
	e.Msg(msg)
}

var globalLogger *Logger

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(l *Logger) { globalLogger = l }

// GetGlobalLogger returns the global logger, creating a default one if Init
// was never called.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewDefault("default")
	}
	return globalLogger
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

// WithComponent tags the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

func isConsoleFormat(format string) bool {
	f := strings.ToLower(format)
	return f == FormatConsole || f == FormatPretty
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// levelTags maps zerolog level names to the console tag and its color.
var levelTags = map[string][2]string{
	"trace": {"[TRC]", ""},
	"debug": {"[DBG]", "\033[36m"},
	"info":  {"[INF]", "\033[32m"},
	"warn":  {"[WRN]", "\033[33m"},
	"error": {"[ERR]", "\033[31m"},
	"fatal": {"[FTL]", "\033[35m"},
}

// consoleWriter renders "[SVC][LVL] message key:value" lines, where SVC is
// the first three letters of the service name.
func consoleWriter(cfg *Config, service string, out io.Writer) zerolog.ConsoleWriter {
	color := func(code, s string) string {
		if cfg.NoColor || code == "" {
			return s
		}
		return code + s + "\033[0m"
	}
	prefix := ""
	if service != "default" && len(service) >= 3 {
		prefix = color("\033[34m", "["+strings.ToUpper(service[:3])+"]")
	}
	str := func(i interface{}) string {
		if i == nil {
			return ""
		}
		return fmt.Sprint(i)
	}

	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i interface{}) string {
			lvl := str(i)
			tag, ok := levelTags[lvl]
			if !ok {
				return prefix + "[" + strings.ToUpper(lvl) + "]"
			}
			return prefix + color(tag[1], tag[0])
		},
		FormatMessage:    str,
		FormatFieldName:  func(i interface{}) string { return str(i) + ":" },
		FormatFieldValue: str,
	}
}
