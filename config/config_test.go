package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/lumison/lumison/errors"
)

func TestAppConfigApplyDefaults(t *testing.T) {
	cfg := AppConfig{}
	cfg.ApplyDefaults()

	if cfg.Name != DefaultName {
		t.Errorf("expected name %q, got %q", DefaultName, cfg.Name)
	}
	if cfg.Window.Label != "main" {
		t.Errorf("expected window label 'main', got %q", cfg.Window.Label)
	}
	if cfg.Window.Title != "Lumison - Visual Art Engine" {
		t.Errorf("unexpected window title %q", cfg.Window.Title)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 800 {
		t.Errorf("expected 1280x800, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.MinWidth != 800 || cfg.Window.MinHeight != 600 {
		t.Errorf("expected min 800x600, got %dx%d", cfg.Window.MinWidth, cfg.Window.MinHeight)
	}
	if cfg.Logging.ServiceName != DefaultName {
		t.Errorf("expected logging service name to follow app name, got %q", cfg.Logging.ServiceName)
	}
	if cfg.Frontend.Dist != DefaultDist {
		t.Errorf("expected dist %q, got %q", DefaultDist, cfg.Frontend.Dist)
	}
}

func TestAppConfigApplyDefaultsKeepsValues(t *testing.T) {
	cfg := AppConfig{Name: "studio", Window: WindowConfig{Width: 1920, Title: "Studio"}}
	cfg.ApplyDefaults()

	if cfg.Name != "studio" || cfg.Logging.ServiceName != "studio" {
		t.Errorf("expected explicit name to be kept, got %q / %q", cfg.Name, cfg.Logging.ServiceName)
	}
	if cfg.Window.Width != 1920 || cfg.Window.Title != "Studio" {
		t.Errorf("explicit window values were overwritten: %+v", cfg.Window)
	}
}

func TestDefaultCSP(t *testing.T) {
	for _, want := range []string{
		"https://fonts.googleapis.com",
		"https://fonts.gstatic.com",
		"'unsafe-inline'",
		"'unsafe-eval'",
		"data:",
		"blob:",
	} {
		if !strings.Contains(DefaultCSP, want) {
			t.Errorf("expected CSP to allow %s", want)
		}
	}
}

func TestAppConfigValidate(t *testing.T) {
	valid := func() AppConfig {
		c := AppConfig{}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		errMsg string
	}{
		{"defaults are valid", func(*AppConfig) {}, ""},
		{"missing identifier", func(c *AppConfig) { c.Identifier = "" }, "identifier: is required"},
		{"zero width", func(c *AppConfig) { c.Window.Width = 0 }, "window.width: must be at least 1"},
		{"min width above width", func(c *AppConfig) { c.Window.MinWidth = 2000 }, "window.min_width: must not exceed window.width"},
		{"min height above height", func(c *AppConfig) { c.Window.MinHeight = 900 }, "window.min_height"},
		{"bad dev url", func(c *AppConfig) { c.Frontend.DevURL = "not a url" }, "frontend.dev_url: must be a valid URL"},
		{"bad log level", func(c *AppConfig) { c.Logging.Level = "loud" }, "logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, errors.ErrCodeConfigInvalid) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: lumison-test
identifier: com.lumison.test
window:
  title: Test Window
  width: 1024
  min_width: 640
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg AppConfig
	if err := LoadConfig("lumison-test", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "lumison-test" {
		t.Errorf("expected name 'lumison-test', got %q", cfg.Name)
	}
	if cfg.Window.Title != "Test Window" {
		t.Errorf("expected window title 'Test Window', got %q", cfg.Window.Title)
	}
	if cfg.Window.Width != 1024 || cfg.Window.MinWidth != 640 {
		t.Errorf("unexpected window size %+v", cfg.Window)
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("window:\n  title: From File\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("WINDOW_TITLE", "From Env")

	var cfg AppConfig
	if err := LoadConfig("lumison", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Window.Title != "From Env" {
		t.Errorf("expected env to override file, got %q", cfg.Window.Title)
	}
}

func TestLoadConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("LOGGING_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("title", "", "")
	if err := flags.Parse([]string{"--log-level=debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var cfg AppConfig
	err := LoadConfig("lumison", &cfg,
		WithConfigFile("/nonexistent/config.yml"),
		WithFlag("logging.level", flags.Lookup("log-level")),
		WithFlag("window.title", flags.Lookup("title")),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected changed flag to win, got %q", cfg.Logging.Level)
	}
	if cfg.Window.Title != "" {
		t.Errorf("unchanged flag should not be applied, got %q", cfg.Window.Title)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg AppConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-app", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files     map[string]bool
	configDir string
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) UserConfigDir() (string, error) {
	if m.configDir == "" {
		return "", os.ErrNotExist
	}
	return m.configDir, nil
}

func TestResolverWithMockFS(t *testing.T) {
	tests := []struct {
		name     string
		fs       *mockFS
		wantConf string
		wantEnv  string
	}{
		{
			name:     "cmd directory first",
			fs:       &mockFS{files: map[string]bool{"./cmd/lumison/config.yml": true, "./config.yml": true}},
			wantConf: "./cmd/lumison/config.yml",
		},
		{
			name:     "user config dir as fallback",
			fs:       &mockFS{files: map[string]bool{filepath.Join("/home/u/.config", "lumison", "config.yml"): true}, configDir: "/home/u/.config"},
			wantConf: filepath.Join("/home/u/.config", "lumison", "config.yml"),
		},
		{
			name:    "app specific env file wins",
			fs:      &mockFS{files: map[string]bool{"./.env": true, "./config/.env.lumison": true}},
			wantEnv: "./config/.env.lumison",
		},
		{
			name: "nothing found",
			fs:   &mockFS{files: map[string]bool{}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &Resolver{FileSystem: tc.fs}
			files := resolver.ResolveFiles("lumison", LoaderConfig{})
			if files.ConfigFile != tc.wantConf {
				t.Errorf("config file: expected %q, got %q", tc.wantConf, files.ConfigFile)
			}
			if files.EnvFile != tc.wantEnv {
				t.Errorf("env file: expected %q, got %q", tc.wantEnv, files.EnvFile)
			}
		})
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	files := resolver.ResolveFiles("lumison", LoaderConfig{ConfigFile: "/etc/lumison.yml", EnvFile: "/etc/lumison.env"})
	if files.ConfigFile != "/etc/lumison.yml" || files.EnvFile != "/etc/lumison.env" {
		t.Errorf("explicit paths should be used as-is, got %+v", files)
	}
}

func TestConfigKeys(t *testing.T) {
	type retry struct {
		Attempts int `mapstructure:"attempts"`
	}
	type updater struct {
		Endpoints []string      `mapstructure:"endpoints"`
		Timeout   time.Duration `mapstructure:"timeout"`
		Retry     retry         `mapstructure:"retry"`
	}
	type desktop struct {
		AppConfig `mapstructure:",squash"`
		Updater   *updater `mapstructure:"updater"`
		Internal  string   `mapstructure:"-"`
	}

	keys := configKeys(reflect.TypeOf(&desktop{}), "")
	for _, want := range []string{"name", "window.min_width", "logging.level", "updater.endpoints", "updater.timeout", "updater.retry.attempts"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected key %q in %v", want, keys)
		}
	}
	if slices.Contains(keys, "internal") {
		t.Error("fields tagged - must be skipped")
	}
	if got := envName("window.min_width"); got != "WINDOW_MIN_WIDTH" {
		t.Errorf("envName = %q", got)
	}
}

func TestLoadConfigNestedEnv(t *testing.T) {
	t.Setenv("WINDOW_MIN_WIDTH", "640")

	var cfg AppConfig
	if err := LoadConfig("lumison", &cfg, WithConfigFile("/nonexistent/config.yml")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Window.MinWidth != 640 {
		t.Errorf("expected min width from env, got %d", cfg.Window.MinWidth)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithFlag("ignored", nil)(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
	if len(lc.Flags) != 0 {
		t.Errorf("nil flag should not be bound, got %v", lc.Flags)
	}
}
