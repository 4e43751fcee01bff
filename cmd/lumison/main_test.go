package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"--version"}, exitOK},
		{"help", []string{"--help"}, exitOK},
		{"unknown flag", []string{"--fullscreen"}, exitUsage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(tc.args); got != tc.want {
				t.Errorf("run(%v) = %d, want %d", tc.args, got, tc.want)
			}
		})
	}
}

func TestRunInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "window:\n  width: 640\n  min_width: 800\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := run([]string{"--config", path}); got != exitStartup {
		t.Errorf("expected startup failure for an invalid window, got %d", got)
	}
}
