package process

import (
	"fmt"
	"os"
	"os/exec"
)

// Command describes a process to launch.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
}

// SpawnFunc launches cmd without waiting for it and returns its pid.
type SpawnFunc func(cmd Command) (int, error)

// Spawn starts cmd detached from the current process group so it outlives
// the caller. The child is reaped in the background while the caller lives.
func Spawn(cmd Command) (int, error) {
	if cmd.Binary == "" {
		return 0, fmt.Errorf("process: binary is required")
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // relaunching our own executable
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdin = nil
	c.Stdout = nil
	c.Stderr = nil
	c.SysProcAttr = detachedAttr()

	if err := c.Start(); err != nil {
		return 0, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	pid := c.Process.Pid
	go func() { _ = c.Wait() }()
	return pid, nil
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}
