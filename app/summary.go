package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/plugin"
)

// WindowInfo is a window as shown in the startup summary.
type WindowInfo struct {
	Label    string
	Title    string
	Devtools bool
}

// Summary describes a completed startup.
type Summary struct {
	Name            string
	Version         string
	Platform        string
	Profile         string
	Host            string
	SessionID       string
	StartupDuration time.Duration
	Windows         []WindowInfo
	Plugins         []plugin.Description
}

// Summary returns the startup summary. It is only meaningful once Run has
// entered the event loop.
func (b *Builder) Summary() Summary {
	s := Summary{
		Name:     b.name,
		Version:  b.version,
		Platform: b.platform.String(),
		Profile:  b.profile.String(),
		Host:     b.host.Name(),
		Plugins:  b.registry.Describe(),
	}
	if rt, ok := b.rt.Load().(host.Runtime); ok {
		s.SessionID = rt.SessionID()
		for _, w := range rt.Windows() {
			s.Windows = append(s.Windows, WindowInfo{
				Label:    w.Label(),
				Title:    w.Title(),
				Devtools: w.IsDevtoolsOpen(),
			})
		}
	}
	return s
}

func (b *Builder) displaySummary(d time.Duration) {
	if b.summary == nil {
		return
	}
	s := b.Summary()
	s.StartupDuration = d
	s.Write(b.summary)
}

// Write prints the summary as a tree.
func (s Summary) Write(w io.Writer) {
	version := s.Version
	if version == "" {
		version = "dev"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s %s started in %.2fs\n", s.Name, version, s.StartupDuration.Seconds())
	fmt.Fprintf(w, "   %s/%s on %s host", s.Platform, s.Profile, s.Host)
	if s.SessionID != "" {
		fmt.Fprintf(w, " (session %s)", shortID(s.SessionID))
	}
	fmt.Fprintf(w, "\n\n")

	fmt.Fprintf(w, "🪟 Windows\n")
	if len(s.Windows) == 0 {
		fmt.Fprintf(w, "   └── none\n")
	}
	for i, win := range s.Windows {
		devtools := ""
		if win.Devtools {
			devtools = " [devtools]"
		}
		fmt.Fprintf(w, "   %s %s: %q%s\n", treePrefix(i, len(s.Windows)), win.Label, win.Title, devtools)
	}

	fmt.Fprintf(w, "\n🧩 Plugins (%d)\n", len(s.Plugins))
	if len(s.Plugins) == 0 {
		fmt.Fprintf(w, "   └── none\n")
	}
	for i, p := range s.Plugins {
		line := p.Name
		if p.Details != "" {
			line += ": " + p.Details
		}
		fmt.Fprintf(w, "   %s ✅ %s\n", treePrefix(i, len(s.Plugins)), line)
	}
	fmt.Fprintf(w, "\n")
}

// String renders the summary.
func (s Summary) String() string {
	var sb strings.Builder
	s.Write(&sb)
	return sb.String()
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
