// Package system reads the ambient dark-mode signal from the terminal
// environment and applies best-effort presentation hints back to it.
package system

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"shade-terminal/internal/theme"
)

// Preference is the tri-state system signal. Unknown means the environment
// exposed no usable signal and callers should fall through to the default.
type Preference int

const (
	Unknown Preference = iota
	PrefersLight
	PrefersDark
)

func (p Preference) String() string {
	switch p {
	case PrefersLight:
		return "prefers-light"
	case PrefersDark:
		return "prefers-dark"
	default:
		return "unknown"
	}
}

// Theme translates a known preference to a theme, or fallback when Unknown.
func (p Preference) Theme(fallback theme.Theme) theme.Theme {
	switch p {
	case PrefersLight:
		return theme.Light
	case PrefersDark:
		return theme.Dark
	default:
		return fallback
	}
}

// Source reports the current system color-scheme preference. Implementations
// must never fail; an unreadable signal is reported as Unknown.
type Source interface {
	Preference() Preference
}

// TerminalSource queries the controlling terminal's background color via
// termenv. The SHADE_SYSTEM_THEME environment variable overrides detection,
// which is useful over SSH and in tests.
//
// The background query writes an OSC sequence and reads the reply from the
// tty in raw mode, which cannot coexist with a running TUI's input reader.
// The tty is therefore probed exactly once, on the first Preference call
// (during coordinator initialization, before any program starts); later
// calls reuse the probed value. Only the env override is re-read live.
type TerminalSource struct {
	probe func() Preference

	once   sync.Once
	probed Preference
}

// NewTerminalSource builds a source over stdout.
func NewTerminalSource() *TerminalSource {
	output := termenv.NewOutput(os.Stdout)
	return &TerminalSource{probe: func() Preference { return probeTerminal(output) }}
}

func (s *TerminalSource) Preference() Preference {
	if p, ok := fromEnv(); ok {
		return p
	}
	s.once.Do(func() { s.probed = s.probe() })
	return s.probed
}

func probeTerminal(output *termenv.Output) Preference {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return Unknown
	}
	if output.HasDarkBackground() {
		return PrefersDark
	}
	return PrefersLight
}

func fromEnv() (Preference, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SHADE_SYSTEM_THEME"))) {
	case "light":
		return PrefersLight, true
	case "dark":
		return PrefersDark, true
	case "none":
		return Unknown, true
	default:
		return Unknown, false
	}
}

// Static is a fixed source, used for SSH sessions (where the client's
// background is probed once at session start) and in tests.
type Static Preference

func (s Static) Preference() Preference { return Preference(s) }
