// Package router assembles the named middleware chain for the SSH surface.
// Every middleware is owned by a Descriptor so startup can log the chain and
// tests can assert its order.
package router

import (
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"shade-terminal/internal/theme"
)

// sessionThemeEnv is the per-session override honored for SSH clients that
// forward it (ssh -o SendEnv=SHADE_THEME).
const sessionThemeEnv = "SHADE_THEME"

// Descriptor names one middleware so the chain stays observable.
type Descriptor struct {
	Name       string
	Middleware wish.Middleware
}

// DefaultChain wires the startup middleware in execution order from the
// connection inward: rate limiting, structured connect/disconnect logging,
// and the active-terminal requirement for the TUI.
func DefaultChain(limitPerMinute, burst int) []Descriptor {
	return []Descriptor{
		{Name: "rate-limit", Middleware: RateLimitMiddleware(limitPerMinute, burst)},
		{Name: "logging", Middleware: logging.Middleware()},
		{Name: "active-terminal", Middleware: activeterm.Middleware()},
	}
}

// MiddlewareFromDescriptors unwraps a chain for wish.WithMiddleware. wish
// applies middleware back to front, so the slice is reversed here to keep
// Descriptor order meaning "outermost first".
func MiddlewareFromDescriptors(chain []Descriptor) []wish.Middleware {
	middleware := make([]wish.Middleware, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		middleware = append(middleware, chain[i].Middleware)
	}
	return middleware
}

// SessionThemeOverride reads the client-forwarded theme request from the
// session environment. Invalid values are reported as absent; the validated
// seam stays in the theme package.
func SessionThemeOverride(s ssh.Session) (theme.Theme, bool) {
	for _, kv := range s.Environ() {
		value, found := strings.CutPrefix(kv, sessionThemeEnv+"=")
		if !found {
			continue
		}
		t, err := theme.Parse(value)
		if err != nil {
			return theme.Default, false
		}
		return t, true
	}
	return theme.Default, false
}
