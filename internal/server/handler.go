package server

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	bm "github.com/charmbracelet/wish/bubbletea"

	"shade-terminal/internal/config"
	"shade-terminal/internal/coordinator"
	"shade-terminal/internal/prefstore"
	"shade-terminal/internal/router"
	"shade-terminal/internal/system"
	"shade-terminal/internal/theme"
	"shade-terminal/internal/tui"
	"shade-terminal/internal/watch"
)

// SessionHandler builds the per-session bubbletea program. Every session gets
// its own coordinator over the shared preference file, so concurrent sessions
// converge through the file watcher instead of through shared mutable state.
func SessionHandler(cfg config.Config) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()

		renderer := bm.MakeRenderer(s)
		src := sessionSource(s, renderer.HasDarkBackground())

		store := prefstore.New(cfg.PreferencePath)

		var notifier coordinator.Notifier
		if cfg.WatchPreference {
			watcher, err := watch.NewFileWatcher(store.Path())
			if err != nil {
				log.Warn("preference watch unavailable", "path", store.Path(), "err", err)
			} else {
				notifier = watcher
			}
		}

		coord, err := coordinator.New(coordinator.Options{
			Store:              store,
			System:             src,
			Watcher:            notifier,
			Default:            cfg.DefaultTheme,
			AnnounceTTL:        cfg.AnnounceTTL,
			SystemPollInterval: cfg.SystemPollInterval,
		})
		if err != nil {
			log.Error("session coordinator unavailable", "err", err)
			return nil, nil
		}

		// Close is idempotent, so the quit path and a dropped connection can
		// both revoke the session's subscriptions.
		go func() {
			<-s.Context().Done()
			coord.Close()
		}()

		model := tui.New(coord, tui.Options{
			Width:   pty.Window.Width,
			Height:  pty.Window.Height,
			Term:    pty.Term,
			OnClose: coord.Close,
		})
		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

// sessionSource derives the ambient signal for one SSH session. A forwarded
// SHADE_THEME replaces background detection; a persisted preference still
// takes precedence over either.
func sessionSource(s ssh.Session, darkBackground bool) system.Source {
	if override, ok := router.SessionThemeOverride(s); ok {
		if override == theme.Dark {
			return system.Static(system.PrefersDark)
		}
		return system.Static(system.PrefersLight)
	}
	if darkBackground {
		return system.Static(system.PrefersDark)
	}
	return system.Static(system.PrefersLight)
}
