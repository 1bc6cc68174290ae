// Package server runs the shade SSH surface: a Wish server that hands every
// connection its own themed settings TUI.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"

	"shade-terminal/internal/config"
	"shade-terminal/internal/router"
)

const version = "dev"

// Runtime wires config + middleware + the Wish server as a testable unit.
type Runtime struct {
	cfg           config.Config
	middlewareIDs []string
	server        *ssh.Server
}

// New assembles the runtime. The session handler sits innermost, guarded by
// the max-sessions gate, with the descriptor chain outermost.
func New(cfg config.Config, chain []router.Descriptor) (*Runtime, error) {
	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	middleware := []wish.Middleware{
		bm.Middleware(SessionHandler(cfg)),
		MaxSessionsMiddleware(cfg.MaxSessions),
	}
	middleware = append(middleware, router.MiddlewareFromDescriptors(chain)...)

	wishServer, err := wish.NewServer(
		wish.WithAddress(address),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(middleware...),
	)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(chain))
	for _, descriptor := range chain {
		ids = append(ids, descriptor.Name)
	}

	return &Runtime{cfg: cfg, middlewareIDs: ids, server: wishServer}, nil
}

func (r *Runtime) MiddlewareIDs() []string {
	out := make([]string, len(r.middlewareIDs))
	copy(out, r.middlewareIDs)
	return out
}

func (r *Runtime) Address() string {
	return r.server.Addr
}

// Run serves until the context ends or an interrupt arrives, then shuts the
// listener down gracefully.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-ctx.Done()
		_ = r.server.Shutdown(context.Background())
	}()

	log.Info("ssh server starting",
		"version", version,
		"address", r.server.Addr,
		"middleware", r.middlewareIDs,
		"host_key_path", r.cfg.HostKeyPath,
		"idle_timeout", r.cfg.IdleTimeout,
		"max_sessions", r.cfg.MaxSessions,
	)
	err := r.server.ListenAndServe()
	if err == nil || errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}
