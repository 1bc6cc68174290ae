package server

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

// MaxSessionsMiddleware caps concurrent sessions with a semaphore. A slot is
// released exactly once per session, whether the handler returns, panics, or
// the connection context ends first.
func MaxSessionsMiddleware(limit int) wish.Middleware {
	if limit <= 0 {
		return func(next ssh.Handler) ssh.Handler { return next }
	}

	slots := make(chan struct{}, limit)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			select {
			case slots <- struct{}{}:
			default:
				log.Warn("connection rejected", "reason", "max sessions", "user", s.User())
				_, _ = s.Write([]byte("max sessions exceeded\n"))
				return
			}

			var once sync.Once
			release := func() {
				once.Do(func() { <-slots })
			}

			go func() {
				<-s.Context().Done()
				release()
			}()

			defer func() {
				if rec := recover(); rec != nil {
					log.Error("session handler panicked", "panic", rec)
				}
				release()
			}()

			next(s)
		}
	}
}
