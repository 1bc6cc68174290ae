package router

import (
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

const throttleNotice = "too many connections from your address, try again shortly\n"

// bucket tracks token-bucket state for one address.
type bucket struct {
	tokens float64
	seen   time.Time
}

// throttle admits connections per remote address at a sustained rate with a
// configurable burst.
type throttle struct {
	perSecond float64
	burst     float64

	mu      sync.Mutex
	buckets map[string]bucket
}

func newThrottle(limitPerMinute, burst int) *throttle {
	if limitPerMinute <= 0 {
		limitPerMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	return &throttle{
		perSecond: float64(limitPerMinute) / 60,
		burst:     float64(burst),
		buckets:   make(map[string]bucket),
	}
}

func (t *throttle) allow(addr string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[addr]
	if !ok {
		b = bucket{tokens: t.burst, seen: now}
	}
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*t.perSecond, t.burst)
		b.seen = now
	}
	if b.tokens < 1 {
		t.buckets[addr] = b
		return false
	}
	b.tokens--
	t.buckets[addr] = b
	return true
}

// RateLimitMiddleware rejects sessions from addresses connecting faster than
// limitPerMinute, allowing short bursts up to burst.
func RateLimitMiddleware(limitPerMinute, burst int) wish.Middleware {
	limiter := newThrottle(limitPerMinute, burst)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			addr := remoteIP(s)
			if !limiter.allow(addr, time.Now()) {
				log.Warn("connection throttled", "remote_ip", addr)
				_, _ = s.Write([]byte(throttleNotice))
				return
			}
			next(s)
		}
	}
}

// remoteIP extracts a stable throttle key from the session's remote address.
// Opaque addresses are keyed whole rather than dropped, so a transport that
// reports no host:port still gets throttled as one peer.
func remoteIP(s ssh.Session) string {
	addr := s.RemoteAddr()
	if addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if host == "" {
		return "unknown"
	}
	return host
}
