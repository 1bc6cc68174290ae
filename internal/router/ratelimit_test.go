package router

import (
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/ssh"
)

func TestRateLimitMiddlewareThrottlesByIP(t *testing.T) {
	middleware := RateLimitMiddleware(60, 2)
	called := 0
	handler := middleware(func(ssh.Session) { called++ })

	session := newFakeSession(&net.TCPAddr{IP: net.ParseIP("203.0.113.10"), Port: 2222})
	handler(session)
	handler(session)
	handler(session)

	if called != 2 {
		t.Fatalf("handler calls = %d, want 2", called)
	}
	if len(session.writes) != 1 || session.writes[0] != throttleNotice {
		t.Fatalf("writes = %#v", session.writes)
	}
}

func TestThrottleRefillsOverTime(t *testing.T) {
	t.Parallel()

	limiter := newThrottle(60, 1)
	start := time.Now()

	if !limiter.allow("203.0.113.9", start) {
		t.Fatal("first connection should pass")
	}
	if limiter.allow("203.0.113.9", start) {
		t.Fatal("second immediate connection should be throttled")
	}
	// 60/min refills one token per second.
	if !limiter.allow("203.0.113.9", start.Add(time.Second)) {
		t.Fatal("connection after refill interval should pass")
	}
	if limiter.allow("203.0.113.9", start.Add(time.Second)) {
		t.Fatal("burst of one must not accumulate beyond the cap")
	}
}

func TestRateLimitMiddlewareIsolatedPerIP(t *testing.T) {
	middleware := RateLimitMiddleware(60, 1)
	called := 0
	handler := middleware(func(ssh.Session) { called++ })

	a := newFakeSession(&net.TCPAddr{IP: net.ParseIP("203.0.113.10"), Port: 1})
	b := newFakeSession(&net.TCPAddr{IP: net.ParseIP("203.0.113.11"), Port: 1})

	handler(a)
	handler(a)
	handler(b)

	if called != 2 {
		t.Fatalf("handler calls = %d, want 2", called)
	}
	if len(a.writes) != 1 {
		t.Fatalf("writes for session a = %#v, want one throttle write", a.writes)
	}
	if len(b.writes) != 0 {
		t.Fatalf("writes for session b = %#v, want none", b.writes)
	}
}

func TestRateLimitMiddlewareDefaultsNonPositiveConfig(t *testing.T) {
	middleware := RateLimitMiddleware(0, 0)
	called := 0
	handler := middleware(func(ssh.Session) { called++ })

	session := newFakeSession(&net.TCPAddr{IP: net.ParseIP("203.0.113.12"), Port: 1})
	handler(session)

	if called != 1 {
		t.Fatalf("handler calls = %d, want 1", called)
	}
}

func TestRemoteIPFallbacks(t *testing.T) {
	session := newFakeSession(nil)
	if got := remoteIP(session); got != "unknown" {
		t.Fatalf("remoteIP(nil) = %q, want unknown", got)
	}

	session.remote = testAddr("opaque")
	if got := remoteIP(session); got != "opaque" {
		t.Fatalf("remoteIP(opaque) = %q, want opaque", got)
	}
}

type testAddr string

func (a testAddr) Network() string { return "test" }
func (a testAddr) String() string  { return string(a) }
