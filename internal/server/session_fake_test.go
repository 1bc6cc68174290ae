package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/ssh"
)

type fakeSessionContext struct {
	context.Context
	mu     sync.Mutex
	values map[any]any
	remote net.Addr
}

func newFakeSessionContext(ctx context.Context, remote net.Addr) *fakeSessionContext {
	return &fakeSessionContext{Context: ctx, values: map[any]any{}, remote: remote}
}

func (f *fakeSessionContext) Lock()                 { f.mu.Lock() }
func (f *fakeSessionContext) Unlock()               { f.mu.Unlock() }
func (f *fakeSessionContext) User() string          { return "guest" }
func (f *fakeSessionContext) SessionID() string     { return "test-session" }
func (f *fakeSessionContext) ClientVersion() string { return "ssh-test-client" }
func (f *fakeSessionContext) ServerVersion() string { return "ssh-test-server" }
func (f *fakeSessionContext) RemoteAddr() net.Addr  { return f.remote }
func (f *fakeSessionContext) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 2223}
}
func (f *fakeSessionContext) Permissions() *ssh.Permissions { return &ssh.Permissions{} }
func (f *fakeSessionContext) SetValue(key, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}
func (f *fakeSessionContext) Value(key interface{}) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.values[key]; ok {
		return v
	}
	return f.Context.Value(key)
}

type fakeSession struct {
	ctx     *fakeSessionContext
	remote  net.Addr
	environ []string

	mu     sync.Mutex
	writes []string
}

func newFakeSession(ctx context.Context, remote net.Addr, environ ...string) *fakeSession {
	return &fakeSession{ctx: newFakeSessionContext(ctx, remote), remote: remote, environ: environ}
}

func (f *fakeSession) writeLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *fakeSession) Read([]byte) (int, error) { return 0, io.EOF }
func (f *fakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, string(p))
	return len(p), nil
}
func (f *fakeSession) Close() error                                   { return nil }
func (f *fakeSession) CloseWrite() error                              { return nil }
func (f *fakeSession) SendRequest(string, bool, []byte) (bool, error) { return false, nil }
func (f *fakeSession) Stderr() io.ReadWriter                          { return &bytes.Buffer{} }
func (f *fakeSession) User() string                                   { return "guest" }
func (f *fakeSession) RemoteAddr() net.Addr                           { return f.remote }
func (f *fakeSession) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 2223}
}
func (f *fakeSession) Environ() []string            { return f.environ }
func (f *fakeSession) Exit(int) error               { return nil }
func (f *fakeSession) Command() []string            { return nil }
func (f *fakeSession) RawCommand() string           { return "" }
func (f *fakeSession) Subsystem() string            { return "" }
func (f *fakeSession) PublicKey() ssh.PublicKey     { return nil }
func (f *fakeSession) Context() ssh.Context         { return f.ctx }
func (f *fakeSession) Permissions() ssh.Permissions { return ssh.Permissions{} }
func (f *fakeSession) EmulatedPty() bool            { return false }
func (f *fakeSession) Pty() (ssh.Pty, <-chan ssh.Window, bool) {
	return ssh.Pty{}, nil, false
}
func (f *fakeSession) Signals(chan<- ssh.Signal) {}
func (f *fakeSession) Break(chan<- bool)         {}
