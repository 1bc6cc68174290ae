package router

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/ssh"
)

type fakeContext struct {
	context.Context
	mu     sync.Mutex
	values map[any]any
	remote net.Addr
}

func newFakeContext(remote net.Addr) *fakeContext {
	return &fakeContext{Context: context.Background(), values: map[any]any{}, remote: remote}
}

func (f *fakeContext) Lock()                         { f.mu.Lock() }
func (f *fakeContext) Unlock()                       { f.mu.Unlock() }
func (f *fakeContext) User() string                  { return "guest" }
func (f *fakeContext) SessionID() string             { return "test-session" }
func (f *fakeContext) ClientVersion() string         { return "ssh-test-client" }
func (f *fakeContext) ServerVersion() string         { return "ssh-test-server" }
func (f *fakeContext) RemoteAddr() net.Addr          { return f.remote }
func (f *fakeContext) LocalAddr() net.Addr           { return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 2223} }
func (f *fakeContext) Permissions() *ssh.Permissions { return &ssh.Permissions{} }
func (f *fakeContext) SetValue(key, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}
func (f *fakeContext) Value(key interface{}) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.values[key]; ok {
		return v
	}
	return f.Context.Value(key)
}

type fakeSession struct {
	ctx     *fakeContext
	remote  net.Addr
	environ []string
	writes  []string
}

func newFakeSession(remote net.Addr, environ ...string) *fakeSession {
	return &fakeSession{ctx: newFakeContext(remote), remote: remote, environ: environ}
}

func (f *fakeSession) Read([]byte) (int, error) { return 0, io.EOF }
func (f *fakeSession) Write(p []byte) (int, error) {
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
