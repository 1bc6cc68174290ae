// Package coordinator owns the effective theme: it reconciles the persisted
// user choice, the ambient system signal, and the configured default into one
// authoritative value, and keeps every observer of that value in sync.
package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"shade-terminal/internal/system"
	"shade-terminal/internal/theme"
)

const defaultAnnounceTTL = time.Second

// Store is the durable preference boundary. prefstore.Store satisfies it.
type Store interface {
	Load() (theme.Theme, bool, error)
	Save(theme.Theme) error
	Clear() error
	Path() string
}

// Notifier delivers change signals for the preference file written by other
// processes. watch.FileWatcher satisfies it.
type Notifier interface {
	Events() <-chan struct{}
	Close() error
}

// ChangeSource records which trigger produced a theme change.
type ChangeSource int

const (
	SourceInitial ChangeSource = iota
	SourceUser
	SourceSystem
	SourceExternal
)

func (s ChangeSource) String() string {
	switch s {
	case SourceUser:
		return "user"
	case SourceSystem:
		return "system"
	case SourceExternal:
		return "external"
	default:
		return "initial"
	}
}

// EventKind discriminates subscriber events.
type EventKind int

const (
	EventThemeChanged EventKind = iota
	EventAnnouncementExpired
)

// Event is delivered to subscribers on every observable change.
type Event struct {
	Kind         EventKind
	Theme        theme.Theme
	Source       ChangeSource
	Announcement string
}

// Options configures a Coordinator. Store is required; everything else has a
// working zero value.
type Options struct {
	Store   Store
	System  system.Source // nil: no system signal, Default wins
	Watcher Notifier      // nil: no cross-process synchronization

	Default     theme.Theme
	AnnounceTTL time.Duration // transient announcement lifetime, default 1s

	// SystemPollInterval drives periodic re-reads of the system source.
	// Zero disables polling; ResyncSystem can still be called directly.
	SystemPollInterval time.Duration

	Logger *log.Logger

	// ApplyChrome propagates the theme to the terminal chrome. Best effort;
	// may be nil.
	ApplyChrome func(theme.Theme)
}

// ErrNoStore is returned by New when Options.Store is missing.
var ErrNoStore = errors.New("coordinator requires a preference store")

// Coordinator is the single owner of the effective theme for one view.
type Coordinator struct {
	opts   Options
	logger *log.Logger

	mu           sync.Mutex
	effective    theme.Theme
	hasPersisted bool
	lastSystem   system.Preference
	ready        bool
	closed       bool

	announcement string
	announceSeq  uint64

	subscribers      map[int]func(Event)
	nextSubscriberID int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a ready coordinator. The initial effective theme is computed
// with the precedence persisted > system > default and applied immediately,
// without an announcement. Synchronization loops start before New returns.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	if opts.AnnounceTTL <= 0 {
		opts.AnnounceTTL = defaultAnnounceTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Coordinator{
		opts:        opts,
		logger:      logger,
		subscribers: map[int]func(Event){},
		stopCh:      make(chan struct{}),
	}
	c.initialize()

	if opts.Watcher != nil {
		c.wg.Add(1)
		go c.watchExternal()
	}
	if opts.System != nil && opts.SystemPollInterval > 0 {
		c.wg.Add(1)
		go c.pollSystem()
	}
	return c, nil
}

func (c *Coordinator) initialize() {
	effective := c.opts.Default
	persisted := false

	stored, ok, err := c.opts.Store.Load()
	switch {
	case ok:
		effective = stored
		persisted = true
	case err != nil:
		// Invalid or unreadable preference is treated as absent, never
		// surfaced to the user.
		c.logger.Warn("discarding stored theme preference",
			"path", c.opts.Store.Path(), "err", err)
	}

	pref := system.Unknown
	if c.opts.System != nil {
		pref = c.opts.System.Preference()
	}
	if !persisted {
		effective = pref.Theme(c.opts.Default)
	}

	c.mu.Lock()
	c.effective = effective
	c.hasPersisted = persisted
	c.lastSystem = pref
	c.ready = true
	c.mu.Unlock()

	c.applyChrome(effective)
	c.logger.Debug("theme coordinator ready",
		"theme", effective, "persisted", persisted, "system", pref)
}

// Effective returns the current effective theme. Never fails.
func (c *Coordinator) Effective() theme.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effective
}

// Ready reports whether initialization has completed. Until then the
// effective theme is provisional.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Announcement returns the transient change announcement, or "" once it has
// expired.
func (c *Coordinator) Announcement() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.announcement
}

// Set applies an explicit user choice: memory first, then observers, then
// durable storage, then the announcement and chrome hint. A persistence
// failure is logged and tolerated; the theme still changes for this session.
func (c *Coordinator) Set(t theme.Theme) {
	t = c.clamp(t)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.effective = t
	c.hasPersisted = true
	text := fmt.Sprintf("Theme changed to %s", t)
	c.announcement = text
	c.announceSeq++
	seq := c.announceSeq
	subs := c.snapshotSubscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventThemeChanged, Theme: t, Source: SourceUser, Announcement: text})

	if err := c.opts.Store.Save(t); err != nil {
		c.logger.Warn("theme preference not persisted, continuing in memory",
			"path", c.opts.Store.Path(), "err", err)
	}
	c.scheduleAnnouncementExpiry(seq)
	c.applyChrome(t)
}

// SetString validates a raw theme name before applying it. Invalid input is
// substituted with the configured default, matching the storage seam policy.
func (c *Coordinator) SetString(raw string) {
	t, err := theme.Parse(raw)
	if err != nil {
		c.logger.Warn("invalid theme requested, substituting default",
			"requested", raw, "default", c.opts.Default)
		t = c.clamp(c.opts.Default)
	}
	c.Set(t)
}

// Toggle switches to the opposite of the current effective theme.
func (c *Coordinator) Toggle() {
	c.Set(c.Effective().Opposite())
}

// FollowSystem clears the persisted preference so the system signal (or the
// default) governs again, and re-derives the effective theme.
func (c *Coordinator) FollowSystem() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.hasPersisted = false
	pref := system.Unknown
	if c.opts.System != nil {
		pref = c.opts.System.Preference()
	}
	c.lastSystem = pref
	t := pref.Theme(c.opts.Default)
	changed := t != c.effective
	c.effective = t
	subs := c.snapshotSubscribersLocked()
	c.mu.Unlock()

	if err := c.opts.Store.Clear(); err != nil {
		c.logger.Warn("could not clear theme preference",
			"path", c.opts.Store.Path(), "err", err)
	}
	if changed {
		notify(subs, Event{Kind: EventThemeChanged, Theme: t, Source: SourceSystem})
		c.applyChrome(t)
	}
}

// Subscribe registers an observer for theme changes and announcement expiry.
// The returned cancel function revokes just this subscription; Close revokes
// all of them.
func (c *Coordinator) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	id := c.nextSubscriberID
	c.nextSubscriberID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// ResyncSystem re-reads the system signal and, when no persisted preference
// exists, adopts a changed value. Callers may invoke it directly on events
// that suggest the environment changed; the poll loop calls it periodically.
func (c *Coordinator) ResyncSystem() {
	if c.opts.System == nil {
		return
	}
	pref := c.opts.System.Preference()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.lastSystem
	c.lastSystem = pref
	if pref == prev || c.hasPersisted {
		c.mu.Unlock()
		return
	}
	t := pref.Theme(c.opts.Default)
	if t == c.effective {
		c.mu.Unlock()
		return
	}
	c.effective = t
	text := fmt.Sprintf("Theme changed to %s", t)
	c.announcement = text
	c.announceSeq++
	seq := c.announceSeq
	subs := c.snapshotSubscribersLocked()
	c.mu.Unlock()

	// System-driven changes are announced like user changes, but never
	// written back to storage, so they cannot loop.
	notify(subs, Event{Kind: EventThemeChanged, Theme: t, Source: SourceSystem, Announcement: text})
	c.scheduleAnnouncementExpiry(seq)
	c.applyChrome(t)
}

// Close revokes every subscription and stops the synchronization loops. No
// subscriber observes an event after Close returns.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.subscribers = map[int]func(Event){}
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
	if c.opts.Watcher != nil {
		_ = c.opts.Watcher.Close()
	}
}

func (c *Coordinator) watchExternal() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case _, ok := <-c.opts.Watcher.Events():
			if !ok {
				return
			}
			c.adoptExternal()
		}
	}
}

func (c *Coordinator) pollSystem() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.SystemPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.ResyncSystem()
		}
	}
}

// adoptExternal reloads the preference after another process touched it and
// applies the result to memory and observers only. It never writes storage,
// so two coordinators watching the same file cannot amplify each other.
func (c *Coordinator) adoptExternal() {
	stored, ok, err := c.opts.Store.Load()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	var t theme.Theme
	persisted := false
	switch {
	case ok:
		t = stored
		persisted = true
	default:
		if err != nil {
			c.logger.Warn("ignoring invalid externally written preference",
				"path", c.opts.Store.Path(), "err", err)
		}
		// Preference removed or invalid: the system signal governs again.
		t = c.lastSystem.Theme(c.opts.Default)
	}

	changed := t != c.effective || persisted != c.hasPersisted
	c.effective = t
	c.hasPersisted = persisted
	subs := c.snapshotSubscribersLocked()
	c.mu.Unlock()

	if !changed {
		return
	}
	notify(subs, Event{Kind: EventThemeChanged, Theme: t, Source: SourceExternal})
	c.applyChrome(t)
}

func (c *Coordinator) scheduleAnnouncementExpiry(seq uint64) {
	time.AfterFunc(c.opts.AnnounceTTL, func() {
		c.mu.Lock()
		if c.closed || c.announceSeq != seq || c.announcement == "" {
			c.mu.Unlock()
			return
		}
		c.announcement = ""
		t := c.effective
		subs := c.snapshotSubscribersLocked()
		c.mu.Unlock()

		notify(subs, Event{Kind: EventAnnouncementExpired, Theme: t})
	})
}

func (c *Coordinator) snapshotSubscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (c *Coordinator) applyChrome(t theme.Theme) {
	if c.opts.ApplyChrome != nil {
		c.opts.ApplyChrome(t)
	}
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

// clamp maps out-of-range values to the configured default, so a deployment
// that defaults to dark never silently flips to light.
func (c *Coordinator) clamp(t theme.Theme) theme.Theme {
	if t == theme.Light || t == theme.Dark {
		return t
	}
	if d := c.opts.Default; d == theme.Light || d == theme.Dark {
		return d
	}
	return theme.Default
}
