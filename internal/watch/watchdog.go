// Package watch implements the navigation watchdog: it observes the host
// page's URL on a timer (the host SPA gives no change notification),
// tears the widget down when the path's username changes, and re-injects
// once the host's own render pass has produced content, with a bounded
// retry poll.
package watch

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// State is the watchdog's lifecycle position.
type State int

const (
	// StateIdle: no username resolved, widget absent.
	StateIdle State = iota
	// StateSettled: widget present and matching the current username.
	StateSettled
	// StateTornDown: old widget removed, waiting out the settle delay.
	StateTornDown
	// StatePolling: bounded injection retry loop running.
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSettled:
		return "settled"
	case StateTornDown:
		return "torn_down"
	case StatePolling:
		return "polling"
	}
	return "unknown"
}

// Host abstracts the page the watchdog manages. The real implementation
// drives a browser tab; tests use a fake.
type Host interface {
	// Location returns the page's current URL.
	Location() (string, error)
	// WidgetPresent reports whether our widget node is already in the DOM.
	WidgetPresent() bool
	// MountReady reports whether the mount point exists and has rendered
	// children, the heuristic for "the host finished its own render".
	MountReady() bool
	// Inject adds the widget, scoped to username.
	Inject(username string) error
	// Remove deletes the widget and its marker class. Idempotent.
	Remove()
}

// Config carries the watchdog timings. Zero values take the defaults
// that match the host site's observed render behaviour.
type Config struct {
	// CheckInterval is the URL poll period. Default: 300ms.
	CheckInterval time.Duration
	// SettleDelay is the pause between teardown and the first injection
	// attempt, letting the SPA's render begin. Default: 400ms.
	SettleDelay time.Duration
	// PollInterval is the injection retry period. Default: 150ms.
	PollInterval time.Duration
	// MaxAttempts bounds the retry loop. Default: 30.
	MaxAttempts int
}

func (c *Config) defaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 300 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 400 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 150 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 30
	}
}

type logger interface {
	Debugf(string, ...any)
}

// Watchdog owns the whole watch state: current username, last observed
// URL, poll bookkeeping. Only Run's goroutine mutates it.
type Watchdog struct {
	cfg  Config
	host Host
	log  logger

	state     State
	username  string
	lastURL   string
	attempts  int
	injecting bool
}

func New(host Host, cfg Config, log logger) *Watchdog {
	cfg.defaults()
	return &Watchdog{
		cfg:   cfg,
		host:  host,
		log:   log,
		state: StateIdle,
	}
}

func (w *Watchdog) State() State     { return w.state }
func (w *Watchdog) Username() string { return w.username }

// UsernameFromURL resolves the library owner from a page URL: the second
// path segment, as on /u/{username}/games. Empty when the path is too
// shallow.
func UsernameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	parts := strings.Split(u.Path, "/")
	if len(parts) < 3 {
		return ""
	}

	return parts[2]
}

// Run drives the watchdog until ctx is cancelled. One initial injection
// attempt happens synchronously before the timer loop starts, covering
// the non-navigated first page load.
func (w *Watchdog) Run(ctx context.Context) error {
	w.Bootstrap()

	check := time.NewTicker(w.cfg.CheckInterval)
	defer check.Stop()

	var (
		settle  *time.Timer
		settleC <-chan time.Time
		poll    *time.Ticker
		pollC   <-chan time.Time
	)

	stopSettle := func() {
		if settle != nil {
			settle.Stop()
			settle, settleC = nil, nil
		}
	}
	stopPoll := func() {
		if poll != nil {
			poll.Stop()
			poll, pollC = nil, nil
		}
	}
	defer stopSettle()
	defer stopPoll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-check.C:
			loc, err := w.host.Location()
			if err != nil {
				// Page gone or session torn down; try again next tick.
				w.debugf("watch: location unavailable: %v", err)
				continue
			}

			if !w.Observe(loc) {
				continue
			}

			stopSettle()
			stopPoll()

			if w.state == StateTornDown {
				settle = time.NewTimer(w.cfg.SettleDelay)
				settleC = settle.C
			}

		case <-settleC:
			settleC = nil
			w.StartPolling()
			poll = time.NewTicker(w.cfg.PollInterval)
			pollC = poll.C

		case <-pollC:
			if w.PollTick() {
				stopPoll()
			}
		}
	}
}

// Bootstrap performs the load-time injection attempt: resolve the
// username from the current location and inject immediately if the mount
// point is ready.
func (w *Watchdog) Bootstrap() {
	loc, err := w.host.Location()
	if err != nil {
		return
	}

	w.lastURL = loc
	w.username = UsernameFromURL(loc)
	if w.username == "" {
		w.state = StateIdle
		return
	}

	if w.host.MountReady() && w.host.Inject(w.username) == nil {
		w.state = StateSettled
		return
	}

	w.state = StateIdle
}

// Observe compares loc against the last recorded URL. On a change it
// tears down the widget, resolves the new username, and moves to
// TornDown (or Idle when no username is resolvable). Returns true when a
// navigation was handled.
func (w *Watchdog) Observe(loc string) bool {
	if loc == w.lastURL {
		return false
	}

	w.debugf("watch: navigation %s -> %s", w.lastURL, loc)
	w.lastURL = loc
	w.injecting = false
	w.host.Remove()

	w.username = UsernameFromURL(loc)
	if w.username == "" {
		w.state = StateIdle
		return true
	}

	w.state = StateTornDown
	return true
}

// StartPolling moves from TornDown into the bounded retry loop.
func (w *Watchdog) StartPolling() {
	w.state = StatePolling
	w.attempts = 0
}

// PollTick runs one injection attempt. Returns true when polling should
// stop: the widget exists, injection succeeded, or MaxAttempts is spent.
// Give-up is silent; the next navigation starts a fresh poll.
func (w *Watchdog) PollTick() bool {
	if w.injecting {
		return false
	}

	w.attempts++

	if w.host.WidgetPresent() {
		w.state = StateSettled
		return true
	}

	if w.host.MountReady() {
		w.injecting = true
		err := w.host.Inject(w.username)
		w.injecting = false

		if err == nil {
			w.state = StateSettled
			return true
		}
		w.debugf("watch: injection failed: %v", err)
	}

	if w.attempts > w.cfg.MaxAttempts {
		w.debugf("watch: giving up after %d attempts", w.attempts)
		w.state = StateIdle
		return true
	}

	return false
}

func (w *Watchdog) debugf(format string, args ...any) {
	if w.log != nil {
		w.log.Debugf(format+"\n", args...)
	}
}
