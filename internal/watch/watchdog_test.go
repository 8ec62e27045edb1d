package watch

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeHost is a scriptable Host. All fields are guarded so the Run
// integration test can flip them from the test goroutine.
type fakeHost struct {
	mu sync.Mutex

	location   string
	mountReady bool
	widget     string // username the injected widget is scoped to, "" = absent
	injectErr  error

	injects int
	removes int
}

func (h *fakeHost) Location() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location, nil
}

func (h *fakeHost) WidgetPresent() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.widget != ""
}

func (h *fakeHost) MountReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mountReady
}

func (h *fakeHost) Inject(username string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.injects++
	if h.injectErr != nil {
		return h.injectErr
	}
	h.widget = username
	return nil
}

func (h *fakeHost) Remove() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removes++
	h.widget = ""
}

func (h *fakeHost) set(fn func(*fakeHost)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h)
}

func TestUsernameFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://backloggd.com/u/alice/games", "alice"},
		{"https://backloggd.com/u/alice/games?page=2", "alice"},
		{"https://backloggd.com/u/bob", "bob"},
		{"https://backloggd.com/", ""},
		{"https://backloggd.com", ""},
		{"://bad url", ""},
	}

	for _, tc := range cases {
		if got := UsernameFromURL(tc.url); got != tc.want {
			t.Errorf("UsernameFromURL(%q): got %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestBootstrap_InjectsOnReadyMount(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/alice/games", mountReady: true}
	w := New(host, Config{}, nil)

	w.Bootstrap()

	if w.State() != StateSettled {
		t.Errorf("state: got %s, want settled", w.State())
	}
	if host.widget != "alice" {
		t.Errorf("widget: got %q, want scoped to alice", host.widget)
	}
}

func TestBootstrap_NoUsernameStaysIdle(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/", mountReady: true}
	w := New(host, Config{}, nil)

	w.Bootstrap()

	if w.State() != StateIdle {
		t.Errorf("state: got %s, want idle", w.State())
	}
	if host.injects != 0 {
		t.Errorf("injects: got %d, want 0", host.injects)
	}
}

func TestObserve_SameURLIsNoop(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/alice/games", mountReady: true}
	w := New(host, Config{}, nil)
	w.Bootstrap()

	if w.Observe(host.location) {
		t.Error("Observe of unchanged URL must not report a navigation")
	}
	if host.removes != 0 {
		t.Errorf("removes: got %d, want 0", host.removes)
	}
}

func TestObserve_NavigationTearsDown(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/alice/games", mountReady: true}
	w := New(host, Config{}, nil)
	w.Bootstrap()

	if !w.Observe("https://backloggd.com/u/bob/games") {
		t.Fatal("Observe must report the navigation")
	}

	if w.State() != StateTornDown {
		t.Errorf("state: got %s, want torn_down", w.State())
	}
	if w.Username() != "bob" {
		t.Errorf("username: got %q, want bob", w.Username())
	}
	if host.widget != "" {
		t.Errorf("widget still present after teardown: %q", host.widget)
	}
	if host.removes != 1 {
		t.Errorf("removes: got %d, want 1", host.removes)
	}
}

func TestObserve_NavigationToNoUsername(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/alice/games", mountReady: true}
	w := New(host, Config{}, nil)
	w.Bootstrap()

	if !w.Observe("https://backloggd.com/") {
		t.Fatal("Observe must report the navigation")
	}

	if w.State() != StateIdle {
		t.Errorf("state: got %s, want idle (no widget for unresolvable path)", w.State())
	}
	if host.widget != "" {
		t.Error("widget must be removed")
	}
}

func TestPollTick_WaitsForMountChildren(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/bob/games"}
	w := New(host, Config{}, nil)

	w.Observe(host.location)
	w.StartPolling()

	// Host render not finished: ticks make no progress.
	for i := 0; i < 3; i++ {
		if w.PollTick() {
			t.Fatal("PollTick finished before mount was ready")
		}
	}
	if host.injects != 0 {
		t.Errorf("injects: got %d, want 0 before mount ready", host.injects)
	}

	host.set(func(h *fakeHost) { h.mountReady = true })

	if !w.PollTick() {
		t.Fatal("PollTick must stop after successful injection")
	}
	if w.State() != StateSettled {
		t.Errorf("state: got %s, want settled", w.State())
	}
	if host.widget != "bob" {
		t.Errorf("widget: got %q, want scoped to bob", host.widget)
	}
}

func TestPollTick_StopsWhenWidgetAlreadyPresent(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/bob/games", mountReady: true}
	w := New(host, Config{}, nil)

	w.Observe(host.location)
	w.StartPolling()

	// Widget appeared between ticks (e.g. injected by an earlier attempt).
	host.set(func(h *fakeHost) { h.widget = "bob" })

	if !w.PollTick() {
		t.Fatal("PollTick must stop when the widget already exists")
	}
	if host.injects != 0 {
		t.Errorf("injects: got %d, want 0 (no double injection)", host.injects)
	}
	if w.State() != StateSettled {
		t.Errorf("state: got %s, want settled", w.State())
	}
}

func TestPollTick_GivesUpSilently(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/bob/games"}
	w := New(host, Config{MaxAttempts: 5}, nil)

	w.Observe(host.location)
	w.StartPolling()

	done := false
	ticks := 0
	for !done {
		done = w.PollTick()
		ticks++
		if ticks > 20 {
			t.Fatal("PollTick never gave up")
		}
	}

	// MaxAttempts ticks make no progress; the next one gives up.
	if ticks != 6 {
		t.Errorf("ticks until give-up: got %d, want 6", ticks)
	}
	if w.State() != StateIdle {
		t.Errorf("state: got %s, want idle after give-up", w.State())
	}
	if host.injects != 0 {
		t.Errorf("injects: got %d, want 0", host.injects)
	}
}

func TestPollTick_RetriesAfterInjectError(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/bob/games", mountReady: true, injectErr: context.DeadlineExceeded}
	w := New(host, Config{MaxAttempts: 3}, nil)

	w.Observe(host.location)
	w.StartPolling()

	if w.PollTick() {
		t.Fatal("PollTick must keep polling after a failed injection")
	}

	host.set(func(h *fakeHost) { h.injectErr = nil })

	if !w.PollTick() {
		t.Fatal("PollTick must stop once injection succeeds")
	}
	if host.injects != 2 {
		t.Errorf("injects: got %d, want 2", host.injects)
	}
}

// TestRun_NavigationReinjects drives the full timer loop with a fake
// host and short intervals: navigate alice -> bob, let the host "render",
// and expect a fresh widget scoped to bob.
func TestRun_NavigationReinjects(t *testing.T) {
	host := &fakeHost{location: "https://backloggd.com/u/alice/games", mountReady: true}
	w := New(host, Config{
		CheckInterval: 5 * time.Millisecond,
		SettleDelay:   5 * time.Millisecond,
		PollInterval:  5 * time.Millisecond,
		MaxAttempts:   30,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	waitFor := func(desc string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if cond() {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
		t.Fatalf("timeout waiting for %s", desc)
	}

	waitFor("initial widget", func() bool {
		host.mu.Lock()
		defer host.mu.Unlock()
		return host.widget == "alice"
	})

	// SPA navigation: the new page has not rendered yet.
	host.set(func(h *fakeHost) {
		h.location = "https://backloggd.com/u/bob/games"
		h.mountReady = false
	})

	waitFor("teardown", func() bool {
		host.mu.Lock()
		defer host.mu.Unlock()
		return host.widget == "" && host.removes >= 1
	})

	// Host finishes its render pass; the poll loop should inject.
	host.set(func(h *fakeHost) { h.mountReady = true })

	waitFor("re-injection for bob", func() bool {
		host.mu.Lock()
		defer host.mu.Unlock()
		return host.widget == "bob"
	})

	cancel()
	<-done
}
