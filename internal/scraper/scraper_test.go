package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// libraryPage renders a minimal listing page with the given titles and
// pagination anchors up to maxPages.
func libraryPage(titles []string, maxPages int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="user-games-library-container">`)

	for i, title := range titles {
		fmt.Fprintf(&b, `<div class="rating-hover"><div class="card" game_id="%d" data-rating="8">
			<a class="cover-link" href="/games/slug-%d/"></a>
			<div class="game-text-centered">%s</div>
		</div></div>`, i+1, i+1, title)
	}

	b.WriteString(`</div>`)

	if maxPages > 1 {
		b.WriteString(`<nav class="pagy">`)
		for p := 2; p <= maxPages; p++ {
			fmt.Fprintf(&b, `<a href="/u/alice/games?page=%d">%d</a>`, p, p)
		}
		b.WriteString(`</nav>`)
	}

	b.WriteString(`</body></html>`)
	return b.String()
}

func newLibraryServer(t *testing.T, pages map[string]string, failPage string) (*httptest.Server, *[]string) {
	t.Helper()

	var mu sync.Mutex
	var requested []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")

		mu.Lock()
		requested = append(requested, page)
		mu.Unlock()

		if page == failPage {
			http.NotFound(w, r)
			return
		}

		body, ok := pages[page]
		if !ok {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &requested
}

func TestScrapeAll_SinglePage(t *testing.T) {
	srv, requested := newLibraryServer(t, map[string]string{
		"1": libraryPage([]string{"Celeste", "Hades"}, 1),
	}, "")

	scr := New(srv.Client(), srv.URL)

	entry, err := scr.ScrapeAll(context.Background(), "alice", nil)
	if err != nil {
		t.Fatalf("ScrapeAll: %v", err)
	}

	if len(entry.Games) != 2 {
		t.Fatalf("games: got %d, want 2", len(entry.Games))
	}
	if entry.Games[0].Title != "Celeste" || entry.Games[1].Title != "Hades" {
		t.Errorf("games out of order: %v", entry.Games)
	}
	if entry.FetchedAt == 0 {
		t.Error("FetchedAt not set")
	}
	if len(*requested) != 1 {
		t.Errorf("requests: got %v, want exactly page 1", *requested)
	}
}

func TestScrapeAll_MultiPageOrder(t *testing.T) {
	srv, requested := newLibraryServer(t, map[string]string{
		"1": libraryPage([]string{"A1", "A2"}, 3),
		"2": libraryPage([]string{"B1"}, 3),
		"3": libraryPage([]string{"C1", "C2"}, 3),
	}, "")

	scr := New(srv.Client(), srv.URL)

	entry, err := scr.ScrapeAll(context.Background(), "alice", nil)
	if err != nil {
		t.Fatalf("ScrapeAll: %v", err)
	}

	want := []string{"A1", "A2", "B1", "C1", "C2"}
	if len(entry.Games) != len(want) {
		t.Fatalf("games: got %d, want %d", len(entry.Games), len(want))
	}
	for i, w := range want {
		if entry.Games[i].Title != w {
			t.Errorf("games[%d]: got %q, want %q (page order)", i, entry.Games[i].Title, w)
		}
	}

	// One request per page, strictly sequential.
	wantReqs := []string{"1", "2", "3"}
	if len(*requested) != len(wantReqs) {
		t.Fatalf("requests: got %v, want %v", *requested, wantReqs)
	}
	for i, w := range wantReqs {
		if (*requested)[i] != w {
			t.Errorf("request[%d]: got %q, want %q", i, (*requested)[i], w)
		}
	}
}

func TestScrapeAll_MidRunFailureAborts(t *testing.T) {
	srv, requested := newLibraryServer(t, map[string]string{
		"1": libraryPage([]string{"A"}, 5),
		"2": libraryPage([]string{"B"}, 5),
		"4": libraryPage([]string{"D"}, 5),
		"5": libraryPage([]string{"E"}, 5),
	}, "3")

	scr := New(srv.Client(), srv.URL)

	entry, err := scr.ScrapeAll(context.Background(), "alice", nil)
	if err == nil {
		t.Fatal("ScrapeAll: want error on page 3 failure")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type: got %T, want *FetchError", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("Status: got %d, want 404", fe.Status)
	}

	if len(entry.Games) != 0 {
		t.Errorf("aborted run leaked %d games", len(entry.Games))
	}

	// Pages 4 and 5 must never be requested after the abort.
	for _, p := range *requested {
		if p == "4" || p == "5" {
			t.Errorf("page %s fetched after failure", p)
		}
	}
}

func TestScrapeAll_FirstPageStatusError(t *testing.T) {
	srv, _ := newLibraryServer(t, nil, "1")

	scr := New(srv.Client(), srv.URL)

	_, err := scr.ScrapeAll(context.Background(), "ghost", nil)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type: got %T, want *FetchError", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("Status: got %d, want 404", fe.Status)
	}
}

func TestScrapeAll_NetworkFailure(t *testing.T) {
	srv, _ := newLibraryServer(t, nil, "")
	client := srv.Client()
	srv.Close()

	scr := New(client, srv.URL)

	_, err := scr.ScrapeAll(context.Background(), "alice", nil)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type: got %T, want *FetchError", err)
	}
	if fe.Status != 0 {
		t.Errorf("Status: got %d, want 0 for network-level failure", fe.Status)
	}
}
