package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/halvdan/backshelf/internal/library"
	"github.com/halvdan/backshelf/internal/util"
)

// FetchError reports a failed page fetch. Status is zero for
// network-level failures.
type FetchError struct {
	Status int
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ProgressSink receives per-page progress during a scrape run.
// Implemented by ui.ProgressHandle; may be nil.
type ProgressSink interface {
	SetTotal(total int)
	Update(done, total int, games int64)
	MarkDone()
}

type Scraper struct {
	client  *http.Client
	baseURL string
}

func New(c *http.Client, baseURL string) *Scraper {
	return &Scraper{
		client:  c,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *Scraper) libraryURL(username string, page int) string {
	return fmt.Sprintf("%s/u/%s/games?page=%d", s.baseURL, username, page)
}

func (s *Scraper) fetchDOM(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := util.DoWithRetry(s.client, req, 3, 500*time.Millisecond)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Status: resp.StatusCode, URL: target}
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// ScrapeAll fetches every page of a user's library listing, strictly one
// page at a time, and returns the accumulated entry. Any page failure
// aborts the whole run; the caller's previously cached entry is never
// touched here. prog may be nil.
func (s *Scraper) ScrapeAll(ctx context.Context, username string, prog ProgressSink) (library.CacheEntry, error) {
	var entry library.CacheEntry

	doc, err := s.fetchDOM(ctx, s.libraryURL(username, 1))
	if err != nil {
		return entry, err
	}

	games := library.ParsePage(doc)
	maxPages := library.MaxPages(doc)

	if prog != nil {
		prog.SetTotal(maxPages)
		prog.Update(1, maxPages, int64(len(games)))
	}

	for page := 2; page <= maxPages; page++ {
		doc, err := s.fetchDOM(ctx, s.libraryURL(username, page))
		if err != nil {
			return library.CacheEntry{}, err
		}

		games = append(games, library.ParsePage(doc)...)

		if prog != nil {
			prog.Update(page, maxPages, int64(len(games)))
		}
	}

	if prog != nil {
		prog.MarkDone()
	}

	entry.Games = games
	entry.FetchedAt = time.Now().UnixMilli()

	return entry, nil
}
