package cmd

import (
	"fmt"
	"time"

	"github.com/halvdan/backshelf/internal/config"
	"github.com/halvdan/backshelf/internal/scraper"
	"github.com/halvdan/backshelf/internal/store"
	"github.com/halvdan/backshelf/internal/ui"
	"github.com/halvdan/backshelf/internal/util"
)

// loadConfig merges the active profile, environment, and shared flags.
func loadConfig(opts config.Options) (*config.Config, string, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = opts.Debug || flagDebug

	return config.LoadMerged(opts)
}

// resolveUser picks the username from the positional arg or the config's
// default_user.
func resolveUser(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.DefaultUser != "" {
		return cfg.DefaultUser, nil
	}

	return "", fmt.Errorf("missing username and no default_user in config")
}

// openStore opens the cache database. Storage is best-effort: on failure
// the caller gets nil and carries on without a cache.
func openStore(cfg *config.Config, log *ui.Logger) *store.Store {
	path := cfg.CachePath
	if path == "" {
		path = store.DefaultPath()
	}

	st, err := store.Open(path)
	if err != nil {
		log.Debugf("cache store unavailable: %v\n", err)
		return nil
	}

	return st
}

func newScraper(cfg *config.Config, log *ui.Logger) (*scraper.Scraper, error) {
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     30 * time.Second,
		UserAgent:   util.PickUserAgent(cfg.UserAgent),
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		DebugLogger: log,
	})
	if err != nil {
		return nil, err
	}

	return scraper.New(client, cfg.BaseURL), nil
}

// cacheInfoLine is the widget's cache summary, shared by the status
// command and the watch session.
func cacheInfoLine(st *store.Store, username string) string {
	if st == nil {
		return "No games loaded."
	}

	entry, err := st.LoadLibrary(username)
	if err != nil {
		return "No games loaded."
	}

	if entry.FetchedAt == 0 {
		return fmt.Sprintf("Games loaded: %d", len(entry.Games))
	}

	age := time.Since(time.UnixMilli(entry.FetchedAt))
	return fmt.Sprintf("Games loaded: %d (last updated: %s ago)", len(entry.Games), util.HumanAge(age))
}
