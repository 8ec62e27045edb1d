package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/spf13/cobra"
	"github.com/ysmood/gson"

	"github.com/halvdan/backshelf/internal/config"
	"github.com/halvdan/backshelf/internal/library"
	"github.com/halvdan/backshelf/internal/scraper"
	"github.com/halvdan/backshelf/internal/search"
	"github.com/halvdan/backshelf/internal/store"
	"github.com/halvdan/backshelf/internal/ui"
	"github.com/halvdan/backshelf/internal/watch"
)

var flagHeadless bool

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Open a browser session on the host site and keep the search widget injected across navigations",
		RunE:  runWatch,
	}

	watchCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser headless")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, usedPath, err := loadConfig(config.Options{Headless: flagHeadless})
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	scr, err := newScraper(cfg, logSvc)
	if err != nil {
		return err
	}

	st := openStore(cfg, logSvc)
	if st != nil {
		defer func() {
			_ = st.Close()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, cleanup, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := exposeBindings(ctx, page, cfg, scr, st, logSvc); err != nil {
		return err
	}

	target := cfg.BaseURL
	if cfg.DefaultUser != "" {
		target = fmt.Sprintf("%s/u/%s/games", cfg.BaseURL, cfg.DefaultUser)
	}
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	_ = page.WaitLoad()

	wd := watch.New(watch.NewRodHost(page), watch.Config{
		CheckInterval: time.Duration(cfg.CheckIntervalMs) * time.Millisecond,
		SettleDelay:   time.Duration(cfg.SettleDelayMs) * time.Millisecond,
		PollInterval:  time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		MaxAttempts:   cfg.PollAttempts,
	}, logSvc)

	fmt.Println("Watch session running. Press Ctrl+C to end.")

	if err := wd.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println("\nWatch session ended.")
	return nil
}

func openSession(cfg *config.Config) (*rod.Page, func(), error) {
	l := launcher.New().Headless(cfg.Headless)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, nil, fmt.Errorf("create page: %w", err)
	}

	cleanup := func() {
		_ = browser.Close()
		l.Cleanup()
	}

	return page, cleanup, nil
}

// exposeBindings wires the widget's actions to Go: search and cache-info
// read from the store, refresh runs the full scrape pipeline. The
// bindings survive SPA navigations, so they are installed once per
// session rather than per injection.
func exposeBindings(ctx context.Context, page *rod.Page, cfg *config.Config, scr *scraper.Scraper, st *store.Store, logSvc *ui.Logger) error {
	loadEntry := func(username string) library.CacheEntry {
		if st == nil {
			return library.CacheEntry{}
		}
		entry, err := st.LoadLibrary(username)
		if err != nil {
			return library.CacheEntry{}
		}
		return entry
	}

	_, err := page.Expose("backshelfSearch", func(arg gson.JSON) (interface{}, error) {
		username := arg.Get("user").Str()
		query := arg.Get("query").Str()

		games := search.Search(query, loadEntry(username))

		out := make([]map[string]string, 0, len(games))
		for _, g := range games {
			out = append(out, map[string]string{
				"title": g.Title,
				"stars": g.Stars(),
				"url":   g.DetailURL(cfg.BaseURL),
			})
		}

		return map[string]interface{}{"games": out}, nil
	})
	if err != nil {
		return err
	}

	_, err = page.Expose("backshelfRefresh", func(arg gson.JSON) (interface{}, error) {
		username := arg.Get("user").Str()

		entry, err := scr.ScrapeAll(ctx, username, nil)
		if err != nil {
			logSvc.Debugf("refresh failed for %s: %v\n", username, err)
			return map[string]string{
				"message": "Error loading games. Check your connection or if the user exists.",
			}, nil
		}

		if st != nil {
			if err := st.SaveLibrary(username, entry); err != nil {
				logSvc.Debugf("cache write skipped: %v\n", err)
			}
		}

		return map[string]string{
			"message": fmt.Sprintf("Load complete: %d games cached.", len(entry.Games)),
		}, nil
	})
	if err != nil {
		return err
	}

	_, err = page.Expose("backshelfCacheInfo", func(arg gson.JSON) (interface{}, error) {
		username := arg.Get("user").Str()
		return map[string]string{"message": cacheInfoLine(st, username)}, nil
	})

	return err
}
