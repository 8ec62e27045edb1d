package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/halvdan/backshelf/internal/config"
	"github.com/halvdan/backshelf/internal/scraper"
	"github.com/halvdan/backshelf/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagBaseURL    string
	flagCachePath  string
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

func init() {
	refreshCmd := &cobra.Command{
		Use:   "refresh [username]",
		Short: "Re-scrape a user's full game library into the local cache",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRefresh,
	}

	refreshCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "host site base URL")
	refreshCmd.Flags().StringVar(&flagCachePath, "cache", "", "cache database path")
	refreshCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	refreshCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	refreshCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, usedPath, err := loadConfig(config.Options{
		BaseURL:    flagBaseURL,
		CachePath:  flagCachePath,
		Cookie:     flagCookie,
		CookieFile: flagCookieFile,
		UserAgent:  flagUserAgent,
	})
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	username, err := resolveUser(args, cfg)
	if err != nil {
		return err
	}

	scr, err := newScraper(cfg, logSvc)
	if err != nil {
		return err
	}

	pm := ui.NewProgressManager()
	handle := pm.Register("u/" + username)

	entry, err := scr.ScrapeAll(context.Background(), username, handle)
	pm.Close()

	if err != nil {
		var fe *scraper.FetchError
		if errors.As(err, &fe) {
			logSvc.Debugf("scrape failed: %v\n", fe)
		}
		return fmt.Errorf("error loading games. Check your connection or if the user exists")
	}

	// A failed write keeps the run's result visible; only the cache goes stale.
	if st := openStore(cfg, logSvc); st != nil {
		if err := st.SaveLibrary(username, entry); err != nil {
			logSvc.Debugf("cache write skipped: %v\n", err)
		}
		_ = st.Close()
	}

	fmt.Printf("Load complete: %d games cached.\n", len(entry.Games))
	return nil
}
