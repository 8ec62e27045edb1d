package cmd

import (
	"fmt"
	"strings"

	"github.com/halvdan/backshelf/internal/config"
	"github.com/halvdan/backshelf/internal/library"
	"github.com/halvdan/backshelf/internal/search"
	"github.com/halvdan/backshelf/internal/store"
	"github.com/halvdan/backshelf/internal/ui"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagSearchUser  string
	flagInteractive bool
)

func init() {
	searchCmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the cached library titles (normalized substring match)",
		RunE:  runSearch,
	}

	searchCmd.Flags().StringVar(&flagSearchUser, "user", "", "username whose cached library to search")
	searchCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "read queries interactively")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(config.Options{DefaultUser: flagSearchUser})
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)

	username, err := resolveUser(nil, cfg)
	if err != nil {
		return err
	}

	st := openStore(cfg, logSvc)
	if st == nil {
		fmt.Println("No games loaded.")
		return nil
	}
	defer func() {
		_ = st.Close()
	}()

	entry, err := st.LoadLibrary(username)
	if err == store.ErrNoCache {
		fmt.Println("No games loaded.")
		fmt.Printf("Run `backshelf refresh %s` first.\n", username)
		return nil
	}
	if err != nil {
		logSvc.Debugf("cache read failed: %v\n", err)
		fmt.Println("No games loaded.")
		return nil
	}

	if flagInteractive {
		return searchLoop(cfg, entry)
	}

	if len(args) == 0 {
		return fmt.Errorf("missing query (or use --interactive)")
	}

	printResults(cfg, search.Search(strings.Join(args, " "), entry))
	return nil
}

// searchLoop reads queries until an empty one, mirroring the widget's
// live input.
func searchLoop(cfg *config.Config, entry library.CacheEntry) error {
	for {
		prompt := promptui.Prompt{
			Label:     "Search game",
			AllowEdit: true,
		}

		query, err := prompt.Run()
		if err != nil {
			// ^C / ^D ends the session.
			return nil
		}
		if strings.TrimSpace(query) == "" {
			return nil
		}

		printResults(cfg, search.Search(query, entry))
		fmt.Println()
	}
}

func printResults(cfg *config.Config, games []library.Game) {
	fmt.Printf("Results: %d\n", len(games))

	for i, g := range games {
		title := g.Title
		if title == "" {
			title = "(untitled)"
		}

		fmt.Printf("%3d) %s  (%s)\n", i+1, title, g.Stars())
		if u := g.DetailURL(cfg.BaseURL); u != "" {
			fmt.Printf("     %s\n", u)
		}
	}
}
