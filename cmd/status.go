package cmd

import (
	"fmt"

	"github.com/halvdan/backshelf/internal/config"
	"github.com/halvdan/backshelf/internal/ui"

	"github.com/spf13/cobra"
)

func init() {
	statusCmd := &cobra.Command{
		Use:   "status [username]",
		Short: "Show cache freshness for a user, or list all cached users",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatus,
	}

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(config.Options{})
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)

	st := openStore(cfg, logSvc)
	if st == nil {
		fmt.Println("No games loaded.")
		return nil
	}
	defer func() {
		_ = st.Close()
	}()

	if username, err := resolveUser(args, cfg); err == nil {
		fmt.Printf("%s: %s\n", username, cacheInfoLine(st, username))
		return nil
	}

	users, err := st.Usernames()
	if err != nil || len(users) == 0 {
		fmt.Println("No games loaded.")
		return nil
	}

	for _, u := range users {
		fmt.Printf("%s: %s\n", u, cacheInfoLine(st, u))
	}

	return nil
}
