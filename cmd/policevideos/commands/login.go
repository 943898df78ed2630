package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks the stored session and logs in again if the portal no longer accepts it.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		scraper := createScraper(cmd.Context(), cfg)
		slog.Info("logged in", "session_file", sessionPath)
		slog.Debug("portal session", "id", scraper.Client().SessionId())
	},
}
