package commands

import (
	"context"
	"fmt"
	"os"
	"policevideos/lib/restyutil"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	sessionPath string
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read (a <name>.local.<ext> file next to it overrides it).")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "<dev_state>/session.json5", "Where the portal session token is kept between runs.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information and dump http exchanges to <dev_state>/resty.")
}

var rootCmd = &cobra.Command{
	Use:   "policevideos",
	Short: "policevideos is a CLI for scraping protocols and their media off the police video portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		if !verbose {
			return
		}
		out, err := restyutil.NewFilesystemOutput("<dev_state>/resty/policege")
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to setup http dumps:", err)
			return
		}
		policege.SetRestyInstrumentOutput(out)
	},
}

// ExecuteContext runs the root command, cobra has already printed any error
// it returns.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
