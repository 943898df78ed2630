package commands

import (
	"errors"
	"fmt"
	"policevideos/lib/protocolstore"
	"policevideos/lib/protocolstore/db"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/serviceutil"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listDb string

func init() {
	listCmd.Flags().StringVar(&listDb, "db", "", "The sqlite database to read the snapshot from (overrides the config).")
	rootCmd.AddCommand(listCmd)
}

func protocolTable(snapshot protocolstore.Snapshot) table.Writer {
	t := newTable()
	t.SetTitle(fmt.Sprintf("run %s (%s)", snapshot.RunId, snapshot.Time.Format(time.DateTime)))
	t.AppendHeader(table.Row{"Protocol", "Car", "Date", "Violation", "Amount", "Status", "Media"})

	var total int64
	for _, p := range snapshot.Protocols {
		t.AppendRow(table.Row{
			p.Number,
			p.CarNumber,
			p.Date.Format(time.DateOnly),
			strings.TrimSpace(p.ViolationCode),
			policege.FormatAmount(p.Amount),
			p.Status.String(),
			len(p.Media),
		})
		if p.Status != policege.StatusPaidOnTime {
			total += p.Amount
		}
	}
	t.AppendFooter(table.Row{"", "", "", "Outstanding", policege.FormatAmount(total), "", ""})
	return t
}

var listCmd = &cobra.Command{
	Use:   "list [--db <path/to/output.db>]",
	Short: "Prints the protocols of the latest stored snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		if listDb != "" {
			cfg.Database.File = listDb
			cfg.Database.Url = ""
		}

		out, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		snapshot, err := protocolstore.NewStore(out).Latest(cmd.Context())
		if errors.Is(err, protocolstore.ErrNoRuns) {
			fmt.Println("no snapshots yet, run `policevideos scrape` first")
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to read snapshot", err)
		}

		protocolTable(snapshot).Render()
	},
}
