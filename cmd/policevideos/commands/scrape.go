package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	devenv "policevideos/dev/env"
	"policevideos/lib/protocolstore"
	"policevideos/lib/protocolstore/db"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/serviceutil"
	"policevideos/lib/textutil"
	"policevideos/lib/timezone"
	"time"

	"github.com/spf13/cobra"
)

var (
	scrapeDb       string
	scrapeMediaDir string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeDb, "db", "", "The sqlite database to write the snapshot to (overrides the config).")
	scrapeCmd.Flags().StringVar(&scrapeMediaDir, "media-dir", "", "If set, media files are also written to this directory.")
	rootCmd.AddCommand(scrapeCmd)
}

// writeMedia writes every media file as <number>_<idx>.<ext> into dir.
func writeMedia(dir string, protocols []policege.Protocol) error {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}
	for _, p := range protocols {
		for i, m := range p.Media {
			name := fmt.Sprintf("%s_%d.%s", textutil.SafeFilename(p.Number), i, m.Kind.Ext())
			err := os.WriteFile(filepath.Join(dir, name), m.Blob, 0644)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--db <path/to/output.db>] [--media-dir <dir>]",
	Short: "Scrapes every protocol of the configured account and stores a snapshot of them.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		if scrapeDb != "" {
			cfg.Database.File = scrapeDb
			cfg.Database.Url = ""
		}

		out, err := cfg.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		scraper := createScraper(ctx, cfg)

		t1 := time.Now()
		protocols, err := scraper.Protocols(ctx)
		if err != nil {
			serviceutil.Fatal("failed to scrape protocols", err)
		}
		t2 := time.Now()
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds(), "protocols", len(protocols))

		runId, err := protocolstore.NewStore(out).Push(ctx, protocolstore.PushRequest{
			Time:      timezone.Now(),
			Protocols: protocols,
		})
		if err != nil {
			serviceutil.Fatal("failed to store snapshot", err)
		}
		slog.Info("stored snapshot", "run", runId)

		if scrapeMediaDir != "" {
			err = writeMedia(scrapeMediaDir, protocols)
			if err != nil {
				serviceutil.Fatal("failed to write media", err)
			}
		}
	},
}
