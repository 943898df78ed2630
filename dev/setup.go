package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	devenv "policevideos/dev/env"
	"policevideos/lib/configutil"
	"policevideos/lib/protocolstore/db"
)

func CreateProtocolDB() error {
	dbPath, err := devenv.ResolvePath(filepath.Join("<dev_state>", "protocols.db"))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbPath)
	if err == nil {
		fmt.Println("database already created at", dbPath)
		return nil
	}

	fmt.Println("creating database at", dbPath)
	sqlite, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer sqlite.Close()
	_, err = sqlite.Exec(db.Schema)
	return err
}

func writeTemplate(name string, value any) error {
	path, err := devenv.ResolvePath(filepath.Join("<dev_state>", name))
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("config already exists at", path)
		return nil
	}
	fmt.Println("writing config template to", path)
	return configutil.WriteConfig(path, value)
}

// CreateConfigTemplates writes empty configs for the live portal test so
// they only need to be filled in.
func CreateConfigTemplates() error {
	return writeTemplate("portal_config.json5", devenv.PortalTestConfig{
		BaseUrl: "https://videos.police.ge",
	})
}

func PrintConfigLocations() {
	slog.Info("the live portal test reads dev/.state/portal_config.json5, fill in the document number, vehicle number and anti-captcha key to run it.")
}
