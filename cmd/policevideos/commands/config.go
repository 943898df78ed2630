package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	devenv "policevideos/dev/env"
	"policevideos/lib/anticaptcha"
	"policevideos/lib/configutil"
	configlibsql "policevideos/lib/configutil/libsql"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/serviceutil"
	"policevideos/lib/telemetry"
)

type Config struct {
	Portal      policege.Config     `json:"portal"`
	AntiCaptcha anticaptcha.Options `json:"anti_captcha"`
	Database    configlibsql.Struct `json:"database"`
}

var errMissingAntiCaptchaKey = errors.New("anti_captcha.key is not configured, a new session cannot be negotiated")

type sessionState struct {
	SessionId string `json:"session_id"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Portal.BaseUrl == "" {
		cfg.Portal.BaseUrl = "https://videos.police.ge"
	}
	if cfg.Database.File == "" && cfg.Database.Url == "" {
		cfg.Database.File = "<dev_state>/protocols.db"
	}
	return cfg
}

func readSession() string {
	path, err := devenv.ResolvePath(sessionPath)
	if err != nil {
		serviceutil.Fatal("failed to resolve session path", err)
	}
	state, err := configutil.ReadConfig[sessionState](path)
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	if err != nil {
		slog.Warn("ignoring unreadable session state", "path", path, "err", err)
		return ""
	}
	return state.SessionId
}

func writeSession(id string) {
	path, err := devenv.ResolvePath(sessionPath)
	if err != nil {
		serviceutil.Fatal("failed to resolve session path", err)
	}
	err = configutil.WriteConfig(path, sessionState{SessionId: id})
	if err != nil {
		serviceutil.Fatal("failed to save session", err)
	}
}

// createScraper returns a logged in scraper, the session is only written
// back to disk when it changed.
func createScraper(ctx context.Context, cfg Config) *policege.Scraper {
	tel := telemetry.SlogAPI{}

	stored := readSession()
	if stored != "" {
		cfg.Portal.SessionId = stored
	}
	previous := cfg.Portal.SessionId

	var solver anticaptcha.Solver = anticaptcha.SolverFunc(func(context.Context, string) anticaptcha.Result {
		return anticaptcha.Failed(errMissingAntiCaptchaKey)
	})
	if cfg.AntiCaptcha.Key != "" {
		solver = anticaptcha.NewClient(cfg.AntiCaptcha, tel)
	}
	scraper, err := policege.NewScraper(ctx, &cfg.Portal, solver, tel)
	if err != nil {
		serviceutil.Fatal("failed to create scraper", err)
	}
	if cfg.Portal.SessionId != previous {
		writeSession(cfg.Portal.SessionId)
		slog.Info("stored new portal session", "path", sessionPath)
	}
	return scraper
}
