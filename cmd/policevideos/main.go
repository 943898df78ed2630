package main

import (
	"context"
	"log/slog"
	"os"
	"policevideos/cmd/policevideos/commands"
	"policevideos/lib/serviceutil"
	"policevideos/lib/telemetry"
	"time"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "policevideos")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	if tel.Enabled() {
		telemetry.InstrumentPerfStats(ctx, time.Second*15)
	}

	err = commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	tel.Shutdown(shutdownCtx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}
