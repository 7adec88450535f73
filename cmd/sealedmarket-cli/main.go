package main

import (
	"context"

	"sealedmarket-backend/cmd/sealedmarket-cli/commands"
	"sealedmarket-backend/lib/serviceutil"
	"sealedmarket-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(true)
	tel := telemetry.SetupFromEnvOptional(ctx, "sealedmarket-cli")
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
