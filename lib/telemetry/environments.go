package telemetry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"sealedmarket-backend/lib/configutil"
)

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once. a missing telemetry.json5 is fine in tests,
// spans just go nowhere.
func SetupForTesting(t testing.TB, serviceName string) func() {
	_, setupAlready := setupTestEnvironments[serviceName]
	if setupAlready {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	tel, err := SetupFromEnv(context.Background(), serviceName)
	if os.IsNotExist(err) {
		return func() {}
	}
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

// SetupFromEnv for binaries that should still run without a
// telemetry.json5 in scope.
func SetupFromEnvOptional(ctx context.Context, serviceName string) Telemetry {
	tel, err := SetupFromEnv(ctx, serviceName)
	if os.IsNotExist(err) {
		return Telemetry{}
	}
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
		return Telemetry{}
	}
	return tel
}
