package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"svcboot/pkg/bootstrap"
	"svcboot/pkg/cli"
	"svcboot/pkg/logger"
)

var version = "dev"

func main() {
	info := cli.AppInfo{
		Name:        "svcboot-demo",
		Description: "Logs one record per level and serves the status endpoint",
		Version:     version,
	}

	cmd := bootstrap.Command(info, func(_ context.Context, app *bootstrap.App) error {
		logger.Trace("This is trace")
		slog.Debug("This is debug")
		slog.Info("This is info")
		slog.Warn("This is warn")
		slog.Error("This is error")
		defer logger.Sync()

		return app.Wait()
	})

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
