package cli

import (
	"context"

	"github.com/goldenoak/threadline/pkg/cli/config"
	"github.com/goldenoak/threadline/pkg/utils/logging"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	// Local development reads flags from .env; missing file is fine
	_ = godotenv.Load()

	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "threadline",
		Usage:   "Customer identity resolution and conversation clustering service",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting threadline", "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdAggregate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
