package cli

import (
	"context"
	"io"
	"os"

	"github.com/secmon-lab/riskmodel/pkg/cli/config"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	return run(ctx, args, version, os.Stdout)
}

func run(ctx context.Context, args []string, version string, w io.Writer) error {
	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "riskmodel",
		Usage:   "Risk model management: define risk models and collect risk data",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Writer:  w,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Debug("Starting riskmodel", "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(version),
			cmdMigrate(),
			cmdSeed(),
			cmdRoute(),
			cmdView(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
