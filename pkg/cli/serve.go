package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/cli/config"
	httpctrl "github.com/secmon-lab/riskmodel/pkg/controller/http"
	"github.com/secmon-lab/riskmodel/pkg/usecase"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var noWebApp bool
	var repoCfg config.Repository
	var storageCfg config.Storage
	var sentryCfg config.Sentry
	var webappCfg config.WebApp

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8000",
			Sources:     cli.EnvVars("RISKMODEL_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "no-web-app",
			Usage:       "Serve the REST API only",
			Sources:     cli.EnvVars("RISKMODEL_NO_WEB_APP"),
			Destination: &noWebApp,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, webappCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server of the REST API and the web app",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"repository", repoCfg,
				"storage", storageCfg,
				"sentry", sentryCfg,
				"webapp", webappCfg,
			)

			sentryCfg.SetRelease(version)
			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			files, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize file storage")
			}
			defer files.Close()

			var ucOpts []usecase.Option
			if files.Storage != nil {
				ucOpts = append(ucOpts, usecase.WithFileStorage(files.Storage))
			}
			uc := usecase.New(repo, ucOpts...)

			var httpOpts []httpctrl.Options
			if files.Media != nil {
				httpOpts = append(httpOpts, httpctrl.WithMedia(files.Media))
			}
			if !noWebApp {
				app, err := webappCfg.Configure()
				if err != nil {
					return err
				}
				httpOpts = append(httpOpts, httpctrl.WithWebApp(app))
			}

			httpHandler, err := httpctrl.New(uc, httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logger.Info("Context canceled, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown completed")
			return nil
		},
	}
}
