package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Sentry holds CLI flags of error reporting. Reporting is off when dsn is empty.
type Sentry struct {
	dsn         string
	environment string
	release     string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Sources:     cli.EnvVars("RISKMODEL_SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Sources:     cli.EnvVars("RISKMODEL_SENTRY_ENV"),
			Destination: &x.environment,
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("dsn.len", len(x.dsn)),
		slog.String("env", x.environment),
	)
}

// SetRelease sets the release reported with events
func (x *Sentry) SetRelease(release string) {
	x.release = release
}

// Configure initializes the global Sentry client and returns a function
// flushing pending events
func (x *Sentry) Configure() (func(), error) {
	if x.dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     x.release,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}
	logging.Default().Info("Sentry error reporting enabled", "env", x.environment)

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
