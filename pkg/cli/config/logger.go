package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags of the process wide logger
type Logger struct {
	level  string
	format string
	output string
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level [debug|info|warn|error]",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("RISKMODEL_LOG_LEVEL"),
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format [console|json]",
			Category:    "Logging",
			Value:       "console",
			Sources:     cli.EnvVars("RISKMODEL_LOG_FORMAT"),
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output [-|stdout|stderr|FILE]",
			Category:    "Logging",
			Value:       "-",
			Sources:     cli.EnvVars("RISKMODEL_LOG_OUTPUT"),
			Destination: &x.output,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
	)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Configure installs the logger as default and returns a function releasing its output
func (x *Logger) Configure() (func(), error) {
	logger, closer, err := x.New()
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	return closer, nil
}

// New builds the logger without installing it
func (x *Logger) New() (*slog.Logger, func(), error) {
	level, ok := logLevels[strings.ToLower(x.level)]
	if !ok {
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "invalid log level", goerr.V("level", x.level))
	}

	var w io.Writer
	closer := func() {}
	switch x.output {
	case "", "-", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		// #nosec G304 - path is provided by CLI flag
		f, err := os.OpenFile(x.output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		w = f
		closer = func() { _ = f.Close() }
	}

	// secrets in config structs and requests never reach the log
	filter := masq.New(
		masq.WithFieldName("Password"),
		masq.WithFieldName("DSN"),
		masq.WithFieldName("DatabaseURL"),
		masq.WithFieldPrefix("secret"),
		masq.WithTag("secret"),
	)

	var handler slog.Handler
	switch x.format {
	case "console", "":
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithColor(w == os.Stdout || w == os.Stderr),
		)
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		closer()
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "invalid log format", goerr.V("format", x.format))
	}

	return slog.New(handler), closer, nil
}
