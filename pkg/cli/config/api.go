package config

import (
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/client"
	"github.com/urfave/cli/v3"
)

// API holds CLI flags of the REST API client used by view commands
type API struct {
	url     string
	timeout time.Duration
}

func (x *API) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "Base URL of the REST API",
			Category:    "API",
			Value:       "http://localhost:8000",
			Sources:     cli.EnvVars("RISKMODEL_API_URL"),
			Destination: &x.url,
		},
		&cli.DurationFlag{
			Name:        "api-timeout",
			Usage:       "Timeout of each API request",
			Category:    "API",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("RISKMODEL_API_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x *API) Configure() (*client.Client, error) {
	c, err := client.New(x.url, client.WithHTTPClient(&http.Client{Timeout: x.timeout}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure API client")
	}
	return c, nil
}
