package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/webapp"
	"github.com/urfave/cli/v3"
)

// WebApp holds CLI flags of the web app bootstrap
type WebApp struct {
	apiURL        string
	productionTip bool
	mountID       string
}

func (x *WebApp) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "Base URL of the REST API used by the web app",
			Category:    "Web app",
			Value:       "http://localhost:8000",
			Sources:     cli.EnvVars("RISKMODEL_API_URL"),
			Destination: &x.apiURL,
		},
		&cli.BoolFlag{
			Name:        "production-tip",
			Usage:       "Show development mode warnings in the browser",
			Category:    "Web app",
			Sources:     cli.EnvVars("RISKMODEL_PRODUCTION_TIP"),
			Destination: &x.productionTip,
		},
		&cli.StringFlag{
			Name:        "mount-id",
			Usage:       "ID of the page element the web app is mounted into",
			Category:    "Web app",
			Value:       webapp.DefaultMountID,
			Sources:     cli.EnvVars("RISKMODEL_MOUNT_ID"),
			Destination: &x.mountID,
		},
	}
}

func (x WebApp) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api-url", x.apiURL),
		slog.Bool("production-tip", x.productionTip),
	)
}

func (x *WebApp) Configure() (*webapp.App, error) {
	app, err := webapp.New(webapp.Config{
		APIURL:        x.apiURL,
		ProductionTip: x.productionTip,
		MountID:       x.mountID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure web app")
	}
	return app, nil
}
