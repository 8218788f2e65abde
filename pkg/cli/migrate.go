package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/cli/config"
	"github.com/secmon-lab/riskmodel/pkg/repository/firestore"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := append(repoCfg.FirestoreFlags(), &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Show the index changes without applying them",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore composite indexes of the repository",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			projectID := repoCfg.ProjectID()
			if projectID == "" {
				return goerr.Wrap(config.ErrInvalidConfig, "firestore-project-id is required")
			}

			logger.Info("Migrating indexes",
				"project_id", projectID,
				"database_id", repoCfg.DatabaseID(),
				"prefix", repoCfg.CollectionPrefix(),
				"dry_run", dryRun)

			indexConfig := getIndexConfig(repoCfg.CollectionPrefix())

			client, err := fireconf.New(ctx, projectID, repoCfg.DatabaseID(), indexConfig,
				fireconf.WithDryRun(dryRun),
				fireconf.WithLogger(logger),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to migrate indexes", goerr.V("project_id", projectID))
			}
			if dryRun {
				logger.Info("Dry run completed, no index was changed")
				return nil
			}
			logger.Info("Indexes migrated")
			return nil
		},
	}
}

// getIndexConfig returns the composite indexes queried by the Firestore repository
func getIndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionName(prefix, firestore.CollectionFormSubmits),
				Indexes: []fireconf.Index{
					// risk data log filtered by model: risk_model_id ASC, id DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "risk_model_id", Order: fireconf.OrderAscending},
							{Path: "id", Order: fireconf.OrderDescending},
						},
					},
					// successful submissions: success ASC, id DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "success", Order: fireconf.OrderAscending},
							{Path: "id", Order: fireconf.OrderDescending},
						},
					},
					{
						Fields: []fireconf.IndexField{
							{Path: "success", Order: fireconf.OrderAscending},
							{Path: "risk_model_id", Order: fireconf.OrderAscending},
							{Path: "id", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionName(prefix, firestore.CollectionFieldValues),
				Indexes: []fireconf.Index{
					// values of one submission: form_submit_id ASC, id ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "form_submit_id", Order: fireconf.OrderAscending},
							{Path: "id", Order: fireconf.OrderAscending},
						},
					},
					// unique value lookup: field_id ASC, value ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "field_id", Order: fireconf.OrderAscending},
							{Path: "value", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
