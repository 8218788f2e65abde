package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/cli/config"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/usecase"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var fixturePath string
	var keep bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "fixture",
			Aliases:     []string{"f"},
			Usage:       "TOML file of risk models",
			Required:    true,
			Sources:     cli.EnvVars("RISKMODEL_FIXTURE"),
			Destination: &fixturePath,
		},
		&cli.BoolFlag{
			Name:        "keep",
			Usage:       "Keep existing data and skip fixture models whose name already exists",
			Destination: &keep,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Reset the repository and load risk models from a fixture",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			fixture, err := config.LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			_, err = seed(ctx, repo, fixture, !keep)
			return err
		},
	}
}

// seed loads fixture through the use case so models get the same validation
// and slugs as when created by the API. Without truncate, models whose name
// already exists are skipped. It returns the number of models created.
func seed(ctx context.Context, repo interfaces.Repository, fixture *config.Fixture, truncate bool) (int, error) {
	logger := logging.Default()

	if truncate {
		if err := repo.FieldValue().DeleteAll(ctx); err != nil {
			return 0, goerr.Wrap(err, "failed to delete field values")
		}
		if err := repo.FormSubmit().DeleteAll(ctx); err != nil {
			return 0, goerr.Wrap(err, "failed to delete form submits")
		}
		if err := repo.RiskModel().DeleteAll(ctx); err != nil {
			return 0, goerr.Wrap(err, "failed to delete risk models")
		}
		logger.Info("Repository truncated")
	}

	existing, err := repo.RiskModel().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list risk models")
	}
	names := make(map[string]struct{}, len(existing))
	for _, rm := range existing {
		names[rm.Name] = struct{}{}
	}

	uc := usecase.New(repo)
	var created int
	for _, input := range fixture.ToRiskModels() {
		if _, ok := names[strings.TrimSpace(input.Name)]; ok {
			logger.Info("Risk model already exists, skipped", "name", input.Name)
			continue
		}
		rm, err := uc.RiskModel.CreateRiskModel(ctx, input)
		if err != nil {
			return created, goerr.Wrap(err, "failed to create risk model", goerr.V("name", input.Name))
		}
		names[rm.Name] = struct{}{}
		created++
		logger.Info("Risk model created", "id", rm.ID, "name", rm.Name, "fields", len(rm.Fields))
	}
	return created, nil
}
