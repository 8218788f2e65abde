package cli

import (
	"context"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

var errMissingArg = goerr.New("missing argument")

// idArg parses the first positional argument as a positive ID
func idArg(c *cli.Command, name string) (int64, error) {
	if c.Args().Len() == 0 {
		return 0, goerr.Wrap(errMissingArg, "ID is required", goerr.V("arg", name))
	}
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.New("invalid ID", goerr.V("arg", name), goerr.V("value", raw))
	}
	return id, nil
}

func cmdView() *cli.Command {
	var apiCfg config.API

	// action binds a viewer to each subcommand
	action := func(fn func(ctx context.Context, c *cli.Command, v *viewer) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			client, err := apiCfg.Configure()
			if err != nil {
				return err
			}
			return fn(ctx, c, newViewer(client, c.Root().Writer))
		}
	}

	var modelFile string
	var fieldSlug string
	var delta int
	var dataFile string
	var values []string

	return &cli.Command{
		Name:    "view",
		Aliases: []string{"v"},
		Usage:   "Terminal views of the web app backed by the REST API",
		Flags:   apiCfg.Flags(),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List risk models",
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					return v.list(ctx)
				}),
			},
			{
				Name:  "field-types",
				Usage: "List field types",
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					return v.fieldTypes(ctx)
				}),
			},
			{
				Name:      "show",
				Usage:     "Show a risk model and its fields",
				ArgsUsage: "RISK_MODEL_ID",
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					id, err := idArg(c, "RISK_MODEL_ID")
					if err != nil {
						return err
					}
					return v.model(ctx, id)
				}),
			},
			{
				Name:  "create",
				Usage: "Create a risk model from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Aliases:     []string{"f"},
						Usage:       "JSON file of the risk model",
						Required:    true,
						Destination: &modelFile,
					},
				},
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					return v.create(ctx, modelFile)
				}),
			},
			{
				Name:      "edit",
				Usage:     "Replace a risk model with a JSON file. Fields not in the file are removed.",
				ArgsUsage: "RISK_MODEL_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "file",
						Aliases:     []string{"f"},
						Usage:       "JSON file of the risk model",
						Required:    true,
						Destination: &modelFile,
					},
				},
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					id, err := idArg(c, "RISK_MODEL_ID")
					if err != nil {
						return err
					}
					return v.edit(ctx, id, modelFile)
				}),
			},
			{
				Name:      "move-field",
				Usage:     "Swap a field with the one delta positions away",
				ArgsUsage: "RISK_MODEL_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "field",
						Usage:       "Slug of the field to move",
						Required:    true,
						Destination: &fieldSlug,
					},
					&cli.IntFlag{
						Name:        "delta",
						Usage:       "Relative offset, negative moves up",
						Value:       -1,
						Destination: &delta,
					},
				},
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					id, err := idArg(c, "RISK_MODEL_ID")
					if err != nil {
						return err
					}
					return v.moveField(ctx, id, fieldSlug, delta)
				}),
			},
			{
				Name:      "form",
				Usage:     "Show the form of a risk model, or submit risk data with --set/--data",
				ArgsUsage: "RISK_MODEL_ID",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:        "set",
						Usage:       "Field value as slug=value, repeat a slug for a list",
						Destination: &values,
					},
					&cli.StringFlag{
						Name:        "data",
						Usage:       "JSON file of field values keyed by slug",
						Destination: &dataFile,
					},
				},
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					id, err := idArg(c, "RISK_MODEL_ID")
					if err != nil {
						return err
					}
					if len(values) == 0 && dataFile == "" {
						return v.form(ctx, id)
					}
					return v.submit(ctx, id, values, dataFile)
				}),
			},
			{
				Name:      "log",
				Usage:     "List successful risk data submissions of a risk model",
				ArgsUsage: "RISK_MODEL_ID",
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					id, err := idArg(c, "RISK_MODEL_ID")
					if err != nil {
						return err
					}
					return v.log(ctx, id)
				}),
			},
			{
				Name:      "data",
				Usage:     "Show the values of one risk data submission",
				ArgsUsage: "FORM_SUBMIT_ID",
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					id, err := idArg(c, "FORM_SUBMIT_ID")
					if err != nil {
						return err
					}
					return v.data(ctx, id)
				}),
			},
			{
				Name:      "open",
				Usage:     "Render the view of a web app path, e.g. /risk/log/1",
				ArgsUsage: "PATH",
				Action: action(func(ctx context.Context, c *cli.Command, v *viewer) error {
					if c.Args().Len() == 0 {
						return goerr.Wrap(errMissingArg, "PATH is required")
					}
					return v.open(ctx, c.Args().First())
				}),
			},
		},
	}
}
