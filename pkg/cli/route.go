package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/webapp"
	"github.com/urfave/cli/v3"
)

func cmdRoute() *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "Resolve a web app path to its view, or list routes without PATH",
		ArgsUsage: "[PATH]",
		Action: func(ctx context.Context, c *cli.Command) error {
			router := webapp.NewRouter()
			w := c.Root().Writer

			if c.Args().Len() == 0 {
				for _, r := range router.Routes() {
					fmt.Fprintf(w, "%-16s %s\n", r.Path, r.Name)
				}
				return nil
			}

			path := c.Args().First()
			m, ok := router.Resolve(path)
			if !ok {
				return goerr.Wrap(webapp.ErrRouteNotFound, "no view for path", goerr.V("path", path))
			}

			fmt.Fprintln(w, formatMatch(m))
			return nil
		},
	}
}

func formatMatch(m *webapp.Match) string {
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{m.Route.Name}
	for _, k := range keys {
		parts = append(parts, k+"="+m.Params[k])
	}
	return strings.Join(parts, " ")
}
