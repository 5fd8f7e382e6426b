package main

import (
	"fmt"

	"mairie/internal/seed"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Add the sample dossiers that are missing",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "ids",
			Usage: "Only print this many unused dossier IDs, for new sample entries",
		},
	},
	Action: func(c *cli.Context) error {
		a, err := openApp(c, false)
		if err != nil {
			return fmt.Errorf("failed to open dossiers: %w", err)
		}
		defer a.Close()

		if n := c.Int("ids"); n > 0 {
			for _, id := range seed.FreshIDs(a.manager.Dossiers(), n, nil) {
				fmt.Fprintln(c.App.Writer, id)
			}
			return nil
		}

		a.logger.Info("Seeding sample dossiers...")
		inserted, archived, err := seed.SeedDossiers(c.Context, a.manager)
		if err != nil {
			return fmt.Errorf("failed to seed dossiers: %w", err)
		}

		a.logger.WithFields(logrus.Fields{
			"inserted": inserted,
			"archived": archived,
		}).Info("Sample dossiers seeded")

		return nil
	},
}
