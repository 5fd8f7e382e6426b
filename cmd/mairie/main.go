package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mairie",
		Usage: "Track citizen dossiers for the mayor's office",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-prefix",
				Aliases: []string{"p"},
				Usage:   "Environment variable prefix",
				Value:   "MAIRIE",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional dotenv file read before the environment",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep dossiers in memory only; nothing survives the process",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			seedCommand,
			createCommand,
			listCommand,
			showCommand,
			statusCommand,
			rdvCommand,
			detachCommand,
			deleteCommand,
			sweepCommand,
			dashboardCommand,
			exportCommand,
			importCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
