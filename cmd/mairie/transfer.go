package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "Write the stored dossiers as a JSON backup",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output file; defaults to mairie_backup_<date>.json, '-' for stdout",
		},
		&cli.BoolFlag{
			Name:  "s3",
			Usage: "Also push the backup to the snapshot bucket",
		},
	},
	Action: func(c *cli.Context) error {
		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.manager.Export(c.Context)
		if err != nil {
			return err
		}

		out := c.String("out")
		if out == "" {
			out = fmt.Sprintf("mairie_backup_%s.json", a.manager.Now().Format("2006-01-02"))
		}

		if out == "-" {
			if _, err := c.App.Writer.Write(append(data, '\n')); err != nil {
				return err
			}
		} else {
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			a.logger.WithField("file", out).Info("backup written")
		}

		if !c.Bool("s3") {
			return nil
		}

		archive, err := a.snapshotArchive(c.Context)
		if err != nil {
			return err
		}
		if archive == nil {
			return errors.New("--s3 needs SNAPSHOT_BUCKET to be set")
		}

		_, err = archive.Push(c.Context, data, time.Now())
		return err
	},
}

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "Replace every dossier with the contents of a JSON backup",
	ArgsUsage: "[backup.json | -]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm replacing the current data"},
		&cli.BoolFlag{Name: "s3", Usage: "Restore the latest snapshot from the bucket instead of a file"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			return errors.New("import replaces all current dossiers; rerun with --yes")
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var (
			data   []byte
			source string
		)

		if c.Bool("s3") {
			archive, err := a.snapshotArchive(c.Context)
			if err != nil {
				return err
			}
			if archive == nil {
				return errors.New("--s3 needs SNAPSHOT_BUCKET to be set")
			}

			source, err = archive.Latest(c.Context)
			if err != nil {
				return err
			}

			data, err = archive.Pull(c.Context, source)
			if err != nil {
				return err
			}
		} else {
			source, err = requireArg(c, 0, "backup.json")
			if err != nil {
				return err
			}

			data, err = readSource(c.App.Reader, source)
			if err != nil {
				return err
			}
		}

		imported, err := a.manager.Import(c.Context, data)
		if err != nil {
			return err
		}

		a.logger.WithFields(logrus.Fields{
			"source":   source,
			"dossiers": len(imported),
		}).Info("import completed")

		return nil
	},
}

func readSource(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return data, nil
}
