package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mairie/internal/attach"
	"mairie/internal/utils"
	"mairie/internal/views"
	"mairie/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

const cliDateLayout = "2006-01-02 15:04"

var createCommand = &cli.Command{
	Name:  "create",
	Usage: "Register a new dossier",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "first-name", Required: true},
		&cli.StringFlag{Name: "last-name", Required: true},
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "object", Required: true},
		&cli.StringFlag{Name: "service", Required: true},
		&cli.StringFlag{Name: "description", Required: true},
		&cli.StringSliceFlag{Name: "attach", Usage: "File to attach (repeatable)"},
	},
	Action: func(c *cli.Context) error {
		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		// Read every file before touching the collection.
		var attachments []types.Attachment
		for _, path := range c.StringSlice("attach") {
			att, err := attach.FromFile(path)
			if err != nil {
				return err
			}
			attachments = append(attachments, att)
		}

		d, err := a.manager.Create(c.Context, types.DossierFields{
			FirstName:   c.String("first-name"),
			LastName:    c.String("last-name"),
			Email:       c.String("email"),
			Object:      c.String("object"),
			Service:     c.String("service"),
			Description: c.String("description"),
		}, attachments...)
		if err != nil {
			return err
		}

		fmt.Fprintln(c.App.Writer, d.ID)
		return nil
	},
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List dossiers as one of the front office views",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "view",
			Aliases: []string{"v"},
			Usage:   "incoming, transmitted, rdv, closed, weekly, history or dashboard (everything)",
			Value:   string(views.ViewIncoming),
		},
	},
	Action: func(c *cli.Context) error {
		view, err := views.ParseView(c.String("view"))
		if err != nil {
			return err
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		listed := views.Project(view, a.manager.Dossiers(), a.manager.Now())
		return printDossiers(c.App.Writer, view.Title(), listed, a.manager.Now().Location())
	},
}

var showCommand = &cli.Command{
	Name:      "show",
	Usage:     "Print one dossier",
	ArgsUsage: "<dossier-id>",
	Action: func(c *cli.Context) error {
		id, err := requireArg(c, 0, "dossier-id")
		if err != nil {
			return err
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.manager.Dossier(id)
		if err != nil {
			return err
		}

		// Attachment bodies are data URLs; printing them is useless noise.
		for i := range d.Attachments {
			d.Attachments[i].Content = fmt.Sprintf("<%d chars>", len(d.Attachments[i].Content))
		}

		printer := pp.New()
		printer.SetOutput(c.App.Writer)
		printer.SetColoringEnabled(false)
		_, err = printer.Println(d)
		return err
	},
}

var statusCommand = &cli.Command{
	Name:      "status",
	Usage:     "Move a dossier to another status (NOUVEAU, TRANSMIS, RDV, CLOTURE)",
	ArgsUsage: "<dossier-id> <status>",
	Action: func(c *cli.Context) error {
		id, err := requireArg(c, 0, "dossier-id")
		if err != nil {
			return err
		}
		raw, err := requireArg(c, 1, "status")
		if err != nil {
			return err
		}

		status, err := types.ParseDossierStatus(raw)
		if err != nil {
			return err
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.manager.ChangeStatus(c.Context, id, status)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "%s\t%s\n", d.ID, d.Status)
		return nil
	},
}

var rdvCommand = &cli.Command{
	Name:      "rdv",
	Usage:     "Record appointment details on a dossier",
	ArgsUsage: "<dossier-id> <details>",
	Action: func(c *cli.Context) error {
		id, err := requireArg(c, 0, "dossier-id")
		if err != nil {
			return err
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.manager.SetRdvDetails(c.Context, id, strings.Join(c.Args().Tail(), " "))
		return err
	},
}

var detachCommand = &cli.Command{
	Name:      "detach",
	Usage:     "Remove an attachment from a dossier",
	ArgsUsage: "<dossier-id> <attachment-id>",
	Action: func(c *cli.Context) error {
		id, err := requireArg(c, 0, "dossier-id")
		if err != nil {
			return err
		}
		attachmentID, err := requireArg(c, 1, "attachment-id")
		if err != nil {
			return err
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.manager.RemoveAttachment(c.Context, id, attachmentID)
		return err
	},
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "Permanently delete a dossier",
	ArgsUsage: "<dossier-id>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm the deletion"},
	},
	Action: func(c *cli.Context) error {
		id, err := requireArg(c, 0, "dossier-id")
		if err != nil {
			return err
		}

		if !c.Bool("yes") {
			return errors.New("refusing to delete without --yes")
		}

		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.manager.Delete(c.Context, id)
		if err != nil {
			return err
		}

		if !deleted {
			a.logger.WithField("dossier_id", id).Warn("dossier not found, nothing deleted")
		}
		return nil
	},
}

var sweepCommand = &cli.Command{
	Name:  "sweep",
	Usage: "Archive every dossier created before the current week",
	Action: func(c *cli.Context) error {
		// Opening the app already runs the sweep.
		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintf(c.App.Writer, "%d dossiers archived, %d in history\n", a.swept, len(views.History(a.manager.Dossiers())))
		return nil
	},
}

var dashboardCommand = &cli.Command{
	Name:  "dashboard",
	Usage: "Print counts per status and per service",
	Action: func(c *cli.Context) error {
		a, err := openApp(c, false)
		if err != nil {
			return err
		}
		defer a.Close()

		dash := views.DashboardAggregate(a.manager.Dossiers())

		w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATUT\tDOSSIERS")
		for _, sc := range dash.StatusBreakdown() {
			fmt.Fprintf(w, "%s\t%d\n", sc.Status, sc.Count)
		}
		fmt.Fprintln(w, "\t")
		fmt.Fprintln(w, "SERVICE\tDOSSIERS")
		for _, sc := range dash.ServiceBreakdown() {
			fmt.Fprintf(w, "%s\t%d\n", sc.Service, sc.Count)
		}
		fmt.Fprintln(w, "\t")
		fmt.Fprintf(w, "actifs\t%d\narchivés\t%d\ntotal\t%d\n", dash.Active, dash.Archived, dash.Total)

		return w.Flush()
	},
}

func requireArg(c *cli.Context, n int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(n))
	if v == "" {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return v, nil
}

func printDossiers(out io.Writer, title string, dossiers []types.Dossier, loc *time.Location) error {
	fmt.Fprintf(out, "%s (%d)\n", title, len(dossiers))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCRÉÉ\tSTATUT\tSERVICE\tDEMANDEUR\tOBJET\tPJ")
	for _, d := range dossiers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			d.ID,
			utils.UnixMilliTime(d.CreatedAt, loc).Format(cliDateLayout),
			d.Status.Code(),
			views.ServiceKey(d.Service),
			d.FullName(),
			d.Object,
			len(d.Attachments),
		)
	}

	return w.Flush()
}
