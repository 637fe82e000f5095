package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/formsense/formsense/internal/learn"
	"github.com/formsense/formsense/internal/rules"
	"github.com/formsense/formsense/internal/scan"
)

func main() {
	app := &cli.App{
		Name:  "formsense",
		Usage: "detect PII form fields on web pages and autofill them from profiles",
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "detect form fields on a page and print a report",
				Flags:  scan.CommonFlags(),
				Action: scan.ScanAction,
			},
			{
				Name:  "fill",
				Usage: "detect form fields and fill them from a profile",
				Flags: append(scan.CommonFlags(),
					&cli.StringFlag{Name: "profile", Usage: "YAML profile with values to fill"},
					&cli.BoolFlag{Name: "print-html", Usage: "print the filled document instead of a report"},
				),
				Action: scan.FillAction,
			},
			{
				Name:  "rules",
				Usage: "manage site rules",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list built-in and custom rules",
						Flags:  dbFlag(),
						Action: rules.ListAction,
					},
					{
						Name:  "add",
						Usage: "store a custom rule from a YAML file",
						Flags: append(dbFlag(),
							&cli.StringFlag{Name: "rule-file", Usage: "YAML file with one site rule"},
						),
						Action: rules.AddAction,
					},
					{
						Name:  "remove",
						Usage: "delete a custom rule by pattern",
						Flags: append(dbFlag(),
							&cli.StringFlag{Name: "pattern", Usage: "pattern of the rule to delete"},
						),
						Action: rules.RemoveAction,
					},
					{
						Name:  "show",
						Usage: "print the rule that applies to a URL",
						Flags: append(dbFlag(),
							&cli.StringFlag{Name: "url", Usage: "page URL to resolve"},
							&cli.StringFlag{Name: "step", Usage: "checkout step name hint"},
						),
						Action: rules.ShowAction,
					},
				},
			},
			{
				Name:  "learn",
				Usage: "inspect and retrain from user corrections",
				Subcommands: []*cli.Command{
					{
						Name:   "log",
						Usage:  "print the correction learning log",
						Flags:  dbFlag(),
						Action: learn.LogAction,
					},
					{
						Name:   "retrain",
						Usage:  "induce fuzzy patterns from repeated corrections",
						Flags:  dbFlag(),
						Action: learn.RetrainAction,
					},
					{
						Name:  "export",
						Usage: "export corrections to a YAML file",
						Flags: append(dbFlag(),
							&cli.StringFlag{Name: "out", Usage: "output path"},
						),
						Action: learn.ExportAction,
					},
					{
						Name:  "import",
						Usage: "import corrections from a YAML export",
						Flags: append(dbFlag(),
							&cli.StringFlag{Name: "in", Usage: "input path"},
						),
						Action: learn.ImportAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db", Usage: "path to the state database (default: next to the binary)"},
	}
}
