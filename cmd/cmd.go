// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func progressFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "progress",
		Usage: "Path to the progress file (overrides export.progress_file)",
	}
}

// runFlags are shared by the root command and run so that `glx --output DIR` works.
func runFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		progressFlag(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory archives are downloaded to (overrides export.output_dir)",
		},
		&cli.StringFlag{
			Name:    "group",
			Aliases: []string{"g"},
			Usage:   "Only export projects in this group",
		},
		&cli.StringFlag{
			Name:  "exclude-group",
			Usage: "Skip projects in this group",
		},
		&cli.BoolFlag{
			Name:    "reset",
			Aliases: []string{"r"},
			Usage:   "Reset every download status to none and exit",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show progress in an interactive view",
		},
	}
}

// runCommand discovers projects, then exports and downloads each pending one.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Discover projects, then export and download every pending archive",
		Flags:  runFlags(),
		Action: r.Export,
	}
}

// resetCommand marks every project as not downloaded.
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Reset every download status to none (export statuses are kept)",
		Flags:  []cli.Flag{configFlag(), progressFlag()},
		Action: r.Reset,
	}
}

// statusCommand prints the progress file.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "status",
		Aliases: []string{"ls"},
		Usage:   "Show the export and download status of every known project",
		Flags: []cli.Flag{
			configFlag(),
			progressFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: table, csv, json or markdown",
				Value:   "table",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the report to a file instead of stdout",
			},
		},
		Action: r.Status,
	}
}

// verifyCommand checks downloaded archives against the progress file.
func verifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check downloaded archives and reset the ones that are missing or corrupt",
		Flags: []cli.Flag{
			configFlag(),
			progressFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory archives were downloaded to (overrides export.output_dir)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
		},
		Action: r.Verify,
	}
}

// setupCommand writes a starter configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a configuration file from the built-in template",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}
