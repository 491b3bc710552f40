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

func manifestFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "manifest",
		Aliases: []string{"m"},
		Usage:   "Path to the task manifest (overrides config)",
	}
}

// syncCommand handles reconciliation runs.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile playlists against live broadcasts",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run every task in the manifest once",
				Flags: []cli.Flag{
					configFlag(),
					manifestFlag(),
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Compute plans without applying mutations",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.BoolFlag{
						Name:  "detail",
						Usage: "List affected videos per task",
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

// serveCommand runs the HTTP trigger/status surface.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve run and status endpoints over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			manifestFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Bind port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles OAuth authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage API authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize via browser and print the refresh token",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "url",
				Usage: "Print the authorization URL",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.AuthURL,
			},
		},
	}
}

// snapshotCommand inspects persisted run outcomes.
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Inspect the outcome of the most recent run",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the latest run summary",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "detail",
						Usage: "List affected videos per task",
					},
				},
				Action: r.SnapshotShow,
			},
		},
	}
}

// configCommand handles configuration scaffolding and validation.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "check",
				Usage: "Validate configuration and manifest",
				Flags: []cli.Flag{
					configFlag(),
					manifestFlag(),
				},
				Action: r.ConfigCheck,
			},
		},
	}
}
