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

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playlist API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.host and server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// dbCommand handles schema maintenance.
func dbCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Database schema commands",
		Commands: []*cli.Command{
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.DBRollback,
			},
			{
				Name:  "status",
				Usage: "List migrations and whether they are applied",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DBStatus,
			},
		},
	}
}

// seedCommand imports a PlaylisterData document.
func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Import users, songs and playlists from PlaylisterData JSON",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to a PlaylisterData JSON file",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "URL of a PlaylisterData JSON document (use 'default' for the public data set)",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete all existing data before importing",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "Password for every seeded account",
				Value: "password123",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the summary as JSON",
			},
		},
		Action: r.Seed,
	}
}

// maintenanceCommand handles consistency jobs.
func maintenanceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "maintenance",
		Aliases: []string{"maint"},
		Usage:   "Consistency checks and repairs",
		Commands: []*cli.Command{
			{
				Name:  "reconcile",
				Usage: "Recompute listener counts from the listener ledger",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "playlist-id",
						Usage: "Only reconcile this playlist",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the summary as JSON",
					},
				},
				Action: r.Reconcile,
			},
			{
				Name:  "verify",
				Usage: "Check that every playlist has gapless positions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "fix",
						Usage: "Compact playlists with gaps",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the summary as JSON",
					},
				},
				Action: r.Verify,
			},
		},
	}
}

// playlistCommand handles offline playlist operations.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export a playlist as CSV, Markdown, text or JSON",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, md, txt, json)",
						Value: "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory (default: stdout)",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}
