// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the playlist HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "grace",
				Usage: "Time allowed for in-flight requests on shutdown",
				Value: 10 * time.Second,
			},
		},
		Action: r.Serve,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and storage",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// generateCommand builds a new playlist from a mood
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate and save a playlist for a mood",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "mood",
				Aliases:  []string{"m"},
				Usage:    "Free-form mood description",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "owner",
				Usage:    "Owner id the playlist is saved under",
				Required: true,
			},
			jsonFlag(),
		},
		Action: r.Generate,
	}
}

// appendCommand extends an existing playlist
func appendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "append",
		Usage: "Add tracks for a mood to an existing playlist",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "mood",
				Aliases:  []string{"m"},
				Usage:    "Free-form mood description",
				Required: true,
			},
			jsonFlag(),
		},
		Action: r.Append,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"ls"},
		Usage:   "List an owner's playlists, newest first",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "owner",
				Usage:    "Owner id",
				Required: true,
			},
			jsonFlag(),
		},
		Action: r.History,
	}
}

func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print a single playlist",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, markdown, csv, json)",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Show,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write every playlist of an owner to a directory",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "owner",
				Usage:    "Owner id",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "File format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (default: moodmix_export_{timestamp})",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of concurrent writers",
				Value:   4,
			},
		},
		Action: r.Export,
	}
}

// tokenCommand mints development bearer tokens
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a bearer token for the HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Owner id to put in the token subject",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: r.Token,
	}
}
