// Sp2yt copies a Spotify playlist to YouTube Music through a ytmusicapi proxy.
//
// Usage:
//
//	sp2yt [flags] <playlist_url> <new_playlist_name>
package main

import "github.com/urfave/cli/v3"

// rootCommand is the transfer command; the remaining commands hang off it.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sp2yt",
		Usage:     "Recreate a public Spotify playlist on YouTube Music",
		ArgsUsage: "<playlist_url> <new_playlist_name>",
		Version:   version,
		Flags:     rootFlags(),
		Action:    r.Transfer,
		Commands:  r.register(),
	}
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file with credentials",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "spotify-client-id",
			Usage: "Spotify client ID (overrides SPOTIFY_CLIENT_ID)",
		},
		&cli.StringFlag{
			Name:  "spotify-client-secret",
			Usage: "Spotify client secret (overrides SPOTIFY_CLIENT_SECRET)",
		},
		&cli.StringFlag{
			Name:  "ytmusic-auth",
			Usage: "YouTube Music browser auth file (overrides YTMUSIC_AUTH_FILE)",
		},
		&cli.StringFlag{
			Name:  "proxy-url",
			Usage: "YouTube Music proxy URL (overrides YTMUSIC_PROXY_URL)",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Description of the new playlist",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Create a public playlist",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Match tracks without creating a playlist",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Path of the unmatched tracks report",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report format: txt, csv or json",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Append logs to this file",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "Open the new playlist in the browser",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Configure credentials and the run history database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"ytmusic"},
				Usage:   "Configure YouTube Music authentication from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from browser DevTools (as a string)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for browser.json (defaults to credentials.youtube.headers_path)",
					},
				},
				Action: r.SetupYouTube,
			},
			{
				Name:  "spotify",
				Usage: "Save Spotify client credentials to the .env file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "client-id",
						Usage: "Spotify client ID (prompted when omitted)",
					},
					&cli.StringFlag{
						Name:  "client-secret",
						Usage: "Spotify client secret (prompted when omitted)",
					},
					&cli.BoolFlag{
						Name:  "skip-verify",
						Usage: "Save without requesting a token first",
					},
				},
				Action: r.SetupSpotify,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Check service authentication",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Verify Spotify credentials and the YouTube Music auth file",
				Action: r.AuthStatus,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse past transfer runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show runs with this status (running, completed, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a run and its unmatched tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run-id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}
