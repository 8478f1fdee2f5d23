package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the run history database and runs migrations.
//
// The config file is created from the built-in template when it does not exist.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err != nil && configPath != "" {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is empty", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenHistory(config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("%s\n", r.palette.OK(fmt.Sprintf("Database ready at %s (schema version %d)", config.Database.Path, version)))
}

// SetupYouTube configures YouTube Music authentication from browser headers.
//
// The cURL command is turned into raw headers, the proxy converts them into
// browser auth content, and the result is written to the headers file.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("parsing cURL command for YouTube Music headers")

	var headers *shared.BrowserHeaders
	if curlFile != "" {
		if headers, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if headers, err = shared.ParseCurl(curlCmd); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	if err := headers.Validate(); err != nil {
		return err
	}

	headersRaw := headers.HeadersRaw()
	r.logger.Debug("generated headers_raw", "length", len(headersRaw))
	r.logger.Info("calling YouTube Music proxy setup endpoint")

	setupResp, err := r.apiFor(config).SetupBrowser(ctx, headersRaw)
	if err != nil {
		return fmt.Errorf("setup request failed: %w", err)
	}

	r.logger.Info("setup successful", "message", setupResp.Message)

	outputPath := shared.ExpandHome(cmd.String("output"))
	if outputPath == "" {
		outputPath = config.Credentials.YouTube.AuthFile()
	}
	if outputPath == "" {
		return fmt.Errorf("%w: no --output given and credentials.youtube.headers_path is empty", shared.ErrMissingArgument)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	authJSON, err := shared.MarshalJSON(setupResp.AuthContent, true)
	if err != nil {
		return fmt.Errorf("failed to marshal auth content: %w", err)
	}

	if err := os.WriteFile(outputPath, authJSON, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	r.logger.Info("browser.json saved", "path", outputPath)

	r.writePlain("%s\n", r.palette.OK("YouTube Music authentication configured successfully"))
	r.writePlain("Auth file saved to: %s\n", outputPath)
	if outputPath != config.Credentials.YouTube.AuthFile() {
		r.writePlainln("Next steps:")
		r.writePlain("1. Update config.toml with: credentials.youtube.headers_path = \"%s\"\n", outputPath)
		r.writePlain("   or export %s=%s\n", shared.EnvYTMusicAuthFile, outputPath)
		r.writePlain("2. Run 'sp2yt auth status' to test authentication\n")
	}
	return nil
}

// SetupSpotify saves Spotify client credentials to the .env file.
//
// Values missing from the flags are prompted for. The credentials are checked
// with a token request unless --skip-verify is set.
func (r *Runner) SetupSpotify(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	clientID := strings.TrimSpace(cmd.String("client-id"))
	if clientID == "" {
		if clientID, err = r.prompt("Spotify client ID"); err != nil {
			return err
		}
	}
	clientSecret := strings.TrimSpace(cmd.String("client-secret"))
	if clientSecret == "" {
		if clientSecret, err = r.prompt("Spotify client secret"); err != nil {
			return err
		}
	}

	clientID, clientSecret = strings.TrimSpace(clientID), strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("%w: client ID and client secret are required", shared.ErrMissingArgument)
	}

	if !cmd.Bool("skip-verify") {
		config.Credentials.Spotify.ClientID = clientID
		config.Credentials.Spotify.ClientSecret = clientSecret

		svc, err := r.spotifyFor(config)
		if err != nil {
			return err
		}
		r.logger.Info("verifying Spotify credentials")
		if err := svc.Authenticate(ctx); err != nil {
			return err
		}
	}

	envPath := cmd.String("env-file")
	if envPath == "" {
		envPath = ".env"
	}

	if err := shared.WriteEnvFile(envPath, map[string]string{
		shared.EnvSpotifyClientID:     clientID,
		shared.EnvSpotifyClientSecret: clientSecret,
	}); err != nil {
		return err
	}

	r.logger.Info("spotify credentials saved", "path", envPath)
	return r.writePlain("%s\n", r.palette.OK(fmt.Sprintf("Spotify credentials saved to %s", envPath)))
}
