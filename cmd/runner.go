package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil are built from the resolved configuration when a command needs them.
type Runner struct {
	config      *shared.Config
	source      services.Source
	dest        services.Destination
	api         *services.APIService
	httpClient  *http.Client
	spotifyOpts []services.SpotifyOption
	logger      *log.Logger
	logOutput   io.Writer
	input       *bufio.Reader
	output      io.Writer
	palette     *ui.Palette
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config replaces loading --config when set. Environment and flags still apply on top.
	Config         *shared.Config
	Source         services.Source
	Destination    services.Destination
	API            *services.APIService
	HTTPClient     *http.Client
	SpotifyOptions []services.SpotifyOption
	// LogOutput receives log output. Defaults to [os.Stderr].
	LogOutput   io.Writer
	Input       io.Reader
	Output      io.Writer
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		source:      opts.Source,
		dest:        opts.Destination,
		api:         opts.API,
		httpClient:  opts.HTTPClient,
		spotifyOpts: opts.SpotifyOptions,
		logger:      shared.NewLogger(opts.LogOutput),
		logOutput:   opts.LogOutput,
		input:       bufio.NewReader(opts.Input),
		output:      opts.Output,
		palette:     ui.DefaultPalette,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig layers configuration sources, lowest precedence first:
// embedded defaults, config file, .env file, process environment, flags.
func (r *Runner) resolveConfig(cmd *cli.Command) (*shared.Config, error) {
	var config *shared.Config
	if r.config != nil {
		cp := *r.config
		config = &cp
	} else {
		loaded, err := shared.LoadConfigOrDefault(cmd.String("config"))
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := shared.LoadEnvFile(cmd.String("env-file")); err != nil {
		return nil, err
	}
	config.ApplyEnv()
	config.Apply(shared.Overrides{
		SpotifyClientID:     cmd.String("spotify-client-id"),
		SpotifyClientSecret: cmd.String("spotify-client-secret"),
		YTMusicAuthFile:     cmd.String("ytmusic-auth"),
		ProxyURL:            cmd.String("proxy-url"),
	})

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return config, nil
}

func (r *Runner) sourceFor(config *shared.Config) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}
	return r.spotifyFor(config)
}

func (r *Runner) spotifyFor(config *shared.Config) (*services.SpotifyService, error) {
	creds := config.Credentials.Spotify
	opts := r.spotifyOpts
	if r.httpClient != nil {
		opts = append([]services.SpotifyOption{services.WithHTTPClient(r.httpClient)}, opts...)
	}

	svc, err := services.NewSpotifyService(creds.ClientID, creds.ClientSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w (set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET or run 'sp2yt setup spotify')", err)
	}
	return svc, nil
}

func (r *Runner) destinationFor(config *shared.Config) services.Destination {
	if r.dest != nil {
		return r.dest
	}
	return r.youtubeFor(config)
}

func (r *Runner) youtubeFor(config *shared.Config) *services.YouTubeService {
	return services.NewYouTubeService(r.apiFor(config), config.Credentials.YouTube.AuthFile())
}

func (r *Runner) apiFor(config *shared.Config) *services.APIService {
	if r.api != nil {
		return r.api
	}
	return services.NewAPIService(config.Credentials.YouTube.ProxyURL, r.httpClient)
}

// prompt prints label and reads one line of input.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s: ", label); err != nil {
		return "", err
	}
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: no value entered for %s", shared.ErrMissingArgument, label)
	}
	return line, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
