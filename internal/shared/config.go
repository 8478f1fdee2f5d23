package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variable names read by [Config.ApplyEnv].
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvYTMusicAuthFile     = "YTMUSIC_AUTH_FILE"
	EnvYTMusicProxyURL     = "YTMUSIC_PROXY_URL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Matching    MatchingConfig    `toml:"matching"`
	Transfer    TransferConfig    `toml:"transfer"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YouTubeConfig contains YouTube Music proxy settings and the browser auth file location.
type YouTubeConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// MatchingConfig tunes the track matching heuristic.
type MatchingConfig struct {
	DurationTolerance int     `toml:"duration_tolerance"`
	MinScore          float64 `toml:"min_score"`
	TitleWeight       float64 `toml:"title_weight"`
	ArtistWeight      float64 `toml:"artist_weight"`
	DurationWeight    float64 `toml:"duration_weight"`
	SearchLimit       int     `toml:"search_limit"`
	SearchRate        float64 `toml:"search_rate"`
}

// TransferConfig contains playlist creation and reporting settings.
type TransferConfig struct {
	BatchSize    int    `toml:"batch_size"`
	Public       bool   `toml:"public"`
	Description  string `toml:"description"`
	ReportDir    string `toml:"report_dir"`
	ReportFormat string `toml:"report_format"`
	LogFile      string `toml:"log_file"`
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Overrides holds command-line values that take precedence over all other sources.
//
// Empty fields leave the configured value untouched.
type Overrides struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	YTMusicAuthFile     string
	ProxyURL            string
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads variables from a .env file into the process environment.
//
// Variables that are already set are not overwritten. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// WriteEnvFile merges values into the .env file at path, keeping unrelated keys.
func WriteEnvFile(path string, values map[string]string) error {
	existing := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		if existing, err = godotenv.Read(path); err != nil {
			return fmt.Errorf("failed to read env file %s: %w", path, err)
		}
	}

	for k, v := range values {
		existing[k] = v
	}

	if err := godotenv.Write(existing, path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

// ApplyEnv overlays credentials found in the process environment.
func (c *Config) ApplyEnv() {
	setIf(&c.Credentials.Spotify.ClientID, os.Getenv(EnvSpotifyClientID))
	setIf(&c.Credentials.Spotify.ClientSecret, os.Getenv(EnvSpotifyClientSecret))
	setIf(&c.Credentials.YouTube.HeadersPath, os.Getenv(EnvYTMusicAuthFile))
	setIf(&c.Credentials.YouTube.ProxyURL, os.Getenv(EnvYTMusicProxyURL))
}

// Apply overlays command-line overrides.
func (c *Config) Apply(o Overrides) {
	setIf(&c.Credentials.Spotify.ClientID, o.SpotifyClientID)
	setIf(&c.Credentials.Spotify.ClientSecret, o.SpotifyClientSecret)
	setIf(&c.Credentials.YouTube.HeadersPath, o.YTMusicAuthFile)
	setIf(&c.Credentials.YouTube.ProxyURL, o.ProxyURL)
}

// Validate checks the values that have no usable fallback.
func (c *Config) Validate() error {
	m := c.Matching
	if m.DurationTolerance < 0 {
		return fmt.Errorf("%w: matching.duration_tolerance must be >= 0", ErrInvalidConfig)
	}
	if m.MinScore < 0 || m.MinScore > 1 {
		return fmt.Errorf("%w: matching.min_score must be between 0 and 1", ErrInvalidConfig)
	}
	if m.TitleWeight < 0 || m.ArtistWeight < 0 || m.DurationWeight < 0 {
		return fmt.Errorf("%w: matching weights must be >= 0", ErrInvalidConfig)
	}
	if m.TitleWeight+m.ArtistWeight+m.DurationWeight == 0 {
		return fmt.Errorf("%w: at least one matching weight must be positive", ErrInvalidConfig)
	}
	if m.SearchRate < 0 {
		return fmt.Errorf("%w: matching.search_rate must be >= 0", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Transfer.ReportFormat) {
	case "", "txt", "text", "csv", "json":
	default:
		return fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, c.Transfer.ReportFormat)
	}
	return nil
}

// HasCredentials reports whether both client ID and secret are set.
func (s SpotifyConfig) HasCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// AuthFile returns the expanded browser headers path.
func (y YouTubeConfig) AuthFile() string {
	return ExpandHome(y.HeadersPath)
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
