package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Credentials CredentialsConfig `toml:"credentials"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Redis       RedisConfig       `toml:"redis"`
	Auth        AuthConfig        `toml:"auth"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxBodyBytes   int64  `toml:"max_body_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Timeout returns the per-request deadline.
func (s ServerConfig) Timeout() time.Duration {
	return seconds(s.RequestTimeout, 30)
}

// DatabaseConfig contains database connection settings.
//
// Driver selects the store: "sqlite" uses Path, "postgres" uses DSN.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIURL       string `toml:"api_url"`
}

// GeminiConfig contains generative language API settings.
type GeminiConfig struct {
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
}

// CatalogConfig tunes the per-term search fan-out.
type CatalogConfig struct {
	PerTermLimit int     `toml:"per_term_limit"`
	Workers      int     `toml:"workers"`
	RateLimit    float64 `toml:"rate_limit"`
	Timeout      int     `toml:"timeout"`
	CacheTTL     int     `toml:"cache_ttl"`
}

// SearchTimeout returns the HTTP timeout for one catalog search.
func (c CatalogConfig) SearchTimeout() time.Duration {
	return seconds(c.Timeout, 10)
}

// CacheExpiry returns the search cache TTL; zero disables caching.
func (c CatalogConfig) CacheExpiry() time.Duration {
	if c.CacheTTL <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTL) * time.Second
}

// RedisConfig configures the optional search cache and event channel.
type RedisConfig struct {
	URL     string `toml:"url"`
	Channel string `toml:"channel"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

// LogConfig sets the log level name.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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

// ResolveConfig loads the config at path, or the defaults when the file does not exist,
// then applies overrides from envFile (if present) and the process environment.
func ResolveConfig(path, envFile string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, config.Validate()
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Existing variables win and a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values from environment variables resolved by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q is not a number", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	str("CLIENT_ID", &c.Credentials.Spotify.ClientID)
	str("CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	str("GEMINI_API_KEY", &c.Credentials.Gemini.APIKey)
	str("REDIS_URL", &c.Redis.URL)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.Driver = "postgres"
		c.Database.DSN = v
	}

	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", ErrInvalidConfig)
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	if c.Catalog.PerTermLimit < 0 || c.Catalog.Workers < 0 {
		return fmt.Errorf("%w: catalog limits must not be negative", ErrInvalidConfig)
	}

	return nil
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
