package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Search   SearchConfig   `mapstructure:"search"`
	Sessions SessionsConfig `mapstructure:"sessions"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig groups the catalog provider settings.
type MetadataConfig struct {
	TMDB        TMDBConfig        `mapstructure:"tmdb"`
	GoogleBooks GoogleBooksConfig `mapstructure:"google_books"`
}

// TMDBConfig holds settings for the video-media catalog.
type TMDBConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	ImageBaseURL      string  `mapstructure:"image_base_url"`
	Language          string  `mapstructure:"language"`
	Timeout           int     `mapstructure:"timeout"` // seconds
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// GoogleBooksConfig holds settings for the book catalog. The API key is optional.
type GoogleBooksConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Timeout           int     `mapstructure:"timeout"` // seconds
	MaxResults        int     `mapstructure:"max_results"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// BackendConfig holds settings for the hosted persistence backend.
type BackendConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// SearchConfig holds query controller settings.
type SearchConfig struct {
	DebounceMS     int `mapstructure:"debounce_ms"`
	MinQueryLength int `mapstructure:"min_query_length"`
}

// SessionsConfig controls how long abandoned compositions are kept.
type SessionsConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	SweepCron   string        `mapstructure:"sweep_cron"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metadata: MetadataConfig{
			TMDB: TMDBConfig{
				APIKey:            EmbeddedTMDBKey,
				BaseURL:           "https://api.themoviedb.org/3",
				ImageBaseURL:      "https://image.tmdb.org/t/p",
				Language:          "en-US",
				Timeout:           15,
				RequestsPerSecond: 20,
			},
			GoogleBooks: GoogleBooksConfig{
				BaseURL:           "https://www.googleapis.com/books/v1",
				Timeout:           15,
				MaxResults:        20,
				RequestsPerSecond: 5,
			},
		},
		Backend: BackendConfig{
			Timeout: 30,
		},
		Search: SearchConfig{
			DebounceMS:     300,
			MinQueryLength: 2,
		},
		Sessions: SessionsConfig{
			IdleTimeout: 6 * time.Hour,
			SweepCron:   "*/15 * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.toplist")
	}

	v.SetEnvPrefix("TOPLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults mirrors Default() into viper so env-only keys are picked up.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metadata.tmdb.api_key", d.Metadata.TMDB.APIKey)
	v.SetDefault("metadata.tmdb.base_url", d.Metadata.TMDB.BaseURL)
	v.SetDefault("metadata.tmdb.image_base_url", d.Metadata.TMDB.ImageBaseURL)
	v.SetDefault("metadata.tmdb.language", d.Metadata.TMDB.Language)
	v.SetDefault("metadata.tmdb.timeout", d.Metadata.TMDB.Timeout)
	v.SetDefault("metadata.tmdb.requests_per_second", d.Metadata.TMDB.RequestsPerSecond)

	v.SetDefault("metadata.google_books.api_key", d.Metadata.GoogleBooks.APIKey)
	v.SetDefault("metadata.google_books.base_url", d.Metadata.GoogleBooks.BaseURL)
	v.SetDefault("metadata.google_books.timeout", d.Metadata.GoogleBooks.Timeout)
	v.SetDefault("metadata.google_books.max_results", d.Metadata.GoogleBooks.MaxResults)
	v.SetDefault("metadata.google_books.requests_per_second", d.Metadata.GoogleBooks.RequestsPerSecond)

	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.anon_key", d.Backend.AnonKey)
	v.SetDefault("backend.timeout", d.Backend.Timeout)

	v.SetDefault("search.debounce_ms", d.Search.DebounceMS)
	v.SetDefault("search.min_query_length", d.Search.MinQueryLength)

	v.SetDefault("sessions.idle_timeout", d.Sessions.IdleTimeout)
	v.SetDefault("sessions.sweep_cron", d.Sessions.SweepCron)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DebounceWindow returns the quiescence window as a duration.
func (c *SearchConfig) DebounceWindow() time.Duration {
	if c.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}
