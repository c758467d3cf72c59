package babyzen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Desarso/babyzen/models/gemini"
	"github.com/Desarso/babyzen/sessions"
	"github.com/Desarso/babyzen/stores"
)

// Config holds everything the service reads at startup.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Gemini        GeminiConfig       `mapstructure:"gemini"`
	Store         StoreSettings      `mapstructure:"store"`
	Log           LogConfig          `mapstructure:"log"`
	Conversations ConversationConfig `mapstructure:"conversations"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GeminiConfig struct {
	// APIKey may be empty; the AI features then report a configuration
	// error instead of the service refusing to start.
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreSettings selects the journal. Type "none" disables it.
type StoreSettings struct {
	Type       string            `mapstructure:"type"`
	Connection string            `mapstructure:"connection"`
	Options    map[string]string `mapstructure:"options"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ConversationConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:   gemini.DefaultModel,
			Timeout: gemini.DefaultTimeout,
		},
		Store: StoreSettings{
			Type:       "sqlite",
			Connection: "babyzen_journal.sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Conversations: ConversationConfig{
			IdleTimeout:   sessions.DefaultIdleTimeout,
			SweepSchedule: "@every 1m",
		},
	}
}

// LoadConfig reads an optional YAML file, then the environment. A .env file
// in the working directory is loaded first if present. path may be empty,
// in which case config.yaml is looked up in the working directory.
//
// Environment keys are the config keys upper-cased with a BABYZEN_ prefix,
// e.g. BABYZEN_SERVER_ADDR. The API key is also read from GEMINI_API_KEY or
// API_KEY.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("BABYZEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", "BABYZEN_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", d.Gemini.Model)
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.timeout", d.Gemini.Timeout)
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.connection", d.Store.Connection)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("conversations.idle_timeout", d.Conversations.IdleTimeout)
	v.SetDefault("conversations.sweep_schedule", d.Conversations.SweepSchedule)
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model is required")
	}
	switch c.Store.Type {
	case "sqlite", "postgres":
		if c.Store.Connection == "" {
			return fmt.Errorf("store.connection is required for store type %s", c.Store.Type)
		}
	case "", "none":
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	if c.Conversations.IdleTimeout <= 0 {
		return errors.New("conversations.idle_timeout must be positive")
	}
	return nil
}

// StoreConfig converts the settings for stores.NewStore.
func (c *Config) StoreConfig() *stores.StoreConfig {
	sc := stores.NewStoreConfig(c.Store.Type, c.Store.Connection)
	for k, v := range c.Store.Options {
		sc.WithOption(k, v)
	}
	return sc
}

// WithAPIKey sets the Gemini API key
func (c *Config) WithAPIKey(key string) *Config {
	c.Gemini.APIKey = key
	return c
}

// WithModel sets the Gemini model name
func (c *Config) WithModel(model string) *Config {
	c.Gemini.Model = model
	return c
}

// WithBaseURL points the AI client at a different endpoint.
func (c *Config) WithBaseURL(url string) *Config {
	c.Gemini.BaseURL = url
	return c
}

// WithAddr sets the listen address
func (c *Config) WithAddr(addr string) *Config {
	c.Server.Addr = addr
	return c
}

// WithSQLiteStore journals to the SQLite database at dbPath.
func (c *Config) WithSQLiteStore(dbPath string) *Config {
	c.Store = StoreSettings{Type: "sqlite", Connection: dbPath}
	return c
}

// WithPostgresStore journals to PostgreSQL.
func (c *Config) WithPostgresStore(dsn string) *Config {
	c.Store = StoreSettings{Type: "postgres", Connection: dsn}
	return c
}

// WithoutStore disables the journal.
func (c *Config) WithoutStore() *Config {
	c.Store = StoreSettings{Type: "none"}
	return c
}
