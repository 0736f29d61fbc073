package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/steamsync/internal/retry"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Database struct {
		URL       string `koanf:"url"`
		BatchSize int    `koanf:"batch_size"`
	} `koanf:"database"`

	Steam struct {
		BaseURL        string `koanf:"base_url"`
		PageSize       int    `koanf:"page_size"`
		RequestsPerMin int    `koanf:"requests_per_min"`

		Backoff struct {
			InitialDelayMS int `koanf:"initial_delay_ms"`
			MaxDelayMS     int `koanf:"max_delay_ms"`
			MaxAttempts    int `koanf:"max_attempts"`
		} `koanf:"backoff"`
	} `koanf:"steam"`

	Queue struct {
		MaxWorkers int `koanf:"max_workers"`
	} `koanf:"queue"`
}

// RetryConfig converts the backoff section into the retry executor's config.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		InitialDelay: time.Duration(c.Steam.Backoff.InitialDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(c.Steam.Backoff.MaxDelayMS) * time.Millisecond,
		MaxAttempts:  c.Steam.Backoff.MaxAttempts,
	}
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":                    8888,
		"database.batch_size":            100,
		"steam.page_size":                100,
		"steam.requests_per_min":         100,
		"steam.backoff.initial_delay_ms": 1000,
		"steam.backoff.max_delay_ms":     30000,
		"steam.backoff.max_attempts":     3,
		"queue.max_workers":              10,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./steamsync.toml", "$HOME/.steamsync.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix STEAMSYNC_
	k.Load(env.Provider("STEAMSYNC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STEAMSYNC_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# steamsync configuration

[server]
port = 8888

[database]
# Falls back to DATABASE_URL from the environment or a .env file when empty.
url = ""
batch_size = 100

[steam]
page_size = 100
requests_per_min = 100

[steam.backoff]
initial_delay_ms = 1000
max_delay_ms = 30000
max_attempts = 3

[queue]
max_workers = 10
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", config.Server.Port)
	}

	if config.Database.BatchSize < 1 {
		return fmt.Errorf("database batch_size must be at least 1")
	}

	if config.Steam.PageSize < 1 || config.Steam.PageSize > 100 {
		return fmt.Errorf("steam page_size must be between 1 and 100")
	}

	if config.Steam.Backoff.MaxDelayMS < config.Steam.Backoff.InitialDelayMS {
		return fmt.Errorf("steam backoff max_delay_ms must be >= initial_delay_ms")
	}

	if config.Queue.MaxWorkers < 1 {
		return fmt.Errorf("queue max_workers must be at least 1")
	}

	return nil
}
