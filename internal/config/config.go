package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/rasync/internal/api"
	"github.com/mcoot/rasync/internal/factory"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/raapi"
	"github.com/mcoot/rasync/internal/services/credentials"
	"github.com/mcoot/rasync/internal/services/presence"
	"github.com/mcoot/rasync/internal/services/setsync"
	"github.com/mcoot/rasync/internal/services/submission"
	redisstorage "github.com/mcoot/rasync/internal/storage/redis"
)

// Config is the daemon configuration read from RASYNC_* environment variables
type Config struct {
	Host     string     `env:"RASYNC_HOST"`
	Port     int        `env:"RASYNC_PORT"      envDefault:"8080"`
	LogLevel slog.Level `env:"RASYNC_LOG_LEVEL" envDefault:"info"`
	APIToken string     `env:"RASYNC_API_TOKEN"`

	StorageType string `env:"RASYNC_STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"RASYNC_REDIS_URL"`

	RABaseURL      string        `env:"RASYNC_RA_BASE_URL"      envDefault:"https://retroachievements.org/dorequest.php"`
	AppName        string        `env:"RASYNC_APP_NAME"         envDefault:"rasync"`
	AppVersion     string        `env:"RASYNC_APP_VERSION"      envDefault:"dev"`
	RequestTimeout time.Duration `env:"RASYNC_REQUEST_TIMEOUT"  envDefault:"10s"`

	HardcoreMode  bool     `env:"RASYNC_HARDCORE_MODE"`
	OptInSetTypes []string `env:"RASYNC_OPT_IN_SET_TYPES" envSeparator:","`

	SubmitMaxAttempts     int           `env:"RASYNC_SUBMIT_MAX_ATTEMPTS"     envDefault:"5"`
	SubmitInitialInterval time.Duration `env:"RASYNC_SUBMIT_INITIAL_INTERVAL" envDefault:"1s"`
	SubmitMaxInterval     time.Duration `env:"RASYNC_SUBMIT_MAX_INTERVAL"     envDefault:"30s"`
	SubmitConcurrency     int           `env:"RASYNC_SUBMIT_CONCURRENCY"      envDefault:"4"`

	HeartbeatInterval time.Duration `env:"RASYNC_HEARTBEAT_INTERVAL" envDefault:"2m"`
	CredentialSecret  string        `env:"RASYNC_CREDENTIAL_SECRET"`
}

// Load reads configuration from the process environment
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given variables instead of the
// process environment
func LoadFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("RASYNC_REDIS_URL required when RASYNC_STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid RASYNC_STORAGE_TYPE %q: must be 'memory' or 'redis'", c.StorageType)
	}
	for _, t := range c.OptInSetTypes {
		if _, ok := model.ParseSetType(t); !ok {
			return fmt.Errorf("invalid set type %q in RASYNC_OPT_IN_SET_TYPES", t)
		}
	}
	return nil
}

// Factory converts the configuration into factory settings
func (c Config) Factory(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: c.StorageType,
		API: raapi.Config{
			BaseURL:    c.RABaseURL,
			AppName:    c.AppName,
			AppVersion: c.AppVersion,
			Timeout:    c.RequestTimeout,
		},
		Credentials: credentials.Config{Secret: c.CredentialSecret},
		Submission: submission.Config{
			MaxAttempts:     c.SubmitMaxAttempts,
			InitialInterval: c.SubmitInitialInterval,
			MaxInterval:     c.SubmitMaxInterval,
			Concurrency:     c.SubmitConcurrency,
		},
		Sync: setsync.Config{
			HardcoreMode: c.HardcoreMode,
		},
		Presence: presence.Config{Interval: c.HeartbeatInterval},
	}

	for _, t := range c.OptInSetTypes {
		setType, _ := model.ParseSetType(t)
		cfg.Sync.OptInSetTypes = append(cfg.Sync.OptInSetTypes, setType)
	}

	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		cfg.RedisConfig = &redisCfg
	}

	return cfg
}

// Server converts the configuration into HTTP server settings
func (c Config) Server() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	return cfg
}
