package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Disabled            bool   `env:"SAVE_DISABLED"`
	InitializeIfMissing bool   `env:"SAVE_INIT_IF_MISSING"`
	OverrideProfile     bool   `env:"SAVE_OVERRIDE_PROFILE"`
	OverrideProfileID   string `env:"SAVE_OVERRIDE_PROFILE_ID" envDefault:"test"`
	StandardProfileID   string `env:"SAVE_STANDARD_PROFILE_ID" envDefault:"save"`

	FileName      string `env:"SAVE_FILE_NAME" envDefault:"data.game"`
	UseEncryption bool   `env:"SAVE_USE_ENCRYPTION"`
	EncryptionKey string `env:"SAVE_ENCRYPTION_KEY"`

	Backend    string `env:"SAVE_BACKEND" envDefault:"file"`
	DataDir    string `env:"SAVE_DATA_DIR" envDefault:"./data/profiles"`
	SQLitePath string `env:"SAVE_SQLITE_PATH" envDefault:"./data/savekeep.db"`
	DBDSN      string `env:"SAVE_DB_DSN"`

	RedisAddr     string `env:"SAVE_REDIS_ADDR"`
	RedisPassword string `env:"SAVE_REDIS_PASSWORD"`
	RedisDB       int    `env:"SAVE_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"SAVE_REDIS_PREFIX" envDefault:"savekeep:"`

	NATSURL           string `env:"SAVE_NATS_URL"`
	NATSSubjectPrefix string `env:"SAVE_NATS_SUBJECT_PREFIX" envDefault:"savekeep"`

	HTTPAddr      string        `env:"SAVE_HTTP_ADDR" envDefault:":8080"`
	SequencesFile string        `env:"SAVE_SEQUENCES_FILE"`
	PollInterval  time.Duration `env:"SAVE_GATE_POLL_INTERVAL" envDefault:"500ms"`
	DialogueDelay time.Duration `env:"SAVE_DIALOGUE_DELAY" envDefault:"500ms"`
	FadeDuration  time.Duration `env:"SAVE_FADE_DURATION" envDefault:"1s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("SAVE_DB_DSN is required for backend %q", c.Backend)
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("SAVE_REDIS_ADDR is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unknown SAVE_BACKEND %q", c.Backend)
	}
	if c.UseEncryption && strings.TrimSpace(c.EncryptionKey) == "" {
		return fmt.Errorf("SAVE_ENCRYPTION_KEY is required when SAVE_USE_ENCRYPTION is set")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("SAVE_GATE_POLL_INTERVAL must be positive")
	}
	return nil
}
