package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

// Config holds the application's configuration.
type Config struct {
	AppEnv string `yaml:"app_env" env:"AJALI_APP_ENV" env-default:"development"`

	Server struct {
		Port string `yaml:"port" env:"AJALI_SERVER_PORT" env-default:":5000"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver" env:"AJALI_DB_DRIVER" env-default:"sqlite"`
		URL    string `yaml:"url" env:"AJALI_DB_URL" env-default:"file:ajali.db"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret    string        `yaml:"jwt_secret" env:"AJALI_JWT_SECRET"`
		SessionTTL   time.Duration `yaml:"session_ttl" env:"AJALI_SESSION_TTL" env-default:"24h"`
		CookieName   string        `yaml:"cookie_name" env:"AJALI_COOKIE_NAME" env-default:"ajali_session"`
		CookieSecure bool          `yaml:"cookie_secure" env:"AJALI_COOKIE_SECURE"`
		// TestBypass lets unauthenticated requests through as TestUserID.
		TestBypass bool  `yaml:"test_bypass" env:"AJALI_AUTH_TEST_BYPASS"`
		TestUserID int64 `yaml:"test_user_id" env:"AJALI_AUTH_TEST_USER_ID" env-default:"1"`
	} `yaml:"auth"`

	Uploads struct {
		Backend          string `yaml:"backend" env:"AJALI_UPLOADS_BACKEND" env-default:"local"`
		Dir              string `yaml:"dir" env:"AJALI_UPLOADS_DIR" env-default:"uploads"`
		MaxBytes         int64  `yaml:"max_bytes" env:"AJALI_UPLOADS_MAX_BYTES" env-default:"16777216"`
		CloudinaryURL    string `yaml:"cloudinary_url" env:"CLOUDINARY_URL"`
		CloudinaryFolder string `yaml:"cloudinary_folder" env:"AJALI_CLOUDINARY_FOLDER" env-default:"ajali/incidents"`
	} `yaml:"uploads"`

	Janitor struct {
		Disabled         bool          `yaml:"disabled" env:"AJALI_JANITOR_DISABLED"`
		SessionPurgeSpec string        `yaml:"session_purge_spec" env:"AJALI_JANITOR_SESSION_PURGE_SPEC" env-default:"@every 1h"`
		OrphanSweepSpec  string        `yaml:"orphan_sweep_spec" env:"AJALI_JANITOR_ORPHAN_SWEEP_SPEC" env-default:"@every 6h"`
		OrphanGrace      time.Duration `yaml:"orphan_grace" env:"AJALI_JANITOR_ORPHAN_GRACE" env-default:"1h"`
	} `yaml:"janitor"`
}

// LoadConfig reads configuration from the specified YAML file and applies
// environment overrides on top. A missing file is not an error: defaults and
// the environment are enough to run locally.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Validate checks settings that would otherwise fail late or silently.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	if c.Auth.TestBypass && c.IsProduction() {
		return errors.New("auth.test_bypass cannot be enabled in production")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Uploads.Backend {
	case StorageLocal:
	case StorageCloudinary:
		if c.Uploads.CloudinaryURL == "" {
			return errors.New("uploads.cloudinary_url is required for the cloudinary backend")
		}
	default:
		return fmt.Errorf("unsupported uploads backend %q", c.Uploads.Backend)
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("uploads.max_bytes must be positive")
	}
	return nil
}
