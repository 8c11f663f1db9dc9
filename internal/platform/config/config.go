// Package config loads service configuration from a per-profile default set, an
// optional YAML file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Profile string

const (
	ProfileDevelopment Profile = "development"
	ProfileStaging     Profile = "staging"
	ProfileProduction  Profile = "production"
)

// Backend selects the repository family.
type Backend string

const (
	BackendMock Backend = "mock"
	BackendLive Backend = "live"
)

// AuthMode selects how the HTTP adapter authenticates requests.
type AuthMode string

const (
	// AuthModeDev trusts the X-Debug-Subject header. Never enable outside development.
	AuthModeDev     AuthMode = "dev"
	AuthModeSession AuthMode = "session"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Profile  Profile        `yaml:"profile"`
	Backend  Backend        `yaml:"backend"`
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port     int      `yaml:"port"`
	AuthMode AuthMode `yaml:"authMode"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"pathStyle"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in settings for p.
func Defaults(p Profile) Config {
	cfg := Config{
		Profile: p,
		Backend: BackendLive,
		Server:  ServerConfig{Port: 8080, AuthMode: AuthModeSession},
		Postgres: PostgresConfig{
			MaxConns: 10,
		},
		Redis:   RedisConfig{SessionTTL: 24 * time.Hour},
		Storage: StorageConfig{Region: "us-east-1"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
	if p == ProfileDevelopment || p == "" {
		cfg.Profile = ProfileDevelopment
		cfg.Backend = BackendMock
		cfg.Server.AuthMode = AuthModeDev
		cfg.Log = LogConfig{Level: "debug", Format: "console"}
	}
	return cfg
}

// Load builds the configuration from FIELDOPS_PROFILE defaults, the YAML file at
// FIELDOPS_CONFIG_PATH (if set) and environment overrides. It does not validate.
func Load() (Config, error) {
	cfg := Defaults(Profile(strings.ToLower(os.Getenv("FIELDOPS_PROFILE"))))

	if path := os.Getenv("FIELDOPS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"DATABASE_URL":     &cfg.Postgres.DSN,
		"REDIS_ADDR":       &cfg.Redis.Addr,
		"REDIS_PASSWORD":   &cfg.Redis.Password,
		"STORAGE_BUCKET":   &cfg.Storage.Bucket,
		"STORAGE_REGION":   &cfg.Storage.Region,
		"STORAGE_ENDPOINT": &cfg.Storage.Endpoint,
		"LOG_LEVEL":        &cfg.Log.Level,
		"LOG_FORMAT":       &cfg.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("FIELDOPS_BACKEND"); v != "" {
		cfg.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		cfg.Server.AuthMode = AuthMode(strings.ToLower(v))
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT must be an integer: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.Redis.SessionTTL = d
	}
	if v := os.Getenv("STORAGE_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STORAGE_PATH_STYLE must be a boolean: %w", err)
		}
		cfg.Storage.PathStyle = b
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Profile {
	case ProfileDevelopment, ProfileStaging, ProfileProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown profile %q", c.Profile))
	}
	switch c.Backend {
	case BackendMock:
	case BackendLive:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the live backend"))
		}
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the live backend"))
		}
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required for the live backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	switch c.Server.AuthMode {
	case AuthModeSession:
	case AuthModeDev:
		if c.Profile == ProfileProduction {
			errs = append(errs, errors.New("dev auth mode is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q", c.Server.AuthMode))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
