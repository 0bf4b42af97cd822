// Package config loads server configuration: an optional YAML file (RODAJE_CONFIG) with
// environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rodaje/rodaje/pkg/model"
)

// ConfigFileEnv names the variable holding the optional YAML file path.
const ConfigFileEnv = "RODAJE_CONFIG"

// Config is the server configuration.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Routing  RoutingConfig  `koanf:"routing"`
	API      APIConfig      `koanf:"api"`
	Planner  PlannerConfig  `koanf:"planner"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// AppConfig holds process settings.
type AppConfig struct {
	Name      string `koanf:"name"`
	Env       string `koanf:"env"`
	Port      int    `koanf:"port"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

// DatabaseConfig configures Postgres. An empty Host disables persistence.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Name            string        `koanf:"name"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig configures the distance cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// RoutingConfig configures the OpenRouteService matrix client.
type RoutingConfig struct {
	Enabled bool          `koanf:"enabled"`
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Profile string        `koanf:"profile"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	RateLimit int           `koanf:"rate_limit"` // requests per minute per IP, 0 disables
	Timeout   time.Duration `koanf:"timeout"`
}

// PlannerConfig holds the defaults applied to requests that leave options unset.
type PlannerConfig struct {
	MaxEighthsPerDay   int     `koanf:"max_eighths_per_day"`
	TargetHoursPerDay  float64 `koanf:"target_hours_per_day"`
	HoursSlack         float64 `koanf:"hours_slack"`
	MaxLocationsPerDay int     `koanf:"max_locations_per_day"`
	SeparateDayNight   bool    `koanf:"separate_day_night"`
	AverageSpeedKmh    float64 `koanf:"average_speed_kmh"`
}

// Defaults fills the zero fields of o.
func (p PlannerConfig) Defaults(o model.Options) model.Options {
	if o.MaxEighthsPerDay == 0 {
		o.MaxEighthsPerDay = p.MaxEighthsPerDay
	}
	if o.TargetHoursPerDay == 0 {
		o.TargetHoursPerDay = p.TargetHoursPerDay
	}
	if o.HoursSlack == nil {
		o.HoursSlack = model.Float(p.HoursSlack)
	}
	if o.MaxLocationsPerDay == 0 {
		o.MaxLocationsPerDay = p.MaxLocationsPerDay
	}
	if p.SeparateDayNight {
		o.SeparateDayNight = true
	}
	return o
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "rodaje", Env: "development", Port: 8080, LogLevel: "info", LogFormat: "console"},
		Database: DatabaseConfig{
			Port:            5432,
			Name:            "rodaje",
			User:            "rodaje",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{TTL: 24 * time.Hour},
		Routing: RoutingConfig{
			BaseURL: "https://api.openrouteservice.org",
			Profile: "driving-car",
			Timeout: 10 * time.Second,
		},
		API: APIConfig{RateLimit: 120, Timeout: 30 * time.Second},
		Planner: PlannerConfig{
			MaxEighthsPerDay:   model.DefaultMaxEighthsPerDay,
			TargetHoursPerDay:  model.DefaultTargetHoursPerDay,
			HoursSlack:         model.DefaultHoursSlack,
			MaxLocationsPerDay: model.DefaultMaxLocationsPerDay,
			AverageSpeedKmh:    40,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// envKeys maps environment variables onto koanf paths.
var envKeys = map[string]string{
	"APP_NAME":                     "app.name",
	"APP_ENV":                      "app.env",
	"APP_PORT":                     "app.port",
	"LOG_LEVEL":                    "app.log_level",
	"LOG_FORMAT":                   "app.log_format",
	"DB_HOST":                      "database.host",
	"DB_PORT":                      "database.port",
	"DB_NAME":                      "database.name",
	"DB_USER":                      "database.user",
	"DB_PASSWORD":                  "database.password",
	"DB_SSL_MODE":                  "database.ssl_mode",
	"DB_MAX_OPEN_CONNS":            "database.max_open_conns",
	"DB_MAX_IDLE_CONNS":            "database.max_idle_conns",
	"DB_CONN_MAX_LIFETIME":         "database.conn_max_lifetime",
	"REDIS_ADDR":                   "redis.addr",
	"REDIS_PASSWORD":               "redis.password",
	"REDIS_DB":                     "redis.db",
	"REDIS_TTL":                    "redis.ttl",
	"ORS_ENABLED":                  "routing.enabled",
	"ORS_API_KEY":                  "routing.api_key",
	"ORS_BASE_URL":                 "routing.base_url",
	"ORS_PROFILE":                  "routing.profile",
	"ORS_TIMEOUT":                  "routing.timeout",
	"API_RATE_LIMIT":               "api.rate_limit",
	"API_TIMEOUT":                  "api.timeout",
	"PLANNER_MAX_EIGHTHS_PER_DAY":  "planner.max_eighths_per_day",
	"PLANNER_TARGET_HOURS_PER_DAY": "planner.target_hours_per_day",
	"PLANNER_HOURS_SLACK":          "planner.hours_slack",
	"PLANNER_MAX_LOCATIONS":        "planner.max_locations_per_day",
	"PLANNER_SEPARATE_DAY_NIGHT":   "planner.separate_day_night",
	"PLANNER_AVERAGE_SPEED_KMH":    "planner.average_speed_kmh",
	"METRICS_ENABLED":              "metrics.enabled",
	"METRICS_PATH":                 "metrics.path",
}

// Load reads the file named by RODAJE_CONFIG, if any, then the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile layers defaults, the YAML file at path (skipped when empty) and the environment.
// Malformed values are reported together.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	var errs []error
	for env, key := range envKeys {
		val, ok := os.LookupEnv(env)
		if !ok || val == "" {
			continue
		}
		if err := k.Set(key, val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", env, err))
		}
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: false}); err != nil {
		errs = append(errs, fmt.Errorf("decode config: %w", err))
	}
	errs = append(errs, cfg.Validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate returns every problem found.
func (c *Config) Validate() []error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port %d out of range", c.App.Port))
	}
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("app.log_format must be json or console, got %q", c.App.LogFormat))
	}
	if c.Routing.Enabled && c.Routing.APIKey == "" {
		errs = append(errs, errors.New("routing.api_key is required when routing is enabled"))
	}
	if c.Planner.MaxEighthsPerDay <= 0 {
		errs = append(errs, errors.New("planner.max_eighths_per_day must be positive"))
	}
	if c.Planner.TargetHoursPerDay <= 0 {
		errs = append(errs, errors.New("planner.target_hours_per_day must be positive"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	return errs
}

// IsDevelopment reports the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction reports the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.App.Port)
}
