package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. BANDWEATHER_FORECAST_API_KEY.
const EnvPrefix = "BANDWEATHER"

// Config is the full process configuration.
type Config struct {
	App      AppConfig      `yaml:"app" envconfig:"APP"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
	Location LocationConfig `yaml:"location" envconfig:"LOCATION"`
	Band     BandConfig     `yaml:"band" envconfig:"BAND"`
	Schedule ScheduleConfig `yaml:"schedule" envconfig:"SCHEDULE"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
}

type AppConfig struct {
	Name string `yaml:"name" envconfig:"NAME" validate:"required"`
	Env  string `yaml:"env" envconfig:"ENV" validate:"required"`
}

type ServerConfig struct {
	Port         string        `yaml:"port" envconfig:"PORT" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
}

type LogConfig struct {
	Level     string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	SentryDSN string `yaml:"sentry_dsn" envconfig:"SENTRY_DSN"`
}

// ForecastConfig describes the weather provider endpoints.
type ForecastConfig struct {
	BaseURL          string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	AlternateBaseURL string        `yaml:"alternate_base_url" envconfig:"ALTERNATE_BASE_URL" validate:"omitempty,url"`
	APIKey           string        `yaml:"api_key" envconfig:"API_KEY" validate:"required"`
	Days             int           `yaml:"days" envconfig:"DAYS" validate:"gte=1,lte=10"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RatePerMinute    float64       `yaml:"rate_per_minute" envconfig:"RATE_PER_MINUTE" validate:"gte=0"`
}

// LocationConfig selects how the device coordinate is obtained.
// Mode "static" uses Latitude/Longitude, "ip" asks an IP geolocation endpoint.
type LocationConfig struct {
	Mode           string        `yaml:"mode" envconfig:"MODE" validate:"oneof=static ip"`
	Latitude       float64       `yaml:"latitude" envconfig:"LATITUDE" validate:"gte=-90,lte=90"`
	Longitude      float64       `yaml:"longitude" envconfig:"LONGITUDE" validate:"gte=-180,lte=180"`
	LookupURL      string        `yaml:"lookup_url" envconfig:"LOOKUP_URL" validate:"omitempty,url"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	MaxAge         time.Duration `yaml:"max_age" envconfig:"MAX_AGE" validate:"gte=0"`
	AccuracyMeters int           `yaml:"accuracy_meters" envconfig:"ACCURACY_METERS" validate:"gt=0"`
	GeocoderAPIKey string        `yaml:"geocoder_api_key" envconfig:"GEOCODER_API_KEY"`
	UsePostalCode  bool          `yaml:"use_postal_code" envconfig:"USE_POSTAL_CODE"`
}

// BandConfig controls the wearable connection. Emulated selects the built-in
// band emulator, which starts with a paired device when EmulatorPaired is set.
type BandConfig struct {
	Emulated        bool          `yaml:"emulated" envconfig:"EMULATED"`
	EmulatorPaired  bool          `yaml:"emulator_paired" envconfig:"EMULATOR_PAIRED"`
	ConnectAttempts int           `yaml:"connect_attempts" envconfig:"CONNECT_ATTEMPTS" validate:"gte=1"`
	ConnectDelay    time.Duration `yaml:"connect_delay" envconfig:"CONNECT_DELAY" validate:"gte=0"`
	IconDir         string        `yaml:"icon_dir" envconfig:"ICON_DIR"`
}

type ScheduleConfig struct {
	TimerInterval    time.Duration `yaml:"timer_interval" envconfig:"TIMER_INTERVAL" validate:"gte=1m"`
	TimeZoneInterval time.Duration `yaml:"time_zone_interval" envconfig:"TIME_ZONE_INTERVAL" validate:"gte=1s"`
	SyncTimeout      time.Duration `yaml:"sync_timeout" envconfig:"SYNC_TIMEOUT" validate:"gt=0"`
}

type StorageConfig struct {
	SettingsPath string `yaml:"settings_path" envconfig:"SETTINGS_PATH"`
}

var validate = validator.New()

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		App:    AppConfig{Name: "bandweather", Env: "development"},
		Server: ServerConfig{Port: "8080", ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
		Log:    LogConfig{Level: "info"},
		Forecast: ForecastConfig{
			BaseURL: "http://api.wunderground.com",
			Days:    5,
			Timeout: 20 * time.Second,
			// wunderground's free plan allowed 10 calls a minute
			RatePerMinute: 10,
		},
		Location: LocationConfig{
			Mode:           "static",
			LookupURL:      "http://ip-api.com/json",
			Timeout:        15 * time.Second,
			MaxAge:         30 * time.Minute,
			AccuracyMeters: 5000,
		},
		Band: BandConfig{
			Emulated:        true,
			EmulatorPaired:  true,
			ConnectAttempts: 5,
			ConnectDelay:    2 * time.Second,
		},
		Schedule: ScheduleConfig{
			TimerInterval:    32 * time.Minute,
			TimeZoneInterval: time.Minute,
			SyncTimeout:      2 * time.Minute,
		},
		Storage: StorageConfig{SettingsPath: "bandweather.db"},
	}
}

// Load builds the configuration from defaults, an optional YAML file at path,
// a .env file and BANDWEATHER_* environment variables, in that order.
func Load(path string) (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Location.UsePostalCode && c.Location.GeocoderAPIKey == "" {
		return errors.New("invalid config: location.use_postal_code requires location.geocoder_api_key")
	}
	return nil
}

// Addr returns the listen address for the HTTP API.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
