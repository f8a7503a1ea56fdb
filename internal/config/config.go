package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DefaultSymbols is the ticker list used when none is configured
var DefaultSymbols = []string{
	"AAPL", "GOOG", "MSFT", "AMZN", "NVDA", "BTC",
	"MNDY", "INTC", "UNH", "META", "JNJ", "MA",
}

// Config defines the application configuration structure
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`

	// FileUsed is the config file that was read, empty when only env and defaults apply
	FileUsed string `mapstructure:"-"`
}

// StorageConfig defines where partitions are written
type StorageConfig struct {
	Sink            string `mapstructure:"sink" validate:"oneof=s3 local"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	Region          string `mapstructure:"region" validate:"required"`
	Bucket          string `mapstructure:"bucket" validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	LocalDir        string `mapstructure:"local_dir" validate:"required_if=Sink local"`
}

// FetchConfig defines the price source
type FetchConfig struct {
	Provider     string        `mapstructure:"provider" validate:"oneof=yahoo kite"`
	Symbols      []string      `mapstructure:"symbols" validate:"min=1,dive,required"`
	DaysToFetch  int           `mapstructure:"days_to_fetch" validate:"gt=0"`
	UserAgent    string        `mapstructure:"user_agent"`
	AutoAdjust   bool          `mapstructure:"auto_adjust"`
	YahooBaseURL string        `mapstructure:"yahoo_base_url" validate:"omitempty,url"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// AuthConfig defines authentication configuration for the kite provider
type AuthConfig struct {
	AuthServiceURL    string `mapstructure:"auth_service_url"`
	AuthServiceAPIKey string `mapstructure:"auth_service_api_key"`
	BrokerName        string `mapstructure:"broker_name"`
	ApiKey            string `mapstructure:"api_key"`
	ApiSecret         string `mapstructure:"api_secret"`
	SessionToken      string `mapstructure:"session_token"`
}

// BrokerConfig defines the broker configuration
type BrokerConfig struct {
	InstrumentsNSEURL string `mapstructure:"instruments_nse_url"`
	InstrumentsPath   string `mapstructure:"instruments_path"`
}

// PipelineConfig defines the feature computation
type PipelineConfig struct {
	Window      int    `mapstructure:"window" validate:"gte=1"`
	WindowOrder string `mapstructure:"window_order" validate:"oneof=global per_symbol"`
}

// LogConfig defines logging output
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// MissingConfigError lists required settings that were not provided
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// envBindings maps config keys to the environment variables that set them,
// checked in order
var envBindings = map[string][]string{
	"storage.sink":              {"GAPFEED_SINK"},
	"storage.endpoint":          {"GAPFEED_ENDPOINT"},
	"storage.region":            {"GAPFEED_REGION"},
	"storage.bucket":            {"GAPFEED_BUCKET"},
	"storage.access_key_id":     {"aws_access_key_id", "AWS_ACCESS_KEY_ID"},
	"storage.secret_access_key": {"aws_secret_access_key", "AWS_SECRET_ACCESS_KEY"},
	"storage.use_path_style":    {"GAPFEED_USE_PATH_STYLE"},
	"storage.local_dir":         {"GAPFEED_LOCAL_DIR"},

	"fetch.provider":       {"GAPFEED_PROVIDER"},
	"fetch.symbols":        {"GAPFEED_SYMBOLS"},
	"fetch.days_to_fetch":  {"GAPFEED_DAYS"},
	"fetch.user_agent":     {"GAPFEED_USER_AGENT"},
	"fetch.auto_adjust":    {"GAPFEED_AUTO_ADJUST"},
	"fetch.yahoo_base_url": {"GAPFEED_YAHOO_BASE_URL"},
	"fetch.timeout":        {"GAPFEED_FETCH_TIMEOUT"},

	"auth.auth_service_url":     {"GAPFEED_AUTH_SERVICE_URL"},
	"auth.auth_service_api_key": {"GAPFEED_AUTH_SERVICE_KEY"},
	"auth.broker_name":          {"GAPFEED_BROKER_NAME"},
	"auth.api_key":              {"GAPFEED_API_KEY"},
	"auth.api_secret":           {"GAPFEED_API_SECRET"},
	"auth.session_token":        {"GAPFEED_SESSION_TOKEN"},

	"broker.instruments_nse_url": {"GAPFEED_INSTRUMENTS_NSE_URL"},
	"broker.instruments_path":    {"GAPFEED_INSTRUMENTS_PATH"},

	"pipeline.window":       {"GAPFEED_WINDOW"},
	"pipeline.window_order": {"GAPFEED_WINDOW_ORDER"},

	"log.level":  {"GAPFEED_LOG_LEVEL"},
	"log.format": {"GAPFEED_LOG_FORMAT"},
}

// LoadConfig loads configuration from a file on disk and overrides it with
// environment variables
func LoadConfig(path string) (Config, error) {
	return Load(afero.NewOsFs(), path)
}

// Load reads path from fsys when it exists, applies environment overrides and
// defaults, and validates the result. A missing file is not an error.
func Load(fsys afero.Fs, path string) (Config, error) {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	// bools cannot be told apart from false after unmarshal
	v.SetDefault("fetch.auto_adjust", true)
	v.SetDefault("storage.use_path_style", true)

	var fileUsed string
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		} else {
			fileUsed = v.ConfigFileUsed()
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.FileUsed = fileUsed

	applyDefaults(&config)
	return config, nil
}

// Validate checks field constraints and the settings the selected sink and
// provider require
func (c Config) Validate() error {
	var missing []string
	if c.Storage.Sink == "s3" {
		if c.Storage.AccessKeyID == "" {
			missing = append(missing, "aws_access_key_id")
		}
		if c.Storage.SecretAccessKey == "" {
			missing = append(missing, "aws_secret_access_key")
		}
	}
	if c.Fetch.Provider == "kite" && c.Auth.AuthServiceURL == "" && (c.Auth.ApiKey == "" || c.Auth.SessionToken == "") {
		missing = append(missing, "auth.api_key", "auth.session_token")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Keys: missing}
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	// Storage defaults
	if config.Storage.Sink == "" {
		config.Storage.Sink = "s3"
	}
	if config.Storage.Endpoint == "" {
		config.Storage.Endpoint = "https://finance-stock-interview.s3.ca-central-1.amazonaws.com"
	}
	if config.Storage.Region == "" {
		config.Storage.Region = "ca-central-1"
	}
	if config.Storage.Bucket == "" {
		config.Storage.Bucket = "finance-stock"
	}
	if config.Storage.LocalDir == "" {
		config.Storage.LocalDir = "./stock_data"
	}

	// Fetch defaults
	if config.Fetch.Provider == "" {
		config.Fetch.Provider = "yahoo"
	}
	if len(config.Fetch.Symbols) == 0 {
		config.Fetch.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if config.Fetch.DaysToFetch == 0 {
		config.Fetch.DaysToFetch = 365
	}
	if config.Fetch.Timeout == 0 {
		config.Fetch.Timeout = 30 * time.Second
	}

	// Auth defaults
	if config.Auth.BrokerName == "" {
		config.Auth.BrokerName = "zerodha"
	}

	// Broker defaults
	if config.Broker.InstrumentsNSEURL == "" {
		config.Broker.InstrumentsNSEURL = "https://api.kite.trade/instruments/NSE"
	}
	if config.Broker.InstrumentsPath == "" {
		config.Broker.InstrumentsPath = "./instruments.csv"
	}

	// Pipeline defaults
	if config.Pipeline.Window == 0 {
		config.Pipeline.Window = 3
	}
	if config.Pipeline.WindowOrder == "" {
		config.Pipeline.WindowOrder = "global"
	}

	// Log defaults
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "json"
	}
}
