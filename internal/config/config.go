package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

const (
	envPrefix         = "GEOAI"
	defaultConfigPath = "config.yaml"
)

type Config struct {
	BackendURL    string        `mapstructure:"backend_url"`
	ListenAddr    string        `mapstructure:"listen_addr"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RateLimitRPS  float64       `mapstructure:"rate_limit_rps"`

	// DatabaseURL enables recording: postgres://... or sqlite://<path>.
	DatabaseURL    string `mapstructure:"database_url"`
	RecordInsights bool   `mapstructure:"record_insights"`

	PlaceName string `mapstructure:"place_name"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Classes          []string `mapstructure:"classes"`
	BuiltupIndex     int      `mapstructure:"builtup_index"`
	FootprintIndices []int    `mapstructure:"footprint_indices"`
	// ValidPeriods are "start-end" pairs; empty accepts any ordered pair.
	ValidPeriods []string `mapstructure:"valid_periods"`

	periods []model.Period
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend_url", "http://localhost:8001")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("retry_delay", 200*time.Millisecond)
	v.SetDefault("rate_limit_rps", 5.0)
	v.SetDefault("database_url", "")
	v.SetDefault("record_insights", false)
	v.SetDefault("place_name", "Tirupati")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("classes", []string{"Forest", "Water Bodies", "Agriculture", "Barren Land", "Built-up"})
	v.SetDefault("builtup_index", 4)
	v.SetDefault("footprint_indices", []int{0, 2})
	v.SetDefault("valid_periods", []string{"2018-2025", "2019-2024"})
}

// Load reads path (or CONFIG_PATH, or ./config.yaml when present) and applies GEOAI_* env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the taxonomy against the class list and parses the periods.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BackendURL) == "" {
		errs = append(errs, errors.New("backend_url is required"))
	}
	n := len(c.Classes)
	if n == 0 {
		errs = append(errs, errors.New("classes must not be empty"))
	}
	if c.BuiltupIndex < 0 || c.BuiltupIndex >= n {
		errs = append(errs, fmt.Errorf("builtup_index %d out of range for %d classes", c.BuiltupIndex, n))
	}
	for _, k := range c.FootprintIndices {
		if k < 0 || k >= n {
			errs = append(errs, fmt.Errorf("footprint index %d out of range for %d classes", k, n))
		}
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	if c.RecordInsights && c.DatabaseURL == "" {
		errs = append(errs, errors.New("record_insights needs database_url"))
	}

	periods := make([]model.Period, 0, len(c.ValidPeriods))
	for _, s := range c.ValidPeriods {
		p, err := ParsePeriod(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		periods = append(periods, p)
	}
	c.periods = periods

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParsePeriod parses "2018-2025".
func ParsePeriod(s string) (model.Period, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return model.Period{}, fmt.Errorf("period %q must look like 2018-2025", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return model.Period{}, fmt.Errorf("invalid start year in %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return model.Period{}, fmt.Errorf("invalid end year in %q: %w", s, err)
	}
	if start >= end {
		return model.Period{}, fmt.Errorf("period %q: start year must be before end year", s)
	}
	return model.Period{Start: start, End: end}, nil
}

func (c *Config) Periods() []model.Period {
	return c.periods
}

func (c *Config) Labels() model.ClassLabels {
	return model.ClassLabels(c.Classes)
}

func (c *Config) InsightConfig() model.InsightConfig {
	return model.InsightConfig{
		BuiltupIndex:     c.BuiltupIndex,
		FootprintIndices: c.FootprintIndices,
	}
}
