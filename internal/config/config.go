package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suraksha-edu/risk-assessment-service/internal/client"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	ProviderAPIKey  string
	ProviderAPIURL  string
	ProviderTimeout time.Duration

	ForecastDays int

	RequestTimeout time.Duration

	CacheBackend  string // "in_memory", "memcached" or "none"
	CacheTTL      time.Duration
	StaleCacheTTL time.Duration // max age for stale fallback (0 = disabled)

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	CoalesceEnabled bool
	CoalesceTimeout time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	OverloadWindow         time.Duration
	OverloadThresholdPct   int
	IdleThresholdReqPerMin int
	IdleWindow             time.Duration
	MinimumLifespan        time.Duration
	DegradedWindow         time.Duration
	DegradedErrorPct       int

	LocationMinLength int
	LocationMaxLength int

	TrackedLocations []string
	WarmCache        bool
	WarmInterval     time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Provider struct {
		URL          string `yaml:"url"`
		Timeout      string `yaml:"timeout"`
		ForecastDays int    `yaml:"forecast_days"`
	} `yaml:"provider"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		StaleTTL  string `yaml:"stale_ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`

		CircuitBreaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`

		Coalescing struct {
			Enabled *bool  `yaml:"enabled"`
			Timeout string `yaml:"timeout"`
		} `yaml:"coalescing"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow         string `yaml:"overload_window"`
		OverloadThresholdPct   int    `yaml:"overload_threshold_pct"`
		IdleThresholdReqPerMin int    `yaml:"idle_threshold_req_per_min"`
		IdleWindow             string `yaml:"idle_window"`
		MinimumLifespan        string `yaml:"minimum_lifespan"`
		DegradedWindow         string `yaml:"degraded_window"`
		DegradedErrorPct       int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`

	Validation struct {
		LocationMinLength int `yaml:"location_min_length"`
		LocationMaxLength int `yaml:"location_max_length"`
	} `yaml:"validation"`

	Metrics struct {
		TrackedLocations []string `yaml:"tracked_locations"`
	} `yaml:"metrics"`

	Warming struct {
		Enabled  *bool  `yaml:"enabled"`
		Interval string `yaml:"interval"`
	} `yaml:"warming"`
}

type secretsFile struct {
	ProviderAPIKey string `yaml:"provider_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. The API key comes from PROVIDER_API_KEY env or the
// secrets file. Call from the project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.ProviderAPIKey = os.Getenv("PROVIDER_API_KEY")
	if cfg.ProviderAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.ProviderAPIKey = sec.ProviderAPIKey
		}
	}
	if cfg.ProviderAPIKey == "" {
		return nil, fmt.Errorf("PROVIDER_API_KEY required (set env or config/secrets.yaml provider_api_key)")
	}

	cfg.ProviderAPIURL = fc.Provider.URL
	if cfg.ProviderAPIURL == "" {
		cfg.ProviderAPIURL = "https://api.weatherapi.com/v1"
	}
	cfg.ProviderTimeout = parseDurationOrZero(fc.Provider.Timeout, 5*time.Second)
	cfg.ForecastDays = fc.Provider.ForecastDays
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 3
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.StaleCacheTTL = parseDurationOrZero(fc.Cache.StaleTTL, time.Hour)

	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.CircuitBreakerEnabled = true
	if fc.Reliability.CircuitBreaker.Enabled != nil {
		cfg.CircuitBreakerEnabled = *fc.Reliability.CircuitBreaker.Enabled
	}
	cfg.CircuitBreakerFailureThreshold = fc.Reliability.CircuitBreaker.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = fc.Reliability.CircuitBreaker.SuccessThreshold
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 2
	}
	cfg.CircuitBreakerTimeout = parseDuration(fc.Reliability.CircuitBreaker.Timeout, 30*time.Second)

	cfg.CoalesceEnabled = true
	if fc.Reliability.Coalescing.Enabled != nil {
		cfg.CoalesceEnabled = *fc.Reliability.Coalescing.Enabled
	}
	cfg.CoalesceTimeout = parseDuration(fc.Reliability.Coalescing.Timeout, 15*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Lifecycle.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}
	cfg.IdleThresholdReqPerMin = fc.Lifecycle.IdleThresholdReqPerMin
	if cfg.IdleThresholdReqPerMin <= 0 {
		cfg.IdleThresholdReqPerMin = 5
	}
	cfg.IdleWindow = parseDuration(fc.Lifecycle.IdleWindow, 5*time.Minute)
	cfg.MinimumLifespan = parseDuration(fc.Lifecycle.MinimumLifespan, 5*time.Minute)
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	cfg.LocationMinLength = fc.Validation.LocationMinLength
	if cfg.LocationMinLength <= 0 {
		cfg.LocationMinLength = 2
	}
	cfg.LocationMaxLength = fc.Validation.LocationMaxLength
	if cfg.LocationMaxLength <= 0 {
		cfg.LocationMaxLength = 100
	}

	cfg.TrackedLocations = fc.Metrics.TrackedLocations
	if fc.Warming.Enabled != nil {
		cfg.WarmCache = *fc.Warming.Enabled
	}
	cfg.WarmInterval = parseDurationOrZero(fc.Warming.Interval, 0)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on
// empty string or parse error. Zero and negative values pass through.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.ProviderTimeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.ProviderTimeout {
		cfg.RequestTimeout = cfg.ProviderTimeout + time.Second
	}
	if cfg.ForecastDays > client.MaxForecastDays {
		return fmt.Errorf("provider.forecast_days must be at most %d, got %d", client.MaxForecastDays, cfg.ForecastDays)
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "none":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or none, got %q", cfg.CacheBackend)
	}
	return nil
}
