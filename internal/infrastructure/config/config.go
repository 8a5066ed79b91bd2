package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Enrichment providers
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Analytics  AnalyticsConfig
	Enrichment EnrichmentConfig
	Scheduler  SchedulerConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// RateLimit is the number of requests a client may send per
	// RateLimitWindow; zero disables limiting
	RateLimit       int
	RateLimitWindow time.Duration
}

// AnalyticsConfig holds the cost allocation and forecasting settings
type AnalyticsConfig struct {
	CostRatio                 float64 // share of parts revenue booked as cost of goods
	ServicePartsFallbackRatio float64 // share of service revenue assumed to be parts
	Supplier                  string
	HorizonDays               int
	SaturdayWeight            float64
	TrailingDays              int
	ModelTimeout              time.Duration
	SeasonalEnabled           bool
	ARIMAEnabled              bool
	LinearEnabled             bool
	// Optional productivity context for utilization notes
	Technicians    int
	HourlyTariff   float64
	AvailableHours float64
}

// EnrichmentConfig holds the narrative provider settings
type EnrichmentConfig struct {
	Provider       string // none, gemini, claude
	APIKey         string
	Model          string
	Timeout        time.Duration
	Temperature    float64
	MaxTokens      int
	MaxItems       int
	MaxItemLength  int
	CacheTTL       time.Duration
	CacheKeyPrefix string
}

// Active reports whether a provider is configured
func (e EnrichmentConfig) Active() bool {
	return e.Provider != ProviderNone && e.APIKey != ""
}

// SchedulerConfig holds the periodic analysis refresher configuration
type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	WindowDays int
	JobTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // Whether to enable OpenTelemetry
	CollectorEndpoint     string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName           string  // Service name for traces
	Insecure              bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled        bool    // Enable database query tracing (otelgorm)
	MetricsExportInterval time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with AFTERSALES_ prefix (e.g., AFTERSALES_ENRICHMENT_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("AFTERSALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

// fromViper builds, defaults and validates a Config
func fromViper(v *viper.Viper) (*Config, error) {
	// Booleans that are on unless switched off
	v.SetDefault("analytics.seasonal_enabled", true)
	v.SetDefault("analytics.arima_enabled", true)
	v.SetDefault("analytics.linear_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			RateLimit:        v.GetInt("http.rate_limit"),
			RateLimitWindow:  v.GetDuration("http.rate_limit_window"),
		},
		Analytics: AnalyticsConfig{
			CostRatio:                 v.GetFloat64("analytics.cost_ratio"),
			ServicePartsFallbackRatio: v.GetFloat64("analytics.service_parts_fallback_ratio"),
			Supplier:                  v.GetString("analytics.supplier"),
			HorizonDays:               v.GetInt("analytics.horizon_days"),
			SaturdayWeight:            v.GetFloat64("analytics.saturday_weight"),
			TrailingDays:              v.GetInt("analytics.trailing_days"),
			ModelTimeout:              v.GetDuration("analytics.model_timeout"),
			SeasonalEnabled:           v.GetBool("analytics.seasonal_enabled"),
			ARIMAEnabled:              v.GetBool("analytics.arima_enabled"),
			LinearEnabled:             v.GetBool("analytics.linear_enabled"),
			Technicians:               v.GetInt("analytics.technicians"),
			HourlyTariff:              v.GetFloat64("analytics.hourly_tariff"),
			AvailableHours:            v.GetFloat64("analytics.available_hours"),
		},
		Enrichment: EnrichmentConfig{
			Provider:       strings.ToLower(v.GetString("enrichment.provider")),
			APIKey:         v.GetString("enrichment.api_key"),
			Model:          v.GetString("enrichment.model"),
			Timeout:        v.GetDuration("enrichment.timeout"),
			Temperature:    v.GetFloat64("enrichment.temperature"),
			MaxTokens:      v.GetInt("enrichment.max_tokens"),
			MaxItems:       v.GetInt("enrichment.max_items"),
			MaxItemLength:  v.GetInt("enrichment.max_item_length"),
			CacheTTL:       v.GetDuration("enrichment.cache_ttl"),
			CacheKeyPrefix: v.GetString("enrichment.cache_key_prefix"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("scheduler.enabled"),
			Interval:   v.GetDuration("scheduler.interval"),
			WindowDays: v.GetInt("scheduler.window_days"),
			JobTimeout: v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			DBTraceEnabled:        v.GetBool("telemetry.db_trace_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "aftersales-analytics"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "aftersales"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "aftersales.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	// Analytics defaults
	if cfg.Analytics.CostRatio == 0 {
		cfg.Analytics.CostRatio = 0.65
	}
	if cfg.Analytics.ServicePartsFallbackRatio == 0 {
		cfg.Analytics.ServicePartsFallbackRatio = 0.70
	}
	if cfg.Analytics.Supplier == "" {
		cfg.Analytics.Supplier = "JOHN DEERE"
	}
	if cfg.Analytics.HorizonDays == 0 {
		cfg.Analytics.HorizonDays = 30
	}
	if cfg.Analytics.SaturdayWeight == 0 {
		cfg.Analytics.SaturdayWeight = 0.5
	}
	if cfg.Analytics.TrailingDays == 0 {
		cfg.Analytics.TrailingDays = 14
	}
	if cfg.Analytics.ModelTimeout == 0 {
		cfg.Analytics.ModelTimeout = 10 * time.Second
	}
	// Enrichment defaults
	if cfg.Enrichment.Provider == "" {
		cfg.Enrichment.Provider = ProviderNone
	}
	if cfg.Enrichment.Model == "" {
		switch cfg.Enrichment.Provider {
		case ProviderGemini:
			cfg.Enrichment.Model = "gemini-2.0-flash"
		case ProviderClaude:
			cfg.Enrichment.Model = "claude-sonnet-4-5"
		}
	}
	if cfg.Enrichment.Timeout == 0 {
		cfg.Enrichment.Timeout = 30 * time.Second
	}
	if cfg.Enrichment.Temperature == 0 {
		cfg.Enrichment.Temperature = 0.3
	}
	if cfg.Enrichment.MaxTokens == 0 {
		cfg.Enrichment.MaxTokens = 2048
	}
	if cfg.Enrichment.MaxItems == 0 {
		cfg.Enrichment.MaxItems = 5
	}
	if cfg.Enrichment.MaxItemLength == 0 {
		cfg.Enrichment.MaxItemLength = 400
	}
	if cfg.Enrichment.CacheTTL == 0 {
		cfg.Enrichment.CacheTTL = 6 * time.Hour
	}
	if cfg.Enrichment.CacheKeyPrefix == "" {
		cfg.Enrichment.CacheKeyPrefix = "aftersales:enrichment:"
	}
	// Scheduler defaults
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = time.Hour
	}
	if cfg.Scheduler.WindowDays == 0 {
		cfg.Scheduler.WindowDays = 90
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "aftersales-analytics"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Analytics.CostRatio <= 0 || c.Analytics.CostRatio > 1 {
		return fmt.Errorf("analytics.cost_ratio must be in (0, 1], got %f", c.Analytics.CostRatio)
	}
	if c.Analytics.ServicePartsFallbackRatio <= 0 || c.Analytics.ServicePartsFallbackRatio > 1 {
		return fmt.Errorf("analytics.service_parts_fallback_ratio must be in (0, 1], got %f", c.Analytics.ServicePartsFallbackRatio)
	}
	if c.Analytics.SaturdayWeight < 0 || c.Analytics.SaturdayWeight > 1 {
		return fmt.Errorf("analytics.saturday_weight must be between 0.0 and 1.0, got %f", c.Analytics.SaturdayWeight)
	}
	if c.Analytics.HorizonDays < 1 {
		return fmt.Errorf("analytics.horizon_days must be positive")
	}

	switch c.Enrichment.Provider {
	case ProviderNone, ProviderGemini, ProviderClaude:
	default:
		return fmt.Errorf("enrichment.provider must be one of none, gemini, claude; got %q", c.Enrichment.Provider)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Driver == DriverPostgres {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
