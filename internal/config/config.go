package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	OCR       OCRConfig
	S3        S3Config
	Extractor ExtractorConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// FetchConfig holds document download settings.
type FetchConfig struct {
	TimeoutSecs int   `mapstructure:"timeout_secs"`
	MaxSizeMB   int64 `mapstructure:"max_size_mb"`
}

// OCRConfig holds rasterization and OCR engine settings.
type OCRConfig struct {
	Tesseract string `mapstructure:"tesseract"`
	Pdftoppm  string `mapstructure:"pdftoppm"`
	Language  string `mapstructure:"language"`
	DPI       int    `mapstructure:"dpi"`
	MaxPages  int    `mapstructure:"max_pages"`
}

// S3Config holds settings for fetching documents from s3:// URLs.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds LLM extraction settings with multi-provider support.
// Secondary and tertiary providers, when configured, form a fallback chain
// behind the primary.
type ExtractorConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	// PageConcurrency bounds how many pages are processed at once.
	// 1 means strictly sequential.
	PageConcurrency int `mapstructure:"page_concurrency"`
}

// Providers returns the configured provider chain in priority order,
// skipping slots without a provider name.
func (e *ExtractorConfig) Providers() []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range []*ProviderConfig{&e.Primary, &e.Secondary, &e.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the BILLX_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// Fetch defaults
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_size_mb", 50)

	// OCR defaults
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "groq")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)
	v.SetDefault("extractor.tertiary.provider", "")
	v.SetDefault("extractor.tertiary.api_key", "")
	v.SetDefault("extractor.tertiary.default_model", "")
	v.SetDefault("extractor.tertiary.timeout_secs", 120)
	v.SetDefault("extractor.page_concurrency", 1)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "BILLX_SERVER_PORT",
		"server.read_timeout":               "BILLX_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "BILLX_SERVER_WRITE_TIMEOUT",
		"server.environment":                "BILLX_SERVER_ENVIRONMENT",
		"fetch.timeout_secs":                "BILLX_FETCH_TIMEOUT_SECS",
		"fetch.max_size_mb":                 "BILLX_FETCH_MAX_SIZE_MB",
		"ocr.tesseract":                     "BILLX_OCR_TESSERACT",
		"ocr.pdftoppm":                      "BILLX_OCR_PDFTOPPM",
		"ocr.language":                      "BILLX_OCR_LANGUAGE",
		"ocr.dpi":                           "BILLX_OCR_DPI",
		"ocr.max_pages":                     "BILLX_OCR_MAX_PAGES",
		"s3.region":                         "BILLX_S3_REGION",
		"s3.endpoint":                       "BILLX_S3_ENDPOINT",
		"s3.access_key":                     "BILLX_S3_ACCESS_KEY",
		"s3.secret_key":                     "BILLX_S3_SECRET_KEY",
		"extractor.primary.provider":        "BILLX_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":         "BILLX_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":   "BILLX_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.timeout_secs":    "BILLX_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.secondary.provider":      "BILLX_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":       "BILLX_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "BILLX_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.timeout_secs":  "BILLX_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"extractor.tertiary.provider":       "BILLX_EXTRACTOR_TERTIARY_PROVIDER",
		"extractor.tertiary.api_key":        "BILLX_EXTRACTOR_TERTIARY_API_KEY",
		"extractor.tertiary.default_model":  "BILLX_EXTRACTOR_TERTIARY_DEFAULT_MODEL",
		"extractor.tertiary.timeout_secs":   "BILLX_EXTRACTOR_TERTIARY_TIMEOUT_SECS",
		"extractor.page_concurrency":        "BILLX_EXTRACTOR_PAGE_CONCURRENCY",
		"cors.allowed_origins":              "BILLX_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if BILLX_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BILLX_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Fetch = FetchConfig{
		TimeoutSecs: v.GetInt("fetch.timeout_secs"),
		MaxSizeMB:   v.GetInt64("fetch.max_size_mb"),
	}
	cfg.OCR = OCRConfig{
		Tesseract: v.GetString("ocr.tesseract"),
		Pdftoppm:  v.GetString("ocr.pdftoppm"),
		Language:  v.GetString("ocr.language"),
		DPI:       v.GetInt("ocr.dpi"),
		MaxPages:  v.GetInt("ocr.max_pages"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary: ProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Secondary: ProviderConfig{
			Provider:     v.GetString("extractor.secondary.provider"),
			APIKey:       v.GetString("extractor.secondary.api_key"),
			DefaultModel: v.GetString("extractor.secondary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.secondary.timeout_secs"),
		},
		Tertiary: ProviderConfig{
			Provider:     v.GetString("extractor.tertiary.provider"),
			APIKey:       v.GetString("extractor.tertiary.api_key"),
			DefaultModel: v.GetString("extractor.tertiary.default_model"),
			TimeoutSecs:  v.GetInt("extractor.tertiary.timeout_secs"),
		},
		PageConcurrency: v.GetInt("extractor.page_concurrency"),
	}
	if cfg.Extractor.PageConcurrency < 1 {
		cfg.Extractor.PageConcurrency = 1
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			corsOrigins = append(corsOrigins, trimmed)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
