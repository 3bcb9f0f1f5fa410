package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the console configuration, loadable from environment
// variables (LEDGER_ prefix), flags, or YAML config files.
type Config struct {
	Addr            string        `default:"0.0.0.0:8080" usage:"Console listen address"`
	UpstreamURL     string        `usage:"Backend API root, e.g. https://api.example.com/api/v1 (LEDGER_UPSTREAM_URL or UPSTREAM_URL)" flag:"upstream-url"`
	UpstreamTimeout time.Duration `default:"15s" usage:"Timeout of a single backend request" flag:"upstream-timeout"`
	RateLimit       RateLimitConfig
	CORS            CORSConfig
	Graceful        GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return load(aconfig.Config{
		EnvPrefix: "LEDGER",
		Files:     []string{"config.yaml", "/etc/salesledger/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func load(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required: set LEDGER_UPSTREAM_URL or UPSTREAM_URL")
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, errors.Errorf("upstream timeout must be positive, got %s", cfg.UpstreamTimeout)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like UPSTREAM_URL and PORT to the
// application's LEDGER_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.UpstreamURL == "" {
		if v := os.Getenv("UPSTREAM_URL"); v != "" {
			c.UpstreamURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
