// 서비스 설정 로딩
//
// 환경변수 (또는 작업 디렉터리의 .env):
//   - SUPABASE_URL, SUPABASE_KEY: 외부 인증 서비스 주소와 API 키 (필수)
//   - SECRET_KEY, ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES: 토큰 관련 설정
//   - PORT, GIN_MODE, CORS_ALLOWED_ORIGINS, CORS_ALLOW_CREDENTIALS
//   - LOG_LEVEL, LOG_FORMAT
//   - OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_SERVICE_NAME

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Token     TokenConfig
	CORS      CORSConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port    string `env:"PORT" envDefault:"8000"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`
}

// ProviderConfig points at the hosted identity provider.
type ProviderConfig struct {
	URL    string `env:"SUPABASE_URL,required,notEmpty"`
	APIKey string `env:"SUPABASE_KEY,required,notEmpty"`

	// Timeout of zero leaves the HTTP client without a deadline.
	Timeout                  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"0s"`
	PasswordResetRedirectURL string        `env:"PASSWORD_RESET_REDIRECT_URL"`
}

// TokenConfig carries the legacy token settings. SecretKey is kept for
// deployments that still set it; nothing signs with it.
type TokenConfig struct {
	SecretKey                string `env:"SECRET_KEY" envDefault:"fallback-secret-key-change-in-production"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
}

type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000,http://localhost:3001"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"auth-gateway"`
}

// Load reads .env (if any) and then the process environment. Values already
// present in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var err error

	u, parseErr := url.Parse(strings.TrimSpace(c.Provider.URL))
	if parseErr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("SUPABASE_URL must be an absolute URL, got %q", c.Provider.URL))
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		err = multierr.Append(err, errors.New("SUPABASE_KEY is required"))
	}
	if c.Provider.Timeout < 0 {
		err = multierr.Append(err, errors.New("PROVIDER_TIMEOUT must not be negative"))
	}
	if c.Token.AccessTokenExpireMinutes <= 0 {
		err = multierr.Append(err, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		err = multierr.Append(err, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.GinMode))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		err = multierr.Append(err, errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED=true"))
	}
	return err
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return ":" + c.Port
}

// AccessTokenTTL is the fallback lifetime reported for access tokens.
func (c TokenConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}
