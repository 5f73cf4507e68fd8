// Package config loads server settings from flags, environment variables
// and defaults, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the server configuration.
type Config struct {
	DBPath      string
	Addr        string
	LogPath     string
	LogLevel    string
	Environment string

	// SuperAdminPIN enables the synthetic admin login when non-empty.
	SuperAdminPIN string
	TokenTTL      time.Duration

	MediaDir string
	MediaURL string

	CORSOrigins []string

	// LoginRate is the number of login attempts allowed per minute per
	// client address, LoginBurst the bucket size.
	LoginRate  int
	LoginBurst int
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Usage is printed for -h.
const Usage = `Usage: oprema [flags]

Flags:
  -d, -db <path>            SQLite database path (env OPREMA_DB, default: oprema.sqlite3)
  -a, -addr <host:port>     listen address (env OPREMA_ADDR, default: :8080)
  -l, -log <path>           log file path (env OPREMA_LOG, default: stdout/stderr only)
      -log-level <level>    debug, info, warn or error (env LOG_LEVEL, default: info)
  -e, -env <name>           development or production (env OPREMA_ENV, default: production)
      -token-ttl <dur>      login token lifetime (env OPREMA_TOKEN_TTL, default: 168h)
      -media-dir <path>     image storage directory (env OPREMA_MEDIA_DIR, default: media)
      -media-url <prefix>   URL prefix for stored images (env OPREMA_MEDIA_URL, default: /media)
      -cors-origins <list>  comma separated allowed origins (env OPREMA_CORS_ORIGINS, default: *)
      -login-rate <n>       login attempts per minute per client (env OPREMA_LOGIN_RATE, default: 10)
      -login-burst <n>      login attempt burst (env OPREMA_LOGIN_BURST, default: 5)
  -h, -help                 show this help and exit

Environment:
  SUPER_ADMIN_PIN           4-digit PIN of the built-in super admin (disabled when unset)
`

// Load parses args and reads the environment through getenv.
// flag.ErrHelp is returned unchanged for -h.
func Load(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("oprema", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		dbPath, addr, logPath, logLevel, env string
		tokenTTL, mediaDir, mediaURL         string
		corsOrigins, loginRate, loginBurst   string
	)
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")
	fs.StringVar(&logLevel, "log-level", "", "")
	fs.StringVar(&env, "env", "", "")
	fs.StringVar(&env, "e", "", "")
	fs.StringVar(&tokenTTL, "token-ttl", "", "")
	fs.StringVar(&mediaDir, "media-dir", "", "")
	fs.StringVar(&mediaURL, "media-url", "", "")
	fs.StringVar(&corsOrigins, "cors-origins", "", "")
	fs.StringVar(&loginRate, "login-rate", "", "")
	fs.StringVar(&loginBurst, "login-burst", "", "")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	value := func(flagValue, envKey, def string) string {
		if flagValue != "" {
			return flagValue
		}
		if v := strings.TrimSpace(getenv(envKey)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DBPath:        value(dbPath, "OPREMA_DB", "oprema.sqlite3"),
		Addr:          value(addr, "OPREMA_ADDR", ":8080"),
		LogPath:       value(logPath, "OPREMA_LOG", ""),
		LogLevel:      strings.ToLower(value(logLevel, "LOG_LEVEL", "info")),
		Environment:   strings.ToLower(value(env, "OPREMA_ENV", EnvProduction)),
		SuperAdminPIN: strings.TrimSpace(getenv("SUPER_ADMIN_PIN")),
		MediaDir:      value(mediaDir, "OPREMA_MEDIA_DIR", "media"),
		MediaURL:      value(mediaURL, "OPREMA_MEDIA_URL", "/media"),
		CORSOrigins:   splitList(value(corsOrigins, "OPREMA_CORS_ORIGINS", "*")),
	}

	ttl := value(tokenTTL, "OPREMA_TOKEN_TTL", "168h")
	d, err := time.ParseDuration(ttl)
	if err != nil {
		return nil, fmt.Errorf("invalid token ttl %q: %w", ttl, err)
	}
	cfg.TokenTTL = d

	if cfg.LoginRate, err = positiveInt("login rate", value(loginRate, "OPREMA_LOGIN_RATE", "10")); err != nil {
		return nil, err
	}
	if cfg.LoginBurst, err = positiveInt("login burst", value(loginBurst, "OPREMA_LOGIN_BURST", "5")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parsed but are out of range.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
	if c.SuperAdminPIN != "" {
		if err := model.ValidatePIN(c.SuperAdminPIN); err != nil {
			return fmt.Errorf("invalid SUPER_ADMIN_PIN: %w", err)
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	if !strings.HasPrefix(c.MediaURL, "/") {
		return fmt.Errorf("media url %q must start with /", c.MediaURL)
	}
	return nil
}

func positiveInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
