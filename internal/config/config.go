// Package config builds the server configuration from defaults, an optional
// .env file, SHRAMBA_* environment variables and command-line flags, applied
// in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime settings for the server.
type Config struct {
	Addr          string
	DBDriver      string
	DBDSN         string
	SessionSecret string // empty means: load or generate one in the settings table
	SessionTTL    time.Duration
	SecureCookie  bool
	LogPath       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DBDriver = DriverSQLite
	c.DBDSN = "shramba.sqlite3"
	c.SessionSecret = ""
	c.SessionTTL = 24 * time.Hour
	c.SecureCookie = false
	c.LogPath = ""
}

// Load builds a Config from defaults, the .env file named by SHRAMBA_ENV_FILE
// (default ".env"), the environment and finally args. A missing .env file is
// not an error. flag.ErrHelp is returned unchanged when -h is given.
func Load(args []string, usageOut io.Writer) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	envFile := os.Getenv("SHRAMBA_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(args, usageOut); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	if c.DBDSN == "" {
		return errors.New("database path or DSN is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SHRAMBA_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("SHRAMBA_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv("SHRAMBA_DB"); v != "" {
		c.DBDSN = v
	}
	if v := os.Getenv("SHRAMBA_SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("SHRAMBA_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing SHRAMBA_SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := os.Getenv("SHRAMBA_SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing SHRAMBA_SECURE_COOKIE: %w", err)
		}
		c.SecureCookie = b
	}
	if v := os.Getenv("SHRAMBA_LOG"); v != "" {
		c.LogPath = v
	}
	return nil
}

const usage = `Usage: shramba [flags]

Flags:
  -a, -addr <host:port>   listen address (default: :8080)
  -d, -db <path|dsn>      SQLite database path or PostgreSQL DSN (default: shramba.sqlite3)
      -driver <name>      database driver: sqlite or postgres (default: sqlite)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -session-ttl <dur>  session lifetime, e.g. 12h (default: 24h)
      -secure-cookie      mark the session cookie Secure (serve over HTTPS)
  -h, -help               show this help and exit

Environment (overridden by flags):
  SHRAMBA_ADDR, SHRAMBA_DB, SHRAMBA_DB_DRIVER, SHRAMBA_LOG, SHRAMBA_SESSION_TTL,
  SHRAMBA_SESSION_SECRET, SHRAMBA_SECURE_COOKIE, SHRAMBA_ENV_FILE
`

func (c *Config) parseFlags(args []string, usageOut io.Writer) error {
	fs := flag.NewFlagSet("shramba", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")
	fs.StringVar(&c.DBDSN, "db", c.DBDSN, "")
	fs.StringVar(&c.DBDSN, "d", c.DBDSN, "")
	fs.StringVar(&c.DBDriver, "driver", c.DBDriver, "")
	fs.StringVar(&c.LogPath, "log", c.LogPath, "")
	fs.StringVar(&c.LogPath, "l", c.LogPath, "")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "")
	fs.BoolVar(&c.SecureCookie, "secure-cookie", c.SecureCookie, "")

	fs.Usage = func() {
		if usageOut != nil {
			fmt.Fprint(usageOut, usage)
		}
	}

	// fs.Parse prints the usage itself on -h and on bad flags.
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}
