// Package config handles configuration for the server component,
// including defaults, environment overlay, and command-line flags.
package config

import (
	"errors"
	"flag"
	"os"

	"github.com/iudanet/gophergram/internal/flagx"
)

// ErrPortNotSet возвращается, когда порт не задан ни окружением, ни флагом.
// Без порта процесс не должен подниматься
var ErrPortNotSet = errors.New("listen port is not set")

// Config holds runtime settings for the Gophergram server.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - DatabasePath: path to the SQLite database file.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	Addr           string
	DatabasePath   string
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with sensible development defaults.
// The listen address deliberately has no default: it must come from the
// environment or flags, otherwise LoadConfig fails.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "gophergram.db"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "media"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// parseEnv overlays values from environment variables when set.
func parseEnv(c *Config) {
	overlay := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("PORT"); ok {
		c.Addr = ":" + v
	}
	overlay(&c.Addr, "ADDRESS")
	overlay(&c.DatabasePath, "DATABASE_PATH")
	overlay(&c.S3RootUser, "S3_ROOT_USER")
	overlay(&c.S3RootPassword, "S3_ROOT_PASSWORD")
	overlay(&c.S3Bucket, "S3_BUCKET")
	overlay(&c.S3Region, "S3_REGION")
	overlay(&c.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   SQLite database path
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
func parseFlags(c *Config, args []string) error {
	// Отбрасываем чужие флаги (например -version из main)
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&c.Addr, "a", c.Addr, "address and port to run server")
	fs.StringVar(&c.DatabasePath, "d", c.DatabasePath, "sqlite database path")
	fs.StringVar(&c.S3RootUser, "u", c.S3RootUser, "S3 root user")
	fs.StringVar(&c.S3RootPassword, "p", c.S3RootPassword, "S3 root password")
	fs.StringVar(&c.S3Bucket, "b", c.S3Bucket, "S3 bucket")
	fs.StringVar(&c.S3Region, "g", c.S3Region, "S3 region")
	fs.StringVar(&c.S3BaseEndpoint, "e", c.S3BaseEndpoint, "S3 base endpoint")

	return fs.Parse(args)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from environment variables and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return nil, ErrPortNotSet
	}
	return cfg, nil
}
