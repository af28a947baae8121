package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Config holds PostgreSQL connection and pool settings.
// Durations are Go duration strings.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
	ApplicationName string `toml:"application_name"`
}

// Env names the environment variables that override each Config field.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
	ApplicationName string
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration bounds how long startup keeps retrying the first ping.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Dsn returns the keyword/value connection string used by the pgx driver.
// Values containing spaces or quotes are single-quoted.
func (c *Config) Dsn() string {
	pairs := []struct{ key, val string }{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"dbname", c.Name},
		{"user", c.User},
		{"password", c.Password},
		{"sslmode", c.SSLMode},
		{"application_name", c.ApplicationName},
	}

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + quoteValue(p.val)
	}
	return strings.Join(parts, " ")
}

// URL returns the postgres:// form golang-migrate expects.
func (c *Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, src := range c.stringFields(overlay) {
		if src != "" {
			*dst = src
		}
	}
	for dst, src := range c.intFields(overlay) {
		if src != 0 {
			*dst = src
		}
	}
}

func (c *Config) loadDefaults() {
	defaults := &Config{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: "15m",
		ConnTimeout:     "5s",
		ApplicationName: "haccp",
	}
	for dst, def := range c.stringFields(defaults) {
		if *dst == "" {
			*dst = def
		}
	}
	for dst, def := range c.intFields(defaults) {
		if *dst == 0 {
			*dst = def
		}
	}
}

func (c *Config) loadEnv(env *Env) error {
	names := Config{
		Host:            env.Host,
		Name:            env.Name,
		User:            env.User,
		Password:        env.Password,
		SSLMode:         env.SSLMode,
		ConnMaxLifetime: env.ConnMaxLifetime,
		ConnTimeout:     env.ConnTimeout,
		ApplicationName: env.ApplicationName,
	}
	for dst, name := range c.stringFields(&names) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	var errs []error
	for dst, name := range map[*int]string{
		&c.Port:         env.Port,
		&c.MaxOpenConns: env.MaxOpenConns,
		&c.MaxIdleConns: env.MaxIdleConns,
	} {
		v := getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		*dst = n
	}
	return errors.Join(errs...)
}

func (c *Config) validate() error {
	switch {
	case c.Name == "":
		return errors.New("name required")
	case c.User == "":
		return errors.New("user required")
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("invalid port: %d", c.Port)
	case !slices.Contains(sslModes, c.SSLMode):
		return fmt.Errorf("invalid ssl_mode %q", c.SSLMode)
	case c.MaxIdleConns > c.MaxOpenConns:
		return fmt.Errorf("max_idle_conns %d exceeds max_open_conns %d", c.MaxIdleConns, c.MaxOpenConns)
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if d, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	} else if d <= 0 {
		return errors.New("conn_timeout must be positive")
	}
	return nil
}

// stringFields pairs each string field of c with the same field of o.
func (c *Config) stringFields(o *Config) map[*string]string {
	return map[*string]string{
		&c.Host:            o.Host,
		&c.Name:            o.Name,
		&c.User:            o.User,
		&c.Password:        o.Password,
		&c.SSLMode:         o.SSLMode,
		&c.ConnMaxLifetime: o.ConnMaxLifetime,
		&c.ConnTimeout:     o.ConnTimeout,
		&c.ApplicationName: o.ApplicationName,
	}
}

func (c *Config) intFields(o *Config) map[*int]int {
	return map[*int]int{
		&c.Port:         o.Port,
		&c.MaxOpenConns: o.MaxOpenConns,
		&c.MaxIdleConns: o.MaxIdleConns,
	}
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + dsnEscaper.Replace(v) + "'"
}
