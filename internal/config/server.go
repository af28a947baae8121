package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ServerEnv maps server fields to environment variable names.
type ServerEnv struct {
	Host            string
	Port            string
	ReadTimeout     string
	WriteTimeout    string
	IdleTimeout     string
	ShutdownTimeout string
}

var serverEnv = &ServerEnv{
	Host:            "HACCP_SERVER_HOST",
	Port:            "HACCP_SERVER_PORT",
	ReadTimeout:     "HACCP_SERVER_READ_TIMEOUT",
	WriteTimeout:    "HACCP_SERVER_WRITE_TIMEOUT",
	IdleTimeout:     "HACCP_SERVER_IDLE_TIMEOUT",
	ShutdownTimeout: "HACCP_SERVER_SHUTDOWN_TIMEOUT",
}

// ServerConfig holds HTTP listener settings. Durations are Go duration strings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

// WriteTimeoutDuration bounds a whole response, so it must cover the slowest
// export download.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return mustDuration(c.IdleTimeout)
}

// ShutdownTimeoutDuration is how long in-flight requests may drain.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize(env *ServerEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	for dst, src := range map[*string]string{
		&c.Host:            overlay.Host,
		&c.ReadTimeout:     overlay.ReadTimeout,
		&c.WriteTimeout:    overlay.WriteTimeout,
		&c.IdleTimeout:     overlay.IdleTimeout,
		&c.ShutdownTimeout: overlay.ShutdownTimeout,
	} {
		if src != "" {
			*dst = src
		}
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
}

func (c *ServerConfig) loadDefaults() {
	for dst, def := range map[*string]string{
		&c.Host:            "0.0.0.0",
		&c.ReadTimeout:     "1m",
		&c.WriteTimeout:    "15m",
		&c.IdleTimeout:     "2m",
		&c.ShutdownTimeout: "30s",
	} {
		if *dst == "" {
			*dst = def
		}
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c *ServerConfig) loadEnv(env *ServerEnv) {
	for dst, name := range map[*string]string{
		&c.Host:            env.Host,
		&c.ReadTimeout:     env.ReadTimeout,
		&c.WriteTimeout:    env.WriteTimeout,
		&c.IdleTimeout:     env.IdleTimeout,
		&c.ShutdownTimeout: env.ShutdownTimeout,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if env.Port != "" {
		if v := os.Getenv(env.Port); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Port = port
			}
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for name, v := range map[string]string{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
