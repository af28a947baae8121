package exports

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config selects which rendering pipelines an export request may use.
// The switches are read once per request when formats are resolved.
type Config struct {
	Production          bool   `toml:"production"`
	AllowLegacyPipeline bool   `toml:"allow_legacy_pipeline"`
	DocxConversion      bool   `toml:"docx_conversion"`
	RenderTimeout       string `toml:"render_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Production          string
	AllowLegacyPipeline string
	DocxConversion      string
	RenderTimeout       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Switches can be turned on by an
// overlay but only turned off through the environment.
func (c *Config) Merge(overlay *Config) {
	if overlay.Production {
		c.Production = true
	}
	if overlay.AllowLegacyPipeline {
		c.AllowLegacyPipeline = true
	}
	if overlay.DocxConversion {
		c.DocxConversion = true
	}
	if overlay.RenderTimeout != "" {
		c.RenderTimeout = overlay.RenderTimeout
	}
}

// RenderTimeoutDuration parses RenderTimeout into a time.Duration.
func (c *Config) RenderTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RenderTimeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.RenderTimeout == "" {
		c.RenderTimeout = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	loadBool(env.Production, &c.Production)
	loadBool(env.AllowLegacyPipeline, &c.AllowLegacyPipeline)
	loadBool(env.DocxConversion, &c.DocxConversion)

	if env.RenderTimeout != "" {
		if v := os.Getenv(env.RenderTimeout); v != "" {
			c.RenderTimeout = v
		}
	}
}

func loadBool(name string, dst *bool) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.RenderTimeout)
	if err != nil {
		return fmt.Errorf("invalid render_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("render_timeout must be positive")
	}
	return nil
}
