package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
)

// Config holds Azure Blob Storage connection parameters.
// Either ConnectionString or ServiceURL must be set. When only ServiceURL is
// set the client authenticates with the default Azure credential chain.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
}

// Finalize fills the container default, applies environment overrides,
// and checks that exactly one way to reach the account is usable.
func (c *Config) Finalize(env *Env) error {
	if c.ContainerName == "" {
		c.ContainerName = "exports"
	}
	if env != nil {
		for dst, name := range c.fields(&Config{
			ContainerName:    env.ContainerName,
			ConnectionString: env.ConnectionString,
			ServiceURL:       env.ServiceURL,
		}) {
			if name == "" {
				continue
			}
			if v := os.Getenv(name); v != "" {
				*dst = v
			}
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, v := range c.fields(overlay) {
		if v != "" {
			*dst = v
		}
	}
}

// UsesCredential reports whether the client authenticates with an Azure
// identity rather than a shared-key connection string.
func (c *Config) UsesCredential() bool {
	return c.ConnectionString == "" && c.ServiceURL != ""
}

func (c *Config) fields(o *Config) map[*string]string {
	return map[*string]string{
		&c.ContainerName:    o.ContainerName,
		&c.ConnectionString: o.ConnectionString,
		&c.ServiceURL:       o.ServiceURL,
	}
}

func (c *Config) validate() error {
	switch {
	case c.ContainerName == "":
		return errors.New("container_name required")
	case c.ConnectionString == "" && c.ServiceURL == "":
		return errors.New("connection_string or service_url required")
	case c.ServiceURL == "":
		return nil
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid service_url %q", c.ServiceURL)
	}
	return nil
}
