// Package config loads mount definitions and logging settings from YAML, with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m-manu/virtualpath/lib"
	"github.com/m-manu/virtualpath/logging"
	"github.com/m-manu/virtualpath/registry"
	"github.com/m-manu/virtualpath/vfs"
)

const envPrefix = "VIRTUALPATH_"

// Config is the content of a configuration file
type Config struct {
	Log    logging.Config `yaml:"log"`
	Mounts []Mount        `yaml:"mounts"`
}

// Mount describes one named provider
type Mount struct {
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	Separator string            `yaml:"separator"`
	Options   map[string]string `yaml:"options"`
}

// Load reads the YAML file at path. See Parse.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("couldn't load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, expands $VAR and ${VAR} in option values
// and applies VIRTUALPATH_LOG_* environment overrides.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Mounts {
		for k, v := range cfg.Mounts[i].Options {
			cfg.Mounts[i].Options[k] = os.ExpandEnv(v)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides logging settings from the environment
func (c *Config) ApplyEnv() {
	c.Log.Level = envOr(envPrefix+"LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr(envPrefix+"LOG_FORMAT", c.Log.Format)
	c.Log.OutputPath = envOr(envPrefix+"LOG_OUTPUT", c.Log.OutputPath)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate rejects unnamed, duplicate and unknown mounts
func (c *Config) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for i, m := range c.Mounts {
		switch {
		case m.Name == "":
			errs = append(errs, fmt.Errorf("mount #%d has no name", i+1))
		case strings.ContainsAny(m.Name, ":/"):
			errs = append(errs, fmt.Errorf("mount name %q must not contain ':' or '/'", m.Name))
		case seen[m.Name]:
			errs = append(errs, fmt.Errorf("mount %q is defined more than once", m.Name))
		}
		seen[m.Name] = true
		if !registry.Known(m.Type) {
			errs = append(errs, fmt.Errorf("mount %q has unknown type %q", m.Name, m.Type))
		}
	}
	return errors.Join(errs...)
}

// Open builds the provider of the mount
func (m Mount) Open() (*vfs.Provider, error) {
	options := make(map[string]string, len(m.Options)+2)
	for k, v := range m.Options {
		options[k] = v
	}
	options[registry.OptionName] = m.Name
	if m.Separator != "" {
		options[registry.OptionSeparator] = m.Separator
	}
	return registry.New(m.Type, options)
}

// OpenAll builds every mount, keyed by name. On failure the providers built so far are disposed.
func (c *Config) OpenAll() (map[string]*vfs.Provider, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	providers := make(map[string]*vfs.Provider, len(c.Mounts))
	for _, m := range c.Mounts {
		p, err := m.Open()
		if err != nil {
			for _, opened := range providers {
				_ = opened.Dispose()
			}
			return nil, fmt.Errorf("mount %q: %w", m.Name, err)
		}
		providers[m.Name] = p
	}
	return providers, nil
}

// primaryOption is the option filled by the argument of a "name=type:arg" mount flag
var primaryOption = map[string]string{
	"local":    "root",
	"readonly": "root",
	"zip":      "file",
	"sftp":     "target",
	"ftp":      "addr",
	"s3":       "bucket",
	"minio":    "bucket",
}

// ParseMount parses a command line mount: "name=type[:arg][,key=value...]".
// The argument goes to the type's main option, e.g. the root of a local mount.
func ParseMount(spec string) (Mount, error) {
	name, rest, found := strings.Cut(spec, "=")
	if !found || name == "" {
		return Mount{}, fmt.Errorf("malformed mount %q (expected name=type:arg)", spec)
	}
	head, tail, _ := strings.Cut(rest, ",")
	options, err := lib.ParseKeyValues(tail)
	if err != nil {
		return Mount{}, fmt.Errorf("malformed mount %q: %w", spec, err)
	}
	kind, arg, hasArg := strings.Cut(head, ":")
	if hasArg {
		key, ok := primaryOption[kind]
		if !ok {
			return Mount{}, fmt.Errorf("mount type %q takes no argument", kind)
		}
		options[key] = arg
	}
	m := Mount{Name: name, Type: kind, Separator: options[registry.OptionSeparator], Options: options}
	delete(m.Options, registry.OptionSeparator)
	return m, nil
}
