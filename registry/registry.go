// Package registry builds providers by kind name from string options, the way mounts are described
// on the command line and in configuration files.
package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/lib"
	"github.com/m-manu/virtualpath/vfs"
)

// Options reserved by the registry itself; every other key is passed to the factory
const (
	OptionName      = "name"
	OptionSeparator = "separator"
)

// Factory builds the backend of one kind
type Factory func(opts Options) (fs.Backend, error)

var factories = lib.NewSafeMap[string, Factory]()

// Register makes a backend kind available to New. It panics if kind is already registered.
func Register(kind string, factory Factory) {
	if factory == nil {
		panic("registry: nil factory for " + kind)
	}
	if !factories.SetIfAbsent(kind, factory) {
		panic("registry: kind registered twice: " + kind)
	}
}

// Known tells whether kind can be built
func Known(kind string) bool {
	_, ok := factories.Get(kind)
	return ok
}

// Kinds lists registered kinds in ascending order
func Kinds() []string {
	return factories.Keys()
}

// New builds a provider of the given kind. The provider is named after the "name" option
// (the kind when absent) and uses the "separator" option as its virtual separator.
func New(kind string, options map[string]string) (*vfs.Provider, error) {
	factory, ok := factories.Get(kind)
	if !ok {
		return nil, fmt.Errorf("unknown provider kind %q (known: %s)", kind, strings.Join(Kinds(), ", "))
	}
	opts := Options(options)
	backend, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("couldn't create %s provider: %w", kind, err)
	}
	return vfs.NewProvider(backend, vfs.Options{
		Name:      opts.String(OptionName, kind),
		Separator: opts.String(OptionSeparator, ""),
	}), nil
}

// Options are the string settings of one mount
type Options map[string]string

// Required returns the value of key or an error naming it
func (o Options) Required(key string) (string, error) {
	v := strings.TrimSpace(o[key])
	if v == "" {
		return "", fmt.Errorf("option %q is required", key)
	}
	return v, nil
}

// String returns the value of key, or fallback when it is absent or blank
func (o Options) String(key, fallback string) string {
	if v := strings.TrimSpace(o[key]); v != "" {
		return v
	}
	return fallback
}

func (o Options) Bool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(o[key])
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %q: %w", key, err)
	}
	return b, nil
}

func (o Options) Duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(o[key])
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return d, nil
}
