package gen

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated source file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the Go module path of the generated backend.
// For example: "github.com/acme/shop/backend".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the project root the artifacts are written under.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithProjectName sets the display name of the generated site.
func WithProjectName(name string) Option {
	return func(c *Config) error {
		c.ProjectName = name
		return nil
	}
}

// WithIdentityEntity names the entity used for authentication.
func WithIdentityEntity(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("IdentityEntity", nil, "identity entity cannot be empty")
		}
		c.IdentityEntity = name
		return nil
	}
}

// WithIDField sets the default identity field name.
func WithIDField(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("IDField", nil, "id field cannot be empty")
		}
		c.IDField = name
		return nil
	}
}

// WithLocales sets the emitted locales. The first one is the base locale.
// Every locale must be a valid BCP 47 tag and is stored in canonical form.
func WithLocales(locales ...string) Option {
	return func(c *Config) error {
		if len(locales) == 0 {
			return NewConfigError("Locales", nil, "at least one locale is required")
		}
		out := make([]string, 0, len(locales))
		for _, l := range locales {
			tag, err := language.Parse(strings.TrimSpace(l))
			if err != nil {
				return NewConfigError("Locales", l, "invalid language tag")
			}
			if s := tag.String(); !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
		c.Locales = out
		return nil
	}
}

// WithLocaleFormat sets the encoding of the locale tables: "json" or "yaml".
func WithLocaleFormat(format string) Option {
	return func(c *Config) error {
		switch f := LocaleFormat(strings.ToLower(format)); f {
		case LocaleJSON, LocaleYAML:
			c.LocaleFormat = f
			return nil
		case "yml":
			c.LocaleFormat = LocaleYAML
			return nil
		default:
			return NewConfigError("LocaleFormat", format, "unsupported format; use json or yaml")
		}
	}
}

// WithUploadDir sets the directory served by the upload endpoint.
func WithUploadDir(dir string) Option {
	return func(c *Config) error {
		c.UploadDir = dir
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional artifacts such as the compose file.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		for _, f := range features {
			if !slices.ContainsFunc(c.Features, func(e Feature) bool { return e.Name == f.Name }) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithFeatureNames enables features by name.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			f, ok := FeatureByName(name)
			if !ok {
				return NewConfigError("Features", name, "unknown feature")
			}
			if err := WithFeatures(f)(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithoutFeatures disables features by name, including default ones.
func WithoutFeatures(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			if _, ok := FeatureByName(name); !ok {
				return NewConfigError("Features", name, "unknown feature")
			}
			c.Features = slices.DeleteFunc(c.Features, func(e Feature) bool { return e.Name == name })
		}
		return nil
	}
}

// WithStorage sets the storage configuration.
// The storage configuration controls the SQL dialect of the generated code.
func WithStorage(storage *Storage) Option {
	return func(c *Config) error {
		if storage == nil {
			return NewConfigError("Storage", nil, "storage cannot be nil")
		}
		c.Storage = storage
		return nil
	}
}

// WithStorageDriver sets the storage by driver name.
// Supported drivers: "sqlite", "mysql", "postgres".
func WithStorageDriver(driver string) Option {
	return func(c *Config) error {
		s, err := NewStorage(driver)
		if err != nil {
			return NewConfigError("StorageDriver", driver, "unsupported driver; use sqlite, mysql, or postgres")
		}
		c.Storage = s
		return nil
	}
}

// WithDatabaseURL sets the storage from the scheme of a database URL.
// An empty URL keeps the current storage.
func WithDatabaseURL(url string) Option {
	return func(c *Config) error {
		if url == "" {
			return nil
		}
		s, err := StorageFromURL(url)
		if err != nil {
			return NewConfigError("DatabaseURL", url, err.Error())
		}
		c.Storage = s
		return nil
	}
}

// WithLogger sets the logger receiving progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options. Unset members
// take their defaults and the default features are enabled.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Features: DefaultFeatures()}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	c.defaults()
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
