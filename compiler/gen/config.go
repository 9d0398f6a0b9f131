package gen

import (
	"log/slog"
	"slices"
)

// Defaults used by NewConfig.
const (
	DefaultHeader         = "Code generated by sitegen. DO NOT EDIT."
	DefaultIdentityEntity = "User"
	DefaultIDField        = "id"
	DefaultUploadDir      = "uploads"
)

// DefaultLocales are the locales emitted when none are configured. The first
// locale is the base locale used for fallbacks.
var DefaultLocales = []string{"en", "zh"}

// LocaleFormat selects the encoding of the emitted locale tables.
type LocaleFormat string

// Supported locale formats.
const (
	LocaleJSON LocaleFormat = "json"
	LocaleYAML LocaleFormat = "yaml"
)

// Ext returns the file extension of the format.
func (f LocaleFormat) Ext() string {
	if f == LocaleYAML {
		return ".yaml"
	}
	return ".json"
}

// Config holds the global codegen configuration shared by all types and
// graph templates.
type Config struct {
	// Target is the project root the artifacts are written under. It holds
	// the backend/ and frontend/ trees.
	Target string

	// Package is the Go module path of the generated backend,
	// e.g. "github.com/acme/shop/backend".
	Package string

	// ProjectName is the display name used in the generated frontend shell.
	ProjectName string

	// Header is emitted as a comment on top of every generated source file.
	Header string

	// IdentityEntity names the entity treated as the authentication identity.
	// Its credential field is synthesized when missing and three of its
	// artifacts use the identity variant templates.
	IdentityEntity string

	// IDField is the identity field name used when a declaration does not
	// name one.
	IDField string

	// Locales lists the locale tables to emit. Locales[0] is the base locale.
	Locales []string

	// LocaleFormat is the encoding of the locale tables.
	LocaleFormat LocaleFormat

	// UploadDir is the directory served by the fixed upload endpoint.
	UploadDir string

	// Storage configures the SQL dialect of the generated backend.
	Storage *Storage

	// Features that are enabled for this run.
	Features []Feature

	// Logger receives progress and diagnostic records. Nil means slog.Default.
	Logger *slog.Logger
}

// FeatureEnabled reports if the given feature name is enabled.
// It's exported to be used by the template engine as follows:
//
//	{{ with $.FeatureEnabled "compose" }}
//		...
//	{{ end }}
func (c Config) FeatureEnabled(name string) (bool, error) {
	for _, f := range AllFeatures {
		if name == f.Name {
			return slices.ContainsFunc(c.Features, func(e Feature) bool { return e.Name == name }), nil
		}
	}
	return false, NewConfigError("Features", name, "unknown feature")
}

// BaseLocale returns the locale used as fallback for the others.
func (c Config) BaseLocale() string {
	if len(c.Locales) == 0 {
		return DefaultLocales[0]
	}
	return c.Locales[0]
}

// logger returns the configured logger or the process default.
func (c *Config) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// defaults fills the unset members of the config.
func (c *Config) defaults() {
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.IdentityEntity == "" {
		c.IdentityEntity = DefaultIdentityEntity
	}
	if c.IDField == "" {
		c.IDField = DefaultIDField
	}
	if len(c.Locales) == 0 {
		c.Locales = slices.Clone(DefaultLocales)
	}
	if c.LocaleFormat == "" {
		c.LocaleFormat = LocaleJSON
	}
	if c.UploadDir == "" {
		c.UploadDir = DefaultUploadDir
	}
	if c.Storage == nil {
		c.Storage = drivers[0]
	}
	if c.ProjectName == "" {
		c.ProjectName = "Admin"
	}
}

// validate reports configuration errors that cannot be defaulted.
func (c *Config) validate() error {
	if c.Target == "" {
		return NewConfigError("Target", nil, "missing target directory")
	}
	if c.Package == "" {
		return NewConfigError("Package", nil, "missing backend module path")
	}
	switch c.LocaleFormat {
	case LocaleJSON, LocaleYAML:
	default:
		return NewConfigError("LocaleFormat", string(c.LocaleFormat), "use json or yaml")
	}
	return nil
}
