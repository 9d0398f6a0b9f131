// Package config reads the project configuration of a generated site from
// sitegen.yaml, with SITEGEN_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/syssam/sitegen/compiler/gen"
)

const (
	// FileName is the project configuration file at the project root.
	FileName = "sitegen.yaml"
	// EnvPrefix prefixes the environment overrides, e.g. SITEGEN_DATABASE_URL.
	EnvPrefix = "SITEGEN"

	configName = "sitegen"
	configType = "yaml"
)

// Config keys.
const (
	KeyProjectName    = "project_name"
	KeyModelsDir      = "models_dir"
	KeyOutputDir      = "output_dir"
	KeyBackendModule  = "backend_module"
	KeyIdentityEntity = "identity_entity"
	KeyIDField        = "id_field"
	KeyLocales        = "locales"
	KeyLocaleFormat   = "locale_format"
	KeyDatabaseURL    = "database_url"
	KeyUploadDir      = "upload_dir"
	KeySecretKey      = "secret_key"
	KeyAllowedOrigins = "allowed_origins"
	KeyFeatures       = "features"
	KeyHeader         = "header"
)

// Defaults of the project configuration.
const (
	DefaultModelsDir     = "models"
	DefaultOutputDir     = "."
	DefaultBackendModule = "backend"
	DefaultDatabaseURL   = "sqlite://app.db"
	// InsecureSecretKey is the placeholder secret rejected by doctor.
	InsecureSecretKey = "changeme"
)

// DefaultAllowedOrigins are the dev servers allowed by the generated backend.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// DefaultFeatures are enabled in new projects. The generated backend applies
// the migrations schema on startup.
var DefaultFeatures = []string{"migrations"}

// Project is the configuration of one generated site.
type Project struct {
	// Dir is the project root holding sitegen.yaml. Relative paths of the
	// configuration are resolved against it.
	Dir string `mapstructure:"-"`
	// File is the configuration file read, empty when none was found.
	File string `mapstructure:"-"`

	ProjectName    string   `mapstructure:"project_name"`
	ModelsDir      string   `mapstructure:"models_dir"`
	OutputDir      string   `mapstructure:"output_dir"`
	BackendModule  string   `mapstructure:"backend_module"`
	IdentityEntity string   `mapstructure:"identity_entity"`
	IDField        string   `mapstructure:"id_field"`
	Locales        []string `mapstructure:"locales"`
	LocaleFormat   string   `mapstructure:"locale_format"`
	DatabaseURL    string   `mapstructure:"database_url"`
	UploadDir      string   `mapstructure:"upload_dir"`
	SecretKey      string   `mapstructure:"secret_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Features       []string `mapstructure:"features"`
	Header         string   `mapstructure:"header"`
}

// New returns a viper instance holding the defaults of a project rooted
// at dir and reading sitegen.yaml and the environment.
func New(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyProjectName, filepath.Base(absDir(dir)))
	v.SetDefault(KeyModelsDir, DefaultModelsDir)
	v.SetDefault(KeyOutputDir, DefaultOutputDir)
	v.SetDefault(KeyBackendModule, DefaultBackendModule)
	v.SetDefault(KeyIdentityEntity, gen.DefaultIdentityEntity)
	v.SetDefault(KeyIDField, gen.DefaultIDField)
	v.SetDefault(KeyLocales, gen.DefaultLocales)
	v.SetDefault(KeyLocaleFormat, string(gen.LocaleJSON))
	v.SetDefault(KeyDatabaseURL, DefaultDatabaseURL)
	v.SetDefault(KeyUploadDir, gen.DefaultUploadDir)
	v.SetDefault(KeySecretKey, "")
	v.SetDefault(KeyAllowedOrigins, DefaultAllowedOrigins)
	v.SetDefault(KeyFeatures, DefaultFeatures)
	v.SetDefault(KeyHeader, "")
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the configuration of the project rooted at dir. A missing
// sitegen.yaml is not an error: the defaults and the environment apply.
func Load(dir string) (*Project, error) {
	v := New(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", FileName, err)
		}
	}
	p := &Project{}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileName, err)
	}
	p.Dir = absDir(dir)
	p.File = v.ConfigFileUsed()
	return p, nil
}

// Write stores p as the sitegen.yaml of its project directory.
func Write(p *Project) error {
	v := viper.New()
	v.SetConfigType(configType)
	v.Set(KeyProjectName, p.ProjectName)
	v.Set(KeyModelsDir, p.ModelsDir)
	v.Set(KeyOutputDir, p.OutputDir)
	v.Set(KeyBackendModule, p.BackendModule)
	v.Set(KeyIdentityEntity, p.IdentityEntity)
	v.Set(KeyIDField, p.IDField)
	v.Set(KeyLocales, p.Locales)
	v.Set(KeyLocaleFormat, p.LocaleFormat)
	v.Set(KeyDatabaseURL, p.DatabaseURL)
	v.Set(KeyUploadDir, p.UploadDir)
	v.Set(KeySecretKey, p.SecretKey)
	v.Set(KeyAllowedOrigins, p.AllowedOrigins)
	v.Set(KeyFeatures, p.Features)
	if p.Header != "" {
		v.Set(KeyHeader, p.Header)
	}
	path := filepath.Join(p.Dir, FileName)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p.File = path
	return nil
}

// Defaults returns the default configuration of a project rooted at dir.
func Defaults(dir string) *Project {
	v := New(dir)
	p := &Project{}
	// Defaults always decode.
	_ = v.Unmarshal(p)
	p.Dir = absDir(dir)
	return p
}

// Path resolves a configured path against the project root.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Dir, rel)
}

// Models returns the directory of the model declarations.
func (p *Project) Models() string { return p.Path(p.ModelsDir) }

// Output returns the directory the backend/ and frontend/ trees live in.
func (p *Project) Output() string { return p.Path(p.OutputDir) }

// Validate reports the configuration errors that prevent a sync.
func (p *Project) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ProjectName) == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyProjectName))
	}
	if p.BackendModule == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyBackendModule))
	}
	if p.ModelsDir == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyModelsDir))
	}
	if _, err := gen.NewConfig(p.Options()...); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options returns the generator options of the project. The logger, if
// any, is appended last.
func (p *Project) Options(logger ...*slog.Logger) []gen.Option {
	opts := []gen.Option{
		gen.WithTarget(p.Output()),
		gen.WithPackage(p.BackendModule),
		gen.WithProjectName(p.ProjectName),
		gen.WithIdentityEntity(p.IdentityEntity),
		gen.WithIDField(p.IDField),
		gen.WithLocales(p.Locales...),
		gen.WithLocaleFormat(p.LocaleFormat),
		gen.WithUploadDir(p.UploadDir),
		gen.WithDatabaseURL(p.DatabaseURL),
		gen.WithFeatureNames(p.Features...),
	}
	if p.Header != "" {
		opts = append(opts, gen.WithHeader(p.Header))
	}
	for _, l := range logger {
		if l != nil {
			opts = append(opts, gen.WithLogger(l))
		}
	}
	return opts
}

// Env returns the environment of the generated backend process.
func (p *Project) Env() []string {
	return []string{
		"DATABASE_URL=" + p.DatabaseURL,
		"SECRET_KEY=" + p.SecretKey,
		"UPLOAD_DIR=" + p.UploadDir,
		"ALLOWED_ORIGINS=" + strings.Join(p.AllowedOrigins, ","),
	}
}

func absDir(dir string) string {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Exists reports if dir holds a sitegen.yaml.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}
