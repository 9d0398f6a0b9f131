// Package scaffold creates new site projects from an embedded skeleton.
//
// The skeleton holds the hand-written parts of a project: the sitegen.yaml
// settings, a sample model, and the backend and frontend runtime the
// generated code builds on. Files ending in ".tmpl" are rendered with
// text/template; the others are copied as they are.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/syssam/sitegen/compiler/gen"
	"github.com/syssam/sitegen/internal/config"
)

//go:embed all:skeleton
var skeleton embed.FS

const (
	root      = "skeleton"
	tmplExt   = ".tmpl"
	goVersion = "1.24.0"
)

// renamed maps skeleton files to their project path. Dotfiles are stored
// without the dot to keep them out of tooling that skips hidden files.
var renamed = map[string]string{
	"gitignore": ".gitignore",
}

// ErrExists is returned when the project directory already exists.
var ErrExists = errors.New("scaffold: project directory already exists")

// Options configures a new project.
type Options struct {
	// Dir is the project directory. It must not exist.
	Dir string
	// Name is the project name. Defaults to the base name of Dir.
	Name string
	// Module is the Go module path of the backend.
	Module string
	// DatabaseURL is the database of the backend, e.g. "postgres://...".
	DatabaseURL string
	// Locales of the client. Defaults to the generator locales.
	Locales []string
	// SecretKey signs the backend tokens. Generated when empty.
	SecretKey string
	Logger    *slog.Logger
}

// GeneratedFile is one file of a new project.
type GeneratedFile struct {
	// Path is relative to the project directory, slash separated.
	Path    string
	Content []byte
}

// Result describes a created project.
type Result struct {
	Project   *config.Project
	Files     []GeneratedFile
	NextSteps []string
}

// data is handed to the skeleton templates.
type data struct {
	Name        string
	Slug        string
	Module      string
	GoVersion   string
	Lang        string
	Storage     *gen.Storage
	DatabaseURL string
	UploadDir   string
}

// Project returns the configuration of a new project.
func Project(opts Options) (*config.Project, error) {
	if opts.Dir == "" {
		return nil, errors.New("scaffold: project directory is empty")
	}
	p := config.Defaults(opts.Dir)
	if opts.Name != "" {
		p.ProjectName = opts.Name
	}
	if opts.Module != "" {
		p.BackendModule = opts.Module
	}
	if opts.DatabaseURL != "" {
		p.DatabaseURL = opts.DatabaseURL
	}
	if len(opts.Locales) > 0 {
		p.Locales = opts.Locales
	}
	p.SecretKey = opts.SecretKey
	if p.SecretKey == "" {
		p.SecretKey = NewSecretKey()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewSecretKey returns a random 256-bit hex key.
func NewSecretKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// Render renders the skeleton of p without touching the disk.
func Render(p *config.Project) ([]GeneratedFile, error) {
	s, err := gen.StorageFromURL(p.DatabaseURL)
	if err != nil {
		return nil, err
	}
	d := data{
		Name:        p.ProjectName,
		Slug:        inflect.Parameterize(p.ProjectName),
		Module:      p.BackendModule,
		GoVersion:   goVersion,
		Lang:        lang(p.Locales),
		Storage:     s,
		DatabaseURL: p.DatabaseURL,
		UploadDir:   p.UploadDir,
	}
	var files []GeneratedFile
	err = fs.WalkDir(skeleton, root, func(name string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		content, err := skeleton.ReadFile(name)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(name, root+"/")
		if strings.HasSuffix(rel, tmplExt) {
			rel = strings.TrimSuffix(rel, tmplExt)
			if content, err = render(rel, content, d); err != nil {
				return err
			}
		}
		if to, ok := renamed[path.Base(rel)]; ok {
			rel = path.Join(path.Dir(rel), to)
		}
		files = append(files, GeneratedFile{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func render(name string, text []byte, d data) ([]byte, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	var b bytes.Buffer
	if err := t.Execute(&b, d); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return b.Bytes(), nil
}

// lang returns the HTML language of the first locale.
func lang(locales []string) string {
	if len(locales) == 0 {
		return "en"
	}
	tag, err := language.Parse(locales[0])
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// Create writes a new project. It fails with ErrExists when the project
// directory exists.
func Create(opts Options) (*Result, error) {
	if _, err := os.Stat(opts.Dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, opts.Dir)
	}
	p, err := Project(opts)
	if err != nil {
		return nil, err
	}
	files, err := Render(p)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, f := range files {
		dst := filepath.Join(p.Dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(dst, f.Content, 0o644); err != nil {
			return nil, err
		}
		logger.Debug("file created", "path", f.Path)
	}
	if err := os.MkdirAll(filepath.Join(p.Output(), "backend", p.UploadDir), 0o755); err != nil {
		return nil, err
	}
	if err := config.Write(p); err != nil {
		return nil, err
	}
	return &Result{
		Project: p,
		Files:   files,
		NextSteps: []string{
			"cd " + opts.Dir,
			"edit the models in " + p.ModelsDir + "/",
			"sitegen sync",
			"sitegen run",
		},
	}, nil
}
