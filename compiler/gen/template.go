package gen

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"
)

// A TypeTemplate renders one artifact kind per non-link entity.
type TypeTemplate struct {
	// Name of the template executed with the entity as context.
	Name string
	// Identity names the template variant used for the identity entity.
	// Empty means the generic template is used for every entity.
	Identity string
	// Format returns the output path of the entity, relative to the target.
	Format func(*Type) string
}

// For returns the template executed for the given entity.
func (t TypeTemplate) For(n *Type) string {
	if t.Identity != "" && n.IsIdentity() {
		return t.Identity
	}
	return t.Name
}

// A GraphTemplate renders one artifact of the whole registry. The artifact
// is rendered either by the named template or by Build.
type GraphTemplate struct {
	// Name of the template executed with the graph as context.
	Name string
	// Format is the output path, relative to the target.
	Format string
	// Skip reports if the artifact is not emitted for the graph.
	Skip func(*Graph) bool
	// Build renders the artifact programmatically instead of Name.
	Build func(*Graph) ([]byte, error)
}

var (
	// Templates holds the per-entity artifact kinds, in emission order.
	Templates = []TypeTemplate{
		{
			Name:     "schema",
			Identity: "schema/identity",
			Format:   pkgf("backend/internal/schema/%s.go"),
		},
		{
			Name:     "crud",
			Identity: "crud/identity",
			Format:   pkgf("backend/internal/crud/%s.go"),
		},
		{
			Name:     "service",
			Identity: "service/identity",
			Format:   pkgf("backend/internal/service/%s.go"),
		},
		{
			Name: "endpoint",
			Format: func(t *Type) string {
				return fmt.Sprintf("backend/internal/api/endpoints/%s/%s.go", t.LowerName(), t.LowerName())
			},
		},
		{
			Name:   "client/service",
			Format: pkgf("frontend/src/services/%s.ts"),
		},
		{
			Name: "client/store",
			Format: func(t *Type) string {
				return "frontend/src/stores/" + t.StoreName() + ".ts"
			},
		},
		{
			Name:   "client/list",
			Format: pkgf("frontend/src/pages/%s/index.tsx"),
		},
		{
			Name:   "client/detail",
			Format: pkgf("frontend/src/pages/%s/detail.tsx"),
		},
	}

	// GraphTemplates holds the artifacts of the whole registry. Locale
	// tables are appended per configured locale, see graphTemplates.
	GraphTemplates = []GraphTemplate{
		{
			Name:   "api",
			Format: "backend/internal/api/api.go",
			Build:  buildRouter,
		},
		{
			Name:   "dialect",
			Format: "backend/internal/crud/dialect.go",
		},
		{
			Name:   "upload",
			Format: "backend/internal/api/endpoints/upload/upload.go",
		},
		{
			Name:   "login",
			Format: "backend/internal/api/endpoints/login/login.go",
		},
		{
			Name:   "client/routes",
			Format: "frontend/src/Routes.tsx",
		},
		{
			Name:   "client/menu",
			Format: "frontend/src/Menu.tsx",
		},
	}
)

var (
	//go:embed template/*
	templateDir embed.FS
	// templates holds the parsed template files.
	templates = MustParse(NewTemplate("templates").ParseFS(templateDir, "template/*.tmpl", "template/*/*.tmpl"))
)

// pkgf returns a Format function that fills the lower name of the entity.
func pkgf(s string) func(t *Type) string {
	return func(t *Type) string { return fmt.Sprintf(s, t.LowerName()) }
}

// Template wraps the standard template.Template to provide the generator
// functions on every parse.
type Template struct {
	*template.Template
	FuncMap template.FuncMap
}

// NewTemplate creates an empty template with the standard codegen functions.
func NewTemplate(name string) *Template {
	t := &Template{Template: template.New(name), FuncMap: template.FuncMap{}}
	return t.Funcs(Funcs)
}

// Funcs merges the given func map into the template functions.
func (t *Template) Funcs(funcMap template.FuncMap) *Template {
	t.Template.Funcs(funcMap)
	for name, f := range funcMap {
		t.FuncMap[name] = f
	}
	return t
}

// Parse parses text as a template body for t.
func (t *Template) Parse(text string) (*Template, error) {
	if _, err := t.Template.Parse(text); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseFS parses the files matching the patterns of fsys.
func (t *Template) ParseFS(fsys fs.FS, patterns ...string) (*Template, error) {
	if _, err := t.Template.ParseFS(fsys, patterns...); err != nil {
		return nil, err
	}
	return t, nil
}

// MustParse is a helper that wraps a call to a function returning
// (*Template, error) and panics if the error is non-nil.
func MustParse(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Funcs are the predefined template functions used by the codegen.
var Funcs = template.FuncMap{
	"pascal":    pascal,
	"camel":     camel,
	"snake":     snake,
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"plural":    inflect.Pluralize,
	"label":     autoLabel,
	"quote":     strconv.Quote,
	"js":        jsString,
	"join":      strings.Join,
	"hasPrefix": strings.HasPrefix,
	"comment":   comment,
	"add":       func(a, b int) int { return a + b },
	"list":      func(v ...any) []any { return v },
}

// comment prefixes every line of s with "// ".
func comment(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("// "+l, " ")
	}
	return strings.Join(lines, "\n")
}
