package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"ariga.io/atlas/sql/schema"
	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

var (
	// FeatureCompose emits a docker-compose file running the generated
	// backend and frontend, plus the database server of the storage driver.
	FeatureCompose = Feature{
		Name:        "compose",
		Stage:       Stable,
		Default:     false,
		Description: "Compose emits a docker-compose.yml for the generated project, with a database service for server storages",
		GraphTemplates: []GraphTemplate{
			{
				Name:   "feature/compose",
				Format: "docker-compose.yml",
			},
		},
		cleanup: func(c *Config) error {
			return remove(c.Target, "docker-compose.yml")
		},
	}

	// FeatureMigrations emits the DDL creating the tables of every entity,
	// link tables included, in the dialect of the storage driver.
	FeatureMigrations = Feature{
		Name:        "migrations",
		Stage:       Beta,
		Default:     false,
		Description: "Migrations emits backend/migrations/schema.sql planned by atlas for the configured storage",
		GraphTemplates: []GraphTemplate{
			{
				Name:   "migrations",
				Format: "backend/migrations/schema.sql",
				Build:  buildMigrations,
			},
		},
		cleanup: func(c *Config) error {
			return remove(filepath.Join(c.Target, "backend", "migrations"), "schema.sql")
		},
	}

	// FeatureGraphQL emits a GraphQL SDL describing the read model of the
	// generated API.
	FeatureGraphQL = Feature{
		Name:        "graphql",
		Stage:       Experimental,
		Default:     false,
		Description: "GraphQL emits backend/schema.graphqls describing the entities and their list/get queries",
		GraphTemplates: []GraphTemplate{
			{
				Name:   "graphql",
				Format: "backend/schema.graphqls",
				Build:  buildGraphQL,
			},
		},
		cleanup: func(c *Config) error {
			return remove(filepath.Join(c.Target, "backend"), "schema.graphqls")
		},
	}

	// FeatureSeed emits a command creating the first identity able to log in.
	// It is skipped when the identity entity cannot authenticate.
	FeatureSeed = Feature{
		Name:        "seed",
		Stage:       Stable,
		Default:     true,
		Description: "Seed emits backend/cmd/seed creating the first identity entity",
		GraphTemplates: []GraphTemplate{
			{
				Name:   "feature/seed",
				Format: "backend/cmd/seed/main.go",
				Skip:   func(g *Graph) bool { return !seedable(g.Identity()) },
			},
		},
		cleanup: func(c *Config) error {
			return remove(filepath.Join(c.Target, "backend", "cmd", "seed"), "main.go")
		},
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureCompose,
		FeatureMigrations,
		FeatureGraphQL,
		FeatureSeed,
	}
)

// FeatureByName returns the feature-flag with the given name.
func FeatureByName(name string) (Feature, bool) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// DefaultFeatures returns the features enabled by default.
func DefaultFeatures() []Feature {
	var fs []Feature
	for _, f := range AllFeatures {
		if f.Default {
			fs = append(fs, f)
		}
	}
	return fs
}

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development, and their output may change
	// between releases.
	Experimental

	// Alpha features are complete, but we expect breaking-changes to their
	// output.
	Alpha

	// Beta features are Alpha features that are documented, and no
	// breaking-changes are expected for them.
	Beta

	// Stable features are Beta features used by generated projects for a
	// while.
	Stable
)

// String returns the name of the stage.
func (s FeatureStage) String() string {
	switch s {
	case Experimental:
		return "experimental"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Stable:
		return "stable"
	default:
		return "unknown"
	}
}

// A Feature of the sitegen codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// GraphTemplates defines optional templates to be executed on the graph
	// and will their output will be written to the configured destination.
	GraphTemplates []GraphTemplate

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(*Config) error
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}

// seedable reports if the seed command can create the identity: it logs in
// and both its login and password are accepted on create.
func seedable(t *Type) bool {
	if t == nil || !t.CanLogin() || !t.Login().Creatable() {
		return false
	}
	p := t.Password()
	return p != nil && p.Creatable()
}

// buildMigrations plans the creation of every table on an empty database.
func buildMigrations(g *Graph) ([]byte, error) {
	s := g.Storage
	sch := schema.New("")
	tables := make(map[*Type]*schema.Table, len(g.Nodes))
	for _, t := range g.Nodes {
		tbl := schema.NewTable(t.Table())
		id := s.idColumn(t.IDName())
		if t.ID != nil {
			id = s.column(t.ID)
		}
		tbl.AddColumns(id)
		for _, f := range t.Columns() {
			if !f.IsID() {
				tbl.AddColumns(s.column(f))
			}
		}
		tbl.SetPrimaryKey(schema.NewPrimaryKey(id))
		sch.AddTables(tbl)
		tables[t] = tbl
	}
	for _, t := range g.Nodes {
		tbl := tables[t]
		for _, f := range t.ForeignKeys {
			if !f.FK.Resolved || !f.Persisted() {
				continue
			}
			ref := tables[f.FK.Type]
			col, ok := tbl.Column(f.Name)
			if !ok {
				continue
			}
			refCol, ok := ref.Column(f.FK.Type.IDName())
			if !ok {
				continue
			}
			action := schema.SetNull
			if !f.Optional {
				action = schema.Cascade
			}
			tbl.AddForeignKeys(schema.NewForeignKey(fmt.Sprintf("%s_%s", t.Table(), f.Name)).
				AddColumns(col).
				SetRefTable(ref).
				AddRefColumns(refCol).
				SetOnDelete(action))
		}
	}
	changes := make([]schema.Change, 0, len(sch.Tables))
	for _, tbl := range sch.Tables {
		changes = append(changes, &schema.AddTable{T: tbl})
	}
	plan, err := s.Planner.PlanChanges(context.Background(), "schema", changes)
	if err != nil {
		return nil, fmt.Errorf("plan %s schema: %w", s, err)
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "-- %s\n", g.Header)
	for _, c := range plan.Changes {
		if c.Comment != "" {
			fmt.Fprintf(&b, "-- %s\n", c.Comment)
		}
		b.WriteString(c.Cmd)
		b.WriteString(";\n")
	}
	return b.Bytes(), nil
}

// buildGraphQL describes the read model of the entities as a GraphQL schema
// document, and checks the formatted output loads.
func buildGraphQL(g *Graph) ([]byte, error) {
	doc := &ast.SchemaDocument{}
	query := &ast.Definition{Kind: ast.Object, Name: "Query"}
	for _, t := range g.Entities() {
		obj := &ast.Definition{
			Kind:        ast.Object,
			Name:        t.Name,
			Description: t.Display(g.BaseLocale()),
		}
		if t.ID == nil {
			obj.Fields = append(obj.Fields, &ast.FieldDefinition{Name: t.IDName(), Type: ast.NonNullNamedType("ID", nil)})
		}
		for _, f := range t.ReadFields() {
			typ := f.GraphQLType()
			switch {
			case f.IsID():
				typ = "ID"
			case f.Enum:
				if enum, ok := graphQLEnum(t, f); ok {
					doc.Definitions = append(doc.Definitions, enum)
					typ = enum.Name
				}
			}
			obj.Fields = append(obj.Fields, &ast.FieldDefinition{Name: f.Name, Type: graphQLType(typ, f.Optional && !f.IsID())})
			if f.FK == nil {
				continue
			}
			if _, clash := t.Field(f.FK.Name()); f.FK.Resolved && !f.FK.Type.LinkTable && !clash {
				obj.Fields = append(obj.Fields, &ast.FieldDefinition{Name: f.FK.Name(), Type: ast.NamedType(f.FK.Type.Name, nil)})
			}
		}
		for _, r := range t.Relations {
			obj.Fields = append(obj.Fields, &ast.FieldDefinition{
				Name: r.Name,
				Type: ast.NonNullListType(ast.NonNullNamedType("ID", nil), nil),
			})
		}
		page := &ast.Definition{
			Kind: ast.Object,
			Name: t.Name + "Page",
			Fields: ast.FieldList{
				{Name: "items", Type: ast.NonNullListType(ast.NonNullNamedType(t.Name, nil), nil)},
				{Name: "total", Type: ast.NonNullNamedType("Int", nil)},
				{Name: "offset", Type: ast.NonNullNamedType("Int", nil)},
				{Name: "limit", Type: ast.NonNullNamedType("Int", nil)},
			},
		}
		doc.Definitions = append(doc.Definitions, obj, page)
		query.Fields = append(query.Fields,
			&ast.FieldDefinition{
				Name:      camel(t.Name),
				Arguments: ast.ArgumentDefinitionList{{Name: "id", Type: ast.NonNullNamedType("ID", nil)}},
				Type:      ast.NamedType(t.Name, nil),
			},
			&ast.FieldDefinition{
				Name: queryPlural(t),
				Arguments: ast.ArgumentDefinitionList{
					{Name: "offset", Type: ast.NamedType("Int", nil)},
					{Name: "limit", Type: ast.NamedType("Int", nil)},
					{Name: "q", Type: ast.NamedType("String", nil)},
				},
				Type: ast.NonNullNamedType(page.Name, nil),
			},
		)
	}
	if len(query.Fields) == 0 {
		query.Fields = append(query.Fields, &ast.FieldDefinition{Name: "version", Type: ast.NonNullNamedType("String", nil)})
	}
	doc.Definitions = append(doc.Definitions, query)
	var b bytes.Buffer
	formatter.NewFormatter(&b).FormatSchemaDocument(doc)
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: b.String()}); err != nil {
		return nil, fmt.Errorf("validate graphql schema: %w", err)
	}
	return append([]byte("# "+g.Header+"\n\n"), b.Bytes()...), nil
}

// graphQLEnum returns the enum type of an enumerated field. Enumerations
// with members that are not GraphQL names stay strings.
func graphQLEnum(t *Type, f *Field) (*ast.Definition, bool) {
	def := &ast.Definition{Kind: ast.Enum, Name: t.Name + pascal(f.Name)}
	for _, v := range f.EnumValues {
		if !graphQLName(v) {
			return nil, false
		}
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: v})
	}
	return def, true
}

func graphQLType(name string, optional bool) *ast.Type {
	if optional {
		return ast.NamedType(name, nil)
	}
	return ast.NonNullNamedType(name, nil)
}

// graphQLName reports if s matches /[_A-Za-z][_0-9A-Za-z]*/ and is not a
// reserved enum value.
func graphQLName(s string) bool {
	if s == "" || s == "true" || s == "false" || s == "null" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r < unicode.MaxASCII && unicode.IsLetter(r):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return !strings.HasPrefix(s, "__")
}

// queryPlural returns the query field listing an entity, e.g. "categories".
func queryPlural(t *Type) string {
	return camel(inflect.Pluralize(t.Name))
}
