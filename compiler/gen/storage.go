package gen

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/sitegen/schema/field"
)

// Storage driver type for codegen. It describes the SQL dialect spoken by
// the generated backend.
type Storage struct {
	Name    string              // storage name.
	Driver  string              // database/sql driver name used by the generated backend.
	Import  string              // driver package imported by the generated backend.
	Version string              // driver module version pinned in the scaffolded go.mod.
	Schemes []string            // database URL schemes served by the driver.
	Image   string              // container image of the compose feature, empty for embedded databases.
	Port    int                 // default port of the database server.
	Planner migrate.PlanApplier // DDL planner of the migrations feature.

	numbered bool                         // numbered bind parameters ($1) instead of '?'.
	types    func(field.Type) schema.Type // column type per semantic type.
	idAttrs  []schema.Attr                // attributes of an auto-generated primary key.
}

// drivers holds the supported storage drivers. The first one is the default.
var drivers = []*Storage{
	{
		Name:    "sqlite",
		Driver:  "sqlite",
		Import:  "modernc.org/sqlite",
		Version: "v1.37.1",
		Schemes: []string{"sqlite", "sqlite3", "file"},
		Planner: sqlite.DefaultPlan,
		types: func(t field.Type) schema.Type {
			switch t {
			case field.TypeInt:
				return &schema.IntegerType{T: "integer"}
			case field.TypeBool:
				return &schema.BoolType{T: "boolean"}
			case field.TypeFloat:
				return &schema.FloatType{T: "real"}
			case field.TypeTime:
				return &schema.TimeType{T: "datetime"}
			default:
				return &schema.StringType{T: "text"}
			}
		},
	},
	{
		Name:     "postgres",
		Driver:   "postgres",
		Import:   "github.com/lib/pq",
		Version:  "v1.12.3",
		Schemes:  []string{"postgres", "postgresql"},
		Image:    "postgres:16-alpine",
		Port:     5432,
		Planner:  postgres.DefaultPlan,
		numbered: true,
		idAttrs:  []schema.Attr{&postgres.Identity{Generation: "BY DEFAULT"}},
		types: func(t field.Type) schema.Type {
			switch t {
			case field.TypeInt:
				return &schema.IntegerType{T: "bigint"}
			case field.TypeBool:
				return &schema.BoolType{T: "boolean"}
			case field.TypeFloat:
				return &schema.FloatType{T: "double precision"}
			case field.TypeTime:
				return &schema.TimeType{T: "timestamp with time zone"}
			default:
				return &schema.StringType{T: "text"}
			}
		},
	},
	{
		Name:    "mysql",
		Driver:  "mysql",
		Import:  "github.com/go-sql-driver/mysql",
		Version: "v1.9.3",
		Schemes: []string{"mysql", "mariadb"},
		Image:   "mysql:8.4",
		Port:    3306,
		Planner: mysql.DefaultPlan,
		types: func(t field.Type) schema.Type {
			switch t {
			case field.TypeInt:
				return &schema.IntegerType{T: "bigint"}
			case field.TypeBool:
				return &schema.BoolType{T: "bool"}
			case field.TypeFloat:
				return &schema.FloatType{T: "double"}
			case field.TypeTime:
				return &schema.TimeType{T: "timestamp"}
			default:
				return &schema.StringType{T: "varchar", Size: 255}
			}
		},
		idAttrs: []schema.Attr{&mysql.AutoIncrement{}},
	},
}

// NewStorage returns the storage driver with the given name.
func NewStorage(name string) (*Storage, error) {
	for _, d := range drivers {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("sitegen/gen: invalid storage driver %q", name)
}

// StorageFromURL returns the storage driver serving the scheme of a
// database URL. Scheme suffixes naming a client library, as in
// "postgresql+psycopg2", are ignored.
func StorageFromURL(rawURL string) (*Storage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	scheme, _, _ := strings.Cut(strings.ToLower(u.Scheme), "+")
	if scheme == "" {
		return nil, fmt.Errorf("database url %q has no scheme", rawURL)
	}
	for _, d := range drivers {
		for _, s := range d.Schemes {
			if s == scheme {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("unsupported database scheme %q", scheme)
}

// String implements the fmt.Stringer interface for template usage.
func (s *Storage) String() string { return s.Name }

// Embedded reports if the database runs inside the backend process.
func (s *Storage) Embedded() bool { return s.Image == "" }

// Placeholder returns the i-th (1-based) bind parameter of the dialect.
func (s *Storage) Placeholder(i int) string {
	if s.numbered {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// Placeholders returns the bind parameters from..from+n-1 joined by commas.
func (s *Storage) Placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = s.Placeholder(from + i)
	}
	return strings.Join(ps, ", ")
}

// column returns the table column of a persisted field. Identity columns
// are auto-generated integers whatever the declared type.
func (s *Storage) column(f *Field) *schema.Column {
	if f.IsID() {
		return s.idColumn(f.Name)
	}
	t := s.types(f.Type)
	if f.FK != nil {
		t = s.types(field.TypeInt)
	}
	return &schema.Column{
		Name: f.Name,
		Type: &schema.ColumnType{Type: t, Null: f.Optional},
	}
}

// idColumn returns the auto-generated primary key column.
func (s *Storage) idColumn(name string) *schema.Column {
	return &schema.Column{
		Name:  name,
		Type:  &schema.ColumnType{Type: s.types(field.TypeInt)},
		Attrs: append([]schema.Attr(nil), s.idAttrs...),
	}
}
