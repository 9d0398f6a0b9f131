package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/sitegen/compiler/load"
)

func TestFeatureByName(t *testing.T) {
	for _, f := range AllFeatures {
		got, ok := FeatureByName(f.Name)
		require.True(t, ok, f.Name)
		assert.Equal(t, f.Name, got.Name)
		assert.NotEmpty(t, got.Description)
		assert.NotEmpty(t, got.GraphTemplates)
		assert.NotNil(t, got.cleanup)
	}
	_, ok := FeatureByName("privacy")
	assert.False(t, ok)
}

func TestDefaultFeatures(t *testing.T) {
	fs := DefaultFeatures()
	require.Len(t, fs, 1)
	assert.Equal(t, FeatureSeed.Name, fs[0].Name)
}

func TestFeatureStage(t *testing.T) {
	assert.Equal(t, "experimental", Experimental.String())
	assert.Equal(t, "alpha", Alpha.String())
	assert.Equal(t, "beta", Beta.String())
	assert.Equal(t, "stable", Stable.String())
	assert.Equal(t, "unknown", FeatureStage(0).String())
}

func TestRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), nil, 0o644))

	require.NoError(t, remove(dir, "main.go"))
	assert.NoFileExists(t, filepath.Join(dir, "main.go"))
	assert.DirExists(t, dir, "non-empty dir is kept")

	require.NoError(t, remove(dir, "README"))
	assert.NoDirExists(t, dir)

	require.NoError(t, remove(dir, "README"), "missing file is not an error")
}

func TestSeedable(t *testing.T) {
	assert.False(t, seedable(nil))
	g := catalogGraph(t)
	assert.True(t, seedable(g.Identity()))

	schemas := catalogSchemas()
	user := schemas[4]
	user.Fields[1].Annotations = site(map[string]any{"permissions": "r"})
	g, err := NewGraph(testConfig(t), schemas...)
	require.NoError(t, err)
	assert.False(t, seedable(g.Identity()), "login not accepted on create")
}

func TestBuildMigrations(t *testing.T) {
	tests := []struct {
		driver   string
		identity string
		quote    string
	}{
		{driver: "sqlite", identity: "PRIMARY KEY", quote: "`"},
		{driver: "postgres", identity: "GENERATED BY DEFAULT AS IDENTITY", quote: `"`},
		{driver: "mysql", identity: "AUTO_INCREMENT", quote: "`"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			g := catalogGraph(t, WithStorageDriver(tt.driver))
			buf, err := buildMigrations(g)
			require.NoError(t, err)
			out := string(buf)

			assert.True(t, strings.HasPrefix(out, "-- "+DefaultHeader+"\n"))
			assert.Equal(t, len(g.Nodes), strings.Count(out, "CREATE TABLE"))
			for _, table := range []string{"categories", "products", "tags", "product_tags", "users"} {
				assert.Contains(t, out, "CREATE TABLE "+tt.quote+table+tt.quote, table)
			}
			assert.NotContains(t, out, "main", "tables are not schema-qualified")
			assert.Contains(t, out, tt.identity)
			assert.Contains(t, out, "REFERENCES "+tt.quote+"categories"+tt.quote)
			assert.Contains(t, out, "REFERENCES "+tt.quote+"tags"+tt.quote)
			assert.Contains(t, out, "ON DELETE CASCADE")
			assert.Contains(t, out, "hashed_password")
			assert.NotContains(t, out, tt.quote+"password"+tt.quote, "virtual credential has no column")

			again, err := buildMigrations(g)
			require.NoError(t, err)
			assert.Equal(t, buf, again)
		})
	}

	t.Run("optional reference", func(t *testing.T) {
		g, err := NewGraph(testConfig(t),
			&load.Schema{Name: "Team", Fields: []*load.Field{{Name: "id", Type: "int"}, {Name: "name", Type: "str"}}},
			&load.Schema{Name: "Member", Fields: []*load.Field{{Name: "id", Type: "int"}, {Name: "team_id", Type: "int?"}}},
		)
		require.NoError(t, err)
		buf, err := buildMigrations(g)
		require.NoError(t, err)
		assert.Contains(t, string(buf), "ON DELETE SET NULL")
		assert.NotContains(t, string(buf), "ON DELETE CASCADE")
	})

	t.Run("unresolved reference has no constraint", func(t *testing.T) {
		g, err := NewGraph(testConfig(t),
			&load.Schema{Name: "Member", Fields: []*load.Field{{Name: "id", Type: "int"}, {Name: "team_id", Type: "int"}}},
		)
		require.NoError(t, err)
		buf, err := buildMigrations(g)
		require.NoError(t, err)
		assert.Contains(t, string(buf), "team_id")
		assert.NotContains(t, string(buf), "REFERENCES")
	})
}

func loadGraphQL(t *testing.T, g *Graph) (*ast.Schema, string) {
	t.Helper()
	buf, err := buildGraphQL(g)
	require.NoError(t, err)
	s, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: string(buf)})
	require.NoError(t, err)
	return s, string(buf)
}

func TestBuildGraphQL(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		s, out := loadGraphQL(t, catalogGraph(t))
		assert.True(t, strings.HasPrefix(out, "# "+DefaultHeader+"\n\n"))

		product := s.Types["Product"]
		require.NotNil(t, product)
		assert.Equal(t, "ID!", product.Fields.ForName("id").Type.String())
		assert.Equal(t, "Int!", product.Fields.ForName("category_id").Type.String())
		assert.Equal(t, "Category", product.Fields.ForName("category").Type.String())
		assert.Equal(t, "String", product.Fields.ForName("cover_image").Type.String())
		assert.Equal(t, "ProductStatus!", product.Fields.ForName("status").Type.String())
		assert.Equal(t, "[ID!]!", product.Fields.ForName("tag_ids").Type.String())

		status := s.Types["ProductStatus"]
		require.NotNil(t, status)
		assert.Equal(t, ast.Enum, status.Kind)
		assert.Len(t, status.EnumValues, 2)

		assert.Nil(t, s.Types["ProductTag"])
		user := s.Types["User"]
		require.NotNil(t, user)
		assert.Nil(t, user.Fields.ForName("hashed_password"))
		assert.Nil(t, user.Fields.ForName("password"))
		assert.Equal(t, "ID!", user.Fields.ForName("id").Type.String())

		require.NotNil(t, s.Query)
		get := s.Query.Fields.ForName("category")
		require.NotNil(t, get)
		assert.Equal(t, "ID!", get.Arguments.ForName("id").Type.String())
		list := s.Query.Fields.ForName("categories")
		require.NotNil(t, list)
		assert.Equal(t, "CategoryPage!", list.Type.String())
		assert.NotNil(t, list.Arguments.ForName("q"))
		assert.Equal(t, "[Category!]!", s.Types["CategoryPage"].Fields.ForName("items").Type.String())
	})

	t.Run("enum values that are not names", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), &load.Schema{
			Name: "Shirt",
			Fields: []*load.Field{
				{Name: "id", Type: "int"},
				{Name: "size", Type: "enum", Enum: []any{"xl", "2xl"}},
			},
		})
		require.NoError(t, err)
		s, _ := loadGraphQL(t, g)
		assert.Equal(t, "String!", s.Types["Shirt"].Fields.ForName("size").Type.String())
		assert.Nil(t, s.Types["ShirtSize"])
	})

	t.Run("no entities", func(t *testing.T) {
		g, err := NewGraph(testConfig(t))
		require.NoError(t, err)
		s, _ := loadGraphQL(t, g)
		assert.NotNil(t, s.Query.Fields.ForName("version"))
	})
}

func TestGraphQLName(t *testing.T) {
	for _, s := range []string{"draft", "_hidden", "A1", "in_stock"} {
		assert.True(t, graphQLName(s), s)
	}
	for _, s := range []string{"", "2xl", "in-stock", "true", "null", "__type", "état"} {
		assert.False(t, graphQLName(s), s)
	}
}

func TestQueryPlural(t *testing.T) {
	g := catalogGraph(t)
	for name, want := range map[string]string{
		"Category": "categories",
		"Product":  "products",
		"User":     "users",
	} {
		typ, ok := g.Type(name)
		require.True(t, ok)
		assert.Equal(t, want, queryPlural(typ))
	}
}
