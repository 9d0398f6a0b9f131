package load

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_Load(t *testing.T) {
	r, err := Dir("testdata/valid").Load()
	require.NoError(t, err)
	require.Empty(t, r.Errors)
	assert.Equal(t, []string{"Category", "Product", "Tag", "ProductTag", "User"}, r.Names())

	product := r.Schemas[1]
	assert.Equal(t, "catalog", product.Module)
	assert.Equal(t, "catalog:8", product.Pos)
	require.Len(t, product.Fields, 6)
	assert.Equal(t, "category_id", product.Fields[1].Name)
	assert.Equal(t, []any{"draft", "published"}, product.Fields[5].Enum)
	assert.Equal(t, "draft", product.Fields[5].Default)

	user := r.Schemas[4]
	assert.Equal(t, "user", user.Module, "single entity documents are supported")
	assert.False(t, user.Fields[0].IsRequired())
	assert.Equal(t, "int", user.Fields[0].BaseType())
	site, ok := user.Fields[1].Annotations["site"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rc", site["permissions"])
}

func TestDir_LoadFailures(t *testing.T) {
	r, err := Dir("testdata/failure").Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Good"}, r.Names())
	require.Len(t, r.Errors, 4)

	// invalid.yaml sorts first and fails as a whole module.
	assert.Equal(t, "invalid", r.Errors[0].Module)
	assert.Empty(t, r.Errors[0].Entity)

	assert.Equal(t, "mixed", r.Errors[1].Module)
	assert.Equal(t, "Broken", r.Errors[1].Entity)
	assert.Contains(t, r.Errors[2].Error(), "missing entity name")
	assert.Equal(t, "Twice", r.Errors[3].Entity)
	assert.Contains(t, r.Errors[3].Error(), "declared twice")
}

func TestDir_Missing(t *testing.T) {
	_, err := Dir(filepath.Join(t.TempDir(), "nope")).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDir_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yaml"), nil, 0o644))
	r, err := Dir(dir).Load()
	require.NoError(t, err)
	assert.Empty(t, r.Schemas)
	assert.Empty(t, r.Errors)
}

func TestFile(t *testing.T) {
	r, err := File("testdata/valid/tags.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tag", "ProductTag"}, r.Names())
	assert.Equal(t, "tags", r.Schemas[1].Module)
}

func TestSchemas_Load(t *testing.T) {
	r, err := Schemas{
		{Name: "A", Module: "a", Fields: []*Field{{Name: "id", Type: "int"}}},
		nil,
		{Name: ""},
	}.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, r.Names())
	require.Len(t, r.Errors, 1)
}

func TestDeclarers_Load(t *testing.T) {
	r, err := Declarers{
		func() *Schema { return &Schema{Name: "A", Module: "a"} },
		func() *Schema { panic("boom") },
		func() *Schema { return nil },
	}.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, r.Names())
	require.Len(t, r.Errors, 2)
	assert.Contains(t, r.Errors[0].Error(), "boom")
	assert.Contains(t, r.Errors[1].Error(), "nil")
}

func TestField_IsRequired(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		f    Field
		want bool
	}{
		{Field{Type: "str"}, true},
		{Field{Type: "str?"}, false},
		{Field{Type: "*int"}, false},
		{Field{Type: "Optional[str]"}, false},
		{Field{Type: "str | None"}, false},
		{Field{Type: "str?", Required: &yes}, true},
		{Field{Type: "str", Required: &no}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.f.IsRequired(), tt.f.Type)
	}
}

func TestField_BaseType(t *testing.T) {
	assert.Equal(t, "str", (&Field{Type: "str?"}).BaseType())
	assert.Equal(t, "int", (&Field{Type: "*int"}).BaseType())
	assert.Equal(t, "datetime", (&Field{Type: "Optional[datetime]"}).BaseType())
	assert.Equal(t, "str", (&Field{Type: " str "}).BaseType())
}

func TestLoadError(t *testing.T) {
	cause := errors.New("bad")
	err := &LoadError{Module: "m", Entity: "E", Cause: cause}
	assert.Equal(t, "load module m entity E: bad", err.Error())
	assert.ErrorIs(t, err, cause)
}
