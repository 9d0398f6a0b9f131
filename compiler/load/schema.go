package load

import (
	"errors"
	"fmt"
	"strings"
)

// Schema represents one entity declaration as loaded from a model source.
type Schema struct {
	// Name of the entity, e.g. "Product".
	Name string `yaml:"name" json:"name,omitempty"`
	// Module is the source module (file stem) the entity was declared in.
	Module string `yaml:"-" json:"module,omitempty"`
	// IDField names the identity field. Empty means the generator default.
	IDField string `yaml:"id_field,omitempty" json:"id_field,omitempty"`
	// Fields in declaration order.
	Fields []*Field `yaml:"fields" json:"fields,omitempty"`
	// Annotations holds entity-level metadata keyed by annotation name.
	Annotations map[string]any `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	// Pos is the "module:line" position of the declaration, if known.
	Pos string `yaml:"-" json:"-"`
}

// Field represents one attribute declaration of an entity.
type Field struct {
	Name string `yaml:"name" json:"name,omitempty"`
	// Type is the textual declared type, e.g. "int", "str?", "Optional[str]".
	Type string `yaml:"type" json:"type,omitempty"`
	// Required defaults to true unless the declared type is optional.
	Required *bool `yaml:"required,omitempty" json:"required,omitempty"`
	// Default value of the field, if any.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`
	// Enum holds the literal members of a closed enumeration type.
	Enum []any `yaml:"enum,omitempty" json:"enum,omitempty"`
	// Annotations holds field metadata keyed by annotation name.
	Annotations map[string]any `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// IsRequired reports if the field must be present. An explicit required flag
// wins over the optional markers of the declared type.
func (f *Field) IsRequired() bool {
	if f.Required != nil {
		return *f.Required
	}
	return !optionalType(f.Type)
}

// BaseType returns the declared type without its optional markers.
func (f *Field) BaseType() string {
	t := strings.TrimSpace(f.Type)
	t = strings.TrimSuffix(t, "?")
	t = strings.TrimPrefix(t, "*")
	if strings.HasPrefix(t, "Optional[") && strings.HasSuffix(t, "]") {
		t = t[len("Optional[") : len(t)-1]
	}
	return t
}

func optionalType(t string) bool {
	t = strings.TrimSpace(t)
	return strings.HasSuffix(t, "?") ||
		strings.HasPrefix(t, "*") ||
		strings.HasPrefix(t, "Optional[") ||
		strings.Contains(t, "| None") ||
		strings.Contains(t, "|None")
}

// validate checks the minimal structural assumptions of a declaration.
func (s *Schema) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("missing entity name")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f == nil || strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("field #%d: missing name", i)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("field %q: declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// LoadError is returned for an entity declaration that could not be loaded.
// The declaration is skipped; the rest of the source is still loaded.
type LoadError struct {
	Module string
	Entity string
	Cause  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load")
	if e.Module != "" {
		b.WriteString(" module ")
		b.WriteString(e.Module)
	}
	if e.Entity != "" {
		b.WriteString(" entity ")
		b.WriteString(e.Entity)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error { return e.Cause }
