package gen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syssam/sitegen/compiler/load"
	"github.com/syssam/sitegen/schema/field"
)

// PasswordField is the name of the credential field synthesized on the
// identity entity.
const PasswordField = "password"

// Field is the normalized descriptor of one declared attribute.
type Field struct {
	typ *Type
	// Name is the field name, unique within its entity.
	Name string
	// Type is the semantic type. Enumerations are always TypeString.
	Type field.Type
	// Optional reports if the value may be absent or null.
	Optional bool
	// Hint tells the client how to render a string value.
	Hint field.UIHint
	// Perm holds the read/create/update permissions.
	Perm field.Perm
	// CreateOptional and UpdateOptional allow omitting a writable field on
	// create and update requests.
	CreateOptional bool
	UpdateOptional bool
	// SearchField is set on the single display-label field of the entity.
	SearchField bool
	// Enum and EnumValues describe a closed set of values.
	Enum       bool
	EnumValues []string
	// FK is the inferred reference of a "<target>_id" field.
	FK *ForeignKeyRef
	// Credential marks a password-like secret. It is never readable.
	Credential bool
	// Virtual fields are not stored.
	Virtual bool
	// Default value of the field, if declared.
	Default any
	// LabelKey is the localization key of the field label.
	LabelKey string
	// Translations are literal per-locale labels.
	Translations map[string]string
}

// NewField extracts the descriptor of a declared field. Missing metadata at
// any level keeps the defaults, and an unknown declared type is a string.
// The field named idField is always read-only.
func NewField(idField string, def *load.Field) *Field {
	ant := field.Annotate(def.Annotations)
	f := &Field{
		Name:           def.Name,
		Optional:       !def.IsRequired(),
		Perm:           field.AllPerms,
		CreateOptional: ant.CreateOptional,
		UpdateOptional: ant.UpdateOptional,
		SearchField:    ant.SearchField,
		Credential:     ant.Credential || def.Name == PasswordField,
		Default:        def.Default,
		LabelKey:       ant.LabelKey,
		Translations:   ant.Translations,
	}
	if ant.Permissions != nil {
		f.Perm = field.ParsePerm(*ant.Permissions)
	}
	if values, ok := enumValues(def); ok {
		f.Type, f.Enum, f.EnumValues = field.TypeString, true, values
	} else {
		f.Type = field.Classify(def.BaseType())
	}
	if f.Type == field.TypeString && !f.Enum {
		if h, ok := field.ParseUIHint(ant.Component); ok {
			f.Hint = h
		} else {
			f.Hint = inferUIHint(f.Name)
		}
	}
	if ref, ok := InferForeignKey(f.Name, idField); ok {
		f.FK = ref
	}
	if f.Name == idField {
		f.Perm = field.Read
	}
	if f.Credential {
		f.Perm &^= field.Read
	}
	// Optional and defaulted values may always be omitted.
	if f.Optional || f.Default != nil {
		f.CreateOptional = true
	}
	if f.Optional {
		f.UpdateOptional = true
	}
	return f
}

// passwordField returns the synthesized credential field of the identity
// entity: writable on create and update, optional on update, never read.
func passwordField() *Field {
	return &Field{
		Name:           PasswordField,
		Type:           field.TypeString,
		Perm:           field.Create | field.Update,
		UpdateOptional: true,
		Credential:     true,
		Virtual:        true,
	}
}

// enumValues returns the literal members of a closed enumeration. Members
// are rendered as strings whatever their declared type.
func enumValues(def *load.Field) ([]string, bool) {
	if len(def.Enum) == 0 {
		return nil, false
	}
	values := make([]string, 0, len(def.Enum))
	for _, v := range def.Enum {
		values = append(values, fmt.Sprint(v))
	}
	return values, true
}

// IsID reports if the field is the identity field of its entity.
func (f *Field) IsID() bool { return f.typ != nil && f.typ.ID == f }

// Entity returns the entity owning the field.
func (f *Field) Entity() *Type { return f.typ }

// Readable reports if the field is part of read output.
func (f *Field) Readable() bool { return f.Perm.Has(field.Read) }

// Creatable reports if the field is accepted on create requests.
func (f *Field) Creatable() bool { return f.Perm.Has(field.Create) && !f.IsID() }

// Updatable reports if the field is accepted on update requests.
func (f *Field) Updatable() bool { return f.Perm.Has(field.Update) && !f.IsID() }

// Persisted reports if the field is stored in the entity table.
func (f *Field) Persisted() bool { return !f.Virtual }

// IsImage reports if the client renders the field as an image.
func (f *Field) IsImage() bool { return f.Hint == field.HintImage }

// IsFile reports if the client renders the field as a file link.
func (f *Field) IsFile() bool { return f.Hint == field.HintFile }

// IsTime reports if the field holds a timestamp.
func (f *Field) IsTime() bool { return f.Type == field.TypeTime }

// IsBool reports if the field holds a boolean.
func (f *Field) IsBool() bool { return f.Type == field.TypeBool }

// IsNumeric reports if the field holds a number.
func (f *Field) IsNumeric() bool { return f.Type.Numeric() }

// HasFK reports if the field references another entity.
func (f *Field) HasFK() bool { return f.FK != nil }

// StructField returns the exported Go struct field name, e.g. "CategoryID".
func (f *Field) StructField() string { return pascal(f.Name) }

// GoType returns the Go type of the field in read output.
func (f *Field) GoType() string {
	return f.Type.GoType(f.Optional && !f.IsID())
}

// GoCreateType returns the Go type of the field in create requests.
func (f *Field) GoCreateType() string {
	return f.Type.GoType(f.Optional || f.CreateOptional)
}

// GoUpdateType returns the Go type of the field in update requests.
func (f *Field) GoUpdateType() string {
	return f.Type.GoType(f.Optional || f.UpdateOptional)
}

// TSType returns the TypeScript type of the field. Enumerations render as a
// union of string literals.
func (f *Field) TSType() string {
	t := f.Type.TSType()
	if f.Enum {
		quoted := make([]string, len(f.EnumValues))
		for i, v := range f.EnumValues {
			quoted[i] = jsString(v)
		}
		t = strings.Join(quoted, " | ")
	}
	if f.Optional && !f.IsID() {
		t += " | null"
	}
	return t
}

// TSDefault returns the initial form value of the field as a TypeScript
// literal.
func (f *Field) TSDefault() string {
	if f.Default != nil {
		if buf, err := json.Marshal(f.Default); err == nil {
			return string(buf)
		}
	}
	switch {
	case f.Optional || f.FK != nil:
		return "null"
	case f.Enum:
		return jsString(f.EnumValues[0])
	case f.IsBool():
		return "false"
	case f.IsNumeric():
		return "0"
	default:
		return "''"
	}
}

// Input returns the form control used by the detail page.
func (f *Field) Input() string {
	switch {
	case f.Credential:
		return "password"
	case f.FK != nil:
		return "reference"
	case f.Enum:
		return "select"
	case f.IsImage():
		return "image"
	case f.IsFile():
		return "file"
	case f.IsBool():
		return "checkbox"
	case f.IsNumeric():
		return "number"
	case f.IsTime():
		return "datetime"
	default:
		return "text"
	}
}

// Label returns the label of the field in the given locale: an explicit
// translation, or the auto-derived label.
func (f *Field) Label(locale string) string {
	if s, ok := translation(f.Translations, locale); ok {
		return s
	}
	return autoLabel(f.Name)
}

// GraphQLType returns the GraphQL scalar of the field.
func (f *Field) GraphQLType() string { return f.Type.GraphQL() }
