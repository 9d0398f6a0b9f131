package gen

import (
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/sitegen/schema/field"
)

// ForeignKeySuffix marks a field as a reference to another entity.
const ForeignKeySuffix = "_id"

// ForeignKeyRef is the inferred reference of a "<prefix>_id" field.
type ForeignKeyRef struct {
	// Field is the referencing field name, e.g. "category_id".
	Field string
	// Target is the guessed entity name, e.g. "Category".
	Target string
	// Service is the frontend service module of the target, e.g. "category".
	Service string
	// Endpoint is the route segment of the target, e.g. "categorys".
	Endpoint string
	// LabelField is the target field shown in place of the raw id.
	LabelField string
	// Resolved is set once Target names an entity of the registry.
	Resolved bool
	// Type is the target descriptor, set with Resolved.
	Type *Type
	// TargetFields are the presentable fields of the target, set with
	// Resolved.
	TargetFields []*Field
}

// InferForeignKey infers the reference of a field named "<prefix>_id". The
// identity field itself and a bare "_id" are never references.
func InferForeignKey(name, idField string) (*ForeignKeyRef, bool) {
	prefix, ok := strings.CutSuffix(name, ForeignKeySuffix)
	if !ok || prefix == "" || name == idField {
		return nil, false
	}
	return &ForeignKeyRef{
		Field:      name,
		Target:     inflect.Camelize(prefix),
		Service:    prefix,
		Endpoint:   prefix + "s",
		LabelField: "name",
	}, true
}

// Name reports the relation name of the reference, e.g. "category".
func (r *ForeignKeyRef) Name() string { return r.Service }

var (
	imageExact  = []string{"avatar", "logo", "image", "photo", "thumbnail", "cover"}
	imageSuffix = []string{"_image", "_photo", "_avatar", "_logo", "_thumbnail"}
	fileExact   = []string{"file", "attachment", "document"}
	fileSuffix  = []string{"_file", "_attachment", "_document"}
)

// inferUIHint guesses the UI hint of a plain string field from its name.
func inferUIHint(name string) field.UIHint {
	n := strings.ToLower(name)
	switch {
	case matchName(n, imageExact, imageSuffix):
		return field.HintImage
	case matchName(n, fileExact, fileSuffix):
		return field.HintFile
	default:
		return field.HintPlain
	}
}

func matchName(n string, exact, suffix []string) bool {
	for _, e := range exact {
		if n == e {
			return true
		}
	}
	for _, s := range suffix {
		if strings.HasSuffix(n, s) {
			return true
		}
	}
	return false
}

// searchPreference lists the field names preferred as search field.
var searchPreference = []string{"name", "title", "label", "slug", "email", "username", "full_name"}

// pickSearchField elects the single search field of an entity:
//
//  1. the first field explicitly marked as search field,
//  2. the first field named in searchPreference order,
//  3. the first plain string field,
//  4. the identity field,
//  5. the first field.
//
// The elected field is flagged and every other flag is cleared.
func pickSearchField(fields []*Field, id *Field) *Field {
	if len(fields) == 0 {
		return nil
	}
	pick := func() *Field {
		for _, f := range fields {
			if f.SearchField {
				return f
			}
		}
		for _, name := range searchPreference {
			for _, f := range fields {
				if f.Name == name && f.Type == field.TypeString && f.Perm.Has(field.Read) {
					return f
				}
			}
		}
		for _, f := range fields {
			if f.Type == field.TypeString && !f.Enum && !f.Credential && !f.Virtual && f.FK == nil && f.Perm.Has(field.Read) {
				return f
			}
		}
		if id != nil {
			return id
		}
		return fields[0]
	}()
	for _, f := range fields {
		f.SearchField = f == pick
	}
	return pick
}
