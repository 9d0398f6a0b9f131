package gen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"

	"github.com/syssam/sitegen/compiler/load"
	"github.com/syssam/sitegen/schema/field"
)

// Type is the descriptor of one declared entity.
type Type struct {
	*Config
	// Name of the entity, e.g. "Product".
	Name string
	// Module is the source module the entity was declared in.
	Module string
	// ID is the identity field, nil if the entity declares none.
	ID *Field
	// Fields in declaration order, the identity field included. The
	// synthesized credential field, if any, comes last.
	Fields []*Field
	// ForeignKeys are the fields carrying a foreign-key reference.
	ForeignKeys []*Field
	// Relations are the virtual many-to-many accessors of the entity.
	Relations []*Relation
	// LinkTable entities only realize relations and are never emitted.
	LinkTable bool
	// SearchField names the display-label field of the entity.
	SearchField string
	// Translations are literal per-locale display names.
	Translations map[string]string

	fields  map[string]*Field
	idField string
}

// Relation is a virtual many-to-many accessor synthesized on the source
// entity of a link table.
type Relation struct {
	// Name of the accessor, e.g. "tag_ids".
	Name string
	// Target is the related entity.
	Target *Type
	// LabelField is the search field of the target.
	LabelField string
	// Link is the link table realizing the relation.
	Link *Type
	// LinkModule is the source module of the link table.
	LinkModule string
	// SourceKey and TargetKey are the link table fields pointing at the
	// source and the target entity.
	SourceKey string
	TargetKey string
}

// StructField returns the Go struct field of the accessor, e.g. "TagIDs".
func (r *Relation) StructField() string { return pascal(r.Name) }

// LabelKey returns the localization key of the accessor.
func (r *Relation) LabelKey(t *Type) string {
	return "models." + t.LowerName() + ".fields." + r.Name
}

// reservedNames holds lower names that clash with fixed packages of the
// generated backend.
var reservedNames = map[string]struct{}{
	"api":      {},
	"crud":     {},
	"deps":     {},
	"endpoint": {},
	"http":     {},
	"httpx":    {},
	"login":    {},
	"main":     {},
	"schema":   {},
	"security": {},
	"service":  {},
	"upload":   {},
}

// ValidSchemaName reports if the entity name can be used in generated code:
// an upper-case Go identifier whose lower name is not a keyword or a fixed
// package of the generated backend.
func ValidSchemaName(name string) error {
	if name == "" || !token.IsIdentifier(name) || !unicode.IsUpper(rune(name[0])) {
		return fmt.Errorf("entity name %q must be an exported Go identifier", name)
	}
	lower := strings.ToLower(name)
	if token.Lookup(lower).IsKeyword() {
		return fmt.Errorf("entity name %q is a Go keyword once lower-cased", name)
	}
	if _, ok := reservedNames[lower]; ok {
		return fmt.Errorf("entity name %q conflicts with a generated package", name)
	}
	return nil
}

// NewType builds the descriptor of an entity declaration: it classifies the
// entity, extracts every field, synthesizes the identity credential and
// elects the search field.
func NewType(c *Config, s *load.Schema) (*Type, error) {
	if err := ValidSchemaName(s.Name); err != nil {
		return nil, &SchemaError{Type: s.Name, Module: s.Module, Message: err.Error()}
	}
	idField := s.IDField
	if idField == "" {
		idField = c.IDField
	}
	ant := field.AnnotateEntity(s.Annotations)
	t := &Type{
		Config:       c,
		Name:         s.Name,
		Module:       s.Module,
		LinkTable:    ant.LinkTable,
		Translations: ant.Translations,
		Fields:       make([]*Field, 0, len(s.Fields)+1),
		fields:       make(map[string]*Field, len(s.Fields)+1),
		idField:      idField,
	}
	for _, def := range s.Fields {
		if !token.IsIdentifier(def.Name) {
			return nil, &SchemaError{Type: s.Name, Module: s.Module, Field: def.Name, Message: "field name must be an identifier"}
		}
		if _, ok := t.fields[def.Name]; ok {
			return nil, &SchemaError{Type: s.Name, Module: s.Module, Field: def.Name, Message: "field declared twice"}
		}
		t.addField(NewField(idField, def))
	}
	t.ID = t.fields[idField]
	if t.IsIdentity() && !t.hasCredential() {
		t.addField(passwordField())
	}
	for _, f := range t.Fields {
		if f.FK != nil {
			t.ForeignKeys = append(t.ForeignKeys, f)
		}
	}
	if sf := pickSearchField(t.Fields, t.ID); sf != nil {
		t.SearchField = sf.Name
	}
	return t, nil
}

func (t *Type) addField(f *Field) {
	f.typ = t
	if f.LabelKey == "" {
		f.LabelKey = "models." + t.LowerName() + ".fields." + f.Name
	}
	t.Fields = append(t.Fields, f)
	t.fields[f.Name] = f
}

func (t *Type) hasCredential() bool {
	for _, f := range t.Fields {
		if f.Credential {
			return true
		}
	}
	return false
}

// Field returns the field with the given name.
func (t *Type) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// IsIdentity reports if the entity is the authentication identity.
func (t *Type) IsIdentity() bool {
	return t.Config != nil && t.Name == t.IdentityEntity
}

// LowerName returns the case-folded name used in paths and URLs.
func (t *Type) LowerName() string { return strings.ToLower(t.Name) }

// PkgName returns the Go package name of the entity endpoint.
func (t *Type) PkgName() string { return t.LowerName() }

// Plural returns the route segment of the entity, e.g. "products".
func (t *Type) Plural() string { return t.LowerName() + "s" }

// Endpoint returns the route prefix of the entity, e.g. "/products".
func (t *Type) Endpoint() string { return "/" + t.Plural() }

// Table returns the SQL table of the entity, e.g. "product_tags".
func (t *Type) Table() string { return inflect.Pluralize(snake(t.Name)) }

// StoreName returns the client store hook, e.g. "useProductStore".
func (t *Type) StoreName() string { return "use" + t.Name + "Store" }

// ServiceName returns the client service object, e.g. "productService".
func (t *Type) ServiceName() string { return camel(t.Name) + "Service" }

// Receiver returns the receiver name of generated methods.
func (t *Type) Receiver() string { return receiver(t.Name) }

// LabelKey returns the localization key of the entity name.
func (t *Type) LabelKey() string { return "models." + t.LowerName() + ".name" }

// Display returns the display name of the entity in the given locale.
func (t *Type) Display(locale string) string {
	if s, ok := translation(t.Translations, locale); ok {
		return s
	}
	return autoLabel(snake(t.Name))
}

// Search returns the search field descriptor.
func (t *Type) Search() *Field {
	f, _ := t.Field(t.SearchField)
	return f
}

// IDGoType returns the Go type of identities in the generated backend.
// Rows are keyed by int64 whatever the declared identity type.
func (t *Type) IDGoType() string { return "int64" }

// IDName returns the identity column, falling back to the configured name.
func (t *Type) IDName() string {
	return t.idField
}

// HasID reports if the entity declares its identity field.
func (t *Type) HasID() bool { return t.ID != nil }

// ReadFields returns the fields of read output. They are all stored.
func (t *Type) ReadFields() []*Field {
	return t.filter(func(f *Field) bool { return f.Readable() && f.Persisted() })
}

// CreateFields returns the fields accepted on create requests.
func (t *Type) CreateFields() []*Field {
	return t.filter((*Field).Creatable)
}

// UpdateFields returns the fields accepted on update requests.
func (t *Type) UpdateFields() []*Field {
	return t.filter((*Field).Updatable)
}

// Columns returns the stored fields in declaration order.
func (t *Type) Columns() []*Field {
	return t.filter((*Field).Persisted)
}

// InsertColumns returns the stored fields written on create.
func (t *Type) InsertColumns() []*Field {
	return t.filter(func(f *Field) bool { return f.Persisted() && f.Creatable() })
}

// UpdateColumns returns the stored fields written on update.
func (t *Type) UpdateColumns() []*Field {
	return t.filter(func(f *Field) bool { return f.Persisted() && f.Updatable() })
}

// ListFields returns the columns of the list page: readable fields except
// file links.
func (t *Type) ListFields() []*Field {
	return t.filter(func(f *Field) bool { return f.Readable() && !f.IsFile() })
}

// FormFields returns the fields editable on the detail page.
func (t *Type) FormFields() []*Field {
	return t.filter(func(f *Field) bool { return f.Creatable() || f.Updatable() })
}

// PresentableFields returns the fields safe to expose when the entity is
// referenced by another one: readable, not credentials and not references.
func (t *Type) PresentableFields() []*Field {
	return t.filter(func(f *Field) bool { return f.Readable() && !f.Credential && f.FK == nil })
}

// HasTime reports if any read, create or update field holds a timestamp.
func (t *Type) HasTime() bool {
	for _, f := range t.Fields {
		if f.IsTime() && (f.Readable() || f.Creatable() || f.Updatable()) {
			return true
		}
	}
	return false
}

// HashedPassword returns the stored field receiving the password hash of
// the identity entity, if declared.
func (t *Type) HashedPassword() *Field {
	for _, name := range []string{"hashed_password", "password_hash"} {
		if f, ok := t.Field(name); ok && f.Persisted() {
			return f
		}
	}
	return nil
}

// LabelRefs returns the readable references whose label is resolved from
// the target entity.
func (t *Type) LabelRefs() []*Field {
	return t.filter(func(f *Field) bool {
		return f.FK != nil && f.FK.Resolved && f.Readable() && f.Persisted() && f.FK.LabelField != ""
	})
}

// SelectList returns the select list of read queries over the table
// aliased "t": the read fields followed by the label of every resolved
// reference.
func (t *Type) SelectList() string {
	var cols []string
	for _, f := range t.ReadFields() {
		cols = append(cols, "t."+f.Name)
	}
	if len(cols) == 0 {
		cols = append(cols, "t."+t.IDName())
	}
	for _, f := range t.LabelRefs() {
		target := f.FK.Type
		cols = append(cols, fmt.Sprintf("(SELECT r.%s FROM %s r WHERE r.%s = t.%s) AS %s_label",
			f.FK.LabelField, target.Table(), target.IDName(), f.Name, f.FK.Name()))
	}
	return strings.Join(cols, ", ")
}

// Searchable reports if list requests can filter on the search field.
func (t *Type) Searchable() bool {
	f := t.Search()
	return f != nil && f.Type == field.TypeString && f.Persisted()
}

// Password returns the credential field of the entity.
func (t *Type) Password() *Field {
	for _, f := range t.Fields {
		if f.Credential && f != t.HashedPassword() {
			return f
		}
	}
	return nil
}

// PasswordColumn returns the stored field holding the password hash: the
// declared hash column, or a stored credential field.
func (t *Type) PasswordColumn() *Field {
	if f := t.HashedPassword(); f != nil {
		return f
	}
	if f := t.Password(); f != nil && f.Persisted() {
		return f
	}
	return nil
}

// HashesVirtualPassword reports if the synthesized password is hashed into
// a declared hash column.
func (t *Type) HashesVirtualPassword() bool {
	p := t.Password()
	return p != nil && p.Virtual && t.HashedPassword() != nil
}

// CanLogin reports if the generated backend can authenticate the entity.
func (t *Type) CanLogin() bool {
	l := t.Login()
	return t.HasID() && t.PasswordColumn() != nil && l != nil && l.Persisted() && l.Type == field.TypeString
}

// Login returns the field identifying the identity on login: "email",
// "username" or the search field.
func (t *Type) Login() *Field {
	for _, name := range []string{"email", "username"} {
		if f, ok := t.Field(name); ok {
			return f
		}
	}
	return t.Search()
}

// ReferencedTypes returns the distinct entities the detail page searches:
// targets of resolved editable references and of relations.
func (t *Type) ReferencedTypes() []*Type {
	var (
		ts   []*Type
		seen = make(map[*Type]bool)
	)
	add := func(r *Type) {
		if r != nil && !seen[r] {
			seen[r] = true
			ts = append(ts, r)
		}
	}
	for _, f := range t.FormFields() {
		if f.FK != nil && f.FK.Resolved {
			add(f.FK.Type)
		}
	}
	for _, r := range t.Relations {
		add(r.Target)
	}
	return ts
}

// CreateKeys returns the quoted request keys of create requests, relations
// included, as a JavaScript list body.
func (t *Type) CreateKeys() string { return t.requestKeys(t.CreateFields()) }

// UpdateKeys returns the quoted request keys of update requests.
func (t *Type) UpdateKeys() string { return t.requestKeys(t.UpdateFields()) }

func (t *Type) requestKeys(fs []*Field) string {
	keys := make([]string, 0, len(fs)+len(t.Relations))
	for _, f := range fs {
		keys = append(keys, jsString(f.Name))
	}
	for _, r := range t.Relations {
		keys = append(keys, jsString(r.Name))
	}
	return strings.Join(keys, ", ")
}

// Relation returns the virtual relation with the given name.
func (t *Type) Relation(name string) (*Relation, bool) {
	for _, r := range t.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

func (t *Type) filter(keep func(*Field) bool) []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if keep(f) {
			fs = append(fs, f)
		}
	}
	return fs
}
