package field

import "encoding/json"

// AnnotationName is the key under which site metadata is stored in the
// annotations block of a field or entity declaration.
const AnnotationName = "site"

// Annotation holds the site metadata of a field declaration. Every
// member is optional; a missing member keeps the generator default.
type Annotation struct {
	// Permissions in word ("read,update") or letter ("ru") form.
	Permissions *string `json:"permissions,omitempty"`
	// Component overrides the inferred UI hint ("image", "file", "plain").
	Component string `json:"component,omitempty"`
	// SearchField marks the field as the entity display label.
	SearchField bool `json:"is_search_field,omitempty"`
	// CreateOptional allows omitting the field on create requests.
	CreateOptional bool `json:"create_optional,omitempty"`
	// UpdateOptional allows omitting the field on update requests.
	UpdateOptional bool `json:"update_optional,omitempty"`
	// Credential marks the field as a password-like secret.
	Credential bool `json:"credential,omitempty"`
	// LabelKey overrides the localization key of the field.
	LabelKey string `json:"label_key,omitempty"`
	// Translations are literal per-locale labels.
	Translations map[string]string `json:"translations,omitempty"`
}

// Name implements the annotation interface.
func (Annotation) Name() string { return AnnotationName }

// EntityAnnotation holds the site metadata of an entity declaration.
type EntityAnnotation struct {
	// LinkTable marks the entity as a many-to-many link table.
	LinkTable bool `json:"is_link_table,omitempty"`
	// Translations are literal per-locale display names.
	Translations map[string]string `json:"translations,omitempty"`
}

// Name implements the annotation interface.
func (EntityAnnotation) Name() string { return AnnotationName }

// Annotate extracts the site annotation from a decoded annotations block.
// A missing or malformed block yields the zero annotation.
func Annotate(annotations map[string]any) *Annotation {
	ant := &Annotation{}
	decode(annotations, ant)
	return ant
}

// AnnotateEntity extracts the entity-level site annotation.
func AnnotateEntity(annotations map[string]any) *EntityAnnotation {
	ant := &EntityAnnotation{}
	decode(annotations, ant)
	return ant
}

func decode(annotations map[string]any, v any) {
	if annotations == nil || annotations[AnnotationName] == nil {
		return
	}
	if buf, err := json.Marshal(annotations[AnnotationName]); err == nil {
		_ = json.Unmarshal(buf, v)
	}
}
