package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	// ErrInvalidSchema matches a declaration left out of the registry.
	ErrInvalidSchema = errors.New("sitegen: invalid schema")
	// ErrMissingConfig matches a rejected generator option.
	ErrMissingConfig = errors.New("sitegen: missing configuration")
	// ErrUnresolvedRelation matches a link table that yields no relation.
	ErrUnresolvedRelation = errors.New("sitegen: unresolved relation")
	// ErrGenerationFailed matches an artifact that could not be rendered or written.
	ErrGenerationFailed = errors.New("sitegen: code generation failed")
)

// errorText formats "sitegen: <subject>: <message>: <cause>", leaving out
// the empty parts.
func errorText(subject, message string, cause error) string {
	parts := []string{"sitegen: " + subject}
	if message != "" {
		parts = append(parts, message)
	}
	if cause != nil {
		parts = append(parts, cause.Error())
	}
	return strings.Join(parts, ": ")
}

// SchemaError reports a declaration left out of the registry. The rest of
// the registry is still generated; the error is listed on Graph.Skipped.
type SchemaError struct {
	Type    string // entity name, empty when the declaration has none
	Module  string // source module
	Field   string // offending field, if any
	Message string
	Cause   error
}

// Error implements the error interface, e.g.
// "sitegen: entity Product.price (module catalog): field declared twice".
func (e *SchemaError) Error() string {
	subject := "entity"
	switch {
	case e.Type != "" && e.Field != "":
		subject += " " + e.Type + "." + e.Field
	case e.Type != "":
		subject += " " + e.Type
	case e.Field != "":
		subject += " field " + e.Field
	}
	if e.Module != "" {
		subject += " (module " + e.Module + ")"
	}
	return errorText(subject, e.Message, e.Cause)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }

// ConfigError reports a generator option that cannot be applied.
type ConfigError struct {
	Option  string // Config field, e.g. "Locales"
	Value   any    // rejected value, nil when missing
	Message string
}

func (e *ConfigError) Error() string {
	subject := "option " + e.Option
	if e.Value != nil {
		subject += fmt.Sprintf(" = %q", fmt.Sprint(e.Value))
	}
	return errorText(subject, e.Message, nil)
}

func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// NewConfigError returns a ConfigError for option.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// RelationError describes a link table that yields no virtual relation. It
// is only logged.
type RelationError struct {
	From    string // owning entity
	To      string // target entity
	Link    string // link table
	Message string
}

func (e *RelationError) Error() string {
	subject := "link table " + e.Link
	if e.From != "" && e.To != "" {
		subject += " (" + e.From + " -> " + e.To + ")"
	}
	return errorText(subject, e.Message, nil)
}

func (e *RelationError) Is(target error) bool { return target == ErrUnresolvedRelation }

// GenerationError reports an artifact that could not be rendered or
// written. It stops the run.
type GenerationError struct {
	Phase   string // "entity", "aggregate" or "feature"
	File    string // output path or template, if known
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	subject := e.Phase + " artifact"
	if e.File != "" {
		subject += " " + e.File
	}
	return errorText(subject, e.Message, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// NewGenerationError returns a GenerationError of phase.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, File: file, Message: message, Cause: cause}
}

// IsSchemaError reports if err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsConfigError reports if err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsRelationError reports if err wraps a *RelationError.
func IsRelationError(err error) bool {
	var target *RelationError
	return errors.As(err, &target)
}

// IsGenerationError reports if err wraps a *GenerationError.
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
