package field

import "strings"

// A Type is the semantic type of a declared attribute. Every declared
// type resolves to exactly one of the five, with TypeString as fallback.
type Type uint8

// List of semantic field types.
const (
	TypeString Type = iota
	TypeInt
	TypeBool
	TypeFloat
	TypeTime
	endTypes
)

var typeNames = [...]string{
	TypeString: "string",
	TypeInt:    "integer",
	TypeBool:   "boolean",
	TypeFloat:  "float",
	TypeTime:   "timestamp",
}

// String returns the semantic name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return "invalid"
}

// Valid reports if the given type is one of the known semantic types.
func (t Type) Valid() bool {
	return t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// classifiers are checked in priority order against the lower-cased textual
// form of a declared type. The first substring hit wins.
var classifiers = []struct {
	typ   Type
	hints []string
}{
	{TypeInt, []string{"int"}},
	{TypeString, []string{"str"}},
	{TypeBool, []string{"bool"}},
	{TypeFloat, []string{"float", "double", "decimal", "real"}},
	{TypeTime, []string{"datetime", "timestamp", "date", "time"}},
}

// Classify resolves the textual form of a declared type (for example "int",
// "Optional[str]", "datetime" or "float64") to its semantic type. Types that
// cannot be classified fall back to TypeString.
func Classify(declared string) Type {
	s := strings.ToLower(declared)
	for _, c := range classifiers {
		for _, h := range c.hints {
			if strings.Contains(s, h) {
				return c.typ
			}
		}
	}
	return TypeString
}

// GoType returns the Go type used by the generated backend for this type.
// Optional values are rendered as pointers.
func (t Type) GoType(optional bool) string {
	var s string
	switch t {
	case TypeInt:
		s = "int64"
	case TypeBool:
		s = "bool"
	case TypeFloat:
		s = "float64"
	case TypeTime:
		s = "time.Time"
	default:
		s = "string"
	}
	if optional {
		return "*" + s
	}
	return s
}

// TSType returns the TypeScript type used by the generated client.
// Timestamps travel as ISO-8601 strings.
func (t Type) TSType() string {
	switch t {
	case TypeInt, TypeFloat:
		return "number"
	case TypeBool:
		return "boolean"
	default:
		return "string"
	}
}

// GraphQL returns the GraphQL scalar name of the type.
func (t Type) GraphQL() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeBool:
		return "Boolean"
	case TypeFloat:
		return "Float"
	default:
		return "String"
	}
}

// A UIHint tells the generated client how to render a string attribute.
type UIHint uint8

// List of UI hints.
const (
	HintPlain UIHint = iota
	HintImage
	HintFile
)

// String returns the hint name as used in annotations.
func (h UIHint) String() string {
	switch h {
	case HintImage:
		return "image"
	case HintFile:
		return "file"
	default:
		return "plain"
	}
}

// ParseUIHint parses an annotation value. The second return value reports
// whether s named a known hint.
func ParseUIHint(s string) (UIHint, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "img", "picture":
		return HintImage, true
	case "file", "attachment":
		return HintFile, true
	case "plain", "text", "":
		return HintPlain, s != ""
	default:
		return HintPlain, false
	}
}
