package gen

import (
	"encoding/json"
	"go/token"
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// acronyms are rendered upper-case in Go identifiers.
var acronyms = map[string]string{
	"id":   "ID",
	"ids":  "IDs",
	"url":  "URL",
	"uri":  "URI",
	"api":  "API",
	"http": "HTTP",
	"uuid": "UUID",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"html": "HTML",
}

// pascal converts a snake_case or camelCase name to a Go exported
// identifier, e.g. "category_id" => "CategoryID".
func pascal(s string) string {
	words := strings.Split(inflect.Underscore(s), "_")
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		if a, ok := acronyms[w]; ok {
			b.WriteString(a)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// camel converts a name to lowerCamelCase, e.g. "category_id" => "categoryId".
func camel(s string) string {
	return inflect.CamelizeDownFirst(inflect.Underscore(s))
}

// snake converts a name to snake_case, e.g. "ProductTag" => "product_tag".
func snake(s string) string {
	return inflect.Underscore(s)
}

// receiver returns a variable name that is safe to use in generated code.
func receiver(s string) string {
	r := strings.ToLower(s[:1])
	if token.Lookup(r).IsKeyword() {
		return "_" + r
	}
	return r
}

// autoLabel derives a display label from a name: underscores become spaces
// and every word is capitalized, e.g. "full_name" => "Full Name".
func autoLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// translation looks a locale up in a translation table. An exact match wins
// over a match of the base language ("zh-Hans" falls back to "zh").
func translation(m map[string]string, locale string) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	if s, ok := m[locale]; ok && s != "" {
		return s, true
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	if s, ok := m[base.String()]; ok && s != "" {
		return s, true
	}
	return "", false
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	buf, _ := json.Marshal(s)
	return string(buf)
}
