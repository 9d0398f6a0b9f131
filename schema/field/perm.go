package field

import "strings"

// Perm is the set of operations a generated API allows on a field.
type Perm uint8

// Permission bits.
const (
	Read Perm = 1 << iota
	Create
	Update

	// AllPerms is the default permission set of a declared field.
	AllPerms = Read | Create | Update
)

// DefaultPerms is the textual default used when no permissions are declared.
const DefaultPerms = "read,create,update"

// Has reports whether p contains every bit of q.
func (p Perm) Has(q Perm) bool { return p&q == q }

// String returns the comma separated word form, e.g. "read,update".
func (p Perm) String() string {
	var words []string
	if p.Has(Read) {
		words = append(words, "read")
	}
	if p.Has(Create) {
		words = append(words, "create")
	}
	if p.Has(Update) {
		words = append(words, "update")
	}
	return strings.Join(words, ",")
}

// Short returns the compact letter form, e.g. "rcu".
func (p Perm) Short() string {
	var b strings.Builder
	if p.Has(Read) {
		b.WriteByte('r')
	}
	if p.Has(Create) {
		b.WriteByte('c')
	}
	if p.Has(Update) {
		b.WriteByte('u')
	}
	return b.String()
}

// ParsePerm parses a permission declaration. Both the word form
// ("read,create,update") and the compact letter form ("rcu") are accepted.
// An empty string yields no permissions, which hides the field entirely.
// Unknown words are ignored.
func ParsePerm(s string) Perm {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if !strings.ContainsAny(s, ", ") && strings.Trim(s, "rcu") == "" {
		var p Perm
		for _, c := range s {
			switch c {
			case 'r':
				p |= Read
			case 'c':
				p |= Create
			case 'u':
				p |= Update
			}
		}
		return p
	}
	var p Perm
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		switch w {
		case "read", "r":
			p |= Read
		case "create", "c":
			p |= Create
		case "update", "u":
			p |= Update
		}
	}
	return p
}
