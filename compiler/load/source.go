package load

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Source yields the entity declarations consumed by the generator.
type Source interface {
	Load() (*Result, error)
}

// Result of loading a Source. Failed declarations are reported in Errors
// and are absent from Schemas.
type Result struct {
	Schemas []*Schema
	Errors  []*LoadError
}

// Names returns the names of the loaded schemas in load order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Schemas))
	for _, s := range r.Schemas {
		names = append(names, s.Name)
	}
	return names
}

// Schemas is a literal declaration list used as a Source.
type Schemas []*Schema

// Load implements Source. Declarations failing the structural checks are
// reported and skipped.
func (s Schemas) Load() (*Result, error) {
	r := &Result{}
	for _, sc := range s {
		if sc == nil {
			continue
		}
		r.add(sc.Module, sc)
	}
	return r, nil
}

// Declarer builds a declaration in code. A Declarer that panics is
// reported as a load failure of its module.
type Declarer func() *Schema

// Declarers is a Source of declarations built in code.
type Declarers []Declarer

// Load implements Source.
func (d Declarers) Load() (*Result, error) {
	r := &Result{}
	for i, fn := range d {
		sc, err := safeDeclare(fn)
		if err != nil {
			r.Errors = append(r.Errors, &LoadError{Module: fmt.Sprintf("declarer#%d", i), Cause: err})
			continue
		}
		r.add(sc.Module, sc)
	}
	return r, nil
}

func safeDeclare(fn Declarer) (s *Schema, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("declaration panicked: %v", v)
		}
	}()
	if s = fn(); s == nil {
		return nil, fmt.Errorf("declaration returned nil")
	}
	return s, nil
}

// Dir loads every YAML file of a directory. Each file is one source module
// named after its file stem, holding a list of entities:
//
//	entities:
//	  - name: Category
//	    fields:
//	      - name: id
//	        type: int
//	      - name: name
//	        type: str
type Dir string

// Load implements Source. Files are read in lexical order so that the
// declaration order, and therefore the generated output, is stable.
func (d Dir) Load() (*Result, error) {
	entries, err := os.ReadDir(string(d))
	if err != nil {
		return nil, fmt.Errorf("read models dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	r := &Result{}
	for _, name := range files {
		module := strings.TrimSuffix(name, filepath.Ext(name))
		buf, err := os.ReadFile(filepath.Join(string(d), name))
		if err != nil {
			r.Errors = append(r.Errors, &LoadError{Module: module, Cause: err})
			continue
		}
		r.loadModule(module, buf)
	}
	return r, nil
}

// File loads a single YAML module.
func File(path string) (*Result, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	r := &Result{}
	r.loadModule(strings.TrimSuffix(base, filepath.Ext(base)), buf)
	return r, nil
}

// loadModule decodes every entity node of a module independently, so one
// malformed entity does not hide its siblings.
func (r *Result) loadModule(module string, buf []byte) {
	if len(bytes.TrimSpace(buf)) == 0 {
		return
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		r.Errors = append(r.Errors, &LoadError{Module: module, Cause: err})
		return
	}
	nodes, err := entityNodes(&doc)
	if err != nil {
		r.Errors = append(r.Errors, &LoadError{Module: module, Cause: err})
		return
	}
	for _, n := range nodes {
		s := &Schema{}
		if err := n.Decode(s); err != nil {
			r.Errors = append(r.Errors, &LoadError{Module: module, Entity: nodeName(n), Cause: err})
			continue
		}
		s.Pos = fmt.Sprintf("%s:%d", module, n.Line)
		r.add(module, s)
	}
}

func (r *Result) add(module string, s *Schema) {
	if s.Module == "" {
		s.Module = module
	}
	if err := s.validate(); err != nil {
		r.Errors = append(r.Errors, &LoadError{Module: s.Module, Entity: s.Name, Cause: err})
		return
	}
	r.Schemas = append(r.Schemas, s)
}

// entityNodes returns the entity mapping nodes of a module document. A
// document is either a mapping with an "entities" sequence, or a single
// entity mapping.
func entityNodes(doc *yaml.Node) ([]*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping, got %s", root.Line, kindName(root.Kind))
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "entities" {
			continue
		}
		list := root.Content[i+1]
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: entities must be a list", list.Line)
		}
		return list.Content, nil
	}
	return []*yaml.Node{root}, nil
}

// nodeName returns the value of the "name" key of a mapping node, if any.
func nodeName(n *yaml.Node) string {
	if n.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "name" {
			return n.Content[i+1].Value
		}
	}
	return ""
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}
