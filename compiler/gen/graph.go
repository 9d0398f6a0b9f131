package gen

import (
	"github.com/syssam/sitegen/compiler/load"
)

// Graph is the model registry of one pipeline run: every entity descriptor
// in declaration order, resolved against each other. It is built by
// NewGraph and read-only afterwards.
type Graph struct {
	*Config
	// Nodes are the entity descriptors, link tables included.
	Nodes []*Type
	// Skipped holds the declarations left out of the registry.
	Skipped []*SchemaError

	nodes map[string]*Type
}

// NewGraph builds the registry from the given declarations and resolves
// cross references. A declaration that cannot be turned into a descriptor
// is logged and skipped; only a missing config is an error.
func NewGraph(c *Config, schemas ...*load.Schema) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	c.defaults()
	g := &Graph{Config: c, nodes: make(map[string]*Type, len(schemas))}
	for _, s := range schemas {
		g.addNode(s)
	}
	g.resolve()
	return g, nil
}

// LoadGraph loads the declarations of src and builds the registry. Load
// failures of single declarations are reported on Graph.Skipped.
func LoadGraph(c *Config, src load.Source) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	r, err := src.Load()
	if err != nil {
		return nil, err
	}
	g, err := NewGraph(c, r.Schemas...)
	if err != nil {
		return nil, err
	}
	for _, le := range r.Errors {
		g.skip(&SchemaError{Type: le.Entity, Module: le.Module, Message: "load failed", Cause: le.Cause})
	}
	return g, nil
}

func (g *Graph) addNode(s *load.Schema) {
	if _, ok := g.nodes[s.Name]; ok {
		g.skip(&SchemaError{Type: s.Name, Module: s.Module, Message: "entity declared twice"})
		return
	}
	t, err := NewType(g.Config, s)
	if err != nil {
		se, ok := err.(*SchemaError)
		if !ok {
			se = &SchemaError{Type: s.Name, Module: s.Module, Cause: err}
		}
		g.skip(se)
		return
	}
	g.nodes[t.Name] = t
	g.Nodes = append(g.Nodes, t)
	g.logger().Debug("entity registered",
		"entity", t.Name,
		"module", t.Module,
		"fields", len(t.Fields),
		"link_table", t.LinkTable,
		"search_field", t.SearchField,
	)
}

func (g *Graph) skip(err *SchemaError) {
	g.Skipped = append(g.Skipped, err)
	g.logger().Warn("entity skipped",
		"entity", err.Type,
		"module", err.Module,
		"error", err,
	)
}

// Type returns the descriptor of the named entity.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.nodes[name]
	return t, ok
}

// Entities returns the non-link entities in registry order. These are the
// entities emitted as artifacts, routes and menu entries.
func (g *Graph) Entities() []*Type {
	var ts []*Type
	for _, t := range g.Nodes {
		if !t.LinkTable {
			ts = append(ts, t)
		}
	}
	return ts
}

// LinkTables returns the link-table entities in registry order.
func (g *Graph) LinkTables() []*Type {
	var ts []*Type
	for _, t := range g.Nodes {
		if t.LinkTable {
			ts = append(ts, t)
		}
	}
	return ts
}

// Identity returns the identity entity, nil if it is not declared or is a
// link table.
func (g *Graph) Identity() *Type {
	if t, ok := g.nodes[g.IdentityEntity]; ok && !t.LinkTable {
		return t
	}
	return nil
}
