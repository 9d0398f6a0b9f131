package gen

import "strconv"

// resolve runs the cross-reference passes over the complete registry.
// Relation synthesis reads the label fields set by the foreign-key pass,
// so the first pass must complete before the second starts.
func (g *Graph) resolve() {
	g.resolveForeignKeys()
	g.synthesizeRelations()
}

// resolveForeignKeys points every reference whose guessed target exists at
// the target search field. References to unknown entities keep their
// fallback label guess.
func (g *Graph) resolveForeignKeys() {
	for _, t := range g.Nodes {
		for _, f := range t.ForeignKeys {
			ref := f.FK
			target, ok := g.nodes[ref.Target]
			if !ok {
				g.logger().Debug("foreign key left unresolved",
					"entity", t.Name,
					"field", f.Name,
					"target", ref.Target,
				)
				continue
			}
			ref.Type = target
			ref.Resolved = true
			ref.LabelField = target.SearchField
			ref.TargetFields = target.PresentableFields()
		}
	}
}

// synthesizeRelations walks the link tables and adds a virtual relation to
// the entity referenced by the first foreign key of each. Link tables need
// exactly two resolved foreign keys; others produce no relation.
func (g *Graph) synthesizeRelations() {
	for _, link := range g.Nodes {
		if !link.LinkTable {
			continue
		}
		if n := len(link.ForeignKeys); n != 2 {
			g.logger().Debug("link table ignored", "error", &RelationError{
				Link:    link.Name,
				Message: "expected 2 foreign keys, got " + strconv.Itoa(n),
			})
			continue
		}
		src, dst := link.ForeignKeys[0], link.ForeignKeys[1]
		if !src.FK.Resolved || !dst.FK.Resolved {
			g.logger().Debug("link table ignored", "error", &RelationError{
				From:    src.FK.Target,
				To:      dst.FK.Target,
				Link:    link.Name,
				Message: "foreign key target is not registered",
			})
			continue
		}
		source, target := src.FK.Type, dst.FK.Type
		rel := &Relation{
			Name:       target.LowerName() + "_ids",
			Target:     target,
			LabelField: dst.FK.LabelField,
			Link:       link,
			LinkModule: link.Module,
			SourceKey:  src.Name,
			TargetKey:  dst.Name,
		}
		if _, dup := source.Relation(rel.Name); dup {
			g.logger().Debug("duplicate relation ignored", "error", &RelationError{
				From:    source.Name,
				To:      target.Name,
				Link:    link.Name,
				Message: "relation " + rel.Name + " already defined",
			})
			continue
		}
		if _, clash := source.Field(rel.Name); clash {
			g.logger().Debug("relation shadows a field", "error", &RelationError{
				From:    source.Name,
				To:      target.Name,
				Link:    link.Name,
				Message: "field " + rel.Name + " already declared",
			})
			continue
		}
		source.Relations = append(source.Relations, rel)
		g.logger().Debug("relation synthesized",
			"entity", source.Name,
			"relation", rel.Name,
			"target", target.Name,
			"link", link.Name,
		)
	}
}
