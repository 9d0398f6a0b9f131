// Package gen turns entity declarations into the source tree of an admin
// site: a Go REST backend and a React client.
//
// # Architecture
//
// The pipeline runs strictly in order:
//
//	load.Source (entity declarations)
//	        ↓
//	   NewGraph: Field and Type descriptors, entity registry
//	        ↓
//	   resolve: foreign keys, then link-table relations
//	        ↓
//	   Generate: per-entity artifacts, then aggregate artifacts
//
// # Key Types
//
//   - Graph: the registry of one run, read-only once built
//   - Type: an entity with its fields, foreign keys and relations
//   - Field: a normalized attribute with permissions and UI hints
//   - Config: the run configuration, built with functional options
//
// # Error Handling
//
// Declarations that cannot be described are skipped and reported on
// Graph.Skipped as *SchemaError values. Unresolved references degrade to
// fallbacks and are only logged. Write failures stop the run with a
// *GenerationError:
//
//	report, err := gen.Generate(ctx, graph)
//	if gen.IsGenerationError(err) {
//	    // Handle output failure
//	}
//
// # Configuration
//
//	cfg, err := gen.NewConfig(
//	    gen.WithTarget("./shop"),
//	    gen.WithPackage("github.com/acme/shop/backend"),
//	    gen.WithLocales("en", "zh"),
//	    gen.WithFeatures(gen.FeatureCompose),
//	)
//
// # Generated Output
//
//	{target}/
//	├── backend/internal/schema/{entity}.go
//	├── backend/internal/crud/{entity}.go
//	├── backend/internal/service/{entity}.go
//	├── backend/internal/api/endpoints/{entity}/{entity}.go
//	├── backend/internal/api/api.go
//	├── frontend/src/services/{entity}.ts
//	├── frontend/src/stores/use{Entity}Store.ts
//	├── frontend/src/pages/{entity}/index.tsx
//	├── frontend/src/pages/{entity}/detail.tsx
//	├── frontend/src/Routes.tsx
//	├── frontend/src/Menu.tsx
//	└── frontend/src/locales/{locale}.json
package gen
