package gen

import (
	"context"
	"time"

	"github.com/syssam/sitegen/compiler/load"
)

// Report summarizes a generation run.
type Report struct {
	// Files are the written paths relative to Config.Target, in emission
	// order: per-entity artifacts first, then aggregate artifacts.
	Files []string
	// Skipped are the declarations left out of the registry.
	Skipped []*SchemaError
	// Metrics of the template writer.
	Metrics WriterMetrics
	// Duration of the emission phases.
	Duration time.Duration
}

// Generate writes the artifacts of every non-link entity of g, then the
// aggregate artifacts, under g.Target. Outputs of disabled features left by
// previous runs are removed. The first write failure stops the run and is
// returned as a *GenerationError.
func Generate(ctx context.Context, g *Graph) (*Report, error) {
	if g == nil || g.Config == nil {
		return nil, NewConfigError("Config", nil, "graph has no config")
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	w := NewTemplateWriter(g, templates, g.Target)
	if err := w.GenerateAll(ctx); err != nil {
		return nil, err
	}
	if err := cleanup(g.Config); err != nil {
		return nil, err
	}
	r := &Report{
		Files:    w.Files(),
		Skipped:  g.Skipped,
		Metrics:  *w.Metrics(),
		Duration: time.Since(start),
	}
	g.logger().Info("generation finished",
		"target", g.Target,
		"entities", len(g.Entities()),
		"files", len(r.Files),
		"skipped", len(r.Skipped),
		"duration", r.Duration,
	)
	return r, nil
}

// Run loads the declarations of src, builds the registry and generates it
// with the config built from opts.
func Run(ctx context.Context, src load.Source, opts ...Option) (*Report, error) {
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g, err := LoadGraph(c, src)
	if err != nil {
		return nil, err
	}
	return Generate(ctx, g)
}

// cleanup removes the outputs of the features disabled in c.
func cleanup(c *Config) error {
	for _, f := range AllFeatures {
		if f.cleanup == nil {
			continue
		}
		if enabled, _ := c.FeatureEnabled(f.Name); enabled {
			continue
		}
		if err := f.cleanup(c); err != nil {
			return NewGenerationError("feature", f.Name, "cleanup disabled feature", err)
		}
	}
	return nil
}
