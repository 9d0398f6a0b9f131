package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/tools/imports"
)

// TemplateWriter writes the artifacts of a graph under an output directory.
// Files are rendered one at a time, in a fixed order, so two runs over the
// same graph produce byte-identical trees.
type TemplateWriter struct {
	graph  *Graph
	tmpl   *Template
	outDir string

	metrics *WriterMetrics
	files   []string
}

// WriterMetrics tracks generation performance.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
	TemplateTime   time.Duration
	FormatTime     time.Duration
	WriteTime      time.Duration
}

// NewTemplateWriter creates a new template-based writer.
func NewTemplateWriter(g *Graph, tmpl *Template, outDir string) *TemplateWriter {
	return &TemplateWriter{
		graph:   g,
		tmpl:    tmpl,
		outDir:  outDir,
		metrics: &WriterMetrics{},
	}
}

// Metrics returns the generation metrics.
func (w *TemplateWriter) Metrics() *WriterMetrics {
	return w.metrics
}

// Files returns the written paths, relative to the output directory, in
// emission order.
func (w *TemplateWriter) Files() []string {
	return w.files
}

// GenerateAll writes the artifacts of every entity and then the aggregate
// artifacts of the graph.
func (w *TemplateWriter) GenerateAll(ctx context.Context) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return NewGenerationError("entity", w.outDir, "create output directory", err)
	}
	for _, t := range w.graph.Entities() {
		if err := w.GenerateType(ctx, t); err != nil {
			return err
		}
	}
	return w.GenerateGraph(ctx)
}

// fileTask represents a single file generation task.
type fileTask struct {
	phase    string                 // emission phase, reported on errors
	name     string                 // output file path (relative to outDir)
	template string                 // template name to execute
	data     any                    // data to pass to template
	build    func() ([]byte, error) // renders the file instead of template
}

// GenerateType writes all artifacts of a single entity.
func (w *TemplateWriter) GenerateType(ctx context.Context, t *Type) error {
	tasks := make([]fileTask, 0, len(Templates))
	for _, tmpl := range Templates {
		tasks = append(tasks, fileTask{
			phase:    "entity",
			name:     tmpl.Format(t),
			template: tmpl.For(t),
			data:     t,
		})
	}
	return w.run(ctx, tasks)
}

// GenerateGraph writes the aggregate artifacts: route registry, dialect
// helpers, fixed endpoints, client routes and menu, locale tables and the
// outputs of enabled features.
func (w *TemplateWriter) GenerateGraph(ctx context.Context) error {
	var tasks []fileTask
	for _, tmpl := range graphTemplates(w.graph) {
		if tmpl.Skip != nil && tmpl.Skip(w.graph) {
			continue
		}
		task := fileTask{
			phase:    "aggregate",
			name:     tmpl.Format,
			template: tmpl.Name,
			data:     w.graph,
		}
		if strings.HasPrefix(tmpl.Name, "feature/") {
			task.phase = "feature"
		}
		if b := tmpl.Build; b != nil {
			task.build = func() ([]byte, error) { return b(w.graph) }
		}
		tasks = append(tasks, task)
	}
	return w.run(ctx, tasks)
}

// run generates the tasks in order, stopping at the first failure or when
// ctx is done.
func (w *TemplateWriter) run(ctx context.Context, tasks []fileTask) error {
	for _, f := range tasks {
		if err := ctx.Err(); err != nil {
			return NewGenerationError(f.phase, f.name, "generation canceled", err)
		}
		if err := w.generateFile(f); err != nil {
			return err
		}
	}
	return nil
}

// generateFile generates a single file.
func (w *TemplateWriter) generateFile(f fileTask) error {
	// 1. Render the content.
	start := time.Now()
	content, err := w.render(f)
	if err != nil {
		return NewGenerationError(f.phase, f.name, "render "+f.template, err)
	}
	w.metrics.TemplateTime += time.Since(start)

	// 2. Format Go sources using goimports (removes unused imports).
	fullPath := filepath.Join(w.outDir, filepath.FromSlash(f.name))
	if filepath.Ext(f.name) == ".go" {
		start = time.Now()
		formatted, err := imports.Process(fullPath, content, nil)
		if err != nil {
			// Write unformatted file for debugging (errors intentionally ignored as we're already in error state)
			debugPath := fullPath + ".error"
			_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
			_ = os.WriteFile(debugPath, content, 0o644)
			return NewGenerationError(f.phase, f.name, fmt.Sprintf("format (unformatted written to %s)", debugPath), err)
		}
		content = formatted
		w.metrics.FormatTime += time.Since(start)
	}

	// 3. Write the file, creating missing parents.
	start = time.Now()
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return NewGenerationError(f.phase, f.name, "create directory", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return NewGenerationError(f.phase, f.name, "write file", err)
	}
	w.metrics.WriteTime += time.Since(start)

	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(content))
	w.files = append(w.files, f.name)
	w.graph.logger().Debug("artifact written", "file", f.name, "bytes", len(content))
	return nil
}

func (w *TemplateWriter) render(f fileTask) ([]byte, error) {
	if f.build != nil {
		return f.build()
	}
	var buf bytes.Buffer
	if err := w.tmpl.ExecuteTemplate(&buf, f.template, f.data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
