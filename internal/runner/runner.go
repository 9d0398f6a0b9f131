// Package runner launches the development processes of a generated site
// side by side.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Components that can be run.
const (
	Backend  = "backend"
	Frontend = "frontend"
	All      = "all"
)

// waitDelay bounds the wait for the output of a killed process tree.
const waitDelay = 2 * time.Second

// Install commands of the components.
var (
	goModTidy  = []string{"go", "mod", "tidy"}
	npmInstall = []string{"npm", "install"}
)

// errExited cancels the siblings of a process that exited cleanly.
var errExited = errors.New("runner: process exited")

// A Process is one development process of the site.
type Process struct {
	Name string
	Dir  string
	// Setup commands run in order before Command, e.g. "npm install".
	Setup   [][]string
	Command []string
	Env     []string
}

// Plan returns the processes of a component of the project at root. The
// backend gets env on top of the current environment.
func Plan(root, component string, env []string) ([]Process, error) {
	backend := Process{
		Name:    Backend,
		Dir:     filepath.Join(root, "backend"),
		Command: []string{"go", "run", "."},
		Env:     env,
	}
	if _, err := os.Stat(filepath.Join(backend.Dir, "go.sum")); os.IsNotExist(err) {
		backend.Setup = append(backend.Setup, goModTidy)
	}
	frontend := Process{
		Name:    Frontend,
		Dir:     filepath.Join(root, "frontend"),
		Command: []string{"npm", "run", "dev"},
	}
	if _, err := os.Stat(filepath.Join(frontend.Dir, "node_modules")); os.IsNotExist(err) {
		frontend.Setup = append(frontend.Setup, npmInstall)
	}
	var procs []Process
	switch component {
	case Backend:
		procs = []Process{backend}
	case Frontend:
		procs = []Process{frontend}
	case All, "":
		procs = []Process{backend, frontend}
	default:
		return nil, fmt.Errorf("unknown component %q; use backend, frontend or all", component)
	}
	for _, p := range procs {
		if info, err := os.Stat(p.Dir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%s directory not found at %s; run sitegen sync first", p.Name, p.Dir)
		}
	}
	return procs, nil
}

// Runner runs processes until the first one exits or the context is done.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Command builds the command of a process. Nil means exec.CommandContext.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd

	mu sync.Mutex
}

// Run starts every process and waits for them. The first process to exit,
// cleanly or not, stops the others; Run returns its error.
func (r *Runner) Run(ctx context.Context, procs ...Process) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, p := range procs {
		eg.Go(func() error {
			if err := r.run(ctx, p); err != nil {
				return err
			}
			r.logger().Info("exited", "component", p.Name)
			return errExited
		})
	}
	if err := eg.Wait(); !errors.Is(err, errExited) {
		return err
	}
	return nil
}

// Install returns the dependency installation of the project at root: "go
// mod tidy" for a backend with a go.mod and "npm install" for a frontend
// with a package.json.
func Install(root string) []Process {
	var procs []Process
	for _, c := range []struct {
		name, manifest string
		command        []string
	}{
		{Backend, "go.mod", goModTidy},
		{Frontend, "package.json", npmInstall},
	} {
		dir := filepath.Join(root, c.name)
		if _, err := os.Stat(filepath.Join(dir, c.manifest)); err != nil {
			continue
		}
		procs = append(procs, Process{Name: c.name, Dir: dir, Command: c.command})
	}
	return procs
}

func (r *Runner) run(ctx context.Context, p Process) error {
	stdout := r.prefixed(r.Stdout, os.Stdout, p.Name)
	stderr := r.prefixed(r.Stderr, os.Stderr, p.Name)
	defer stdout.Flush()
	defer stderr.Flush()
	steps := append(slices.Clone(p.Setup), p.Command)
	for _, args := range steps {
		r.logger().Info("starting", "component", p.Name, "command", args)
		cmd := r.command(ctx, args[0], args[1:]...)
		cmd.Dir = p.Dir
		cmd.Env = append(os.Environ(), p.Env...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.WaitDelay = waitDelay
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %v: %w", p.Name, args, err)
		}
	}
	return nil
}

func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	if r.Command != nil {
		return r.Command(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) prefixed(w, def io.Writer, name string) *prefixWriter {
	if w == nil {
		w = def
	}
	return &prefixWriter{mu: &r.mu, w: w, prefix: []byte("[" + name + "] ")}
}

// prefixWriter writes complete lines prefixed with the process name. Lines
// of concurrent processes never interleave.
type prefixWriter struct {
	mu     *sync.Mutex
	w      io.Writer
	prefix []byte
	buf    []byte
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		if err := p.emit(p.buf[:i+1]); err != nil {
			return 0, err
		}
		p.buf = p.buf[i+1:]
	}
}

// Flush writes the pending partial line.
func (p *prefixWriter) Flush() {
	if len(p.buf) > 0 {
		_ = p.emit(append(p.buf, '\n'))
		p.buf = nil
	}
}

func (p *prefixWriter) emit(line []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(p.prefix); err != nil {
		return err
	}
	_, err := p.w.Write(line)
	return err
}
