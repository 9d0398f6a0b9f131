package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sitegen/internal/config"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// execute runs the sitegen command line and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// recordCommands replaces the external commands with "true" and returns
// the list of started command lines.
func recordCommands(t *testing.T) func() []string {
	t.Helper()
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true is not available")
	}
	var (
		mu    sync.Mutex
		calls []string
	)
	prev := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, strings.Join(append([]string{name}, args...), " "))
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { commandContext = prev })
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), calls...)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "sitegen "+Version+"\n", out)
}

func TestCreate(t *testing.T) {
	root := t.TempDir()
	out, err := execute(t, "-C", root, "create", "shop", "--locales", "en,fr")
	require.NoError(t, err)
	assert.Contains(t, out, "Created shop")
	assert.Contains(t, out, "Synced")
	assert.Contains(t, out, "Next steps:")

	dir := filepath.Join(root, "shop")
	for _, path := range []string{
		config.FileName,
		"models/user.yaml",
		"backend/main.go",
		"backend/internal/crud/user.go",
		"backend/migrations/schema.sql",
		"frontend/src/locales/fr.json",
	} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(path)))
	}

	_, err = execute(t, "-C", root, "create", "shop")
	assert.ErrorContains(t, err, "already exists")
}

func TestSync(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "-C", root, "create", "shop", "--no-sync")
	require.NoError(t, err)
	dir := filepath.Join(root, "shop")
	assert.NoFileExists(t, filepath.Join(dir, "backend", "internal", "api", "api.go"))

	out, err := execute(t, "-C", dir, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced")
	assert.FileExists(t, filepath.Join(dir, "backend", "internal", "api", "api.go"))

	t.Run("skipped declarations", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "broken.yaml"), []byte("name: Broken\nfields:\n  - name: x\n    type: str\n  - name: x\n    type: int\n"), 0o644))
		out, err := execute(t, "-C", dir, "sync")
		require.NoError(t, err)
		assert.Contains(t, out, "skipped")
	})

	t.Run("install dependencies", func(t *testing.T) {
		calls := recordCommands(t)
		out, err := execute(t, "-C", dir, "sync", "--install")
		require.NoError(t, err)
		assert.Equal(t, []string{"go mod tidy", "npm install"}, calls())
		assert.Contains(t, out, "Installed backend dependencies")
		assert.Contains(t, out, "Installed frontend dependencies")
	})

	t.Run("invalid config", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("features: [bogus]\n"), 0o644))
		_, err := execute(t, "-C", dir, "sync")
		assert.Error(t, err)
	})
}

func TestDoctor(t *testing.T) {
	t.Run("healthy project", func(t *testing.T) {
		root := t.TempDir()
		_, err := execute(t, "-C", root, "create", "shop")
		require.NoError(t, err)

		out, err := execute(t, "-C", filepath.Join(root, "shop"), "doctor")
		require.NoError(t, err)
		for _, name := range []string{"Config", "Models", "Secret key", "Database", "Site"} {
			assert.Contains(t, out, name)
		}
		assert.Contains(t, out, "does not exist yet")
	})

	t.Run("empty directory", func(t *testing.T) {
		dir := t.TempDir()
		out, err := execute(t, "-C", dir, "doctor")
		assert.EqualError(t, err, "project check failed")
		assert.Contains(t, out, "read models dir")
		assert.Contains(t, out, "secret_key is empty")
		assert.Contains(t, out, "run sitegen sync")
	})

	t.Run("quiet", func(t *testing.T) {
		out, err := execute(t, "-C", t.TempDir(), "doctor", "--quiet")
		assert.Error(t, err)
		assert.Empty(t, out)
	})
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "-C", root, "create", "shop", "--no-sync")
	require.NoError(t, err)
	dir := filepath.Join(root, "shop")

	_, err = execute(t, "-C", dir, "run", "--component", "docs")
	assert.ErrorContains(t, err, "unknown component")

	_, err = execute(t, "-C", t.TempDir(), "run")
	assert.ErrorContains(t, err, "sitegen sync")
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "-C", root, "create", "shop", "--no-sync")
	require.NoError(t, err)
	dir := filepath.Join(root, "shop")

	t.Run("images per component", func(t *testing.T) {
		calls := recordCommands(t)
		out, err := execute(t, "-C", dir, "build", "--engine", "podman", "--tag", "v1")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"podman build -t shop-backend:v1 .",
			"podman build -t shop-frontend:v1 .",
		}, calls())
		assert.Contains(t, out, "Built shop-backend:v1")
		assert.Contains(t, out, "Built shop-frontend:v1")
	})

	t.Run("single component", func(t *testing.T) {
		calls := recordCommands(t)
		_, err := execute(t, "-C", dir, "build", "-c", "backend")
		require.NoError(t, err)
		assert.Equal(t, []string{"docker build -t shop-backend:latest ."}, calls())
	})

	t.Run("invalid flags", func(t *testing.T) {
		_, err := execute(t, "-C", dir, "build", "--component", "docs")
		assert.ErrorContains(t, err, "unknown component")
		_, err = execute(t, "-C", dir, "build", "--engine", "nerdctl")
		assert.ErrorContains(t, err, "unknown engine")
	})

	t.Run("missing dockerfile", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "frontend", "Dockerfile")))
		_, err := execute(t, "-C", dir, "build", "-c", "frontend")
		assert.ErrorContains(t, err, "Dockerfile not found")
	})
}

func TestCompose(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, "-C", root, "create", "shop", "--no-sync")
	require.NoError(t, err)
	dir := filepath.Join(root, "shop")

	_, err = execute(t, "-C", dir, "compose", "up")
	assert.ErrorContains(t, err, "docker-compose.yml not found")

	p, err := config.Load(dir)
	require.NoError(t, err)
	p.Features = append(p.Features, "compose")
	require.NoError(t, config.Write(p))
	_, err = execute(t, "-C", dir, "sync")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "docker-compose.yml"))

	calls := recordCommands(t)
	out, err := execute(t, "-C", dir, "compose", "up", "-d")
	require.NoError(t, err)
	assert.Contains(t, out, "Running docker compose up -d")

	_, err = execute(t, "-C", dir, "compose", "--engine", "podman", "logs", "-f", "backend")
	require.NoError(t, err)
	_, err = execute(t, "-C", dir, "compose")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"docker compose up -d",
		"podman-compose logs -f backend",
		"docker compose --help",
	}, calls())

	_, err = execute(t, "-C", dir, "compose", "--engine", "nerdctl", "ps")
	assert.ErrorContains(t, err, "unknown engine")
}
